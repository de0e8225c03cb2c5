package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/google/uuid"
)

func TestNewRun(t *testing.T) {
	now := time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)
	a := NewRun("run", now)
	b := NewRun("run", now)

	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Errorf("Expected distinct non-nil run ids, got %s and %s", a.ID, b.ID)
	}
	if a.Status != StatusRunning {
		t.Errorf("Expected status %q, got %q", StatusRunning, a.Status)
	}
	if !a.StartedAt.Equal(now) {
		t.Errorf("Expected start %v, got %v", now, a.StartedAt)
	}
}

func TestRunArgs(t *testing.T) {
	r := NewRun("comparativo", time.Now())
	args := runArgs(r)
	if len(args) != 8 {
		t.Fatalf("Expected 8 args, got %d", len(args))
	}

	finished, ok := args[4].(sql.NullTime)
	if !ok || finished.Valid {
		t.Errorf("Expected an invalid NullTime for an unfinished run, got %#v", args[4])
	}

	files, err := args[5].(driver.Valuer).Value()
	if err != nil {
		t.Fatalf("Failed to encode files: %v", err)
	}
	if files != "{}" {
		t.Errorf("Expected empty array literal, got %v", files)
	}

	r.FinishedAt = r.StartedAt.Add(time.Minute)
	finished = runArgs(r)[4].(sql.NullTime)
	if !finished.Valid || !finished.Time.Equal(r.FinishedAt) {
		t.Errorf("Expected finished time %v, got %#v", r.FinishedAt, finished)
	}
}

func TestFinalArgsMatchColumns(t *testing.T) {
	id := uuid.New()
	row := models.FinalRow{Client: "ambev", Month: 4, Budget: 10, Tracker: 5, Gap: -5}
	args := finalArgs(id, row)

	if len(args) != len(finalColumns) {
		t.Fatalf("Expected %d args, got %d", len(finalColumns), len(args))
	}
	if args[0] != id.String() || args[1] != "ambev" || args[2] != 4 {
		t.Errorf("Unexpected leading args %v", args[:3])
	}
	if args[len(args)-1] != -5.0 {
		t.Errorf("Expected gap -5 last, got %v", args[len(args)-1])
	}

	w := models.Warning{Kind: models.WarnGroupMerge, Client: "nov", Month: 4}
	if got := warningArgs(id, w); len(got) != len(warningColumns) {
		t.Errorf("Expected %d warning args, got %d", len(warningColumns), len(got))
	}
}

func TestDeleteByRun(t *testing.T) {
	expected := `DELETE FROM "final_rows" WHERE run_id = $1`
	if got := deleteByRun("final_rows"); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestClosedStore(t *testing.T) {
	p := &Postgres{}
	ctx := context.Background()

	if err := p.Migrate(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Migrate: expected ErrClosed, got %v", err)
	}
	if err := p.RecordRun(ctx, NewRun("run", time.Now())); !errors.Is(err, ErrClosed) {
		t.Errorf("RecordRun: expected ErrClosed, got %v", err)
	}
	if err := p.PublishFinal(ctx, uuid.New(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("PublishFinal: expected ErrClosed, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Close: expected ErrClosed, got %v", err)
	}
}

func TestSheetsBackToRows(t *testing.T) {
	rows := []models.FinalRow{{
		Client: "ambev", Month: 4, Budget: 10, Importacao: 4, Exportacao: 2, Cabotagem: 0,
		Tracker: 5, Opportunities: 6, Utilization: 83.33, Realization: 50, Deviation: -40,
		DailyTarget: 0.33, AccumTarget: 3.33, Gap: -1.67,
	}}
	got, err := report.FinalRowsFromTable(tableOf(report.FinalSheet(rows)))
	if err != nil {
		t.Fatalf("FinalRowsFromTable failed: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("Expected %+v, got %+v", rows, got)
	}

	warnings := []models.Warning{
		{Kind: models.WarnGroupMerge, Client: "nov", Month: 4, Sources: []string{"nov a", "nov b"}, Detail: "2 clientes"},
		{Kind: models.WarnNoMonth, Detail: "linha 7"},
		{Kind: models.WarnMergedNames, Client: "acme", Month: 5, Sources: []string{"acme; filial", "acme"}, Detail: "2 nomes"},
	}
	back := warningsOf(report.WarningSheet(report.FinalAlertSheet, warnings))
	if !reflect.DeepEqual(back, warnings) {
		t.Errorf("Expected %+v, got %+v", warnings, back)
	}
}

func TestTableOfNilCells(t *testing.T) {
	sd := sheet.SheetData{Name: "x", Header: []string{"a", "b"}, Rows: [][]any{{nil, 1}}}
	tbl := tableOf(sd)
	if tbl.Get(tbl.Rows[0], "a") != "" || tbl.Get(tbl.Rows[0], "b") != "1" {
		t.Errorf("Unexpected row %v", tbl.Rows[0])
	}
}
