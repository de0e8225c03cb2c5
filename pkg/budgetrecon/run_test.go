package budgetrecon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/notify"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/rs/zerolog"
)

type tableSource struct {
	table *sheet.Table
	err   error
}

func (s tableSource) Name() string { return "memory" }

func (s tableSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	return s.table, s.err
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }

func (failingSink) Publish(ctx context.Context, a source.Artifact) error {
	return errors.New("quota exceeded")
}

func table(name string, header []string, rows ...[]string) *sheet.Table {
	t := sheet.NewTable(name, header)
	for _, r := range rows {
		t.AppendRow(r)
	}
	return t
}

func budgetTable() *sheet.Table {
	return table("Budget", []string{"CLIENTE (BUDGET)", "MÊS", "BUDGET"},
		[]string{"Ambev S.A.", "4", "10"},
		[]string{"Vale", "4", "20"},
	)
}

func logcomexTable() *sheet.Table {
	return table("LogComex", []string{"Categoria", "ANO/MÊS", "NOME IMPORTADOR", "C20", "C40"},
		[]string{"Importação", "202504", "AMBEV SA", "2", "1"},
		[]string{"Exportação", "2025-04", "Vale S/A, VALE", "3", ""},
	)
}

func trackerTable() *sheet.Table {
	return table("Planilha1", []string{"cliente", "Empresa", "TipoAtendimento", "tiponotafiscal", "Status", "DataEmissao"},
		[]string{"AMBEV S/A", "IRB MATRIZ", "ATENDIMENTO", "Nota Fiscal", "autorizado", "10/04/2025"},
		[]string{"Ambev", "IRB MATRIZ", "ATENDIMENTO", "Nota Fiscal", "autorizado", "11/04/2025"},
		[]string{"Vale", "IRB MATRIZ", "ATENDIMENTO", "", "autorizado", "15/04/2025"},
		[]string{"Vale", "IRB MATRIZ", "ATENDIMENTO", "", "cancelado", "15/04/2025"},
	)
}

func testOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.Canonicalizer = canon.New(canon.NewKeywordSet([]string{"Ambev", "Vale"}), canon.NewAliasTable(nil))
	opts.Groups = nil
	opts.Year = 2025
	opts.Budget = tableSource{table: budgetTable()}
	opts.LogComex = tableSource{table: logcomexTable()}
	opts.Tracker = tableSource{table: trackerTable()}
	opts.OutputDir = t.TempDir()
	opts.Now = func() time.Time { return time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC) }
	opts.Logger = zerolog.Nop()
	return opts
}

func TestRun(t *testing.T) {
	opts := testOptions(t)
	published := t.TempDir()
	opts.Sinks = []source.Sink{source.DirSink{Dir: published}}

	res, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Done) != 2 || len(res.Failed) != 0 {
		t.Errorf("Expected two done steps, got done %v failed %v", res.Done, res.Failed)
	}
	if !res.PublishOK || len(res.Published) != 4 {
		t.Errorf("Expected 4 published files, got %v (ok=%v)", res.Published, res.PublishOK)
	}
	if res.Status().Outcome() != notify.Success {
		t.Errorf("Expected a successful outcome, got %d", res.Status().Outcome())
	}

	for _, name := range []string{ComparisonFile, TrackerCountFile, FinalFile, ClientIndexFile} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(published, name)); err != nil {
			t.Errorf("Expected %s to be published: %v", name, err)
		}
	}

	if len(res.Comparison) != 2 {
		t.Fatalf("Expected 2 comparison rows, got %+v", res.Comparison)
	}
	ambev := res.Comparison[0]
	if ambev.Client != "ambev" || ambev.Budget != 10 || ambev.Importacao != 3 {
		t.Errorf("Unexpected ambev comparison %+v", ambev)
	}
	if vale := res.Comparison[1]; vale.Exportacao != 3 {
		t.Errorf("Expected the Vale shipment counted once with 3 containers, got %+v", vale)
	}

	finalTable, err := sheet.ReadXLSX(filepath.Join(opts.OutputDir, FinalFile), report.FinalSheetName)
	if err != nil {
		t.Fatalf("Failed to read final file: %v", err)
	}
	final, err := report.FinalRowsFromTable(finalTable)
	if err != nil {
		t.Fatalf("FinalRowsFromTable failed: %v", err)
	}
	if len(final) != 2 {
		t.Fatalf("Expected 2 final rows, got %+v", final)
	}
	if final[0].Tracker != 2 || final[0].Utilization != 66.67 || final[0].Realization != 20 {
		t.Errorf("Unexpected ambev final row %+v", final[0])
	}
	if final[1].Tracker != 1 || final[1].Realization != 5 {
		t.Errorf("Unexpected vale final row %+v", final[1])
	}

	idx, err := report.LoadClientIndex(filepath.Join(opts.OutputDir, ClientIndexFile))
	if err != nil {
		t.Fatalf("LoadClientIndex failed: %v", err)
	}
	if len(idx.Clients()) != 2 {
		t.Errorf("Expected 2 clients in the index, got %v", idx.Clients())
	}
}

func TestRunTrackerFallsBackToStoredComparison(t *testing.T) {
	opts := testOptions(t)
	opts.Budget = nil
	opts.Comparison = tableSource{table: table("Comparativo", models.ComparisonHeader,
		[]string{"ambev", "4", "2025", "10", "3", "0", "0"},
	)}

	res, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("Expected ErrNoSource, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepComparison {
		t.Errorf("Expected a comparison StepError, got %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != StepComparison {
		t.Errorf("Expected only the comparison to fail, got %v", res.Failed)
	}
	if len(res.Done) != 1 || res.Done[0] != StepTracker {
		t.Errorf("Expected the tracker step to run, got %v", res.Done)
	}
	if res.Status().Outcome() != notify.Failure {
		t.Errorf("Expected a failure outcome, got %d", res.Status().Outcome())
	}

	// Vale only exists in iTRACKER now.
	found := false
	for _, w := range res.Warnings {
		if w.Kind == models.WarnUnmatchedTracker && w.Client == "vale" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an unmatched tracker warning for vale, got %v", res.Warnings)
	}
}

func TestRunComparisonFetchError(t *testing.T) {
	opts := testOptions(t)
	opts.LogComex = tableSource{err: errors.New("timeout")}

	res, err := RunComparison(context.Background(), opts)
	if err == nil {
		t.Fatal("Expected an error")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepComparison {
		t.Errorf("Expected a comparison StepError, got %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Expected nothing written, got %v", res.Files)
	}
}

func TestPublishFailureIsPartial(t *testing.T) {
	opts := testOptions(t)
	opts.Sinks = []source.Sink{failingSink{}}

	res, err := RunComparison(context.Background(), opts)
	if err != nil {
		t.Fatalf("RunComparison failed: %v", err)
	}
	if res.PublishOK || len(res.Published) != 0 {
		t.Errorf("Expected the publication to fail, got %v (ok=%v)", res.Published, res.PublishOK)
	}
	if res.Status().Outcome() != notify.Partial {
		t.Errorf("Expected a partial outcome, got %d", res.Status().Outcome())
	}
	if len(res.Files) != 1 {
		t.Errorf("Expected the local file to be kept, got %v", res.Files)
	}
}

func TestRunConsolidation(t *testing.T) {
	opts := testOptions(t)
	opts.Tagger = canon.NewTagger([]string{"Ambev"})
	opts.Exports = []Export{
		{Category: models.Importacao, Source: tableSource{table: table("imp", []string{"NOME IMPORTADOR", "C20"},
			[]string{"AMBEV SA", "2"},
		)}},
		{Category: models.Exportacao, Source: tableSource{table: table("exp", []string{"NOME EXPORTADOR", "C40"},
			[]string{"Outra Ltda", "1"},
		)}},
		{Category: models.Cabotagem, Source: tableSource{err: errors.New("not downloaded")}},
	}

	res, err := RunConsolidation(context.Background(), opts)
	if err != nil {
		t.Fatalf("RunConsolidation failed: %v", err)
	}
	if len(res.Done) != 1 || res.Done[0] != StepConsolidation {
		t.Errorf("Unexpected steps %v", res.Done)
	}

	got, err := sheet.ReadXLSX(filepath.Join(opts.OutputDir, ConsolidatedFile), report.ConsolidatedSheet)
	if err != nil {
		t.Fatalf("Failed to read consolidated file: %v", err)
	}
	if got.Header[0] != models.ColCategoria {
		t.Errorf("Expected Categoria first, got %v", got.Header)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got.Rows))
	}
	if v := got.Get(got.Rows[0], models.ColClientesFound); v != "Ambev" {
		t.Errorf("Expected Ambev tagged in the first row, got %q", v)
	}
	if v := got.Get(got.Rows[1], models.ColClientesFound); v != "" {
		t.Errorf("Expected no client in the second row, got %q", v)
	}

	opts.Exports = nil
	if _, err := RunConsolidation(context.Background(), opts); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource without exports, got %v", err)
	}
}
