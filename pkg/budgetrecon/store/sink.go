package store

import (
	"context"
	"fmt"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/google/uuid"
)

// FinalSink is a source.Sink that loads the final report sheets into
// Postgres under one run.
type FinalSink struct {
	Store *Postgres
	RunID uuid.UUID
}

func (s *FinalSink) Name() string { return "postgres" }

// Publish stores the "Comparativo Final" sheet and its alert sheet when a
// carries them. Other artifacts are ignored.
func (s *FinalSink) Publish(ctx context.Context, a source.Artifact) error {
	for _, sd := range a.Sheets {
		switch sd.Name {
		case report.FinalSheetName:
			rows, err := report.FinalRowsFromTable(tableOf(sd))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", sd.Name, err)
			}
			if err := s.Store.PublishFinal(ctx, s.RunID, rows); err != nil {
				return err
			}
		case report.FinalAlertSheet:
			if err := s.Store.PublishWarnings(ctx, s.RunID, warningsOf(sd)); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableOf turns written sheet data back into a Table.
func tableOf(sd sheet.SheetData) *sheet.Table {
	t := sheet.NewTable(sd.Name, sd.Header)
	for _, row := range sd.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				values[i] = fmt.Sprint(v)
			}
		}
		t.AppendRow(values)
	}
	return t
}

func warningsOf(sd sheet.SheetData) []models.Warning {
	t := tableOf(sd)
	out := make([]models.Warning, 0, len(t.Rows))
	for _, r := range t.Rows {
		w := models.Warning{
			Kind:    models.WarningKind(t.Get(r, models.WarningHeader[0])),
			Client:  t.Get(r, models.WarningHeader[1]),
			Month:   int(sheet.Number(t.Get(r, models.WarningHeader[2]))),
			Sources: models.ParseSources(t.Get(r, models.WarningHeader[3])),
			Detail:  t.Get(r, models.WarningHeader[4]),
		}
		out = append(out, w)
	}
	return out
}
