package gdrive

import (
	"context"
	"fmt"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/retry"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/rs/zerolog"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink writes the sheets of an artifact into tabs of one Google
// spreadsheet, replacing their previous content.
type SheetsSink struct {
	Service       *sheets.Service
	SpreadsheetID string
	Policy        retry.Policy
	Logger        zerolog.Logger
}

func (s *SheetsSink) Name() string { return "sheets:" + s.SpreadsheetID }

// Publish writes every sheet of a. Artifacts without sheet data are skipped.
func (s *SheetsSink) Publish(ctx context.Context, a source.Artifact) error {
	if len(a.Sheets) == 0 {
		s.Logger.Debug().Str("file", a.Name).Msg("artefato sem dados de planilha, ignorado")
		return nil
	}
	tabs, err := s.tabs(ctx)
	if err != nil {
		return err
	}
	for _, sd := range a.Sheets {
		if !tabs[sd.Name] {
			if err := s.addTab(ctx, sd.Name); err != nil {
				return err
			}
			tabs[sd.Name] = true
		}
		if err := s.writeTab(ctx, sd); err != nil {
			return err
		}
		s.Logger.Info().Str("tab", sd.Name).Int("rows", len(sd.Rows)).Msg("aba atualizada")
	}
	return nil
}

func (s *SheetsSink) tabs(ctx context.Context) (map[string]bool, error) {
	var ss *sheets.Spreadsheet
	err := retry.Do(ctx, s.Policy, "get spreadsheet", func(ctx context.Context) error {
		var err error
		ss, err = s.Service.Spreadsheets.Get(s.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = true
		}
	}
	return out, nil
}

func (s *SheetsSink) addTab(ctx context.Context, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}
	return retry.Do(ctx, s.Policy, "add tab "+title, func(ctx context.Context) error {
		_, err := s.Service.Spreadsheets.BatchUpdate(s.SpreadsheetID, req).Context(ctx).Do()
		return err
	})
}

func (s *SheetsSink) writeTab(ctx context.Context, sd sheet.SheetData) error {
	values := make([][]interface{}, 0, len(sd.Rows)+1)
	header := make([]interface{}, len(sd.Header))
	for i, h := range sd.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range sd.Rows {
		values = append(values, r)
	}

	clearRange := fmt.Sprintf("'%s'!A1:ZZ", sd.Name)
	if err := retry.Do(ctx, s.Policy, "clear "+sd.Name, func(ctx context.Context) error {
		_, err := s.Service.Spreadsheets.Values.Clear(s.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	}); err != nil {
		return err
	}

	writeRange := fmt.Sprintf("'%s'!A1", sd.Name)
	return retry.Do(ctx, s.Policy, "write "+sd.Name, func(ctx context.Context) error {
		_, err := s.Service.Spreadsheets.Values.Update(s.SpreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		return err
	})
}
