package sheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetData is one sheet to write: a header and rows of cell values.
type SheetData struct {
	Name   string
	Header []string
	Rows   [][]any
}

const defaultColWidth = 18

// WriteXLSX writes sheets to path. An existing file is moved to
// <name>_backup.xlsx first and put back if writing fails.
func WriteXLSX(path string, sheets ...SheetData) (err error) {
	if len(sheets) == 0 {
		return errors.New("no sheets to write")
	}
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	backup := BackupPath(path)
	hasBackup := false
	if _, statErr := os.Stat(path); statErr == nil {
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
		hasBackup = true
	}
	defer func() {
		if !hasBackup {
			return
		}
		if err != nil {
			os.Remove(path)
			if rerr := os.Rename(backup, path); rerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to restore backup: %w", rerr))
			}
			return
		}
		os.Remove(backup)
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// WriteXLSXTo writes sheets as an xlsx workbook to w.
func WriteXLSXTo(w io.Writer, sheets ...SheetData) error {
	if len(sheets) == 0 {
		return errors.New("no sheets to write")
	}
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BackupPath returns the backup name used by WriteXLSX for path.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_backup" + ext
}

func build(sheets []SheetData) (*excelize.File, error) {
	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sd := range sheets {
		name := sd.Name
		if name == "" {
			name = fmt.Sprintf("Planilha%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sd, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, name string, sd SheetData, headerStyle int) error {
	if len(sd.Header) == 0 {
		return nil
	}
	header := make([]any, len(sd.Header))
	for i, h := range sd.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(sd.Header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", name, err)
	}
	if err := f.SetColWidth(name, "A", lastCol, defaultColWidth); err != nil {
		return err
	}

	for i, row := range sd.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}

	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
