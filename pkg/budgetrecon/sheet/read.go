package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrSheetNotFound is returned when the requested sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoHeader is returned when a sheet has no non-empty row.
	ErrNoHeader = errors.New("sheet has no header row")
	// ErrUnsupportedFormat is returned for extensions other than .xlsx/.xlsm/.csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// Read loads path as a Table, choosing the reader from the extension.
// sheetName is ignored for CSV files.
func Read(path, sheetName string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, sheetName)
	case ".csv", ".txt":
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadXLSX loads one sheet of an xlsx file. An empty sheetName selects the
// first sheet.
func ReadXLSX(path, sheetName string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return readWorkbook(f, sheetName)
}

// ReadXLSXReader is ReadXLSX for an in-memory workbook.
func ReadXLSXReader(r io.Reader, sheetName string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, sheetName)
}

func readWorkbook(f *excelize.File, sheetName string) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrSheetNotFound
	}
	if sheetName == "" {
		sheetName = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheetName, strings.Join(sheets, ", "))
	}

	// Raw values: dates come back as serial numbers and numbers unformatted.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	return fromRows(sheetName, rows)
}

// fromRows builds a Table from a cell grid. The header is the first
// non-empty row; columns span the bounding box of non-empty cells.
func fromRows(name string, rows [][]string) (*Table, error) {
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, name)
	}

	t := NewTable(name, span(rows[minRow], minCol, maxCol))
	for rowIdx := minRow + 1; rowIdx <= maxRow; rowIdx++ {
		values := span(rows[rowIdx], minCol, maxCol)
		if isBlank(values) {
			continue
		}
		t.AppendRow(values)
	}
	return t, nil
}

// findDataBounds finds the bounding box of non-empty cells.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if minRow < 0 {
				minRow = rowIdx
			}
			maxRow = rowIdx
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}
	return
}

func span(row []string, from, to int) []string {
	out := make([]string, to-from+1)
	for i := from; i <= to && i < len(row); i++ {
		out[i-from] = strings.TrimSpace(row[i])
	}
	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadCSV loads a CSV file. The delimiter (';' or ',') is sniffed from the
// header line, and files that are not valid UTF-8 are decoded as ISO-8859-1,
// the encoding Excel uses for Portuguese CSV exports.
func ReadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseCSV(name, data)
}

// ParseCSV is ReadCSV for bytes already in memory.
func ParseCSV(name string, data []byte) (*Table, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return fromRows(name, rows)
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
