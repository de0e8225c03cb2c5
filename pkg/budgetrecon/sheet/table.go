// Package sheet reads and writes the spreadsheets exchanged by the batch
// jobs. Every sheet is loaded as a Table of string cells keyed by header so
// the reports can address columns by their Portuguese names.
package sheet

import (
	"fmt"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
)

// Record is one data row, keyed by the table header.
type Record map[string]string

// Table is a sheet loaded as header + rows.
type Table struct {
	Name   string
	Header []string
	Rows   []Record

	index map[string]string
}

// NewTable creates an empty table. Blank headers become COL<n> and repeated
// headers get a ".1", ".2" suffix so every column keeps a distinct key.
func NewTable(name string, header []string) *Table {
	t := &Table{Name: name, Header: uniqueHeader(header)}
	t.reindex()
	return t
}

func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("COL%d", i+1)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}

func (t *Table) reindex() {
	t.index = make(map[string]string, len(t.Header))
	for _, h := range t.Header {
		key := canon.Fold(h)
		if _, ok := t.index[key]; !ok {
			t.index[key] = h
		}
	}
}

// Column returns the header matching name, ignoring case and accents
// ("MES" finds "MÊS").
func (t *Table) Column(name string) (string, bool) {
	if t.index == nil {
		t.reindex()
	}
	h, ok := t.index[canon.Fold(name)]
	return h, ok
}

// HasColumn reports whether Column would find name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// FirstColumn returns the first of names present in the table.
func (t *Table) FirstColumn(names ...string) (string, bool) {
	for _, n := range names {
		if h, ok := t.Column(n); ok {
			return h, true
		}
	}
	return "", false
}

// Columns returns the headers present for the given names, in the order of
// names.
func (t *Table) Columns(names ...string) []string {
	var out []string
	for _, n := range names {
		if h, ok := t.Column(n); ok {
			out = append(out, h)
		}
	}
	return out
}

// Get returns the value of column name in r, with the same lookup rules as
// Column. Missing columns read as "".
func (t *Table) Get(r Record, name string) string {
	h, ok := t.Column(name)
	if !ok {
		return ""
	}
	return r[h]
}

// AppendRow adds a row given in header order. Extra values are ignored and
// missing ones read as "".
func (t *Table) AppendRow(values []string) {
	r := make(Record, len(t.Header))
	for i, h := range t.Header {
		if i < len(values) {
			r[h] = values[i]
		}
	}
	t.Rows = append(t.Rows, r)
}

// AddColumn appends a column to the header. It is a no-op when the column
// already exists.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Header = append(t.Header, name)
	t.reindex()
}

// Values returns row values in header order.
func (t *Table) Values(r Record) []string {
	out := make([]string, len(t.Header))
	for i, h := range t.Header {
		out[i] = r[h]
	}
	return out
}

// Data converts the table into SheetData for WriteXLSX. Cells that parse as
// numbers are written as numbers.
func (t *Table) Data() SheetData {
	sd := SheetData{Name: t.Name, Header: append([]string(nil), t.Header...)}
	for _, r := range t.Rows {
		row := make([]any, len(t.Header))
		for i, h := range t.Header {
			row[i] = ParseValue(r[h])
		}
		sd.Rows = append(sd.Rows, row)
	}
	return sd
}
