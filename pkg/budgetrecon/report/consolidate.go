package report

import (
	"sort"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
)

// ConsolidatedSheet is the sheet name of Dados_Consolidados.
const ConsolidatedSheet = "Dados Consolidados"

// CategoryInput is one LogComex export and the category of its shipments.
type CategoryInput struct {
	Category models.Category
	Table    *sheet.Table
}

// Consolidate stacks the exports into one table. Columns are the sorted
// union of all headers with Categoria first; cells missing from an export
// are blank.
func Consolidate(inputs []CategoryInput) *sheet.Table {
	seen := make(map[string]bool)
	var columns []string
	for _, in := range inputs {
		if in.Table == nil {
			continue
		}
		for _, h := range in.Table.Header {
			if canon.Fold(h) == canon.Fold(models.ColCategoria) || seen[h] {
				continue
			}
			seen[h] = true
			columns = append(columns, h)
		}
	}
	sort.Strings(columns)

	out := sheet.NewTable(ConsolidatedSheet, append([]string{models.ColCategoria}, columns...))
	for _, in := range inputs {
		if in.Table == nil {
			continue
		}
		for _, r := range in.Table.Rows {
			rec := make(sheet.Record, len(out.Header))
			for _, h := range columns {
				rec[h] = r[h]
			}
			rec[models.ColCategoria] = string(in.Category)
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}

// TagClients adds the "Clientes Encontrados" and "Colunas Encontradas"
// columns: the known clients found in the given columns of each row and the
// columns where they were found. An empty columns list searches every
// column. It returns the number of rows where a client was found.
func TagClients(t *sheet.Table, tagger *canon.Tagger, columns []string) int {
	search := t.Columns(columns...)
	if len(columns) == 0 {
		for _, h := range t.Header {
			if h != models.ColClientesFound && h != models.ColColunasFound {
				search = append(search, h)
			}
		}
	}
	t.AddColumn(models.ColClientesFound)
	t.AddColumn(models.ColColunasFound)
	clientsCol, _ := t.Column(models.ColClientesFound)
	columnsCol, _ := t.Column(models.ColColunasFound)

	tagged := 0
	for _, r := range t.Rows {
		cells := make(map[string]string, len(search))
		for _, h := range search {
			if v := r[h]; v != "" {
				cells[h] = v
			}
		}
		clients, found := tagger.Find(cells)
		r[clientsCol] = strings.Join(clients, ", ")
		r[columnsCol] = strings.Join(found, ", ")
		if len(clients) > 0 {
			tagged++
		}
	}
	return tagged
}
