package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WarningKind classifies reconciliation alerts.
type WarningKind string

const (
	// WarnDuplicateBudget: several budget lines resolved to the same client month.
	WarnDuplicateBudget WarningKind = "budget_duplicado"
	// WarnMergedNames: different raw names in one shipment resolved to one client.
	WarnMergedNames WarningKind = "nomes_unificados"
	// WarnGroupMerge: a commercial group summed several clients.
	WarnGroupMerge WarningKind = "grupo_comercial"
	// WarnUnmatchedTracker: an iTRACKER client has no budget nor LogComex line.
	WarnUnmatchedTracker WarningKind = "itracker_sem_par"
	// WarnNoMonth: a row without a readable month was skipped.
	WarnNoMonth WarningKind = "sem_mes"
	// WarnUnknownCategory: a shipment without a known Categoria was skipped.
	WarnUnknownCategory WarningKind = "categoria_desconhecida"
)

// Warning is a reconciliation alert. Alerts never stop a run; they are
// logged and written to an alert sheet next to the report.
type Warning struct {
	Kind    WarningKind `json:"tipo"`
	Client  string      `json:"cliente,omitempty"`
	Month   int         `json:"mes,omitempty"`
	Sources []string    `json:"origens,omitempty"`
	Detail  string      `json:"detalhe"`
}

func (w Warning) String() string {
	if w.Client == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s [%s/%d]: %s", w.Kind, w.Client, w.Month, w.Detail)
}

// WarningHeader is the column order of the Alertas sheet.
var WarningHeader = []string{"Tipo", ColCliente, ColMes, "Origens", "Detalhe"}

// Values returns w in WarningHeader order.
func (w Warning) Values() []any {
	return []any{string(w.Kind), w.Client, w.Month, SourcesCell(w.Sources), w.Detail}
}

// SourcesCell encodes sources as a JSON array for the Origens column. No
// sources give an empty cell.
func SourcesCell(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return strings.Join(sources, "; ")
	}
	return string(b)
}

// ParseSources reads an Origens cell written by SourcesCell. Cells edited by
// hand into a "; " separated list are split on that separator.
func ParseSources(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if strings.HasPrefix(cell, "[") {
		var out []string
		if err := json.Unmarshal([]byte(cell), &out); err == nil {
			return out
		}
	}
	return strings.Split(cell, "; ")
}
