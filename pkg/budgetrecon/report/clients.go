package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
)

// ClientMetrics is the per-month entry of the client index.
type ClientMetrics struct {
	Budget      int64   `json:"budget"`
	Importacao  int64   `json:"importacao"`
	Exportacao  int64   `json:"exportacao"`
	Cabotagem   int64   `json:"cabotagem"`
	Tracker     int64   `json:"quantidade_itracker"`
	Utilization float64 `json:"aproveitamento_oportunidade"`
	Realization float64 `json:"realizacao_budget"`
	Deviation   float64 `json:"desvio_budget_vs_oportunidade"`
	DailyTarget float64 `json:"target_diario_esperado"`
	AccumTarget float64 `json:"target_acumulado"`
	Gap         float64 `json:"gap_realizacao"`
}

// ClientIndex maps an upper-case, accent-free client name to month number
// (as a string) to metrics.
type ClientIndex map[string]map[string]ClientMetrics

// ClientKey is the index key of a client name.
func ClientKey(name string) string {
	return strings.ToUpper(canon.Fold(name))
}

// NewClientIndex builds the index from the final rows.
func NewClientIndex(rows []models.FinalRow) ClientIndex {
	idx := make(ClientIndex)
	for _, r := range rows {
		key := ClientKey(r.Client)
		if key == "" || r.Month == 0 {
			continue
		}
		if idx[key] == nil {
			idx[key] = make(map[string]ClientMetrics)
		}
		idx[key][strconv.Itoa(r.Month)] = ClientMetrics{
			Budget:      r.Budget,
			Importacao:  r.Importacao,
			Exportacao:  r.Exportacao,
			Cabotagem:   r.Cabotagem,
			Tracker:     r.Tracker,
			Utilization: r.Utilization,
			Realization: r.Realization,
			Deviation:   r.Deviation,
			DailyTarget: r.DailyTarget,
			AccumTarget: r.AccumTarget,
			Gap:         r.Gap,
		}
	}
	return idx
}

// WriteJSON writes the index as indented JSON.
func (idx ClientIndex) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(idx)
}

// SaveJSON writes the index to path.
func (idx ClientIndex) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := idx.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// LoadClientIndex reads an index written by SaveJSON.
func LoadClientIndex(path string) (ClientIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var idx ClientIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return idx, nil
}

// Clients returns the index keys sorted.
func (idx ClientIndex) Clients() []string {
	out := make([]string, 0, len(idx))
	for k := range idx {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Query renders the metrics of client in month as a short text report.
func (idx ClientIndex) Query(client string, month int) string {
	key := ClientKey(client)
	months, ok := idx[key]
	if !ok {
		return fmt.Sprintf("Cliente '%s' não encontrado na base de dados.", key)
	}
	m, ok := months[strconv.Itoa(month)]
	if !ok {
		return fmt.Sprintf("Não há dados registrados para o cliente '%s' no mês %d.", key, month)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Análise de %s no mês %d:**\n\n", key, month)
	fmt.Fprintf(&b, "- 🎯 **BUDGET**: %d\n", m.Budget)
	fmt.Fprintf(&b, "- 🚚 **REALIZADO (SYSTRACKER)**: %d\n", m.Tracker)
	fmt.Fprintf(&b, "- 📦 **OPORTUNIDADES**: %d importações, %d exportações, %d cabotagens\n", m.Importacao, m.Exportacao, m.Cabotagem)
	fmt.Fprintf(&b, "- 📈 **REALIZAÇÃO DO BUDGET**: %.1f%%\n", m.Realization)
	fmt.Fprintf(&b, "- ✅ **APROVEITAMENTO DE OPORTUNIDADE**: %.1f%%\n", m.Utilization)
	fmt.Fprintf(&b, "- 🧮 **TARGET ACUMULADO ATÉ HOJE**: %.1f\n", m.AccumTarget)
	fmt.Fprintf(&b, "- ⚠️ **GAP DE REALIZAÇÃO**: %.1f containers\n", m.Gap)
	return b.String()
}
