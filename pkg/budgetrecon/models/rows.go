package models

import "time"

// Output column names.
const (
	ColCliente        = "Cliente"
	ColMes            = "MÊS"
	ColAno            = "ANO"
	ColBudget         = "BUDGET"
	ColQuantidade     = "Quantidade"
	ColTracker        = "Quantidade_iTRACKER"
	ColAproveitamento = "Aproveitamento de Oportunidade (%)"
	ColRealizacao     = "Realização do Budget (%)"
	ColDesvio         = "Desvio Budget vs Oportunidade (%)"
	ColTargetDiario   = "Target Diário Esperado"
	ColTargetAcum     = "Target Acumulado"
	ColGap            = "Gap de Realização"
	ColCategoria      = "Categoria"
	ColClientesFound  = "Clientes Encontrados"
	ColColunasFound   = "Colunas Encontradas"
)

// Key identifies a client month.
type Key struct {
	Client string
	Year   int
	Month  int
}

// BudgetRow is one line of the budget sheet after canonicalization.
type BudgetRow struct {
	// RawClient is the CLIENTE (BUDGET) cell as read.
	RawClient string `json:"raw_client"`
	// Client is the canonical client name.
	Client string `json:"client"`
	// Year is 0 when the sheet has no year information.
	Year   int     `json:"year,omitempty"`
	Month  int     `json:"month"`
	Budget float64 `json:"budget"`
}

// Shipment is one LogComex row reduced to what the comparison needs.
type Shipment struct {
	// Clients holds the distinct canonical clients named in the row.
	Clients    []string `json:"clients"`
	Year       int      `json:"year,omitempty"`
	Month      int      `json:"month"`
	Category   Category `json:"category"`
	Containers float64  `json:"containers"`
}

// ComparisonRow is one line of the Budget vs LogComex comparison.
type ComparisonRow struct {
	Client     string `json:"cliente"`
	Year       int    `json:"ano,omitempty"`
	Month      int    `json:"mes"`
	Budget     int64  `json:"budget"`
	Importacao int64  `json:"importacao"`
	Exportacao int64  `json:"exportacao"`
	Cabotagem  int64  `json:"cabotagem"`
}

// ComparisonHeader is the column order of the comparison sheet.
var ComparisonHeader = []string{ColCliente, ColMes, ColAno, ColBudget, string(Importacao), string(Exportacao), string(Cabotagem)}

// Values returns r in ComparisonHeader order.
func (r ComparisonRow) Values() []any {
	return []any{r.Client, r.Month, r.Year, r.Budget, r.Importacao, r.Exportacao, r.Cabotagem}
}

// TrackerRecord is one iTRACKER service line.
type TrackerRecord struct {
	Client      string    `json:"cliente"`
	Company     string    `json:"empresa"`
	Service     string    `json:"tipo_atendimento"`
	InvoiceType string    `json:"tipo_nota_fiscal"`
	Status      string    `json:"status"`
	IssuedAt    time.Time `json:"data_emissao"`
}

// TrackerCount is the number of tracked services of a client in a month.
type TrackerCount struct {
	Client string `json:"cliente"`
	Year   int    `json:"ano"`
	Month  int    `json:"mes"`
	Count  int64  `json:"quantidade"`
}

// TrackerCountHeader is the column order of contagem_por_cliente.xlsx.
var TrackerCountHeader = []string{ColCliente, ColAno, ColMes, ColQuantidade}

// Values returns c in TrackerCountHeader order.
func (c TrackerCount) Values() []any {
	return []any{c.Client, c.Year, c.Month, c.Count}
}

// FinalRow is one line of the final report with its KPIs.
type FinalRow struct {
	Client     string `json:"cliente"`
	Month      int    `json:"mes"`
	Budget     int64  `json:"budget"`
	Importacao int64  `json:"importacao"`
	Exportacao int64  `json:"exportacao"`
	Cabotagem  int64  `json:"cabotagem"`
	Tracker    int64  `json:"quantidade_itracker"`

	// Opportunities is Importacao + Exportacao + Cabotagem.
	Opportunities int64 `json:"total_oportunidades"`
	// Utilization is Tracker / Opportunities in percent.
	Utilization float64 `json:"aproveitamento"`
	// Realization is Tracker / Budget in percent.
	Realization float64 `json:"realizacao"`
	// Deviation is (Opportunities - Budget) / Budget in percent.
	Deviation   float64 `json:"desvio"`
	DailyTarget float64 `json:"target_diario"`
	// AccumTarget is DailyTarget times the day of the month.
	AccumTarget float64 `json:"target_acumulado"`
	// Gap is AccumTarget - Tracker.
	Gap float64 `json:"gap"`
}

// FinalHeader is the column order of comparativo_final_atualizado.xlsx.
var FinalHeader = []string{
	ColCliente, ColMes, ColBudget,
	string(Importacao), string(Exportacao), string(Cabotagem),
	ColTracker, ColAproveitamento, ColRealizacao, ColDesvio,
	ColTargetDiario, ColTargetAcum, ColGap,
}

// Values returns r in FinalHeader order.
func (r FinalRow) Values() []any {
	return []any{
		r.Client, r.Month, r.Budget,
		r.Importacao, r.Exportacao, r.Cabotagem,
		r.Tracker, r.Utilization, r.Realization, r.Deviation,
		r.DailyTarget, r.AccumTarget, r.Gap,
	}
}
