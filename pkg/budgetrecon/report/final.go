package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
)

// DefaultDaysPerMonth is the month length used for the daily target.
const DefaultDaysPerMonth = 30

// FinalOptions tunes MergeFinal.
type FinalOptions struct {
	// DefaultYear is given to comparison rows without a year.
	DefaultYear int
	// Groups maps a canonical client to the commercial name it is reported
	// under.
	Groups map[string]string
	// Now supplies the day of month for the accumulated target.
	Now          time.Time
	DaysPerMonth int
}

type finalAgg struct {
	row     models.FinalRow
	sources map[string]bool
	keys    int
}

// MergeFinal outer-joins the comparison with the iTRACKER counts on
// (client, year, month), applies the commercial groups, regroups by
// (client, month) and computes the KPIs. Every regroup of more than one
// source key is reported as a warning, as is every tracker client with no
// comparison line.
func MergeFinal(comparison []models.ComparisonRow, counts []models.TrackerCount, opts FinalOptions) ([]models.FinalRow, []models.Warning) {
	if opts.DaysPerMonth <= 0 {
		opts.DaysPerMonth = DefaultDaysPerMonth
	}

	type joined struct {
		cmp     models.ComparisonRow
		tracker int64
		hasCmp  bool
	}
	byKey := make(map[models.Key]*joined)
	for _, r := range comparison {
		year := r.Year
		if year == 0 {
			year = opts.DefaultYear
		}
		k := models.Key{Client: r.Client, Year: year, Month: r.Month}
		j := byKey[k]
		if j == nil {
			j = &joined{}
			byKey[k] = j
		}
		j.hasCmp = true
		j.cmp.Budget += r.Budget
		j.cmp.Importacao += r.Importacao
		j.cmp.Exportacao += r.Exportacao
		j.cmp.Cabotagem += r.Cabotagem
	}
	for _, c := range counts {
		k := models.Key{Client: c.Client, Year: c.Year, Month: c.Month}
		j := byKey[k]
		if j == nil {
			j = &joined{}
			byKey[k] = j
		}
		j.tracker += c.Count
	}

	keys := make([]models.Key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	var warnings []models.Warning
	unmatched := make(map[string]bool)
	groups := make(map[monthKey]*finalAgg)
	for _, k := range keys {
		j := byKey[k]
		if !j.hasCmp && j.tracker > 0 {
			unmatched[k.Client] = true
		}
		name := k.Client
		if g, ok := opts.Groups[name]; ok && g != "" {
			name = g
		}
		gk := monthKey{name, k.Month}
		agg := groups[gk]
		if agg == nil {
			agg = &finalAgg{sources: make(map[string]bool)}
			agg.row.Client = name
			agg.row.Month = k.Month
			groups[gk] = agg
		}
		agg.keys++
		agg.sources[fmt.Sprintf("%s (%d)", k.Client, k.Year)] = true
		agg.row.Budget += j.cmp.Budget
		agg.row.Importacao += j.cmp.Importacao
		agg.row.Exportacao += j.cmp.Exportacao
		agg.row.Cabotagem += j.cmp.Cabotagem
		agg.row.Tracker += j.tracker
	}

	day := dayOf(opts.Now)
	rows := make([]models.FinalRow, 0, len(groups))
	for gk, agg := range groups {
		row := agg.row
		computeKPIs(&row, day, opts.DaysPerMonth)
		rows = append(rows, row)
		if agg.keys > 1 {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarnGroupMerge,
				Client:  gk.client,
				Month:   gk.month,
				Sources: sortedKeys(agg.sources),
				Detail:  fmt.Sprintf("%d linhas somadas no mesmo cliente/mês", agg.keys),
			})
		}
	}
	for _, client := range sortedKeys(unmatched) {
		warnings = append(warnings, models.Warning{
			Kind:   models.WarnUnmatchedTracker,
			Client: client,
			Detail: "cliente do iTRACKER sem linha no comparativo",
		})
	}

	sortFinal(rows)
	sortWarnings(warnings)
	return rows, warnings
}

// computeKPIs fills the derived columns of r. Ratios whose divisor is 0 are 0.
func computeKPIs(r *models.FinalRow, day, daysPerMonth int) {
	r.Opportunities = r.Importacao + r.Exportacao + r.Cabotagem
	tracker := float64(r.Tracker)
	budget := float64(r.Budget)

	r.Utilization, r.Realization, r.Deviation = 0, 0, 0
	if r.Opportunities != 0 {
		r.Utilization = round2(tracker / float64(r.Opportunities) * 100)
	}
	if r.Budget != 0 {
		r.Realization = round2(tracker / budget * 100)
		r.Deviation = round2((float64(r.Opportunities) - budget) / budget * 100)
	}
	r.DailyTarget = round2(budget / float64(daysPerMonth))
	r.AccumTarget = round2(r.DailyTarget * float64(day))
	r.Gap = round2(r.AccumTarget - tracker)
}

func sortFinal(rows []models.FinalRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.Month < b.Month
	})
}

// FinalSheetName is the sheet of comparativo_final_atualizado.xlsx.
const FinalSheetName = "Comparativo Final"

// FinalSheet renders rows as the final report sheet.
func FinalSheet(rows []models.FinalRow) sheet.SheetData {
	sd := sheet.SheetData{Name: FinalSheetName, Header: models.FinalHeader}
	for _, r := range rows {
		sd.Rows = append(sd.Rows, r.Values())
	}
	return sd
}

// FinalRowsFromTable reads comparativo_final_atualizado back. KPI columns
// are recomputed from the base columns when absent.
func FinalRowsFromTable(t *sheet.Table) ([]models.FinalRow, error) {
	clientCol, err := requireColumn(t, models.ColCliente)
	if err != nil {
		return nil, err
	}
	monthCol, err := requireColumn(t, models.ColMes)
	if err != nil {
		return nil, err
	}
	budgetCol, err := requireColumn(t, models.ColBudget)
	if err != nil {
		return nil, err
	}
	trackerCol, err := requireColumn(t, models.ColTracker)
	if err != nil {
		return nil, err
	}
	num := func(r sheet.Record, name string) float64 {
		return sheet.Number(t.Get(r, name))
	}
	hasKPIs := t.HasColumn(models.ColRealizacao) && t.HasColumn(models.ColGap)

	var rows []models.FinalRow
	for _, r := range t.Rows {
		client := strings.TrimSpace(r[clientCol])
		_, month, err := sheet.ParseMonth(r[monthCol])
		if client == "" || err != nil {
			continue
		}
		row := models.FinalRow{
			Client:     client,
			Month:      month,
			Budget:     roundInt(sheet.Number(r[budgetCol])),
			Importacao: roundInt(num(r, string(models.Importacao))),
			Exportacao: roundInt(num(r, string(models.Exportacao))),
			Cabotagem:  roundInt(num(r, string(models.Cabotagem))),
			Tracker:    roundInt(sheet.Number(r[trackerCol])),
		}
		if hasKPIs {
			row.Opportunities = row.Importacao + row.Exportacao + row.Cabotagem
			row.Utilization = num(r, models.ColAproveitamento)
			row.Realization = num(r, models.ColRealizacao)
			row.Deviation = num(r, models.ColDesvio)
			row.DailyTarget = num(r, models.ColTargetDiario)
			row.AccumTarget = num(r, models.ColTargetAcum)
			row.Gap = num(r, models.ColGap)
		} else {
			computeKPIs(&row, 1, DefaultDaysPerMonth)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
