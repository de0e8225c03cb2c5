package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
)

// Column names of the budget and LogComex sheets.
var (
	BudgetClientColumns = []string{"CLIENTE (BUDGET)", "CLIENTE", "Cliente"}
	BudgetMonthColumns  = []string{"MÊS", "ANO/MÊS"}
	BudgetValueColumns  = []string{"BUDGET"}

	// ContainerColumns are summed into the container count of a shipment.
	ContainerColumns = []string{"C20", "C40", "QTDE CONTAINER", "QTDE CONTEINER", "QUANTIDADE C20", "QUANTIDADE C40"}
	// DateColumns are tried in order when ANO/MÊS is missing or unreadable.
	DateColumns = []string{"DATA DE EMBARQUE", "DATA EMBARQUE", "ETA", "ETS"}
	// ClientColumns hold the company names of a shipment.
	ClientColumns = []string{
		"AGENTE DE CARGA", "AGENTE INTERNACIONAL", "ARMADOR",
		"CONSIGNATARIO FINAL", "CONSIGNATÁRIO", "CONSOLIDADOR",
		"DESTINATÁRIO", "NOME EXPORTADOR", "NOME IMPORTADOR",
		"REMETENTE", models.ColClientesFound,
	}
	YearMonthColumn = "ANO/MÊS"
	YearColumn      = "ANO"
)

// ReadBudget reads the budget sheet. Rows without a client or a readable
// month are skipped and reported in one warning.
func ReadBudget(t *sheet.Table, c *canon.Canonicalizer) ([]models.BudgetRow, []models.Warning, error) {
	clientCol, err := requireColumn(t, BudgetClientColumns...)
	if err != nil {
		return nil, nil, err
	}
	monthCol, err := requireColumn(t, BudgetMonthColumns...)
	if err != nil {
		return nil, nil, err
	}
	valueCol, err := requireColumn(t, BudgetValueColumns...)
	if err != nil {
		return nil, nil, err
	}
	yearCol, hasYear := t.Column(YearColumn)

	var (
		rows    []models.BudgetRow
		skipped int
	)
	for _, r := range t.Rows {
		raw := strings.TrimSpace(r[clientCol])
		client := c.Canonical(raw)
		year, month, err := sheet.ParseMonth(r[monthCol])
		if client == "" || err != nil {
			skipped++
			continue
		}
		if year == 0 && hasYear {
			year = int(sheet.Number(r[yearCol]))
		}
		rows = append(rows, models.BudgetRow{
			RawClient: raw,
			Client:    client,
			Year:      year,
			Month:     month,
			Budget:    sheet.Number(r[valueCol]),
		})
	}

	var warnings []models.Warning
	if skipped > 0 {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarnNoMonth,
			Sources: []string{t.Name},
			Detail:  fmt.Sprintf("%d linhas do budget sem cliente ou mês ignoradas", skipped),
		})
	}
	return rows, warnings, nil
}

// ReadShipments reads the consolidated LogComex sheet. A row names each
// canonical client at most once even when several raw names in it resolve
// to the same client; those merges are reported as warnings.
func ReadShipments(t *sheet.Table, c *canon.Canonicalizer) ([]models.Shipment, []models.Warning) {
	containerCols := t.Columns(ContainerColumns...)
	clientCols := t.Columns(ClientColumns...)
	dateCols := t.Columns(DateColumns...)
	ymCol, hasYM := t.Column(YearMonthColumn)
	catCol, hasCat := t.Column(models.ColCategoria)

	// Names are resolved once per distinct normalized spelling.
	cache := make(map[string]string)
	resolve := func(raw string) (normalized, canonical string) {
		n := canon.Normalize(raw)
		if v, ok := cache[n]; ok {
			return n, v
		}
		v := c.Canonical(n)
		cache[n] = v
		return n, v
	}

	merged := make(map[string]map[string]bool)
	var (
		shipments  []models.Shipment
		noMonth    int
		noCategory int
	)
	for _, r := range t.Rows {
		var year, month int
		if hasYM {
			year, month, _ = sheet.ParseYearMonth(r[ymCol])
		}
		for _, col := range dateCols {
			if month != 0 {
				break
			}
			if d, err := sheet.ParseDate(r[col]); err == nil {
				year, month = d.Year(), int(d.Month())
			}
		}
		if month == 0 {
			noMonth++
			continue
		}

		var category models.Category
		if hasCat {
			category, _ = models.ParseCategory(r[catCol])
		}
		if category == "" {
			noCategory++
			continue
		}

		var containers float64
		for _, col := range containerCols {
			containers += sheet.Number(r[col])
		}

		byCanonical := make(map[string]map[string]bool)
		for _, col := range clientCols {
			for _, raw := range canon.SplitNames(r[col]) {
				n, cn := resolve(raw)
				if cn == "" {
					continue
				}
				if byCanonical[cn] == nil {
					byCanonical[cn] = make(map[string]bool)
				}
				byCanonical[cn][n] = true
			}
		}
		if len(byCanonical) == 0 {
			continue
		}

		s := models.Shipment{Year: year, Month: month, Category: category, Containers: containers}
		for cn, names := range byCanonical {
			s.Clients = append(s.Clients, cn)
			if len(names) > 1 {
				if merged[cn] == nil {
					merged[cn] = make(map[string]bool)
				}
				for n := range names {
					merged[cn][n] = true
				}
			}
		}
		sort.Strings(s.Clients)
		shipments = append(shipments, s)
	}

	var warnings []models.Warning
	for _, cn := range sortedSetKeys(merged) {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarnMergedNames,
			Client:  cn,
			Sources: sortedKeys(merged[cn]),
			Detail:  "nomes diferentes na mesma linha do LogComex contados uma vez",
		})
	}
	if noMonth > 0 {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarnNoMonth,
			Sources: []string{t.Name},
			Detail:  fmt.Sprintf("%d linhas do LogComex sem mês ignoradas", noMonth),
		})
	}
	if noCategory > 0 {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarnUnknownCategory,
			Sources: []string{t.Name},
			Detail:  fmt.Sprintf("%d linhas do LogComex sem Categoria conhecida ignoradas", noCategory),
		})
	}
	return shipments, warnings
}

// ComparisonOptions tunes BuildComparison.
type ComparisonOptions struct {
	// Year drops budget lines and shipments of other years when their year
	// is known. 0 keeps every year.
	Year int
	// ExactKeywords keeps a budget client only when its canonical name is
	// itself a keyword. By default any keyword whose tokens all appear in
	// the name keeps it.
	ExactKeywords bool
}

// ComparisonResult is the output of BuildComparison.
type ComparisonResult struct {
	Rows     []models.ComparisonRow
	Warnings []models.Warning
	// Dropped lists budget clients left out because they are not in the
	// keyword list.
	Dropped []string
}

type monthKey struct {
	client string
	month  int
}

// BuildComparison sums the budget per (client, month), pivots the shipment
// containers per category and left-joins them onto the budget. Only
// clients found in the keyword list are kept; an empty list keeps all.
func BuildComparison(budget []models.BudgetRow, shipments []models.Shipment, keywords *canon.KeywordSet, opts ComparisonOptions) *ComparisonResult {
	res := &ComparisonResult{}

	known := make(map[string]bool)
	isKnown := func(client string) bool {
		if v, ok := known[client]; ok {
			return v
		}
		var v bool
		if opts.ExactKeywords {
			v = keywords.Contains(client)
		} else {
			_, v = keywords.Match(client)
		}
		v = v || keywords.Len() == 0
		known[client] = v
		return v
	}

	type budgetAgg struct {
		sum   float64
		year  int
		lines int
		raw   map[string]bool
	}
	budgets := make(map[monthKey]*budgetAgg)
	dropped := make(map[string]bool)
	for _, b := range budget {
		if opts.Year > 0 && b.Year != 0 && b.Year != opts.Year {
			continue
		}
		if !isKnown(b.Client) {
			dropped[b.Client] = true
			continue
		}
		k := monthKey{b.Client, b.Month}
		agg := budgets[k]
		if agg == nil {
			agg = &budgetAgg{raw: make(map[string]bool), year: b.Year}
			budgets[k] = agg
		}
		agg.sum += b.Budget
		agg.lines++
		agg.raw[b.RawClient] = true
	}

	containers := make(map[monthKey]map[models.Category]float64)
	for _, s := range shipments {
		if opts.Year > 0 && s.Year != 0 && s.Year != opts.Year {
			continue
		}
		for _, client := range s.Clients {
			k := monthKey{client, s.Month}
			if _, ok := budgets[k]; !ok {
				continue
			}
			if containers[k] == nil {
				containers[k] = make(map[models.Category]float64)
			}
			containers[k][s.Category] += s.Containers
		}
	}

	for k, agg := range budgets {
		year := agg.year
		if year == 0 {
			year = opts.Year
		}
		pivot := containers[k]
		res.Rows = append(res.Rows, models.ComparisonRow{
			Client:     k.client,
			Year:       year,
			Month:      k.month,
			Budget:     roundInt(agg.sum),
			Importacao: roundInt(pivot[models.Importacao]),
			Exportacao: roundInt(pivot[models.Exportacao]),
			Cabotagem:  roundInt(pivot[models.Cabotagem]),
		})
		if agg.lines > 1 {
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:    models.WarnDuplicateBudget,
				Client:  k.client,
				Month:   k.month,
				Sources: sortedKeys(agg.raw),
				Detail:  fmt.Sprintf("%d linhas do budget somadas", agg.lines),
			})
		}
	}
	sort.Slice(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.Month < b.Month
	})
	sortWarnings(res.Warnings)
	res.Dropped = sortedKeys(dropped)
	return res
}

// ReadComparison reads a comparison sheet written by WriteComparison or by
// hand. ANO is optional.
func ReadComparison(t *sheet.Table) ([]models.ComparisonRow, error) {
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
	yearCol, hasYear := t.Column(models.ColAno)
	cat := make(map[models.Category]string)
	for _, c := range models.Categories {
		if h, ok := t.Column(string(c)); ok {
			cat[c] = h
		}
	}

	var rows []models.ComparisonRow
	for _, r := range t.Rows {
		client := strings.TrimSpace(r[clientCol])
		year, month, err := sheet.ParseMonth(r[monthCol])
		if client == "" || err != nil {
			continue
		}
		if year == 0 && hasYear {
			year = int(sheet.Number(r[yearCol]))
		}
		row := models.ComparisonRow{
			Client: client,
			Year:   year,
			Month:  month,
			Budget: roundInt(sheet.Number(r[budgetCol])),
		}
		if h, ok := cat[models.Importacao]; ok {
			row.Importacao = roundInt(sheet.Number(r[h]))
		}
		if h, ok := cat[models.Exportacao]; ok {
			row.Exportacao = roundInt(sheet.Number(r[h]))
		}
		if h, ok := cat[models.Cabotagem]; ok {
			row.Cabotagem = roundInt(sheet.Number(r[h]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ComparisonSheetName is the sheet of the Budget vs LogComex comparison.
const ComparisonSheetName = "Comparativo"

// ComparisonSheet renders rows as the comparison sheet.
func ComparisonSheet(rows []models.ComparisonRow) sheet.SheetData {
	sd := sheet.SheetData{Name: ComparisonSheetName, Header: models.ComparisonHeader}
	for _, r := range rows {
		sd.Rows = append(sd.Rows, r.Values())
	}
	return sd
}

// Alert sheet names of the two reports.
const (
	ComparisonAlertSheet = "Alertas Comparativo"
	FinalAlertSheet      = "Alertas Final"
)

// WarningSheet renders warnings as an alert sheet called name.
func WarningSheet(name string, warnings []models.Warning) sheet.SheetData {
	sd := sheet.SheetData{Name: name, Header: models.WarningHeader}
	for _, w := range warnings {
		sd.Rows = append(sd.Rows, w.Values())
	}
	return sd
}

// roundInt rounds half away from zero.
func roundInt(f float64) int64 {
	return int64(math.Round(f))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSetKeys(m map[string]map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortWarnings(ws []models.Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.Month < b.Month
	})
}
