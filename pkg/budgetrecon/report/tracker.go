package report

import (
	"sort"
	"strings"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
)

// TrackerSheet is the iTRACKER sheet holding the service lines.
const TrackerSheet = "Planilha1"

// iTRACKER column names.
const (
	TrackerClientColumn  = "cliente"
	TrackerCompanyColumn = "Empresa"
	TrackerServiceColumn = "TipoAtendimento"
	TrackerInvoiceColumn = "tiponotafiscal"
	TrackerStatusColumn  = "Status"
	TrackerDateColumn    = "DataEmissao"
)

// TrackerFilter selects the iTRACKER lines that count as realized services.
type TrackerFilter struct {
	Company string
	Service string
	// InvoiceTypes are accepted invoice types. A blank type is always
	// accepted.
	InvoiceTypes []string
	Status       string
	// Year and FromMonth keep lines issued in Year from FromMonth on.
	// Year 0 accepts every year, and FromMonth is then ignored.
	Year      int
	FromMonth int
}

// DefaultTrackerFilter returns the filter used by the commercial report.
func DefaultTrackerFilter() TrackerFilter {
	return TrackerFilter{
		Company:      "IRB MATRIZ",
		Service:      "ATENDIMENTO",
		InvoiceTypes: []string{"Nota Fiscal"},
		Status:       "autorizado",
		Year:         2025,
		FromMonth:    4,
	}
}

// Accept reports whether r passes the filter. Text comparisons ignore case
// and surrounding blanks.
func (f TrackerFilter) Accept(r models.TrackerRecord) bool {
	if !sameText(r.Company, f.Company) || !sameText(r.Service, f.Service) || !sameText(r.Status, f.Status) {
		return false
	}
	if inv := strings.TrimSpace(r.InvoiceType); inv != "" && !strings.EqualFold(inv, "nan") {
		ok := false
		for _, t := range f.InvoiceTypes {
			if sameText(inv, t) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if r.IssuedAt.IsZero() {
		return false
	}
	if f.Year <= 0 {
		return true
	}
	return r.IssuedAt.Year() == f.Year && int(r.IssuedAt.Month()) >= f.FromMonth
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ReadTracker reads the iTRACKER service lines. Lines with an unreadable
// DataEmissao keep a zero IssuedAt and are rejected by every filter.
func ReadTracker(t *sheet.Table) ([]models.TrackerRecord, error) {
	cols := make(map[string]string)
	for _, name := range []string{
		TrackerClientColumn, TrackerCompanyColumn, TrackerServiceColumn,
		TrackerStatusColumn, TrackerDateColumn,
	} {
		h, err := requireColumn(t, name)
		if err != nil {
			return nil, err
		}
		cols[name] = h
	}
	invoiceCol, hasInvoice := t.Column(TrackerInvoiceColumn)

	records := make([]models.TrackerRecord, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := models.TrackerRecord{
			Client:  r[cols[TrackerClientColumn]],
			Company: r[cols[TrackerCompanyColumn]],
			Service: r[cols[TrackerServiceColumn]],
			Status:  r[cols[TrackerStatusColumn]],
		}
		if hasInvoice {
			rec.InvoiceType = r[invoiceCol]
		}
		if d, err := sheet.ParseDate(r[cols[TrackerDateColumn]]); err == nil {
			rec.IssuedAt = d
		}
		records = append(records, rec)
	}
	return records, nil
}

// CountTracker counts the accepted lines per (canonical client, year, month).
func CountTracker(records []models.TrackerRecord, c *canon.Canonicalizer, f TrackerFilter) []models.TrackerCount {
	counts := make(map[models.Key]int64)
	for _, r := range records {
		if !f.Accept(r) {
			continue
		}
		client := c.Canonical(r.Client)
		if client == "" {
			continue
		}
		counts[models.Key{Client: client, Year: r.IssuedAt.Year(), Month: int(r.IssuedAt.Month())}]++
	}

	out := make([]models.TrackerCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.TrackerCount{Client: k.Client, Year: k.Year, Month: k.Month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// TrackerCountSheet renders counts as contagem_por_cliente.
func TrackerCountSheet(counts []models.TrackerCount) sheet.SheetData {
	sd := sheet.SheetData{Name: "Contagem", Header: models.TrackerCountHeader}
	for _, c := range counts {
		sd.Rows = append(sd.Rows, c.Values())
	}
	return sd
}

// ReadTrackerCounts reads a contagem_por_cliente sheet back.
func ReadTrackerCounts(t *sheet.Table) ([]models.TrackerCount, error) {
	clientCol, err := requireColumn(t, models.ColCliente)
	if err != nil {
		return nil, err
	}
	yearCol, err := requireColumn(t, models.ColAno)
	if err != nil {
		return nil, err
	}
	monthCol, err := requireColumn(t, models.ColMes)
	if err != nil {
		return nil, err
	}
	countCol, err := requireColumn(t, models.ColQuantidade, models.ColTracker)
	if err != nil {
		return nil, err
	}

	var out []models.TrackerCount
	for _, r := range t.Rows {
		_, month, err := sheet.ParseMonth(r[monthCol])
		if err != nil {
			continue
		}
		out = append(out, models.TrackerCount{
			Client: strings.TrimSpace(r[clientCol]),
			Year:   int(sheet.Number(r[yearCol])),
			Month:  month,
			Count:  roundInt(sheet.Number(r[countCol])),
		})
	}
	return out, nil
}

// dayOf returns the day of month of now, or 1 for the zero time.
func dayOf(now time.Time) int {
	if now.IsZero() {
		return 1
	}
	return now.Day()
}
