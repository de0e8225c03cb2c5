package report

import (
	"sort"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
)

// DefaultTopN is the number of clients ranked by Summarize.
const DefaultTopN = 15

// Performance thresholds, in percent of the budget.
const (
	TargetPerformance    = 100
	AttentionPerformance = 70
)

// SummaryFilter restricts the rows summarized. Empty fields keep everything.
type SummaryFilter struct {
	Months  []int
	Clients []string
	TopN    int
}

// MonthSummary holds the totals of one month.
type MonthSummary struct {
	Month         int     `json:"mes"`
	Budget        int64   `json:"budget"`
	Opportunities int64   `json:"oportunidades"`
	Realized      int64   `json:"realizado"`
	Performance   float64 `json:"performance"`
}

// ClientSummary holds the totals of one client.
type ClientSummary struct {
	Client        string  `json:"cliente"`
	Budget        int64   `json:"budget"`
	Opportunities int64   `json:"oportunidades"`
	Realized      int64   `json:"realizado"`
	Performance   float64 `json:"performance"`
	Utilization   float64 `json:"aproveitamento"`
}

// Summary is the dashboard headline numbers.
type Summary struct {
	Clients       int     `json:"clientes"`
	Budget        int64   `json:"budget"`
	Opportunities int64   `json:"oportunidades"`
	Realized      int64   `json:"realizado"`
	Performance   float64 `json:"performance"`
	// OpportunityRate is realized services over opportunities, in percent.
	OpportunityRate float64 `json:"taxa_aproveitamento"`
	// Trend is the performance of the last month minus the first one. It is
	// 0 with fewer than two months.
	Trend float64 `json:"tendencia"`

	AboveTarget int `json:"acima_meta"`
	Attention   int `json:"atencao"`
	Critical    int `json:"critico"`

	Monthly    []MonthSummary  `json:"mensal"`
	TopClients []ClientSummary `json:"top_clientes"`
}

// Summarize computes the dashboard numbers for rows. Rows without a client
// or named "undefined" are ignored.
func Summarize(rows []models.FinalRow, f SummaryFilter) Summary {
	if f.TopN <= 0 {
		f.TopN = DefaultTopN
	}
	months := make(map[int]bool, len(f.Months))
	for _, m := range f.Months {
		months[m] = true
	}
	clients := make(map[string]bool, len(f.Clients))
	for _, c := range f.Clients {
		clients[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var s Summary
	byMonth := make(map[int]*MonthSummary)
	byClient := make(map[string]*ClientSummary)
	for _, r := range rows {
		name := strings.TrimSpace(r.Client)
		if name == "" || strings.EqualFold(name, "undefined") {
			continue
		}
		if len(months) > 0 && !months[r.Month] {
			continue
		}
		if len(clients) > 0 && !clients[strings.ToLower(name)] {
			continue
		}
		opp := r.Importacao + r.Exportacao + r.Cabotagem
		s.Budget += r.Budget
		s.Opportunities += opp
		s.Realized += r.Tracker

		m := byMonth[r.Month]
		if m == nil {
			m = &MonthSummary{Month: r.Month}
			byMonth[r.Month] = m
		}
		m.Budget += r.Budget
		m.Opportunities += opp
		m.Realized += r.Tracker

		c := byClient[name]
		if c == nil {
			c = &ClientSummary{Client: name}
			byClient[name] = c
		}
		c.Budget += r.Budget
		c.Opportunities += opp
		c.Realized += r.Tracker
	}

	s.Clients = len(byClient)
	s.Performance = percent(s.Realized, s.Budget)
	s.OpportunityRate = percent(s.Realized, s.Opportunities)

	for _, m := range byMonth {
		m.Performance = percent(m.Realized, m.Budget)
		s.Monthly = append(s.Monthly, *m)
	}
	sort.Slice(s.Monthly, func(i, j int) bool { return s.Monthly[i].Month < s.Monthly[j].Month })
	if n := len(s.Monthly); n >= 2 {
		s.Trend = round2(s.Monthly[n-1].Performance - s.Monthly[0].Performance)
	}

	all := make([]ClientSummary, 0, len(byClient))
	for _, c := range byClient {
		c.Performance = percent(c.Realized, c.Budget)
		c.Utilization = percent(c.Realized, c.Opportunities)
		all = append(all, *c)
		switch {
		case c.Budget == 0:
		case c.Performance >= TargetPerformance:
			s.AboveTarget++
		case c.Performance >= AttentionPerformance:
			s.Attention++
		default:
			s.Critical++
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Budget != all[j].Budget {
			return all[i].Budget > all[j].Budget
		}
		return all[i].Client < all[j].Client
	})
	if len(all) > f.TopN {
		all = all[:f.TopN]
	}
	s.TopClients = all
	return s
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}
