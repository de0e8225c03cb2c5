// Package budgetrecon runs the reporting jobs of the commercial dashboard:
// the Budget vs LogComex comparison, the iTRACKER count merged into the
// final report, and the consolidation of the LogComex exports.
package budgetrecon

import (
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/rs/zerolog"
)

// Output file names.
const (
	ComparisonFile   = "comparativo_budget_vs_logcomex_final.xlsx"
	TrackerCountFile = "contagem_por_cliente.xlsx"
	FinalFile        = "comparativo_final_atualizado.xlsx"
	ConsolidatedFile = "Dados_Consolidados.xlsx"
	ClientIndexFile  = "dados_clientes_estruturado.json"
)

// Step names, as reported in Result and in notifications.
const (
	StepComparison    = "comparativo"
	StepTracker       = "itracker"
	StepConsolidation = "consolidar"
)

// Export is one LogComex export and the category of its shipments.
type Export struct {
	Category models.Category
	Source   source.Source
}

// Options configures the jobs.
type Options struct {
	// Budget and LogComex feed the comparison.
	Budget   source.Source
	LogComex source.Source
	// Tracker is the iTRACKER workbook.
	Tracker source.Source
	// Comparison is read by RunTracker when the comparison was produced by
	// an earlier run.
	Comparison source.Source
	// Exports are the per-category LogComex files for RunConsolidation.
	Exports []Export

	// Canonicalizer resolves client names. If nil, the default aliases are
	// used without keywords.
	Canonicalizer *canon.Canonicalizer
	// Tagger adds the found clients to the consolidated sheet. Optional.
	Tagger *canon.Tagger
	// Groups maps canonical clients to their commercial name in the final
	// report.
	Groups map[string]string

	// Year filters the comparison; 0 keeps every year.
	Year int
	// ExactKeywords requires a budget client to be a keyword itself
	// instead of containing one.
	ExactKeywords bool
	TrackerFilter report.TrackerFilter

	// OutputDir receives the local copies of every produced file.
	OutputDir string
	Sinks     []source.Sink

	Now    func() time.Time
	Logger zerolog.Logger
}

// DefaultOptions returns options with the default aliases, groups and
// iTRACKER filter, writing to the current directory.
func DefaultOptions() Options {
	return Options{
		Canonicalizer: canon.New(nil, canon.NewAliasTable(canon.DefaultAliases())),
		Groups:        canon.DefaultCommercialGroups(),
		TrackerFilter: report.DefaultTrackerFilter(),
		OutputDir:     ".",
		Logger:        zerolog.Nop(),
	}
}

func (o Options) canonicalizer() *canon.Canonicalizer {
	if o.Canonicalizer != nil {
		return o.Canonicalizer
	}
	return canon.New(nil, canon.NewAliasTable(canon.DefaultAliases()))
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// defaultYear is the year given to comparison rows that carry none.
func (o Options) defaultYear() int {
	if o.Year > 0 {
		return o.Year
	}
	if o.TrackerFilter.Year > 0 {
		return o.TrackerFilter.Year
	}
	return o.now().Year()
}
