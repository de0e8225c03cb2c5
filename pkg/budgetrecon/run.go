package budgetrecon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/notify"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
)

// Result describes what a run produced.
type Result struct {
	// Files are the local paths written.
	Files []string
	// Published are the file names accepted by every sink.
	Published []string
	PublishOK bool
	Warnings  []models.Warning

	Done   []string
	Failed []string

	Comparison []models.ComparisonRow
	Counts     []models.TrackerCount
	Final      []models.FinalRow
}

func newResult() *Result {
	return &Result{PublishOK: true}
}

// Status summarizes r for notifications.
func (r *Result) Status() notify.Status {
	return notify.Status{
		Done:      r.Done,
		Failed:    r.Failed,
		Published: r.Published,
		PublishOK: r.PublishOK,
		Warnings:  len(r.Warnings),
	}
}

func (r *Result) merge(o *Result) {
	r.Files = append(r.Files, o.Files...)
	r.Published = append(r.Published, o.Published...)
	r.PublishOK = r.PublishOK && o.PublishOK
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.Done = append(r.Done, o.Done...)
	r.Failed = append(r.Failed, o.Failed...)
	if o.Comparison != nil {
		r.Comparison = o.Comparison
	}
	if o.Counts != nil {
		r.Counts = o.Counts
	}
	if o.Final != nil {
		r.Final = o.Final
	}
}

// RunComparison builds comparativo_budget_vs_logcomex_final from the budget
// and the consolidated LogComex sheet.
func RunComparison(ctx context.Context, opts Options) (*Result, error) {
	res := newResult()
	if err := runComparison(ctx, opts, res); err != nil {
		res.Failed = append(res.Failed, StepComparison)
		return res, stepError(StepComparison, err)
	}
	res.Done = append(res.Done, StepComparison)
	return res, nil
}

func runComparison(ctx context.Context, opts Options, res *Result) error {
	log := opts.Logger.With().Str("step", StepComparison).Logger()
	c := opts.canonicalizer()

	budgetTable, err := fetch(ctx, opts.Budget, "budget")
	if err != nil {
		return err
	}
	logcomexTable, err := fetch(ctx, opts.LogComex, "logcomex")
	if err != nil {
		return err
	}

	budget, warnings, err := report.ReadBudget(budgetTable, c)
	if err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	shipments, shipWarnings := report.ReadShipments(logcomexTable, c)
	warnings = append(warnings, shipWarnings...)
	log.Info().Int("budget", len(budget)).Int("shipments", len(shipments)).Msg("planilhas lidas")

	cmp := report.BuildComparison(budget, shipments, c.Keywords(), report.ComparisonOptions{
		Year:          opts.Year,
		ExactKeywords: opts.ExactKeywords,
	})
	warnings = append(warnings, cmp.Warnings...)
	if len(cmp.Dropped) > 0 {
		log.Info().Int("clients", len(cmp.Dropped)).Strs("dropped", cmp.Dropped).Msg("clientes fora da lista de palavras-chave")
	}
	if len(cmp.Rows) == 0 {
		return fmt.Errorf("comparison: %w", ErrNoRows)
	}
	logWarnings(opts, warnings)

	res.Comparison = cmp.Rows
	res.Warnings = append(res.Warnings, warnings...)
	return write(ctx, opts, res, ComparisonFile,
		report.ComparisonSheet(cmp.Rows),
		report.WarningSheet(report.ComparisonAlertSheet, warnings))
}

// RunTracker counts the iTRACKER services, merges them with the comparison
// read from opts.Comparison and writes contagem_por_cliente and
// comparativo_final_atualizado.
func RunTracker(ctx context.Context, opts Options) (*Result, error) {
	res := newResult()
	if err := runTracker(ctx, opts, nil, res); err != nil {
		res.Failed = append(res.Failed, StepTracker)
		return res, stepError(StepTracker, err)
	}
	res.Done = append(res.Done, StepTracker)
	return res, nil
}

func runTracker(ctx context.Context, opts Options, comparison []models.ComparisonRow, res *Result) error {
	log := opts.Logger.With().Str("step", StepTracker).Logger()
	c := opts.canonicalizer()

	if comparison == nil {
		t, err := fetch(ctx, opts.Comparison, "comparison")
		if err != nil {
			return err
		}
		if comparison, err = report.ReadComparison(t); err != nil {
			return fmt.Errorf("comparison: %w", err)
		}
	}

	trackerTable, err := fetch(ctx, opts.Tracker, "itracker")
	if err != nil {
		return err
	}
	records, err := report.ReadTracker(trackerTable)
	if err != nil {
		return fmt.Errorf("itracker: %w", err)
	}
	counts := report.CountTracker(records, c, opts.TrackerFilter)
	log.Info().Int("records", len(records)).Int("counts", len(counts)).Msg("iTRACKER contado")
	res.Counts = counts
	if err := write(ctx, opts, res, TrackerCountFile, report.TrackerCountSheet(counts)); err != nil {
		return err
	}

	final, warnings := report.MergeFinal(comparison, counts, report.FinalOptions{
		DefaultYear: opts.defaultYear(),
		Groups:      opts.Groups,
		Now:         opts.now(),
	})
	logWarnings(opts, warnings)
	res.Final = final
	res.Warnings = append(res.Warnings, warnings...)
	if err := write(ctx, opts, res, FinalFile,
		report.FinalSheet(final),
		report.WarningSheet(report.FinalAlertSheet, warnings)); err != nil {
		return err
	}

	return writeClientIndex(ctx, opts, res, final)
}

func writeClientIndex(ctx context.Context, opts Options, res *Result, final []models.FinalRow) error {
	path := filepath.Join(opts.OutputDir, ClientIndexFile)
	if err := report.NewClientIndex(final).SaveJSON(path); err != nil {
		return fmt.Errorf("client index: %w", err)
	}
	res.Files = append(res.Files, path)
	publish(ctx, opts, res, source.Artifact{Name: ClientIndexFile, Path: path, MimeType: "application/json"})
	return nil
}

// RunConsolidation stacks the LogComex exports into Dados_Consolidados and
// tags the known clients found in each row.
func RunConsolidation(ctx context.Context, opts Options) (*Result, error) {
	res := newResult()
	if err := runConsolidation(ctx, opts, res); err != nil {
		res.Failed = append(res.Failed, StepConsolidation)
		return res, stepError(StepConsolidation, err)
	}
	res.Done = append(res.Done, StepConsolidation)
	return res, nil
}

func runConsolidation(ctx context.Context, opts Options, res *Result) error {
	log := opts.Logger.With().Str("step", StepConsolidation).Logger()
	if len(opts.Exports) == 0 {
		return fmt.Errorf("exports: %w", ErrNoSource)
	}

	var inputs []report.CategoryInput
	for _, e := range opts.Exports {
		t, err := fetch(ctx, e.Source, string(e.Category))
		if err != nil {
			// A missing export leaves its category out, as long as one remains.
			log.Error().Err(err).Str("category", string(e.Category)).Msg("exportação não lida")
			continue
		}
		inputs = append(inputs, report.CategoryInput{Category: e.Category, Table: t})
	}
	if len(inputs) == 0 {
		return fmt.Errorf("exports: %w", ErrNoRows)
	}

	t := report.Consolidate(inputs)
	if opts.Tagger != nil {
		tagged := report.TagClients(t, opts.Tagger, report.ClientColumns)
		log.Info().Int("rows", len(t.Rows)).Int("tagged", tagged).Msg("clientes identificados")
	}
	return write(ctx, opts, res, ConsolidatedFile, t.Data())
}

// Run executes the consolidation (when exports are configured), the
// comparison and the tracker merge. A failed step does not stop the next
// ones; the tracker falls back to opts.Comparison when the comparison
// failed. The returned error joins every step error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res := newResult()
	var errs []error

	if len(opts.Exports) > 0 {
		r, err := RunConsolidation(ctx, opts)
		res.merge(r)
		if err != nil {
			errs = append(errs, err)
		} else if opts.LogComex == nil {
			opts.LogComex = source.FileSource{Path: filepath.Join(opts.OutputDir, ConsolidatedFile)}
		}
	}

	cmp, err := RunComparison(ctx, opts)
	res.merge(cmp)
	if err != nil {
		errs = append(errs, err)
	}

	tr := newResult()
	if err := runTracker(ctx, opts, cmp.Comparison, tr); err != nil {
		tr.Failed = append(tr.Failed, StepTracker)
		errs = append(errs, stepError(StepTracker, err))
	} else {
		tr.Done = append(tr.Done, StepTracker)
	}
	res.merge(tr)

	return res, errors.Join(errs...)
}

func fetch(ctx context.Context, src source.Source, what string) (*sheet.Table, error) {
	if src == nil {
		return nil, fmt.Errorf("%s: %w", what, ErrNoSource)
	}
	t, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", what, src.Name(), err)
	}
	return t, nil
}

func write(ctx context.Context, opts Options, res *Result, name string, sheets ...sheet.SheetData) error {
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := sheet.WriteXLSX(path, sheets...); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	opts.Logger.Info().Str("file", path).Msg("planilha gravada")
	res.Files = append(res.Files, path)
	publish(ctx, opts, res, source.Artifact{Name: name, Path: path, MimeType: source.XLSXMimeType, Sheets: sheets})
	return nil
}

func publish(ctx context.Context, opts Options, res *Result, a source.Artifact) {
	if len(opts.Sinks) == 0 {
		return
	}
	if source.PublishAll(ctx, opts.Logger, a, opts.Sinks...) {
		res.Published = append(res.Published, a.Name)
		return
	}
	res.PublishOK = false
}

func logWarnings(opts Options, warnings []models.Warning) {
	for _, w := range warnings {
		opts.Logger.Warn().Str("kind", string(w.Kind)).Str("client", w.Client).Int("month", w.Month).Strs("sources", w.Sources).Msg(w.Detail)
	}
}
