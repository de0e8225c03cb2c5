package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/comercial-dash/budgetrecon/internal/config"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	clients := filepath.Join(dir, "clientes.txt")
	if err := os.WriteFile(clients, []byte("Ambev\nVale\n"), 0o644); err != nil {
		t.Fatalf("Failed to write client list: %v", err)
	}

	a := &app{
		cfg: &config.Config{
			WorkDir:          dir,
			BudgetPath:       filepath.Join(dir, "budget.xlsx"),
			ClientsFile:      clients,
			TrackerYear:      intPtr(2026),
			TrackerFromMonth: intPtr(1),
		},
		log: zerolog.Nop(),
	}
	importPath = filepath.Join(dir, "imp.xlsx")
	defer func() { importPath = "" }()

	opts, err := a.options(uuid.New())
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}

	budget, ok := opts.Budget.(source.FileSource)
	if !ok || budget.Path != a.cfg.BudgetPath {
		t.Errorf("Expected the budget file source, got %#v", opts.Budget)
	}
	if opts.LogComex != nil || opts.Tracker != nil {
		t.Errorf("Expected unconfigured sources to stay nil, got %#v %#v", opts.LogComex, opts.Tracker)
	}
	cmp, ok := opts.Comparison.(source.FileSource)
	if !ok || cmp.Path != filepath.Join(dir, budgetrecon.ComparisonFile) {
		t.Errorf("Expected the comparison to default to the work dir, got %#v", opts.Comparison)
	}
	if len(opts.Exports) != 1 || opts.Exports[0].Category != models.Importacao {
		t.Errorf("Expected one import export, got %+v", opts.Exports)
	}
	if opts.TrackerFilter.Year != 2026 || opts.TrackerFilter.FromMonth != 1 || opts.TrackerFilter.Company == "" {
		t.Errorf("Unexpected tracker filter %+v", opts.TrackerFilter)
	}
	if opts.Canonicalizer.Keywords().Len() != 2 || opts.Tagger == nil {
		t.Errorf("Expected keywords and tagger from the client list")
	}
	if len(opts.Sinks) != 0 {
		t.Errorf("Expected no sinks without services, got %d", len(opts.Sinks))
	}
	if a.notifier() != nil {
		t.Error("Expected no notifier without channels")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("Expected b, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}

func intPtr(n int) *int { return &n }

func TestTrackerYearZeroFromConfig(t *testing.T) {
	a := &app{
		cfg: &config.Config{WorkDir: t.TempDir(), TrackerYear: intPtr(0)},
		log: zerolog.Nop(),
	}
	opts, err := a.options(uuid.New())
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if opts.TrackerFilter.Year != 0 {
		t.Errorf("Expected an explicit tracker year 0 to be kept, got %d", opts.TrackerFilter.Year)
	}
	if opts.TrackerFilter.FromMonth != 4 {
		t.Errorf("Expected the default FromMonth, got %d", opts.TrackerFilter.FromMonth)
	}
}
