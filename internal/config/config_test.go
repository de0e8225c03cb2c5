package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv("test", env(nil))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.WorkDir != "." {
		t.Errorf("Expected WorkDir '.', got %q", cfg.WorkDir)
	}
	if cfg.SMTPPort != 587 || cfg.FetchAttempts != 3 {
		t.Errorf("Unexpected defaults: port %d, attempts %d", cfg.SMTPPort, cfg.FetchAttempts)
	}
	if cfg.UsesDrive() || cfg.PublishesToDrive() {
		t.Error("Expected no Drive usage without IDs")
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %v", cfg.Level())
	}
}

func TestFromEnvValues(t *testing.T) {
	cfg, err := FromEnv("prod", env(map[string]string{
		"BUDGET_FILE_ID":  " abc ",
		"OUTPUT_FILE_IDS": "comparativo_final_atualizado.xlsx=id1, contagem_por_cliente.xlsx=id2",
		"MAIL_TO":         "a@x.com, ,b@x.com",
		"TRACKER_YEAR":    "2025",
		"LOG_LEVEL":       "DEBUG",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.BudgetFileID != "abc" || !cfg.UsesDrive() {
		t.Errorf("Expected trimmed budget id, got %q", cfg.BudgetFileID)
	}
	if len(cfg.OutputFileIDs) != 2 || cfg.OutputFileIDs["contagem_por_cliente.xlsx"] != "id2" {
		t.Errorf("Unexpected output ids %v", cfg.OutputFileIDs)
	}
	if len(cfg.MailTo) != 2 || cfg.MailTo[1] != "b@x.com" {
		t.Errorf("Unexpected recipients %v", cfg.MailTo)
	}
	if cfg.TrackerYear == nil || *cfg.TrackerYear != 2025 {
		t.Errorf("Expected tracker year 2025, got %v", cfg.TrackerYear)
	}
	if cfg.TrackerFromMonth != nil {
		t.Errorf("Expected unset tracker month, got %d", *cfg.TrackerFromMonth)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", cfg.Level())
	}
}

func TestFromEnvExplicitZeroTrackerYear(t *testing.T) {
	cfg, err := FromEnv("prod", env(map[string]string{"TRACKER_YEAR": "0"}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.TrackerYear == nil || *cfg.TrackerYear != 0 {
		t.Errorf("Expected an explicit tracker year 0, got %v", cfg.TrackerYear)
	}
}

func TestFromEnvKeywordMatch(t *testing.T) {
	cfg, err := FromEnv("prod", env(map[string]string{"KEYWORD_MATCH": "Exact"}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if !cfg.ExactKeywords() {
		t.Errorf("Expected exact keyword match, got %q", cfg.KeywordMatch)
	}

	if _, err := FromEnv("prod", env(map[string]string{"KEYWORD_MATCH": "fuzzy"})); err == nil || !strings.Contains(err.Error(), "KEYWORD_MATCH") {
		t.Errorf("Expected a KEYWORD_MATCH error, got %v", err)
	}
}

func TestFromEnvErrors(t *testing.T) {
	_, err := FromEnv("prod", env(map[string]string{
		"FETCH_ATTEMPTS":  "three",
		"OUTPUT_FILE_IDS": "broken",
	}))
	if err == nil {
		t.Fatal("Expected an error")
	}
	for _, key := range []string{"FETCH_ATTEMPTS", "OUTPUT_FILE_IDS"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected error to mention %s, got %v", key, err)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env.unittest"), []byte("DRIVE_FOLDER_ID=folder-from-file\n"), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	t.Setenv(EnvVar, "unittest")
	t.Setenv("DRIVE_FOLDER_ID", "")
	os.Unsetenv("DRIVE_FOLDER_ID")

	cfg, err := Load(zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != "unittest" || cfg.DriveFolderID != "folder-from-file" {
		t.Errorf("Expected values from .env.unittest, got env %q folder %q", cfg.Env, cfg.DriveFolderID)
	}

	t.Setenv(EnvVar, "missing")
	if _, err := Load(zerolog.Nop()); err != nil {
		t.Errorf("Expected a missing env file to be tolerated, got %v", err)
	}
}
