// Package config loads the job settings from .env.<env> files and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// EnvVar selects the .env file, e.g. BUDGETRECON_ENV=staging loads .env.staging.
const EnvVar = "BUDGETRECON_ENV"

// KEYWORD_MATCH values.
const (
	KeywordMatchToken = "token"
	KeywordMatchExact = "exact"
)

// Config holds every setting of the CLI. Flags override these values.
type Config struct {
	Env string

	// Google
	CredentialsFile string
	BudgetFileID    string
	LogComexFileID  string
	TrackerFileID   string
	// OutputFileIDs maps an output file name to the Drive file it replaces.
	OutputFileIDs map[string]string
	DriveFolderID string
	SpreadsheetID string

	// Local files
	WorkDir      string
	BudgetPath   string
	LogComexPath string
	TrackerPath  string
	ClientsFile  string
	AliasesFile  string
	KeywordsFile string

	// Filters
	Year             int
	// KeywordMatch is "token" (a keyword's tokens appear in the client) or
	// "exact" (the client is a keyword).
	KeywordMatch     string
	TrackerCompany   string
	// TrackerYear and TrackerFromMonth are nil when unset; an explicit
	// TRACKER_YEAR=0 counts every year.
	TrackerYear      *int
	TrackerFromMonth *int

	DatabaseURL string

	TelegramToken  string
	TelegramChatID string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	MailTo         []string

	LogLevel      string
	FetchAttempts int
}

// Load reads .env.<BUDGETRECON_ENV> (default "production") and then the
// process environment. A missing file is only a warning.
func Load(log zerolog.Logger) (*Config, error) {
	env := os.Getenv(EnvVar)
	if env == "" {
		env = "production"
	}
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		log.Warn().Str("file", envFile).Msg("arquivo de ambiente não encontrado, usando variáveis do sistema")
	}
	return FromEnv(env, os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(env string, getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}
	cfg := &Config{
		Env:             env,
		CredentialsFile: r.str("GOOGLE_CREDENTIALS_FILE", ""),
		BudgetFileID:    r.str("BUDGET_FILE_ID", ""),
		LogComexFileID:  r.str("LOGCOMEX_FILE_ID", ""),
		TrackerFileID:   r.str("ITRACKER_FILE_ID", ""),
		OutputFileIDs:   r.pairs("OUTPUT_FILE_IDS"),
		DriveFolderID:   r.str("DRIVE_FOLDER_ID", ""),
		SpreadsheetID:   r.str("SHEETS_SPREADSHEET_ID", ""),

		WorkDir:      r.str("WORK_DIR", "."),
		BudgetPath:   r.str("BUDGET_PATH", ""),
		LogComexPath: r.str("LOGCOMEX_PATH", ""),
		TrackerPath:  r.str("ITRACKER_PATH", ""),
		ClientsFile:  r.str("CLIENTES_FILE", ""),
		AliasesFile:  r.str("ALIASES_FILE", ""),
		KeywordsFile: r.str("KEYWORDS_FILE", ""),

		Year:             r.integer("YEAR", 0),
		KeywordMatch:     r.str("KEYWORD_MATCH", KeywordMatchToken),
		TrackerCompany:   r.str("TRACKER_COMPANY", ""),
		TrackerYear:      r.optional("TRACKER_YEAR"),
		TrackerFromMonth: r.optional("TRACKER_FROM_MONTH"),

		DatabaseURL: r.str("DATABASE_URL", ""),

		TelegramToken:  r.str("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: r.str("TELEGRAM_CHAT_ID", ""),
		SMTPHost:       r.str("SMTP_HOST", ""),
		SMTPPort:       r.integer("SMTP_PORT", 587),
		SMTPUser:       r.str("SMTP_USER", ""),
		SMTPPassword:   r.str("SMTP_PASSWORD", ""),
		SMTPFrom:       r.str("SMTP_FROM", ""),
		MailTo:         r.list("MAIL_TO"),

		LogLevel:      r.str("LOG_LEVEL", "info"),
		FetchAttempts: r.integer("FETCH_ATTEMPTS", 3),
	}
	switch strings.ToLower(cfg.KeywordMatch) {
	case KeywordMatchToken, KeywordMatchExact:
		cfg.KeywordMatch = strings.ToLower(cfg.KeywordMatch)
	default:
		r.errs = append(r.errs, fmt.Errorf("KEYWORD_MATCH: expected %q or %q, got %q", KeywordMatchToken, KeywordMatchExact, cfg.KeywordMatch))
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return cfg, nil
}

// ExactKeywords reports whether KEYWORD_MATCH asks for exact membership.
func (c *Config) ExactKeywords() bool {
	return c.KeywordMatch == KeywordMatchExact
}

// UsesDrive reports whether any input comes from Drive.
func (c *Config) UsesDrive() bool {
	return c.BudgetFileID != "" || c.LogComexFileID != "" || c.TrackerFileID != ""
}

// PublishesToDrive reports whether outputs go to Drive.
func (c *Config) PublishesToDrive() bool {
	return len(c.OutputFileIDs) > 0 || c.DriveFolderID != ""
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *reader) optional(key string) *int {
	if strings.TrimSpace(r.getenv(key)) == "" {
		return nil
	}
	n := r.integer(key, 0)
	return &n
}

func (r *reader) list(key string) []string {
	var out []string
	for _, item := range strings.Split(r.getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// pairs reads "name=id,name=id".
func (r *reader) pairs(key string) map[string]string {
	items := r.list(key)
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		name, id, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(id) == "" {
			r.errs = append(r.errs, fmt.Errorf("%s: invalid pair %q", key, item))
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}
	return out
}
