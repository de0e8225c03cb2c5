package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/comercial-dash/budgetrecon/internal/config"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/canon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/gdrive"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/notify"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/retry"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// app holds what the commands share: configuration, logger and the
// external services that were configured.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	drive  *drive.Service
	sheets *sheets.Service
	db     *store.Postgres
}

func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newLocalApp loads the configuration and applies the global flags.
func newLocalApp() (*app, error) {
	boot := newLogger(zerolog.InfoLevel)
	cfg, err := config.Load(boot)
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	if yearSet {
		cfg.Year = year
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return &app{cfg: cfg, log: newLogger(cfg.Level())}, nil
}

// newApp is newLocalApp plus the services the configuration asks for.
func newApp(ctx context.Context) (*app, error) {
	a, err := newLocalApp()
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	if cfg.UsesDrive() || (publish && (cfg.PublishesToDrive() || cfg.SpreadsheetID != "")) {
		client, err := gdrive.HTTPClient(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		if a.drive, err = gdrive.NewDrive(ctx, client); err != nil {
			return nil, err
		}
		if a.sheets, err = gdrive.NewSheets(ctx, client); err != nil {
			return nil, err
		}
	}

	if publish && cfg.DatabaseURL != "" {
		db, err := store.NewPostgres(ctx, cfg.DatabaseURL, a.log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
	}
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) policy() retry.Policy {
	p := gdrive.DefaultPolicy()
	if a.cfg.FetchAttempts > 0 {
		p.Attempts = a.cfg.FetchAttempts
	}
	p.Logger = a.log
	return p
}

// source reads path when given, else the Drive file id. Drive reads are
// retried.
func (a *app) source(path, fileID, sheetName string) source.Source {
	switch {
	case path != "":
		return source.FileSource{Path: path, Sheet: sheetName}
	case fileID != "" && a.drive != nil:
		return source.Retrying(&gdrive.DriveSource{
			Service: a.drive,
			FileID:  fileID,
			Sheet:   sheetName,
			Logger:  a.log,
			Quiet:   quiet,
		}, a.policy())
	}
	return nil
}

func (a *app) sinks(runID uuid.UUID) []source.Sink {
	if !publish {
		return nil
	}
	var sinks []source.Sink
	if a.drive != nil && a.cfg.PublishesToDrive() {
		sinks = append(sinks, &gdrive.DriveSink{
			Service:  a.drive,
			FileIDs:  a.cfg.OutputFileIDs,
			FolderID: a.cfg.DriveFolderID,
			Policy:   a.policy(),
			Logger:   a.log,
		})
	}
	if a.sheets != nil && a.cfg.SpreadsheetID != "" {
		sinks = append(sinks, &gdrive.SheetsSink{
			Service:       a.sheets,
			SpreadsheetID: a.cfg.SpreadsheetID,
			Policy:        a.policy(),
			Logger:        a.log,
		})
	}
	if a.db != nil {
		sinks = append(sinks, &store.FinalSink{Store: a.db, RunID: runID})
	}
	return sinks
}

func (a *app) canonicalizer() (*canon.Canonicalizer, error) {
	var keywords *canon.KeywordSet
	if path := firstNonEmpty(a.cfg.KeywordsFile, a.cfg.ClientsFile); path != "" {
		ks, err := canon.LoadKeywords(path)
		if err != nil {
			return nil, err
		}
		keywords = ks
		a.log.Info().Str("file", path).Int("keywords", ks.Len()).Msg("lista de clientes carregada")
	}

	aliases := canon.NewAliasTable(canon.DefaultAliases())
	if a.cfg.AliasesFile != "" {
		t, err := canon.LoadAliases(a.cfg.AliasesFile, canon.DefaultAliases())
		if err != nil {
			return nil, err
		}
		aliases = t
	}
	for _, c := range aliases.Conflicts() {
		a.log.Warn().Str("alias", c.Key).Str("kept", c.Kept).Str("dropped", c.Dropped).Msg("alias duplicado")
	}
	return canon.New(keywords, aliases), nil
}

func (a *app) tagger() (*canon.Tagger, error) {
	if a.cfg.ClientsFile == "" {
		return nil, nil
	}
	names, err := canon.ReadClientList(a.cfg.ClientsFile)
	if err != nil {
		return nil, err
	}
	return canon.NewTagger(names), nil
}

// options builds the job options for one run.
func (a *app) options(runID uuid.UUID) (budgetrecon.Options, error) {
	c, err := a.canonicalizer()
	if err != nil {
		return budgetrecon.Options{}, err
	}
	tagger, err := a.tagger()
	if err != nil {
		return budgetrecon.Options{}, err
	}

	filter := report.DefaultTrackerFilter()
	if a.cfg.TrackerCompany != "" {
		filter.Company = a.cfg.TrackerCompany
	}
	if a.cfg.TrackerYear != nil {
		filter.Year = *a.cfg.TrackerYear
	}
	if a.cfg.TrackerFromMonth != nil {
		filter.FromMonth = *a.cfg.TrackerFromMonth
	}

	opts := budgetrecon.DefaultOptions()
	opts.Canonicalizer = c
	opts.Tagger = tagger
	opts.Year = a.cfg.Year
	opts.ExactKeywords = a.cfg.ExactKeywords()
	opts.TrackerFilter = filter
	opts.OutputDir = a.cfg.WorkDir
	opts.Sinks = a.sinks(runID)
	opts.Logger = a.log

	opts.Budget = a.source(firstNonEmpty(budgetPath, a.cfg.BudgetPath), a.cfg.BudgetFileID, "")
	opts.LogComex = a.source(firstNonEmpty(logcomexPath, a.cfg.LogComexPath), a.cfg.LogComexFileID, "")
	opts.Tracker = a.source(firstNonEmpty(trackerPath, a.cfg.TrackerPath), a.cfg.TrackerFileID, report.TrackerSheet)
	opts.Comparison = a.source(firstNonEmpty(comparisonPath, filepath.Join(a.cfg.WorkDir, budgetrecon.ComparisonFile)), "", "")

	for _, e := range []struct {
		path string
		cat  models.Category
	}{{importPath, models.Importacao}, {exportPath, models.Exportacao}, {cabotagePath, models.Cabotagem}} {
		if e.path != "" {
			opts.Exports = append(opts.Exports, budgetrecon.Export{Category: e.cat, Source: source.FileSource{Path: e.path}})
		}
	}
	return opts, nil
}

func (a *app) notifier() notify.Notifier {
	m := notify.Multi{Logger: a.log}
	if a.cfg.TelegramToken != "" {
		m.Notifiers = append(m.Notifiers, &notify.Telegram{Token: a.cfg.TelegramToken, ChatID: a.cfg.TelegramChatID})
	}
	if a.cfg.SMTPHost != "" {
		m.Notifiers = append(m.Notifiers, &notify.Email{
			Host:     a.cfg.SMTPHost,
			Port:     a.cfg.SMTPPort,
			Username: a.cfg.SMTPUser,
			Password: a.cfg.SMTPPassword,
			From:     a.cfg.SMTPFrom,
			To:       a.cfg.MailTo,
		})
	}
	if len(m.Notifiers) == 0 {
		return nil
	}
	return m
}

func (a *app) recordRun(ctx context.Context, r store.Run) {
	if a.db == nil {
		return
	}
	if err := a.db.RecordRun(ctx, r); err != nil {
		a.log.Error().Err(err).Msg("falha ao registrar execução")
	}
}

// execute runs job as command, records the run, and sends the status.
func (a *app) execute(ctx context.Context, command string, job jobFunc) error {
	run := store.NewRun(command, time.Now())
	opts, err := a.options(run.ID)
	if err != nil {
		return err
	}
	a.recordRun(ctx, run)

	res, jobErr := job(ctx, opts)
	run.FinishedAt = time.Now()
	run.Files = res.Published
	run.Warnings = len(res.Warnings)
	switch res.Status().Outcome() {
	case notify.Failure:
		run.Status = store.StatusFailed
	case notify.Partial:
		run.Status = store.StatusPartial
	default:
		run.Status = store.StatusSuccess
	}
	if jobErr != nil {
		run.Error = jobErr.Error()
	}
	a.recordRun(ctx, run)

	status := res.Status()
	a.log.Info().
		Str("run_id", run.ID.String()).
		Strs("done", status.Done).
		Strs("failed", status.Failed).
		Int("warnings", status.Warnings).
		Msg(status.Subject())

	if n := a.notifier(); n != nil && notifyRun {
		if err := n.Notify(ctx, status.Subject(), notify.StatusMessage(status)); err != nil {
			a.log.Error().Err(err).Msg("notificação não enviada")
		}
	}
	if jobErr != nil {
		return fmt.Errorf("%s: %w", command, jobErr)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type jobFunc func(context.Context, budgetrecon.Options) (*budgetrecon.Result, error)
