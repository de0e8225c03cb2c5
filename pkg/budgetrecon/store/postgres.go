// Package store keeps the history of runs and the rows of the final report
// in Postgres so the dashboard can query past months.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          UUID PRIMARY KEY,
		command     TEXT NOT NULL,
		status      TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		files       TEXT[] NOT NULL DEFAULT '{}',
		warnings    INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS final_rows (
		run_id              UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		cliente             TEXT NOT NULL,
		mes                 INTEGER NOT NULL,
		budget              BIGINT NOT NULL,
		importacao          BIGINT NOT NULL,
		exportacao          BIGINT NOT NULL,
		cabotagem           BIGINT NOT NULL,
		quantidade_itracker BIGINT NOT NULL,
		aproveitamento      DOUBLE PRECISION NOT NULL,
		realizacao          DOUBLE PRECISION NOT NULL,
		desvio              DOUBLE PRECISION NOT NULL,
		target_diario       DOUBLE PRECISION NOT NULL,
		target_acumulado    DOUBLE PRECISION NOT NULL,
		gap                 DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS final_rows_run_idx ON final_rows (run_id)`,
	`CREATE TABLE IF NOT EXISTS run_warnings (
		run_id  UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		tipo    TEXT NOT NULL,
		cliente TEXT NOT NULL DEFAULT '',
		mes     INTEGER NOT NULL DEFAULT 0,
		origens TEXT[] NOT NULL DEFAULT '{}',
		detalhe TEXT NOT NULL DEFAULT ''
	)`,
}

var finalColumns = []string{
	"run_id", "cliente", "mes", "budget", "importacao", "exportacao", "cabotagem",
	"quantidade_itracker", "aproveitamento", "realizacao", "desvio",
	"target_diario", "target_acumulado", "gap",
}

var warningColumns = []string{"run_id", "tipo", "cliente", "mes", "origens", "detalhe"}

// Run is one execution of a CLI command.
type Run struct {
	ID         uuid.UUID
	Command    string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []string
	Warnings   int
	Error      string
}

// NewRun starts a run record with a fresh ID.
func NewRun(command string, now time.Time) Run {
	return Run{ID: uuid.New(), Command: command, Status: StatusRunning, StartedAt: now}
}

// Postgres is the run store.
type Postgres struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPostgres connects to dsn and checks the connection.
func NewPostgres(ctx context.Context, dsn string, log zerolog.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.db == nil {
		return ErrClosed
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// Migrate creates the tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if p.db == nil {
		return ErrClosed
	}
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

const upsertRun = `
	INSERT INTO runs (id, command, status, started_at, finished_at, files, warnings, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		finished_at = EXCLUDED.finished_at,
		files = EXCLUDED.files,
		warnings = EXCLUDED.warnings,
		error = EXCLUDED.error`

// RecordRun inserts r or updates the stored run with the same ID.
func (p *Postgres) RecordRun(ctx context.Context, r Run) error {
	if p.db == nil {
		return ErrClosed
	}
	if _, err := p.db.ExecContext(ctx, upsertRun, runArgs(r)...); err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	p.log.Debug().Str("run_id", r.ID.String()).Str("status", r.Status).Msg("execução registrada")
	return nil
}

func runArgs(r Run) []any {
	var finished sql.NullTime
	if !r.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: r.FinishedAt, Valid: true}
	}
	files := r.Files
	if files == nil {
		files = []string{}
	}
	return []any{r.ID, r.Command, r.Status, r.StartedAt, finished, pq.Array(files), r.Warnings, r.Error}
}

// PublishFinal replaces the final rows of runID in one transaction.
func (p *Postgres) PublishFinal(ctx context.Context, runID uuid.UUID, rows []models.FinalRow) error {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = finalArgs(runID, r)
	}
	if err := p.replace(ctx, runID, "final_rows", finalColumns, args); err != nil {
		return err
	}
	p.log.Info().Str("run_id", runID.String()).Int("rows", len(rows)).Msg("comparativo final gravado no banco")
	return nil
}

// PublishWarnings replaces the alerts of runID in one transaction.
func (p *Postgres) PublishWarnings(ctx context.Context, runID uuid.UUID, warnings []models.Warning) error {
	args := make([][]any, len(warnings))
	for i, w := range warnings {
		args[i] = warningArgs(runID, w)
	}
	return p.replace(ctx, runID, "run_warnings", warningColumns, args)
}

func (p *Postgres) replace(ctx context.Context, runID uuid.UUID, table string, columns []string, rows [][]any) error {
	if p.db == nil {
		return ErrClosed
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteByRun(table), runID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy into %s: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy into %s: %w", table, err)
	}
	return tx.Commit()
}

func deleteByRun(table string) string {
	return "DELETE FROM " + pq.QuoteIdentifier(table) + " WHERE run_id = $1"
}

func finalArgs(runID uuid.UUID, r models.FinalRow) []any {
	return []any{
		runID.String(), r.Client, r.Month, r.Budget, r.Importacao, r.Exportacao, r.Cabotagem,
		r.Tracker, r.Utilization, r.Realization, r.Deviation,
		r.DailyTarget, r.AccumTarget, r.Gap,
	}
}

func warningArgs(runID uuid.UUID, w models.Warning) []any {
	sources := w.Sources
	if sources == nil {
		sources = []string{}
	}
	return []any{runID.String(), string(w.Kind), w.Client, w.Month, pq.Array(sources), w.Detail}
}
