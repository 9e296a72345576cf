// Package registry persists run bookkeeping records in SQLite so past
// experiment runs can be listed and inspected from the CLI and results API.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/dotdir"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	// ErrNotFound is returned when a run record does not exist.
	ErrNotFound = errors.New("run not found")
)

// Run is a single experiment run record.
type Run struct {
	ID          string
	Kind        string
	Status      string
	ArtifactDir string
	Error       string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ResolvePath returns the registry database path. An explicit path wins,
// otherwise the database lives in the dot directory as registry.sqlite.
func ResolvePath(overrideDir, explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	target, err := dotdir.NewManager().Target(overrideDir)
	if err != nil {
		return "", fmt.Errorf("resolving registry path: %w", err)
	}
	return filepath.Join(target, "registry.sqlite"), nil
}

// Registry is a SQLite-backed run record store.
type Registry struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the registry database at dbPath.
// Use ":memory:" for an in-memory registry.
func New(dbPath string, logger *zap.Logger) (*Registry, error) {
	if dbPath == "" {
		return nil, errors.New("registry database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	r := &Registry{db: db, logger: logger}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating registry database: %w", err)
	}

	return r, nil
}

// migrate creates the runs table if it doesn't exist.
func (r *Registry) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		artifact_dir TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Create inserts a new run record with status running.
func (r *Registry) Create(ctx context.Context, id, kind, artifactDir string) (*Run, error) {
	run := &Run{
		ID:          id,
		Kind:        kind,
		Status:      StatusRunning,
		ArtifactDir: artifactDir,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, artifact_dir, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Status, run.ArtifactDir, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run %s: %w", id, err)
	}

	r.logger.Debug("created run record",
		zap.String("run_id", run.ID),
		zap.String("kind", run.Kind),
	)

	return run, nil
}

// Complete marks a run as completed.
func (r *Registry) Complete(ctx context.Context, id string) error {
	return r.finish(ctx, id, StatusCompleted, "")
}

// Fail marks a run as failed with the given error message.
func (r *Registry) Fail(ctx context.Context, id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return r.finish(ctx, id, StatusFailed, msg)
}

func (r *Registry) finish(ctx context.Context, id, status, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update for run %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	r.logger.Debug("finished run record",
		zap.String("run_id", id),
		zap.String("status", status),
	)

	return nil
}

// Get retrieves a single run record by ID.
func (r *Registry) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, status, artifact_dir, error, created_at, completed_at
		 FROM runs WHERE id = ?`, id,
	)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	return run, nil
}

// List returns run records in reverse chronological order, newest first.
// A limit of zero or less returns all records.
func (r *Registry) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, kind, status, artifact_dir, error, created_at, completed_at
		 FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var completedAt sql.NullTime

	if err := s.Scan(
		&run.ID, &run.Kind, &run.Status, &run.ArtifactDir,
		&run.Error, &run.CreatedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}

	return &run, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}
