package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// RunRepository stamps completed scheduled runs so a restart after
// downtime can tell whether a due run was missed and catch it up once.
type RunRepository interface {
	LastRun(ctx context.Context, name string) (time.Time, bool, error)
	Stamp(ctx context.Context, name string, at time.Time) error
}

type runRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{db: db, logger: logger}
}

func (r *runRepository) LastRun(ctx context.Context, name string) (time.Time, bool, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT last_run_at FROM runs WHERE name = ?`, name).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		r.logger.Error("failed to load run stamp", "name", name, "error", err)
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (r *runRepository) Stamp(ctx context.Context, name string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (name, last_run_at) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET last_run_at = excluded.last_run_at`,
		name, at.UTC())
	if err != nil {
		r.logger.Error("failed to stamp run", "name", name, "error", err)
		return err
	}
	return nil
}
