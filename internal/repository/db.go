package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/contractbot/contract-reminder/internal/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	chat_id        INTEGER PRIMARY KEY,
	registered_at  TIMESTAMP NOT NULL,
	last_upload_at TIMESTAMP,
	last_file_name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS notifications (
	chat_id          INTEGER NOT NULL,
	notification_key TEXT    NOT NULL,
	sent_at          TIMESTAMP NOT NULL,
	PRIMARY KEY (chat_id, notification_key)
);
CREATE TABLE IF NOT EXISTS runs (
	name        TEXT PRIMARY KEY,
	last_run_at TIMESTAMP NOT NULL
);
`

// Open creates (or reopens) the embedded state database and applies the
// schema. A missing or empty database file yields an empty state.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.WrapError(err, "create state directory")
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		logger.Error("failed to open state database", "path", path, "error", err)
		return nil, err
	}
	// Single logical writer; one connection keeps the store serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate state schema", "path", path, "error", err)
		return nil, common.WrapError(err, "migrate state schema")
	}

	logger.Info("state database ready", "path", path)
	return db, nil
}

// Close closes the database gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close state database", "error", err)
	}
}

// HealthCheck pings the database to catch a bad path or locked file early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
