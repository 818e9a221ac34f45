package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// NotificationRepository is the append-only dedup ledger. Presence of an
// entry means "this chat was already notified for this key".
type NotificationRepository interface {
	Has(ctx context.Context, chatID int64, key string) (bool, error)
	// Mark is an idempotent insert: marking an existing entry keeps a
	// single row.
	Mark(ctx context.Context, chatID int64, key string, at time.Time) error
}

type notificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewNotificationRepository(db *sql.DB, logger *slog.Logger) NotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Has(ctx context.Context, chatID int64, key string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE chat_id = ? AND notification_key = ?`,
		chatID, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to check notification", "chat_id", chatID, "key", key, "error", err)
		return false, err
	}
	return true, nil
}

func (r *notificationRepository) Mark(ctx context.Context, chatID int64, key string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (chat_id, notification_key, sent_at) VALUES (?, ?, ?)
		 ON CONFLICT (chat_id, notification_key) DO UPDATE SET sent_at = excluded.sent_at`,
		chatID, key, at.UTC())
	if err != nil {
		r.logger.Error("failed to mark notification", "chat_id", chatID, "key", key, "error", err)
		return err
	}
	return nil
}
