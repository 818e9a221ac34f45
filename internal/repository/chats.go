package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/contractbot/contract-reminder/internal/common"
)

// Chat is one registered notification recipient. The upload metadata is
// process-wide: every chat's view of "freshest known file" advances
// together when a new workbook lands.
type Chat struct {
	ID           int64
	RegisteredAt time.Time
	LastUploadAt *time.Time
	LastFileName string
}

type ChatRepository interface {
	// Register upserts a chat; calling it twice is a no-op.
	Register(ctx context.Context, id int64) error
	// Get returns common.ErrNotFound for an unknown chat.
	Get(ctx context.Context, id int64) (*Chat, error)
	List(ctx context.Context) ([]Chat, error)
	// SetLastUploadAll stamps the upload time and filename onto every
	// registered chat.
	SetLastUploadAll(ctx context.Context, filename string, at time.Time) error
}

type chatRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewChatRepository(db *sql.DB, logger *slog.Logger) ChatRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatRepository{db: db, logger: logger}
}

func (r *chatRepository) Register(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (chat_id, registered_at) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO NOTHING`,
		id, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to register chat", "chat_id", id, "error", err)
		return err
	}
	return nil
}

func (r *chatRepository) Get(ctx context.Context, id int64) (*Chat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT chat_id, registered_at, last_upload_at, last_file_name
		 FROM chats WHERE chat_id = ?`, id)
	chat, err := scanChat(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load chat", "chat_id", id, "error", err)
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) List(ctx context.Context) ([]Chat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chat_id, registered_at, last_upload_at, last_file_name
		 FROM chats ORDER BY chat_id`)
	if err != nil {
		r.logger.Error("failed to list chats", "error", err)
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		chat, err := scanChat(rows.Scan)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

func (r *chatRepository) SetLastUploadAll(ctx context.Context, filename string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_upload_at = ?, last_file_name = ?`,
		at.UTC(), filename)
	if err != nil {
		r.logger.Error("failed to stamp upload on chats", "filename", filename, "error", err)
		return err
	}
	return nil
}

func scanChat(scan func(dest ...any) error) (*Chat, error) {
	var chat Chat
	var uploadedAt sql.NullTime
	if err := scan(&chat.ID, &chat.RegisteredAt, &uploadedAt, &chat.LastFileName); err != nil {
		return nil, err
	}
	if uploadedAt.Valid {
		t := uploadedAt.Time
		chat.LastUploadAt = &t
	}
	return &chat, nil
}
