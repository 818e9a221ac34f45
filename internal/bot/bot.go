package bot

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/contractbot/contract-reminder/internal/repository"
	"github.com/contractbot/contract-reminder/internal/services/reminder"
	"github.com/contractbot/contract-reminder/internal/services/sheetsync"
)

// Bot is the recipient command surface and, for the reminder pipeline,
// the document transport.
type Bot struct {
	tb        *tele.Bot
	chats     repository.ChatRepository
	reminders *reminder.Service
	sync      *sheetsync.Service
	allow     map[int64]struct{}
	loc       *time.Location
	logger    *slog.Logger
}

func New(token string, allowlist []int64, chats repository.ChatRepository, loc *time.Location, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:     token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeMarkdown,
	})
	if err != nil {
		return nil, err
	}

	allow := make(map[int64]struct{}, len(allowlist))
	for _, id := range allowlist {
		allow[id] = struct{}{}
	}

	b := &Bot{
		tb:     tb,
		chats:  chats,
		allow:  allow,
		loc:    loc,
		logger: logger,
	}
	b.registerHandlers()
	return b, nil
}

// Attach connects the services the command handlers drive. The bot is
// constructed before the reminder pipeline because the pipeline needs
// the bot as its transport.
func (b *Bot) Attach(reminders *reminder.Service, sync *sheetsync.Service) {
	b.reminders = reminders
	b.sync = sync
}

// Start begins long polling; it blocks until Stop is called.
func (b *Bot) Start() {
	if err := b.tb.SetCommands(botCommands); err != nil {
		b.logger.Warn("failed to publish bot commands", "error", err)
	}
	b.logger.Info("bot polling started")
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
	b.logger.Info("bot polling stopped")
}

// SendDocument implements reminder.Transport.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	doc := &tele.Document{
		File:     tele.FromDisk(path),
		FileName: filepath.Base(path),
		Caption:  caption,
	}
	_, err := b.tb.Send(tele.ChatID(chatID), doc)
	return err
}

// authorized applies the allow-list gate; an empty list is open access.
func (b *Bot) authorized(chatID int64) bool {
	if len(b.allow) == 0 {
		return true
	}
	_, ok := b.allow[chatID]
	return ok
}
