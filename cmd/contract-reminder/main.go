package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/contractbot/contract-reminder/internal/bot"
	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/docgen"
	"github.com/contractbot/contract-reminder/internal/filecache"
	"github.com/contractbot/contract-reminder/internal/ingest"
	repo "github.com/contractbot/contract-reminder/internal/repository"
	"github.com/contractbot/contract-reminder/internal/scheduler"
	"github.com/contractbot/contract-reminder/internal/services/reminder"
	"github.com/contractbot/contract-reminder/internal/services/sheetsync"
	"github.com/contractbot/contract-reminder/internal/yadisk"
)

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Paths.Ensure(); err != nil {
		logger.Error("failed to create storage directories", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, cfg.Paths.StateDBPath(), logger)
	if err != nil {
		logger.Error("failed to open state database", "path", cfg.Paths.StateDBPath(), "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second); err != nil {
		logger.Error("failed to ping state database", "error", err)
		os.Exit(1)
	}

	chats := repo.NewChatRepository(db, logger)
	ledger := repo.NewNotificationRepository(db, logger)
	runs := repo.NewRunRepository(db, logger)

	cache, err := filecache.New(cfg.Paths.FilesDir, logger)
	if err != nil {
		logger.Error("failed to initialize file cache", "dir", cfg.Paths.FilesDir, "error", err)
		os.Exit(1)
	}

	tgBot, err := bot.New(cfg.Bot.Token, cfg.Bot.ChatAllowlist, chats, loc, logger)
	if err != nil {
		logger.Error("failed to create telegram bot", "error", err)
		os.Exit(1)
	}

	reminders := reminder.NewService(reminder.Deps{
		Source:    cache,
		Parse:     ingest.ParseWorkbook,
		Chats:     chats,
		Ledger:    ledger,
		Renderer:  docgen.NewDocxRenderer(cfg.Paths.TemplatesDir, cfg.Paths.GeneratedDir, logger),
		Transport: tgBot,
		Disk:      yadisk.NewClient(cfg.Integrations.YadiskToken),
		Location:  loc,
		Logger:    logger,
	}, cfg.Scheduler.ReminderDays)

	sync := sheetsync.NewService(sheetsync.Config{
		SheetID:   cfg.Integrations.SheetID,
		SheetGID:  cfg.Integrations.SheetGID,
		SheetName: cfg.Integrations.SheetName,
		Filename:  cfg.Integrations.SheetFilename,
		Interval:  cfg.Integrations.SyncInterval,
		Timeout:   cfg.Integrations.RequestTimeout,
	}, cache, chats, loc, logger)
	sync.AttachHorizonSink(reminders)

	tgBot.Attach(reminders, sync)

	if sync.Enabled() {
		sync.Sync(ctx, true)
	}

	sched := scheduler.New(reminders, sync, runs, loc, cfg.Scheduler.DailyHour, cfg.Integrations.SyncInterval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("contract-reminder started",
		"timezone", cfg.Scheduler.Timezone,
		"daily_hour", cfg.Scheduler.DailyHour,
		"horizon_days", cfg.Scheduler.ReminderDays,
		"sheet_sync", sync.Enabled())
	go tgBot.Start()

	<-ctx.Done()
	sched.Stop()
	tgBot.Stop()
	logger.Info("contract-reminder stopped")
}

func logLevel(raw string) slog.Level {
	switch strings.ToUpper(raw) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
