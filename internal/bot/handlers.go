package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/utils"
)

var botCommands = []tele.Command{
	{Text: "start", Description: "Запустить бота"},
	{Text: "status", Description: "Проверить последнюю загрузку"},
	{Text: "help", Description: "Справка по командам"},
	{Text: "sync", Description: "Синхронизировать таблицу вручную"},
	{Text: "run", Description: "Запустить проверку вручную"},
	{Text: "run_force", Description: "Принудительно отправить уведомления"},
}

const (
	msgRestricted = "Извините, доступ к боту ограничен. Свяжитесь с администратором, чтобы получить разрешение."
	msgGreeting   = "Здравствуйте! Я помогу контролировать сроки контрактов. Используйте меню или команды `/status`, `/sync`, `/run`, `/run_force`, `/help`."
	msgNoFile     = "В системе ещё нет актуального файла. Синхронизация с таблицей пока не выполнялась."
	msgHelp       = "Доступные команды:\n" +
		"• `/status` — посмотреть дату и имя последней загрузки.\n" +
		"• `/sync` — принудительно синхронизировать таблицу.\n" +
		"• `/run` — запустить проверку и рассылку по расписанию (без повторов).\n" +
		"• `/run_force` — запустить проверку и отправить документы повторно.\n" +
		"• `/help` — показать справку по командам."
	msgSyncMissing  = "Автосинхронизация с таблицей не настроена."
	msgSyncStarted  = "Запускаю синхронизацию с таблицей. Пожалуйста, подождите..."
	msgSyncOK       = "Синхронизация завершена успешно. Проверьте `/status`, чтобы убедиться в обновлении файла."
	msgSyncFailed   = "Не удалось обновить данные из таблицы. Проверьте доступ и попробуйте позже."
	msgRunStarted   = "Запускаю проверку контрактов. Пожалуйста, подождите..."
	msgRunFailedFmt = "Во время проверки произошла ошибка: %v"
	msgNoReminder   = "Сервис напоминаний временно недоступен. Попробуйте позже."
)

func mainMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text("/status"), menu.Text("/sync")),
		menu.Row(menu.Text("/run"), menu.Text("/run_force")),
		menu.Row(menu.Text("/help")),
	)
	return menu
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/status", b.handleStatus)
	b.tb.Handle("/help", b.handleHelp)
	b.tb.Handle("/sync", b.handleSync)
	b.tb.Handle("/run", func(c tele.Context) error { return b.handleRun(c, false) })
	b.tb.Handle("/run_force", func(c tele.Context) error { return b.handleRun(c, true) })
}

func (b *Bot) handleStart(c tele.Context) error {
	chatID := c.Chat().ID
	if !b.authorized(chatID) {
		return c.Send(msgRestricted)
	}
	if err := b.chats.Register(context.Background(), chatID); err != nil {
		b.logger.Error("failed to register chat", "chat_id", chatID, "error", err)
		return c.Send(msgNoReminder)
	}
	b.logger.Info("chat registered", "chat_id", chatID)
	return c.Send(msgGreeting, mainMenu())
}

func (b *Bot) handleStatus(c tele.Context) error {
	chatID := c.Chat().ID
	if !b.authorized(chatID) {
		return c.Send(msgRestricted)
	}

	chat, err := b.chats.Get(context.Background(), chatID)
	if errors.Is(err, common.ErrNotFound) || (err == nil && chat.LastUploadAt == nil) {
		return c.Send(msgNoFile)
	}
	if err != nil {
		b.logger.Error("failed to load chat status", "chat_id", chatID, "error", err)
		return c.Send(msgNoReminder)
	}

	local := chat.LastUploadAt.In(b.loc)
	lines := []string{
		fmt.Sprintf("Последняя загрузка: %s (%s)", local.Format("02.01.2006 15:04"), zoneLabel(local)),
		fmt.Sprintf("Имя файла: %s", utils.HumanizeFilename(chat.LastFileName)),
	}
	if b.reminders != nil {
		lines = append(lines, fmt.Sprintf("Горизонт напоминаний: %d дн.", b.reminders.Horizon()))
	}
	return c.Send(strings.Join(lines, "\n"))
}

func (b *Bot) handleHelp(c tele.Context) error {
	if !b.authorized(c.Chat().ID) {
		return c.Send(msgRestricted)
	}
	return c.Send(msgHelp, mainMenu())
}

func (b *Bot) handleSync(c tele.Context) error {
	if !b.authorized(c.Chat().ID) {
		return c.Send(msgRestricted)
	}
	if b.sync == nil || !b.sync.Enabled() {
		return c.Send(msgSyncMissing)
	}
	if err := c.Send(msgSyncStarted); err != nil {
		return err
	}
	if b.sync.Sync(context.Background(), true) {
		return c.Send(msgSyncOK)
	}
	return c.Send(msgSyncFailed)
}

func (b *Bot) handleRun(c tele.Context, force bool) error {
	if !b.authorized(c.Chat().ID) {
		return c.Send(msgRestricted)
	}
	if b.reminders == nil {
		return c.Send(msgNoReminder)
	}
	if err := c.Send(msgRunStarted); err != nil {
		return err
	}

	result, err := b.reminders.Run(context.Background(), force)
	if err != nil {
		b.logger.Error("manual reminder run failed", "force", force, "error", err)
		return c.Send(fmt.Sprintf(msgRunFailedFmt, err))
	}
	return c.Send(fmt.Sprintf(
		"Проверка завершена.\nОбработано записей: %d.\nОтправлено уведомлений: %d.\nПропущено: %d.",
		result.Processed, result.Notified, result.Skipped,
	))
}

// zoneLabel renders a readable zone name, falling back to a UTC offset
// when the zone only has a numeric abbreviation.
func zoneLabel(t time.Time) string {
	name, offset := t.Zone()
	if name != "" && !strings.HasPrefix(name, "+") && !strings.HasPrefix(name, "-") {
		return name
	}
	return fmt.Sprintf("UTC%+d", offset/3600)
}
