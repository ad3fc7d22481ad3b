// Package bot содержит главный модуль бота — запуск long polling и маршрутизацию команд.
// bot.go принимает апдейты, фильтрует их и передаёт в обработчики фич.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/bot/filters"
	"serotonyl.ru/herd-bot/internal/bot/middleware"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/features/admin"
	"serotonyl.ru/herd-bot/internal/features/day"
)

const helpText = `🐑 Команды стада:
/start — завести стадо
/preview — план дня
/play — провести день
/herd — стадо и разблокировки
/history — последние дни
/family [on|off] — семейный челлендж
/join [имя], /leave [имя] — участники челленджа
/autoplay on|off — вечерний автопрогон дня`

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	dayHandler   *day.Handler
	adminHandler *admin.Handler
	sender       day.Sender

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	dayHandler *day.Handler,
	adminHandler *admin.Handler,
	sender day.Sender,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:          api,
		cfg:          cfg,
		chatFilter:   chatFilter,
		rateLimiter:  middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		dayHandler:   dayHandler,
		adminHandler: adminHandler,
		sender:       sender,
		parser:       NewCommandParser(),
		inflight:     make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
// Перед выходом дожидается всех обработчиков в полёте.
func (b *Bot) Start(ctx context.Context) error {
	defer b.rateLimiter.Close()

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	b.consume(ctx, updates)
	log.Info("Бот остановлен")
	return nil
}

// consume читает апдейты до закрытия канала или отмены ctx.
func (b *Bot) consume(ctx context.Context, updates <-chan telego.Update) {
	defer b.drain()
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт, пока освободятся все слоты обработчиков.
func (b *Bot) drain() {
	for range cap(b.inflight) {
		b.inflight <- struct{}{}
	}
	for range cap(b.inflight) {
		<-b.inflight
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.Text == "" || message.From == nil {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// В DM сначала админка
	if message.Chat.Type == telego.ChatTypePrivate {
		if b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("parsed command")

	b.routeCommand(ctx, chatID, cmd, args, senderName(message.From))
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID int64, cmd string, args []string, from string) {
	switch cmd {
	case "start":
		b.dayHandler.HandleStart(ctx, chatID)
	case "help", "помощь":
		b.sendMessage(ctx, chatID, helpText)
	case "preview", "план":
		b.dayHandler.HandlePreview(ctx, chatID)
	case "play", "день":
		b.dayHandler.HandlePlay(ctx, chatID)
	case "herd", "стадо":
		b.dayHandler.HandleHerd(ctx, chatID)
	case "history", "история":
		b.dayHandler.HandleHistory(ctx, chatID)
	case "family", "семья":
		b.dayHandler.HandleFamily(ctx, chatID, args)
	case "join":
		b.dayHandler.HandleJoin(ctx, chatID, args, from)
	case "leave":
		b.dayHandler.HandleLeave(ctx, chatID, args, from)
	case "autoplay", "автопилот":
		b.dayHandler.HandleAutoplay(ctx, chatID, args)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := b.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// senderName — имя участника челленджа по умолчанию.
func senderName(u *telego.User) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// CommandParser парсит команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname у команды отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	if command == "" {
		return "", nil, false
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
