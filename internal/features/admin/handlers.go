// Package admin — handlers.go обрабатывает админ-команды в личных сообщениях.
// Поток: /admin → пароль следующим сообщением → команды до /logout или конца сессии.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/day"
	"serotonyl.ru/herd-bot/internal/features/herd"
)

const adminHelp = `🛠 Админ-команды:
/saves — список стад
/grant <chat_id> <consumable|cosmetic|decoration> <предмет> — выдать предмет
/setday <chat_id> <день> — переставить счётчик дня
/resetplan <chat_id> — сбросить план дня
/logout — выйти`

// Handler обрабатывает админ-команды.
type Handler struct {
	service    *Service
	dayService *day.Service
	sender     day.Sender
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service, dayService *day.Service, sender day.Sender) *Handler {
	return &Handler{
		service:    service,
		dayService: dayService,
		sender:     sender,
	}
}

// HandleAdminMessage обрабатывает сообщение администратора в DM.
// Возвращает false, если сообщение не относится к админке.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	// Ждём пароль
	if state := h.service.GetState(userID); state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(strings.TrimLeft(fields[0], "/!."))
	args := fields[1:]

	switch cmd {
	case "admin", "login":
		if len(args) > 0 {
			h.handlePasswordInput(ctx, chatID, userID, strings.Join(args, " "))
			return true
		}
		if h.service.RequireSession(ctx, userID) == nil {
			h.send(ctx, chatID, adminHelp)
			return true
		}
		h.service.SetState(userID, StateAwaitingPassword)
		h.send(ctx, chatID, "🔐 Введите пароль для доступа к админке:")
		return true
	case "logout", "saves", "grant", "setday", "resetplan":
	default:
		return false
	}

	if err := h.service.RequireSession(ctx, userID); err != nil {
		h.send(ctx, chatID, "🔐 "+err.Error()+". Команда /admin")
		return true
	}

	switch cmd {
	case "logout":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода из админки")
		}
		h.send(ctx, chatID, "👋 Сессия закрыта")
	case "saves":
		h.handleSaves(ctx, chatID)
	case "grant":
		h.handleGrant(ctx, chatID, userID, args)
	case "setday":
		h.handleSetDay(ctx, chatID, userID, args)
	case "resetplan":
		h.handleResetPlan(ctx, chatID, args)
	}
	return true
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	h.service.ClearState(userID)
	if err := h.service.VerifyPassword(ctx, userID, strings.TrimSpace(password)); err != nil {
		if !errors.Is(err, common.ErrWrongPassword) && !errors.Is(err, common.ErrTooManyAttempts) {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки пароля")
			h.send(ctx, chatID, "❌ Не удалось проверить пароль")
			return
		}
		h.send(ctx, chatID, "❌ "+err.Error())
		return
	}
	h.send(ctx, chatID, "✅ Аутентификация успешна!\n\n"+adminHelp)
}

func (h *Handler) handleSaves(ctx context.Context, chatID int64) {
	saves, err := h.dayService.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка стад")
		h.send(ctx, chatID, "❌ Не удалось получить список стад")
		return
	}
	if len(saves) == 0 {
		h.send(ctx, chatID, "Стад пока нет")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🐑 Стада (%d):\n", len(saves))
	for _, s := range saves {
		fmt.Fprintf(&sb, "• %d: день %d, %s\n", s.ChatID, s.Day, common.FormatStreak(s.Stats.Streak))
	}
	h.send(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

func (h *Handler) handleGrant(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 3 {
		h.send(ctx, chatID, "Формат: /grant <chat_id> <consumable|cosmetic|decoration> <предмет>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(ctx, chatID, "❌ chat_id должен быть числом")
		return
	}
	cat := herd.Category(strings.ToLower(args[1]))
	if !cat.Valid() {
		h.send(ctx, chatID, "❌ Категория: consumable, cosmetic или decoration")
		return
	}
	item := strings.Join(args[2:], "_")

	added, err := h.dayService.GrantUnlock(ctx, day.SaveID(target), cat, item)
	if err != nil {
		h.send(ctx, chatID, "❌ "+err.Error())
		return
	}

	log.WithFields(log.Fields{
		"admin_id": userID,
		"chat_id":  target,
		"category": cat,
		"item":     item,
		"added":    added,
	}).Info("Админ выдал предмет")

	if !added {
		h.send(ctx, chatID, fmt.Sprintf("ℹ️ %s:%s уже открыт", cat, item))
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("✅ Выдано %s:%s стаду %d", cat, item, target))
}

func (h *Handler) handleSetDay(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.send(ctx, chatID, "Формат: /setday <chat_id> <день>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(ctx, chatID, "❌ chat_id должен быть числом")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		h.send(ctx, chatID, "❌ день должен быть числом")
		return
	}
	if err := h.dayService.SetDay(ctx, day.SaveID(target), n); err != nil {
		h.send(ctx, chatID, "❌ "+err.Error())
		return
	}
	log.WithFields(log.Fields{
		"admin_id": userID,
		"chat_id":  target,
		"day":      n,
	}).Info("Админ переставил день")
	h.send(ctx, chatID, fmt.Sprintf("✅ Стадо %d теперь на дне %d", target, n))
}

func (h *Handler) handleResetPlan(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.send(ctx, chatID, "Формат: /resetplan <chat_id>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(ctx, chatID, "❌ chat_id должен быть числом")
		return
	}
	h.dayService.ResetPlan(day.SaveID(target))
	h.send(ctx, chatID, fmt.Sprintf("✅ План стада %d сброшен", target))
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
