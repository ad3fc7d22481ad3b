// Package day — handlers.go обрабатывает игровые команды чата:
// /start, /preview, /play, /herd, /history, /family, /join, /leave, /autoplay.
package day

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

// Sender отправляет текст в чат.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Handler обрабатывает игровые команды.
type Handler struct {
	service      *Service
	sender       Sender
	historyShown int
}

// NewHandler создаёт обработчик игровых команд.
func NewHandler(service *Service, sender Sender) *Handler {
	return &Handler{service: service, sender: sender, historyShown: 10}
}

// HandleStart создаёт стадо для чата.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	save, err := h.service.CreateSave(ctx, SaveID(chatID), chatID)
	if errors.Is(err, common.ErrHerdExists) {
		h.send(ctx, chatID, "🐑 Стадо уже здесь! /preview — план дня, /play — начать день")
		return
	}
	if err != nil {
		h.fail(ctx, chatID, "создания стада", err)
		return
	}
	h.send(ctx, chatID, "🐑 Ваше стадо прибыло!\n\n"+FormatHerd(save)+
		"\n\nКоманды: /preview, /play, /herd, /history, /family, /join <имя>, /autoplay on|off")
}

// HandlePreview показывает план дня.
func (h *Handler) HandlePreview(ctx context.Context, chatID int64) {
	_, p, assignments, err := h.service.Preview(ctx, SaveID(chatID))
	if err != nil {
		h.fail(ctx, chatID, "построения плана", err)
		return
	}
	h.send(ctx, chatID, FormatPreview(p, assignments))
}

// HandlePlay проводит день. Блокируется до конца дня.
func (h *Handler) HandlePlay(ctx context.Context, chatID int64) {
	ui := &chatPresenter{sender: h.sender, chatID: chatID}
	if _, err := h.service.RunDay(ctx, SaveID(chatID), ui); err != nil {
		h.fail(ctx, chatID, "проведения дня", err)
	}
}

// HandleHerd показывает стадо.
func (h *Handler) HandleHerd(ctx context.Context, chatID int64) {
	save, err := h.service.Load(ctx, SaveID(chatID))
	if err != nil {
		h.fail(ctx, chatID, "загрузки стада", err)
		return
	}
	h.send(ctx, chatID, FormatHerd(save))
}

// HandleHistory показывает последние дни.
func (h *Handler) HandleHistory(ctx context.Context, chatID int64) {
	save, err := h.service.Load(ctx, SaveID(chatID))
	if err != nil {
		h.fail(ctx, chatID, "загрузки истории", err)
		return
	}
	h.send(ctx, chatID, FormatHistory(save, h.historyShown))
}

// HandleFamily: без аргументов — таблица, "on"/"off" — включить или выключить.
func (h *Handler) HandleFamily(ctx context.Context, chatID int64, args []string) {
	id := SaveID(chatID)
	if len(args) == 0 {
		save, err := h.service.Load(ctx, id)
		if err != nil {
			h.fail(ctx, chatID, "загрузки челленджа", err)
			return
		}
		h.send(ctx, chatID, FormatFamily(save))
		return
	}

	on, ok := parseSwitch(args[0])
	if !ok {
		h.send(ctx, chatID, "❌ Использование: /family on|off")
		return
	}
	save, err := h.service.SetFamily(ctx, id, on)
	if err != nil {
		h.fail(ctx, chatID, "настройки челленджа", err)
		return
	}
	h.send(ctx, chatID, FormatFamily(save))
}

// HandleJoin добавляет участника. Без аргументов берётся имя отправителя.
func (h *Handler) HandleJoin(ctx context.Context, chatID int64, args []string, senderName string) {
	name := participantName(args, senderName)
	p, err := h.service.Join(ctx, SaveID(chatID), name)
	if err != nil {
		h.fail(ctx, chatID, "добавления участника", err)
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("👋 %s в игре!", p.Name))
}

// HandleLeave убирает участника.
func (h *Handler) HandleLeave(ctx context.Context, chatID int64, args []string, senderName string) {
	name := participantName(args, senderName)
	if err := h.service.Leave(ctx, SaveID(chatID), name); err != nil {
		h.fail(ctx, chatID, "удаления участника", err)
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("👋 %s больше не участвует", name))
}

// HandleAutoplay включает или выключает вечерний автопрогон.
func (h *Handler) HandleAutoplay(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		h.send(ctx, chatID, "❌ Использование: /autoplay on|off")
		return
	}
	on, ok := parseSwitch(args[0])
	if !ok {
		h.send(ctx, chatID, "❌ Использование: /autoplay on|off")
		return
	}
	if err := h.service.SetAutoPlay(ctx, SaveID(chatID), on); err != nil {
		h.fail(ctx, chatID, "настройки автопилота", err)
		return
	}
	if on {
		h.send(ctx, chatID, "🤖 Автопилот включён: вечером день пройдёт сам")
	} else {
		h.send(ctx, chatID, "🤖 Автопилот выключен")
	}
}

// SendPreviewDigest рассылает превью дня во все чаты со стадом.
func (h *Handler) SendPreviewDigest(ctx context.Context) {
	saves, err := h.service.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка загрузки сохранений для рассылки превью")
		return
	}
	sent := 0
	for _, s := range saves {
		if s.ChatID == 0 {
			continue
		}
		_, p, assignments, err := h.service.Preview(ctx, s.ID)
		if err != nil {
			log.WithError(err).WithField("save_id", s.ID).Warn("Превью не построено")
			continue
		}
		h.send(ctx, s.ChatID, "☀️ Доброе утро!\n\n"+FormatPreview(p, assignments))
		sent++
	}
	log.WithField("sent", sent).Info("Утренняя рассылка превью завершена")
}

// RunAutoDays проводит день во всех чатах с включённым автопилотом.
func (h *Handler) RunAutoDays(ctx context.Context) {
	saves, err := h.service.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка загрузки сохранений для автопилота")
		return
	}
	played := 0
	for _, s := range saves {
		if !s.AutoPlay || s.ChatID == 0 {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		ui := &chatPresenter{sender: h.sender, chatID: s.ChatID}
		if _, err := h.service.RunDay(ctx, s.ID, ui); err != nil {
			log.WithError(err).WithField("save_id", s.ID).Warn("Автопрогон дня не удался")
			continue
		}
		played++
	}
	log.WithField("played", played).Info("Автопрогон дней завершён")
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// fail отвечает игроку понятным текстом и пишет неожиданные ошибки в лог.
func (h *Handler) fail(ctx context.Context, chatID int64, action string, err error) {
	if msg, ok := userMessage(err); ok {
		h.send(ctx, chatID, "❌ "+msg)
		return
	}
	log.WithError(err).WithField("chat_id", chatID).Error("Ошибка " + action)
	h.send(ctx, chatID, "❌ Ошибка "+action+", попробуйте позже")
}

// userErrors — ошибки, которые показываются игроку как есть.
var userErrors = []struct {
	err error
	msg string
}{
	{common.ErrSaveNotFound, "Стада ещё нет. Начните с /start"},
	{common.ErrDayInProgress, "День уже идёт, дождитесь итогов"},
	{common.ErrMiniGameTimeout, "Мини-игра зависла, день отменён. Попробуйте /play ещё раз"},
	{common.ErrNoMiniGames, "Сегодня нет доступных мини-игр"},
	{common.ErrFamilyDisabled, "Семейный челлендж выключен. Включить: /family on"},
	{common.ErrParticipantExists, "Такой участник уже есть"},
	{common.ErrParticipantNotFound, "Такого участника нет"},
	{common.ErrBadParticipantName, "Имя участника должно быть от 1 до 32 символов"},
}

func userMessage(err error) (string, bool) {
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			return ue.msg, true
		}
	}
	return "", false
}

func parseSwitch(arg string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "вкл", "да":
		return true, true
	case "off", "выкл", "нет":
		return false, true
	}
	return false, false
}

func participantName(args []string, fallback string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	return fallback
}

// chatPresenter показывает ход дня сообщениями в чат.
type chatPresenter struct {
	sender Sender
	chatID int64
}

func (p *chatPresenter) send(ctx context.Context, text string) {
	if err := p.sender.SendText(ctx, p.chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", p.chatID).Warn("Ошибка отправки хода дня")
	}
}

func (p *chatPresenter) ShowPreview(ctx context.Context, dp *plan.DayPlan, assignments []family.Assignment) {
	p.send(ctx, FormatPreview(dp, assignments))
}

func (p *chatPresenter) ShowStep(ctx context.Context, st minigame.StepInfo) {
	p.send(ctx, FormatStep(st))
}

func (p *chatPresenter) ShowInstruction(ctx context.Context, text string) {
	p.send(ctx, "💬 "+text)
}

// ShowTimer в чат не пишет: слишком часто.
func (p *chatPresenter) ShowTimer(_ context.Context, left time.Duration) {
	log.WithFields(log.Fields{
		"chat_id": p.chatID,
		"left":    left,
	}).Debug("Таймер мини-игры")
}

func (p *chatPresenter) ShowSummary(ctx context.Context, s *Summary) {
	p.send(ctx, FormatSummary(s))
}
