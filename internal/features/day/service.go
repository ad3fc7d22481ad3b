// Package day — service.go содержит сервис игрового дня.
// Все изменения сохранения проходят через него: один день на стадо за раз.
package day

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
	"serotonyl.ru/herd-bot/internal/features/season"
)

// Service — оркестратор дня.
type Service struct {
	store    herd.Store
	builder  *plan.Builder
	runner   *minigame.Runner
	resolver *rewards.Resolver
	cfg      config.DayConfig

	familyDefault bool

	mu   sync.Mutex
	busy map[string]bool // Сохранения, с которыми сейчас идёт работа
}

// NewService создаёт сервис дня.
func NewService(
	store herd.Store,
	builder *plan.Builder,
	runner *minigame.Runner,
	resolver *rewards.Resolver,
	cfg config.DayConfig,
	familyDefault bool,
) *Service {
	return &Service{
		store:         store,
		builder:       builder,
		runner:        runner,
		resolver:      resolver,
		cfg:           cfg,
		familyDefault: familyDefault,
		busy:          make(map[string]bool),
	}
}

// SaveID — ID сохранения чата Telegram.
func SaveID(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

func (s *Service) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[id] {
		return common.ErrDayInProgress
	}
	s.busy[id] = true
	return nil
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.busy, id)
	s.mu.Unlock()
}

// Load загружает сохранение.
func (s *Service) Load(ctx context.Context, id string) (*herd.SaveState, error) {
	save, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	save.EnsureDefaults()
	return save, nil
}

// List возвращает все сохранения.
func (s *Service) List(ctx context.Context) ([]*herd.SaveState, error) {
	return s.store.List(ctx)
}

// CreateSave создаёт стадо со стартовыми персонажами и сезоном по умолчанию.
func (s *Service) CreateSave(ctx context.Context, id string, chatID int64) (*herd.SaveState, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	if _, err := s.store.Get(ctx, id); err == nil {
		return nil, common.ErrHerdExists
	} else if !errors.Is(err, common.ErrSaveNotFound) {
		return nil, err
	}

	sn, err := season.Default()
	if err != nil {
		return nil, err
	}
	save := herd.NewSave(id, chatID, sn, s.familyDefault)
	if err := s.store.Save(ctx, save); err != nil {
		return nil, fmt.Errorf("ошибка сохранения нового стада: %w", err)
	}

	log.WithFields(log.Fields{
		"save_id": id,
		"chat_id": chatID,
	}).Info("Создано новое стадо")
	return save, nil
}

// Preview возвращает план дня и назначения семейного челленджа.
// Повторные вызовы без изменений стада отдают тот же план.
func (s *Service) Preview(ctx context.Context, id string) (*herd.SaveState, *plan.DayPlan, []family.Assignment, error) {
	save, err := s.Load(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	p := s.builder.GetOrBuild(save)
	return save, p, family.Assign(save.Family, p.Queue), nil
}

// RunDay проводит день целиком: очередь мини-игр, затем фиксация итогов.
// Если день прерван (ctx, таймаут мини-игры), сохранение не меняется.
//
// Ошибка сохранения в хранилище не прерывает фиксацию: итоги возвращаются
// вместе с первой такой ошибкой.
func (s *Service) RunDay(ctx context.Context, id string, ui Presenter) (*Summary, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	save, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	p := s.builder.GetOrBuild(save)
	assignments := family.Assign(save.Family, p.Queue)

	var display minigame.Display
	if ui != nil {
		ui.ShowPreview(ctx, p, assignments)
		display = ui
	}
	run, err := s.runner.RunQueue(ctx, minigame.RunInput{
		Save:    save,
		Plan:    p,
		Display: display,
		Players: family.Players(assignments),
	})
	if err != nil {
		return nil, fmt.Errorf("день %d прерван: %w", save.Day, err)
	}

	summary, err := s.commit(ctx, save, p, run, assignments)
	s.builder.Invalidate(id)

	if ui != nil {
		ui.ShowSummary(ctx, summary)
	}
	return summary, err
}

// update загружает сохранение, применяет fn и сохраняет.
func (s *Service) update(ctx context.Context, id string, fn func(*herd.SaveState) error) (*herd.SaveState, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	save, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(save); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, save); err != nil {
		return nil, err
	}
	return save, nil
}

// SetFamily включает или выключает семейный челлендж.
func (s *Service) SetFamily(ctx context.Context, id string, on bool) (*herd.SaveState, error) {
	return s.update(ctx, id, func(save *herd.SaveState) error {
		family.SetEnabled(save, on)
		return nil
	})
}

// Join добавляет участника семейного челленджа.
func (s *Service) Join(ctx context.Context, id, name string) (herd.Participant, error) {
	var p herd.Participant
	_, err := s.update(ctx, id, func(save *herd.SaveState) error {
		var err error
		p, err = family.AddParticipant(save.Family, name)
		return err
	})
	return p, err
}

// Leave убирает участника семейного челленджа.
func (s *Service) Leave(ctx context.Context, id, name string) error {
	_, err := s.update(ctx, id, func(save *herd.SaveState) error {
		return family.RemoveParticipant(save.Family, name)
	})
	return err
}

// SetAutoPlay включает вечерний автопрогон дня.
func (s *Service) SetAutoPlay(ctx context.Context, id string, on bool) error {
	_, err := s.update(ctx, id, func(save *herd.SaveState) error {
		save.AutoPlay = on
		return nil
	})
	return err
}

// GrantUnlock открывает предмет вручную (админка). false — предмет уже был.
func (s *Service) GrantUnlock(ctx context.Context, id string, cat herd.Category, item string) (bool, error) {
	var added bool
	_, err := s.update(ctx, id, func(save *herd.SaveState) error {
		item = strings.TrimSpace(item)
		if item == "" {
			return fmt.Errorf("пустое название предмета")
		}
		var err error
		added, err = save.AddUnlock(cat, item)
		return err
	})
	return added, err
}

// SetDay переставляет счётчик дня (админка).
func (s *Service) SetDay(ctx context.Context, id string, dayNum int) error {
	if dayNum < 1 {
		return fmt.Errorf("день должен быть >= 1")
	}
	_, err := s.update(ctx, id, func(save *herd.SaveState) error {
		save.Day = dayNum
		return nil
	})
	if err == nil {
		s.builder.Invalidate(id)
	}
	return err
}

// ResetPlan сбрасывает закешированный план (админка).
func (s *Service) ResetPlan(id string) {
	s.builder.Invalidate(id)
}
