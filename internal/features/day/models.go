// Package day — оркестратор игрового дня: превью, запуск очереди мини-игр,
// фиксация итогов, награды и семейный челлендж.
// models.go — итоги дня и контракт интерфейса игрока.
package day

import (
	"context"

	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
)

// Achievement-ы, которые выдаёт сам оркестратор.
const (
	AchievementFirstPerfectDay = "first_perfect_day"
	AchievementStreak3         = "streak_3"
	AchievementStreak7         = "streak_7"
	achievementFestivalPrefix  = "festival_"
)

// Summary — итоги дня для игрока.
type Summary struct {
	Day         int // Сыгранный день (счётчик сохранения уже сдвинут)
	Steps       []minigame.StepResult
	Adjustments map[string]*herd.Adjustment
	Ignored     []string // Изменения для неизвестных персонажей
	Names       map[string]string

	PerfectDay bool
	Successes  int
	PreStreak  int
	Streak     int
	BestStreak int

	Reward       *rewards.Reward // nil — сегодня без награды
	Achievements []string        // Полученные сегодня, в порядке выдачи
	Season       string
	Tasks        []string        // Задания фестиваля, если его награда ещё не получена
	Family       *family.Summary // nil, если челлендж выключен
}

// Presenter — всё, что игрок видит до, во время и после дня.
type Presenter interface {
	minigame.Display
	ShowPreview(ctx context.Context, p *plan.DayPlan, assignments []family.Assignment)
	ShowSummary(ctx context.Context, s *Summary)
}
