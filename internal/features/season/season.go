// Package season вычисляет положение дня внутри сезона:
// активный и ближайший фестивали, их модификаторы и строку для превью.
package season

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

//go:embed season.yaml
var defaultSeason []byte

// Default возвращает сезон, который получает каждое новое стадо.
func Default() (herd.Season, error) {
	return Parse(defaultSeason)
}

// Parse разбирает YAML-описание сезона.
func Parse(raw []byte) (herd.Season, error) {
	var s herd.Season
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("season.yaml: %w", err)
	}
	if s.ID == "" {
		return s, fmt.Errorf("season.yaml: пустой id сезона")
	}
	return s, nil
}

// Snapshot — срез сезона на конкретный день. Входит в план дня.
type Snapshot struct {
	SeasonID   string
	SeasonName string
	Day        int

	Active    *herd.Festival
	DaysLeft  int  // Сколько дней активного фестиваля осталось после сегодняшнего
	Completed bool // Награда активного фестиваля уже получена

	Upcoming  *herd.Festival
	DaysUntil int  // Через сколько дней начнётся ближайший фестиваль
	Imminent  bool // Ближайший фестиваль в пределах lookahead, его модификаторы уже действуют
}

// Take строит срез сезона на день. lookahead — за сколько дней до начала
// фестиваля его модификаторы уже действуют.
func Take(s herd.Season, day, lookahead int) Snapshot {
	snap := Snapshot{SeasonID: s.ID, SeasonName: s.Name, Day: day}

	for i := range s.Festivals {
		f := s.Festivals[i]
		start, end := s.StartDay+f.StartOffset, s.StartDay+f.EndOffset
		switch {
		case day >= start && day <= end:
			if snap.Active == nil {
				snap.Active = &f
				snap.DaysLeft = end - day
				snap.Completed = s.FestivalCompleted(f.ID)
			}
		case day < start:
			if until := start - day; snap.Upcoming == nil || until < snap.DaysUntil {
				snap.Upcoming = &f
				snap.DaysUntil = until
			}
		}
	}
	snap.Imminent = snap.Upcoming != nil && snap.DaysUntil <= lookahead
	return snap
}

// Overrides возвращает модификаторы фестиваля для вида мини-игры:
// сначала активного, иначе ближайшего в пределах lookahead.
func (s Snapshot) Overrides(kind herd.Kind) map[string]float64 {
	switch {
	case s.Active != nil:
		return s.Active.Modifiers[kind]
	case s.Imminent:
		return s.Upcoming.Modifiers[kind]
	default:
		return nil
	}
}

// RewardDue — фестивальная награда ещё может быть выдана сегодня.
func (s Snapshot) RewardDue() bool {
	return s.Active != nil && !s.Completed && s.Active.Reward != nil
}

// Checklist — задания активного фестиваля, пока его награда не получена.
func (s Snapshot) Checklist() []string {
	if s.Active == nil || s.Completed {
		return nil
	}
	return s.Active.Tasks
}

// Highlight — строка о сезоне для превью и итогов дня. Пусто, если сказать нечего.
func (s Snapshot) Highlight() string {
	switch {
	case s.Active != nil && s.Completed:
		return fmt.Sprintf("%s is on, reward already earned", s.Active.Name)
	case s.Active != nil && s.DaysLeft == 0:
		return fmt.Sprintf("%s: last day!", s.Active.Name)
	case s.Active != nil:
		return fmt.Sprintf("%s is on (%d more day(s))", s.Active.Name, s.DaysLeft)
	case s.Upcoming != nil:
		return fmt.Sprintf("%s starts in %d day(s)", s.Upcoming.Name, s.DaysUntil)
	default:
		return ""
	}
}
