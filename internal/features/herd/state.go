// Package herd — state.go содержит операции записи в сохранение.
// Все изменения сохранения во время дня идут только через эти методы.
package herd

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
)

// EnsureDefaults инициализирует пустые map и срезы после загрузки из хранилища.
func (s *SaveState) EnsureDefaults() {
	if s.Achievements == nil {
		s.Achievements = make(map[string]bool)
	}
	if s.Stats.PerfectClears == nil {
		s.Stats.PerfectClears = make(map[Kind]int)
	}
	if s.Family != nil && s.Family.Stats == nil {
		s.Family.Stats = make(map[string]*ParticipantStats)
	}
	if s.Day < 1 {
		s.Day = 1
	}
}

// Character возвращает персонажа по ID или nil.
func (s *SaveState) Character(id string) *Character {
	for _, c := range s.Herd {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Clone делает глубокую копию сохранения.
func (s *SaveState) Clone() (*SaveState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ошибка копирования сохранения: %w", err)
	}
	var out SaveState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ошибка копирования сохранения: %w", err)
	}
	out.EnsureDefaults()
	return &out, nil
}

// ApplyAdjustments применяет накопленные за день изменения к персонажам.
// Каждый стат ограничивается [0,100] один раз, после суммирования.
// Записи для неизвестных персонажей пропускаются — метод никогда не падает.
//
// Возвращает ID изменённых и пропущенных персонажей (отсортированы).
func (s *SaveState) ApplyAdjustments(adjustments map[string]*Adjustment, maxAccessories int) (applied, ignored []string) {
	ids := make([]string, 0, len(adjustments))
	for id := range adjustments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		adj := adjustments[id]
		c := s.Character(id)
		if c == nil || adj == nil {
			ignored = append(ignored, id)
			log.WithFields(log.Fields{
				"save_id":      s.ID,
				"character_id": id,
			}).Warn("Изменения для неизвестного персонажа пропущены")
			continue
		}
		c.apply(adj, maxAccessories)
		applied = append(applied, id)
	}
	return applied, ignored
}

func (c *Character) apply(a *Adjustment, maxAccessories int) {
	c.Happiness = common.Clamp(c.Happiness+a.Happiness, StatMin, StatMax)
	c.Hunger = common.Clamp(c.Hunger+a.Hunger, StatMin, StatMax)
	c.Cleanliness = common.Clamp(c.Cleanliness+a.Cleanliness, StatMin, StatMax)
	c.Chonk = common.Clamp(c.Chonk+a.Chonk, StatMin, StatMax)

	if a.Accessory != "" {
		c.Equip(a.Accessory, maxAccessories)
	}

	if len(a.Treats) > 0 {
		c.RecentTreats = append(c.RecentTreats, a.Treats...)
		if extra := len(c.RecentTreats) - TreatHistoryLimit; extra > 0 {
			c.RecentTreats = slices.Clone(c.RecentTreats[extra:])
		}
	}
}

// Equip надевает аксессуар. Повторная выдача — no-op.
// При переполнении снимается самый старый аксессуар, лимит не превышается никогда.
func (c *Character) Equip(item string, maxAccessories int) bool {
	if maxAccessories <= 0 || slices.Contains(c.Accessories, item) {
		return false
	}
	c.Accessories = append(c.Accessories, item)
	if extra := len(c.Accessories) - maxAccessories; extra > 0 {
		c.Accessories = slices.Clone(c.Accessories[extra:])
	}
	return true
}

func (u *Unlocks) list(cat Category) (*[]string, error) {
	switch cat {
	case Consumable:
		return &u.Consumables, nil
	case Cosmetic:
		return &u.Cosmetics, nil
	case Decoration:
		return &u.Decorations, nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCategory, cat)
	}
}

// Items возвращает разблокированные предметы категории.
func (u *Unlocks) Items(cat Category) []string {
	l, err := u.list(cat)
	if err != nil {
		return nil
	}
	return *l
}

// Has проверяет, разблокирован ли предмет.
func (u *Unlocks) Has(cat Category, item string) bool {
	return slices.Contains(u.Items(cat), item)
}

// AddUnlock добавляет предмет в каталог, только если его там нет.
// Возвращает false, если предмет уже был — повторная выдача идемпотентна.
func (s *SaveState) AddUnlock(cat Category, item string) (bool, error) {
	l, err := s.Unlocks.list(cat)
	if err != nil {
		return false, err
	}
	if slices.Contains(*l, item) {
		return false, nil
	}
	*l = append(*l, item)
	return true, nil
}

// RecordDayStats записывает статистику дня: идеальные прохождения и серию.
// Серия растёт ровно на 1 в идеальный день и обнуляется в любой другой,
// лучшая серия никогда не уменьшается.
//
// Возвращает серию до и после дня.
func (s *SaveState) RecordDayStats(perfectDay bool, perfectClears map[Kind]int) (pre, post int) {
	if s.Stats.PerfectClears == nil {
		s.Stats.PerfectClears = make(map[Kind]int)
	}
	for kind, n := range perfectClears {
		if n > 0 {
			s.Stats.PerfectClears[kind] += n
		}
	}

	pre = s.Stats.Streak
	if perfectDay {
		s.Stats.Streak++
		s.Stats.PerfectDays++
	} else {
		s.Stats.Streak = 0
	}
	if s.Stats.Streak > s.Stats.BestStreak {
		s.Stats.BestStreak = s.Stats.Streak
	}
	s.Stats.DaysPlayed++
	return pre, s.Stats.Streak
}

// SetLastReward запоминает категорию выданной награды.
func (s *SaveState) SetLastReward(cat Category) {
	s.Stats.LastRewardCategory = cat
}

// FestivalCompleted проверяет, завершён ли фестиваль.
func (s *Season) FestivalCompleted(id string) bool {
	return slices.Contains(s.CompletedFestivals, id)
}

// MarkFestivalComplete отмечает фестиваль завершённым. Повторный вызов — no-op.
func (s *SaveState) MarkFestivalComplete(id string) bool {
	if id == "" || s.Season.FestivalCompleted(id) {
		return false
	}
	s.Season.CompletedFestivals = append(s.Season.CompletedFestivals, id)
	return true
}

// UnlockAchievement выдаёт достижение. Возвращает true только в первый раз.
func (s *SaveState) UnlockAchievement(name string) bool {
	if name == "" {
		return false
	}
	if s.Achievements == nil {
		s.Achievements = make(map[string]bool)
	}
	if s.Achievements[name] {
		return false
	}
	s.Achievements[name] = true
	return true
}

// AppendHistory добавляет запись истории, храня не больше limit последних.
func (s *SaveState) AppendHistory(rec DayRecord, limit int) {
	if limit <= 0 {
		return
	}
	s.History = append(s.History, rec)
	if extra := len(s.History) - limit; extra > 0 {
		s.History = slices.Clone(s.History[extra:])
	}
}

// AdvanceDay переводит счётчик на следующий день.
func (s *SaveState) AdvanceDay() {
	s.Day++
}
