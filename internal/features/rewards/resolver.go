package rewards

import (
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/season"
)

// Причины выдачи награды.
const (
	ReasonFestival   = "festival reward"
	ReasonStreak     = "streak milestone"
	ReasonPerfectDay = "perfect day bonus"
	ReasonRotation   = "daily rotation"
)

// StreakMilestone — серия, кратная этому числу, даёт декорацию.
const StreakMilestone = 3

// Reward — награда дня.
type Reward struct {
	Category   herd.Category
	Item       string
	Theme      string
	Reason     string
	FestivalID string // Заполнен только для фестивальной награды
}

// String — "decoration:birdbath (streak milestone)".
func (r *Reward) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s (%s)", r.Category, r.Item, r.Reason)
}

// Input — данные о завершившемся дне.
type Input struct {
	PerfectDay   bool
	PreStreak    int
	PostStreak   int
	LastCategory herd.Category
	Season       season.Snapshot
	Unlocks      *herd.Unlocks
}

// Resolver выбирает награду дня по каталогу тем.
type Resolver struct {
	catalog *Catalog
}

// NewResolver создаёт выборщик наград.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Catalog возвращает каталог тем.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve выбирает не больше одной награды. Первое подходящее правило побеждает:
// фестиваль, юбилей серии, идеальный день, ротация категорий.
// nil — сегодня без награды.
func (r *Resolver) Resolve(in Input) *Reward {
	unlocks := in.Unlocks
	if unlocks == nil {
		unlocks = &herd.Unlocks{}
	}

	if rw := r.festival(in, unlocks); rw != nil {
		return rw
	}

	remaining := make(map[herd.Category]int, len(herd.Categories))
	total := 0
	for _, cat := range herd.Categories {
		remaining[cat] = r.catalog.Remaining(cat, unlocks)
		total += remaining[cat]
	}
	if total == 0 {
		return nil
	}

	if milestoneReached(in.PreStreak, in.PostStreak) && remaining[herd.Decoration] > 0 {
		return r.pick(herd.Decoration, unlocks, ReasonStreak)
	}
	if in.PerfectDay && remaining[herd.Cosmetic] > 0 {
		return r.pick(herd.Cosmetic, unlocks, ReasonPerfectDay)
	}
	for _, cat := range RotationOrder(in.LastCategory) {
		if remaining[cat] > 0 {
			return r.pick(cat, unlocks, ReasonRotation)
		}
	}
	return nil
}

// milestoneReached — серия именно сегодня выросла до кратной StreakMilestone.
func milestoneReached(pre, post int) bool {
	return post > pre && post%StreakMilestone == 0
}

func (r *Resolver) festival(in Input, unlocks *herd.Unlocks) *Reward {
	if !in.PerfectDay || !in.Season.RewardDue() {
		return nil
	}
	f := in.Season.Active
	it := *f.Reward
	if !r.catalog.Known(it) {
		log.WithFields(log.Fields{
			"festival": f.ID,
			"category": it.Category,
			"item":     it.Item,
		}).Warn("Фестивальная награда не найдена в каталоге")
		return nil
	}
	if unlocks.Has(it.Category, it.Item) {
		return nil
	}
	return &Reward{
		Category:   it.Category,
		Item:       it.Item,
		Theme:      r.catalog.Theme(it),
		Reason:     ReasonFestival,
		FestivalID: f.ID,
	}
}

// pick берёт первый закрытый предмет категории из темы, где таких больше всего.
// При равенстве побеждает тема, объявленная раньше.
func (r *Resolver) pick(cat herd.Category, unlocks *herd.Unlocks, reason string) *Reward {
	bestCount, bestTheme, bestItem := 0, "", ""
	for _, th := range r.catalog.Themes {
		n, first := th.Locked(cat, unlocks)
		if n > bestCount {
			bestCount, bestTheme, bestItem = n, th.ID, first
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &Reward{Category: cat, Item: bestItem, Theme: bestTheme, Reason: reason}
}

// RotationOrder — базовый порядок категорий, циклически сдвинутый так,
// чтобы вчерашняя шла последней.
func RotationOrder(last herd.Category) []herd.Category {
	i := slices.Index(herd.Categories, last)
	if i < 0 {
		return slices.Clone(herd.Categories)
	}
	out := make([]herd.Category, 0, len(herd.Categories))
	out = append(out, herd.Categories[i+1:]...)
	return append(out, herd.Categories[:i+1]...)
}

// Grant записывает награду в сохранение. Если предмет уже открыт, ничего
// не меняет и возвращает false: в итогах дня это «без награды».
func Grant(s *herd.SaveState, rw *Reward) (bool, error) {
	if rw == nil {
		return false, nil
	}
	added, err := s.AddUnlock(rw.Category, rw.Item)
	if err != nil {
		return false, fmt.Errorf("ошибка выдачи награды: %w", err)
	}
	if !added {
		return false, nil
	}
	s.SetLastReward(rw.Category)
	if rw.FestivalID != "" {
		s.MarkFestivalComplete(rw.FestivalID)
	}
	return true, nil
}
