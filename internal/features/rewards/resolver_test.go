package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/season"
)

const testThemes = `
themes:
  - id: small
    items:
      - {category: decoration, item: pond}
      - {category: cosmetic, item: bow}
      - {category: consumable, item: apple}
  - id: big
    items:
      - {category: decoration, item: tower}
      - {category: decoration, item: moat}
      - {category: cosmetic, item: crown}
      - {category: gadget, item: laser}
      - {category: cosmetic, item: ""}
exclusive:
  - {category: decoration, item: arch}
`

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	c, err := Parse([]byte(testThemes))
	require.NoError(t, err)
	return NewResolver(c)
}

func festivalSnapshot(reward *herd.RewardItem, completed bool) season.Snapshot {
	s := herd.Season{
		ID: "s", StartDay: 1,
		Festivals: []herd.Festival{{ID: "bloom", StartOffset: 0, EndOffset: 5, Reward: reward}},
	}
	if completed {
		s.CompletedFestivals = []string{"bloom"}
	}
	return season.Take(s, 2, 1)
}

func TestParseDropsInvalidItems(t *testing.T) {
	r := newResolver(t)
	big := r.Catalog().Themes[1]
	assert.Len(t, big.Items, 3)
	assert.False(t, r.Catalog().Known(herd.RewardItem{Category: "gadget", Item: "laser"}))
	assert.True(t, r.Catalog().Known(herd.RewardItem{Category: herd.Decoration, Item: "arch"}))
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.Themes)
	for _, cat := range herd.Categories {
		assert.Positive(t, c.Remaining(cat, &herd.Unlocks{}), cat)
	}

	spring, err := season.Default()
	require.NoError(t, err)
	for _, f := range spring.Festivals {
		if f.Reward != nil {
			assert.True(t, c.Known(*f.Reward), "festival %s reward must exist", f.ID)
		}
	}
}

func TestFestivalRewardNeedsPerfectDay(t *testing.T) {
	r := newResolver(t)
	arch := &herd.RewardItem{Category: herd.Decoration, Item: "arch"}

	rw := r.Resolve(Input{PerfectDay: true, PostStreak: 1, Season: festivalSnapshot(arch, false)})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonFestival, rw.Reason)
	assert.Equal(t, "arch", rw.Item)
	assert.Equal(t, "bloom", rw.FestivalID)

	rw = r.Resolve(Input{PerfectDay: false, Season: festivalSnapshot(arch, false)})
	require.NotNil(t, rw)
	assert.NotEqual(t, ReasonFestival, rw.Reason)
}

func TestFestivalRewardSkippedWhenUnavailable(t *testing.T) {
	r := newResolver(t)

	unknown := &herd.RewardItem{Category: herd.Decoration, Item: "nope"}
	rw := r.Resolve(Input{PerfectDay: true, PostStreak: 1, Season: festivalSnapshot(unknown, false)})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)

	arch := &herd.RewardItem{Category: herd.Decoration, Item: "arch"}
	rw = r.Resolve(Input{PerfectDay: true, PostStreak: 1, Season: festivalSnapshot(arch, true)})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)

	owned := &herd.Unlocks{Decorations: []string{"arch"}}
	rw = r.Resolve(Input{PerfectDay: true, PostStreak: 1, Season: festivalSnapshot(arch, false), Unlocks: owned})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)
}

func TestStreakMilestonePrefersBiggestTheme(t *testing.T) {
	r := newResolver(t)

	rw := r.Resolve(Input{PerfectDay: true, PreStreak: 2, PostStreak: 3})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonStreak, rw.Reason)
	assert.Equal(t, herd.Decoration, rw.Category)
	assert.Equal(t, "big", rw.Theme)
	assert.Equal(t, "tower", rw.Item)

	// big и small сравнялись (по одной) — побеждает объявленная раньше
	rw = r.Resolve(Input{PostStreak: 6, Unlocks: &herd.Unlocks{Decorations: []string{"tower"}}})
	require.NotNil(t, rw)
	assert.Equal(t, "small", rw.Theme)
	assert.Equal(t, "pond", rw.Item)
}

func TestPerfectDayBonus(t *testing.T) {
	r := newResolver(t)
	rw := r.Resolve(Input{PerfectDay: true, PostStreak: 1})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)
	assert.Equal(t, herd.Cosmetic, rw.Category)
	assert.Equal(t, "small", rw.Theme)
	assert.Equal(t, "bow", rw.Item)
}

func TestRotationAvoidsYesterdaysCategory(t *testing.T) {
	r := newResolver(t)

	rw := r.Resolve(Input{LastCategory: herd.Consumable})
	require.NotNil(t, rw)
	assert.Equal(t, herd.Cosmetic, rw.Category)
	assert.Equal(t, ReasonRotation, rw.Reason)

	// После косметики идут декорации, косметика последней
	rw = r.Resolve(Input{LastCategory: herd.Cosmetic})
	require.NotNil(t, rw)
	assert.Equal(t, herd.Decoration, rw.Category)

	// Вчерашняя категория всё равно выдаётся, если больше нечего
	only := &herd.Unlocks{
		Consumables: []string{"apple"},
		Cosmetics:   []string{"bow", "crown"},
	}
	rw = r.Resolve(Input{LastCategory: herd.Decoration, Unlocks: only})
	require.NotNil(t, rw)
	assert.Equal(t, herd.Decoration, rw.Category)
}

func TestNothingLeft(t *testing.T) {
	r := newResolver(t)
	all := &herd.Unlocks{
		Consumables: []string{"apple"},
		Cosmetics:   []string{"bow", "crown"},
		Decorations: []string{"pond", "tower", "moat"},
	}
	assert.Nil(t, r.Resolve(Input{PerfectDay: true, PostStreak: 3, Unlocks: all}))
}

func TestRotationOrder(t *testing.T) {
	assert.Equal(t, []herd.Category{herd.Consumable, herd.Cosmetic, herd.Decoration}, RotationOrder(""))
	assert.Equal(t, []herd.Category{herd.Cosmetic, herd.Decoration, herd.Consumable}, RotationOrder(herd.Consumable))
	assert.Equal(t, []herd.Category{herd.Decoration, herd.Consumable, herd.Cosmetic}, RotationOrder(herd.Cosmetic))
	assert.Equal(t, []herd.Category{herd.Consumable, herd.Cosmetic, herd.Decoration}, RotationOrder(herd.Decoration))
	assert.Equal(t, []herd.Category{herd.Consumable, herd.Cosmetic, herd.Decoration}, RotationOrder("gadget"))
}

func TestStreakMilestoneOnlyOnTheDayItIsReached(t *testing.T) {
	r := newResolver(t)

	// Серия не выросла: юбилей уже отмечали
	rw := r.Resolve(Input{PerfectDay: true, PreStreak: 3, PostStreak: 3})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)

	rw = r.Resolve(Input{PerfectDay: true, PreStreak: 5, PostStreak: 6})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonStreak, rw.Reason)
}

func TestMilestoneFallsThroughWhenDecorationsRunOut(t *testing.T) {
	r := newResolver(t)
	noDecor := &herd.Unlocks{Decorations: []string{"pond", "tower", "moat"}}

	rw := r.Resolve(Input{PerfectDay: true, PreStreak: 2, PostStreak: 3, Unlocks: noDecor})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonPerfectDay, rw.Reason)
	assert.Equal(t, herd.Cosmetic, rw.Category)

	rw = r.Resolve(Input{PreStreak: 2, PostStreak: 3, LastCategory: herd.Cosmetic, Unlocks: noDecor})
	require.NotNil(t, rw)
	assert.Equal(t, ReasonRotation, rw.Reason)
	assert.Equal(t, herd.Consumable, rw.Category)
}

func TestGrantIsIdempotent(t *testing.T) {
	s := &herd.SaveState{}
	s.EnsureDefaults()
	rw := &Reward{Category: herd.Decoration, Item: "arch", Reason: ReasonFestival, FestivalID: "bloom"}

	ok, err := Grant(s, rw)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"arch"}, s.Unlocks.Decorations)
	assert.Equal(t, herd.Decoration, s.Stats.LastRewardCategory)
	assert.True(t, s.Season.FestivalCompleted("bloom"))

	s.Stats.LastRewardCategory = herd.Cosmetic
	ok, err = Grant(s, rw)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"arch"}, s.Unlocks.Decorations)
	assert.Equal(t, herd.Cosmetic, s.Stats.LastRewardCategory, "no reward keeps yesterday's category")

	ok, err = Grant(s, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Grant(s, &Reward{Category: "gadget", Item: "x"})
	assert.ErrorIs(t, err, common.ErrUnknownCategory)
}
