package season

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

func testSeason() herd.Season {
	return herd.Season{
		ID:       "s",
		Name:     "Test",
		StartDay: 1,
		Festivals: []herd.Festival{
			{
				ID: "bloom", Name: "Bloom", StartOffset: 5, EndOffset: 9,
				Modifiers: map[herd.Kind]map[string]float64{
					herd.KindGrooming: {"time_budget_sec": 40},
				},
				Reward: &herd.RewardItem{Category: herd.Decoration, Item: "arch"},
				Tasks:  []string{"Perfect Bath Time", "Three treats"},
			},
		},
	}
}

func TestDefaultSeasonParses(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "spring", s.ID)
	require.NotEmpty(t, s.Festivals)
	for _, f := range s.Festivals {
		assert.LessOrEqual(t, f.StartOffset, f.EndOffset, f.ID)
		if f.Reward != nil {
			assert.True(t, f.Reward.Category.Valid(), f.ID)
		}
	}
}

func TestParseRejectsEmptyID(t *testing.T) {
	_, err := Parse([]byte("name: nameless\n"))
	assert.Error(t, err)
}

func TestTakeWindowIsInclusive(t *testing.T) {
	s := testSeason()

	for day, active := range map[int]bool{5: false, 6: true, 10: true, 11: false} {
		snap := Take(s, day, 1)
		assert.Equal(t, active, snap.Active != nil, "day %d", day)
	}

	snap := Take(s, 10, 1)
	assert.Equal(t, 0, snap.DaysLeft)
	assert.Contains(t, snap.Highlight(), "last day")
}

func TestOverridesActiveAndImminent(t *testing.T) {
	s := testSeason()

	assert.Nil(t, Take(s, 3, 1).Overrides(herd.KindGrooming), "too far ahead")

	snap := Take(s, 5, 1)
	assert.True(t, snap.Imminent)
	assert.Equal(t, 40.0, snap.Overrides(herd.KindGrooming)["time_budget_sec"])
	assert.False(t, snap.RewardDue())

	snap = Take(s, 7, 1)
	assert.Equal(t, 40.0, snap.Overrides(herd.KindGrooming)["time_budget_sec"])
	assert.Nil(t, snap.Overrides(herd.KindFetch))
	assert.True(t, snap.RewardDue())
}

func TestCompletedFestivalNoLongerRewards(t *testing.T) {
	s := testSeason()
	s.CompletedFestivals = []string{"bloom"}

	snap := Take(s, 7, 1)
	assert.True(t, snap.Completed)
	assert.False(t, snap.RewardDue())
	assert.Contains(t, snap.Highlight(), "already earned")
}

func TestHighlightEmptyAfterSeason(t *testing.T) {
	assert.Empty(t, Take(testSeason(), 40, 1).Highlight())
}

func TestChecklistOnlyWhileRewardOpen(t *testing.T) {
	s := testSeason()

	assert.Empty(t, Take(s, 5, 1).Checklist(), "imminent festival has no tasks yet")
	assert.Equal(t, []string{"Perfect Bath Time", "Three treats"}, Take(s, 7, 1).Checklist())

	s.CompletedFestivals = []string{"bloom"}
	assert.Empty(t, Take(s, 7, 1).Checklist())
}
