package autoplay

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChanceBounds(t *testing.T) {
	easy := Chance(1, map[string]float64{"window_scale": 2}, []*herd.Character{{Happiness: 100}})
	assert.Equal(t, 0.95, easy)

	hard := Chance(10, map[string]float64{"speed_scale": 3}, []*herd.Character{{Happiness: 0}})
	assert.Equal(t, 0.1, hard)

	assert.Greater(t, Chance(1, nil, nil), Chance(2, nil, nil))
	assert.Greater(t, Chance(1, nil, []*herd.Character{{Happiness: 90}}), Chance(1, nil, []*herd.Character{{Happiness: 10}}))
}

func TestRunsFullQueue(t *testing.T) {
	reg := minigame.NewRegistry()
	Register(reg, 5, 0)
	require.Equal(t, herd.Kinds, reg.Kinds())

	cfg := config.DayConfig{MaxParticipants: 3, DifficultyBase: 1, DifficultyCap: 3}
	runner := minigame.NewRunner(reg, cfg, rand.New(rand.NewSource(5)))

	save := &herd.SaveState{
		ID:  "s",
		Day: 1,
		Herd: []*herd.Character{
			herd.NewCharacter("A", herd.Greedy),
			herd.NewCharacter("B", herd.Vain),
		},
		Unlocks: herd.Unlocks{Consumables: []string{"carrot"}, Cosmetics: []string{"bow"}},
	}
	p := &plan.DayPlan{Day: 1, Queue: herd.Kinds}

	run, err := runner.RunQueue(context.Background(), minigame.RunInput{Save: save, Plan: p})
	require.NoError(t, err)
	require.Len(t, run.Steps, len(herd.Kinds))
	for _, st := range run.Steps {
		assert.NotEmpty(t, st.Result.Summary)
		assert.Len(t, st.Participants, 2)
	}

	feeding := run.Steps[0].Result
	for _, id := range run.Steps[0].Participants {
		adj := feeding.Adjustments[id]
		require.NotNil(t, adj)
		assert.Equal(t, []string{"carrot"}, adj.Treats)
	}
}

func TestStopCancelsRunningGame(t *testing.T) {
	reg := minigame.NewRegistry()
	Register(reg, 1, time.Hour)
	g, ok := reg.New(herd.KindFetch)
	require.True(t, ok)

	done := minigame.NewCompletion(herd.KindFetch)
	require.NoError(t, g.Start(context.Background(), &minigame.StartContext{Kind: herd.KindFetch, Complete: done}))
	g.Stop()
	assert.False(t, done.Completed())
}

func TestStartNeedsCompletion(t *testing.T) {
	g := &Game{kind: herd.KindFetch}
	assert.Error(t, g.Start(context.Background(), &minigame.StartContext{}))
	g.Stop()
}

type timerDisplay struct {
	mu     sync.Mutex
	timers map[herd.Kind][]time.Duration
	kind   herd.Kind
}

func (d *timerDisplay) ShowStep(_ context.Context, st minigame.StepInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kind = st.Kind
}

func (d *timerDisplay) ShowInstruction(context.Context, string) {}

func (d *timerDisplay) ShowTimer(_ context.Context, left time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers[d.kind] = append(d.timers[d.kind], left)
}

func TestTimerCountsDownEveryRound(t *testing.T) {
	reg := minigame.NewRegistry()
	Register(reg, 3, 0)

	cfg := config.DayConfig{MaxParticipants: 3, DifficultyBase: 1, DifficultyCap: 3}
	runner := minigame.NewRunner(reg, cfg, rand.New(rand.NewSource(3)))

	save := &herd.SaveState{ID: "s", Day: 1, Herd: []*herd.Character{herd.NewCharacter("A", herd.Greedy)}}
	p := &plan.DayPlan{
		Day:   1,
		Queue: []herd.Kind{herd.KindFetch, herd.KindLullaby},
		Modifiers: map[herd.Kind]map[string]float64{
			herd.KindFetch: {"time_budget_sec": 30},
		},
	}
	d := &timerDisplay{timers: make(map[herd.Kind][]time.Duration)}

	_, err := runner.RunQueue(context.Background(), minigame.RunInput{Save: save, Plan: p, Display: d})
	require.NoError(t, err)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, []time.Duration{30 * time.Second, 20 * time.Second, 10 * time.Second, 0}, d.timers[herd.KindFetch])
	require.Len(t, d.timers[herd.KindLullaby], Rounds+1, "no budget modifier still shows a timer")
	assert.Equal(t, DefaultTimeBudget, d.timers[herd.KindLullaby][0])
	assert.Zero(t, d.timers[herd.KindLullaby][Rounds])
}
