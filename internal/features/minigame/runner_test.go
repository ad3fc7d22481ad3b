package minigame

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

func fourHerd() []*herd.Character {
	return []*herd.Character{
		{ID: "c1", Name: "Biscuit", Personality: herd.Greedy},
		{ID: "c2", Name: "Duchess", Personality: herd.Vain},
		{ID: "c3", Name: "Pillow", Personality: herd.Sleepy},
		{ID: "c4", Name: "Buddy", Personality: herd.Social},
	}
}

func TestDifficultyMonotonicAndCapped(t *testing.T) {
	r := NewRunner(NewRegistry(), testDayConfig(), rand.New(rand.NewSource(1)))

	assert.InDelta(t, 1.0, r.Difficulty(1, 0), 1e-9)
	assert.InDelta(t, 1.4, r.Difficulty(3, 3), 1e-9)
	assert.Greater(t, r.Difficulty(5, 1), r.Difficulty(5, 0))
	assert.Greater(t, r.Difficulty(6, 0), r.Difficulty(5, 0))
	assert.Equal(t, 3.0, r.Difficulty(500, 3))
}

func TestSelectParticipantsLeadFirst(t *testing.T) {
	r := NewRunner(NewRegistry(), testDayConfig(), rand.New(rand.NewSource(9)))
	characters := fourHerd()

	for i := 0; i < 20; i++ {
		got := r.SelectParticipants(characters, "c3")
		require.Len(t, got, 3)
		assert.Equal(t, "c3", got[0].ID)

		seen := map[string]bool{}
		for _, c := range got {
			assert.False(t, seen[c.ID], "duplicate participant %s", c.ID)
			seen[c.ID] = true
		}
	}
}

func TestSelectParticipantsSmallHerd(t *testing.T) {
	r := NewRunner(NewRegistry(), testDayConfig(), rand.New(rand.NewSource(9)))

	assert.Empty(t, r.SelectParticipants(nil, "x"))
	got := r.SelectParticipants(fourHerd()[:1], "missing")
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

type runFixture struct {
	runner *Runner
	save   *herd.SaveState
	plan   *plan.DayPlan
	games  map[herd.Kind]*scripted
}

func newFixture(t *testing.T, results map[herd.Kind]herd.Result) *runFixture {
	t.Helper()

	reg := NewRegistry()
	games := make(map[herd.Kind]*scripted)
	for kind, res := range results {
		g := &scripted{result: res}
		games[kind] = g
		reg.Register(kind, func() MiniGame { return g })
	}

	catalog, err := events.Default()
	require.NoError(t, err)

	save := &herd.SaveState{ID: "s", Day: 3, Herd: fourHerd()}
	save.EnsureDefaults()
	save.Unlocks.Consumables = []string{"carrot"}

	b := plan.NewBuilder(catalog, reg.Kinds(), 1, rand.New(rand.NewSource(4)))
	return &runFixture{
		runner: NewRunner(reg, testDayConfig(), rand.New(rand.NewSource(4))),
		save:   save,
		plan:   b.GetOrBuild(save),
		games:  games,
	}
}

func TestRunQueueAccumulatesAndStops(t *testing.T) {
	f := newFixture(t, map[herd.Kind]herd.Result{
		herd.KindLullaby: {
			Success: true, Perfect: true,
			Adjustments: map[string]*herd.Adjustment{"c1": {Happiness: 4}},
		},
		herd.KindFetch: {
			Success: true,
			Adjustments: map[string]*herd.Adjustment{"c1": {Happiness: 6, Treats: []string{"carrot"}}},
		},
	})

	run, err := f.runner.RunQueue(context.Background(), RunInput{Save: f.save, Plan: f.plan})
	require.NoError(t, err)

	require.Len(t, run.Steps, 2)
	assert.True(t, run.PerfectDay())
	assert.Equal(t, 1, run.PerfectClears[herd.KindLullaby])
	assert.Zero(t, run.PerfectClears[herd.KindFetch])

	// 4 + 6 от мини-игр, social_cheer может добавить ещё
	require.Contains(t, run.Adjustments, "c1")
	assert.GreaterOrEqual(t, run.Adjustments["c1"].Happiness, 10)
	assert.Equal(t, []string{"carrot"}, run.Adjustments["c1"].Treats)

	for kind, g := range f.games {
		assert.True(t, g.stopped, "%s must be stopped", kind)
		assert.Equal(t, []string{"carrot"}, g.started.Consumables)
	}
}

func TestRunQueueOutcomeHookRuns(t *testing.T) {
	f := newFixture(t, map[herd.Kind]herd.Result{
		herd.KindFeeding: {Success: false, Summary: "Snack Rush failed."},
	})

	ev := f.plan.Event(herd.KindFeeding)
	require.NotNil(t, ev)
	require.Equal(t, herd.Greedy, ev.Rule.Personality)

	run, err := f.runner.RunQueue(context.Background(), RunInput{Save: f.save, Plan: f.plan})
	require.NoError(t, err)

	step := run.Steps[0]
	assert.Contains(t, step.Result.Summary, "Biscuit sulks")
	assert.Equal(t, -5, run.Adjustments["c1"].Happiness)
	assert.Equal(t, "c1", step.Participants[0])
	assert.False(t, run.PerfectDay())

	started := f.games[herd.KindFeeding].started
	assert.Equal(t, 25.0, started.Modifiers["time_budget_sec"])
	assert.Contains(t, started.Instruction, "Biscuit")
}

func TestRunQueuePassesPlayers(t *testing.T) {
	f := newFixture(t, map[herd.Kind]herd.Result{herd.KindFetch: {Success: true}})

	run, err := f.runner.RunQueue(context.Background(), RunInput{
		Save:    f.save,
		Plan:    f.plan,
		Players: map[herd.Kind]herd.Participant{herd.KindFetch: {ID: "p1", Name: "Mom"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", run.Steps[0].Player)
	assert.Equal(t, "Mom", f.games[herd.KindFetch].started.Player)
}

func TestRunQueueTimeout(t *testing.T) {
	reg := NewRegistry()
	stalled := &scripted{noReply: true}
	reg.Register(herd.KindFetch, func() MiniGame { return stalled })

	cfg := testDayConfig()
	cfg.MiniGameTimeout = 20 * time.Millisecond
	r := NewRunner(reg, cfg, rand.New(rand.NewSource(1)))

	save := &herd.SaveState{ID: "s", Day: 1, Herd: fourHerd()}
	p := &plan.DayPlan{Day: 1, Queue: []herd.Kind{herd.KindFetch}}

	_, err := r.RunQueue(context.Background(), RunInput{Save: save, Plan: p})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMiniGameTimeout))
	assert.True(t, stalled.stopped)
}

func TestRunQueueCancelled(t *testing.T) {
	reg := NewRegistry()
	stalled := &scripted{noReply: true}
	reg.Register(herd.KindFetch, func() MiniGame { return stalled })
	r := NewRunner(reg, testDayConfig(), rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	save := &herd.SaveState{ID: "s", Day: 1, Herd: fourHerd()}
	p := &plan.DayPlan{Day: 1, Queue: []herd.Kind{herd.KindFetch}}

	_, err := r.RunQueue(ctx, RunInput{Save: save, Plan: p})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, stalled.stopped)
}

func TestRunQueueSkipsUnregisteredKinds(t *testing.T) {
	reg := NewRegistry()
	reg.Register(herd.KindFetch, func() MiniGame { return &scripted{result: herd.Result{Success: true}} })
	r := NewRunner(reg, testDayConfig(), rand.New(rand.NewSource(1)))

	save := &herd.SaveState{ID: "s", Day: 1}
	p := &plan.DayPlan{Day: 1, Queue: []herd.Kind{herd.KindFeeding, herd.KindFetch}}

	run, err := r.RunQueue(context.Background(), RunInput{Save: save, Plan: p})
	require.NoError(t, err)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, herd.KindFetch, run.Steps[0].Kind)
	assert.Empty(t, run.Steps[0].Participants, "empty herd still plays")

	_, err = r.RunQueue(context.Background(), RunInput{Save: save, Plan: &plan.DayPlan{Queue: []herd.Kind{herd.KindLullaby}}})
	assert.ErrorIs(t, err, common.ErrNoMiniGames)
}

type failingStart struct{ stopped bool }

func (g *failingStart) Start(context.Context, *StartContext) error { return errors.New("no canvas") }
func (g *failingStart) Stop()                                      { g.stopped = true }

func TestRunQueueStartErrorCountsAsFailure(t *testing.T) {
	reg := NewRegistry()
	g := &failingStart{}
	reg.Register(herd.KindFetch, func() MiniGame { return g })
	r := NewRunner(reg, testDayConfig(), rand.New(rand.NewSource(1)))

	save := &herd.SaveState{ID: "s", Day: 1}
	run, err := r.RunQueue(context.Background(), RunInput{Save: save, Plan: &plan.DayPlan{Day: 1, Queue: []herd.Kind{herd.KindFetch}}})
	require.NoError(t, err)
	assert.False(t, run.Steps[0].Result.Success)
	assert.True(t, g.stopped)
}

func TestCompletionRejectsSecondCall(t *testing.T) {
	g := &scripted{result: herd.Result{Success: true}, twice: true}
	reg := NewRegistry()
	reg.Register(herd.KindFetch, func() MiniGame { return g })
	r := NewRunner(reg, testDayConfig(), rand.New(rand.NewSource(1)))

	save := &herd.SaveState{ID: "s", Day: 1}
	run, err := r.RunQueue(context.Background(), RunInput{Save: save, Plan: &plan.DayPlan{Day: 1, Queue: []herd.Kind{herd.KindFetch}}})
	require.NoError(t, err)
	assert.Len(t, run.Steps, 1)
	assert.ErrorIs(t, g.second, common.ErrAlreadyCompleted)
}

func TestCompletionWaitReturnsDeliveredResult(t *testing.T) {
	c := NewCompletion(herd.KindFetch)
	require.NoError(t, c.Done(herd.Result{Summary: "first"}))
	assert.ErrorIs(t, c.Done(herd.Result{Summary: "second"}), common.ErrAlreadyCompleted)
	assert.True(t, c.Completed())

	res, err := c.Wait(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Summary)
}
