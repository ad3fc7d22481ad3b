package minigame

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

// StepResult — итог одного шага очереди.
type StepResult struct {
	Step         int
	Kind         herd.Kind
	Participants []string // ID персонажей
	Player       string   // ID участника семейного челленджа
	Event        *plan.EventAssignment
	Result       herd.Result
}

// DayRun — итоги всей очереди дня.
type DayRun struct {
	Steps         []StepResult
	Adjustments   map[string]*herd.Adjustment
	PerfectClears map[herd.Kind]int
}

// PerfectDay — все мини-игры дня успешны.
func (d *DayRun) PerfectDay() bool {
	if len(d.Steps) == 0 {
		return false
	}
	for _, s := range d.Steps {
		if !s.Result.Success {
			return false
		}
	}
	return true
}

// Successes — сколько мини-игр дня завершились успехом.
func (d *DayRun) Successes() int {
	n := 0
	for _, s := range d.Steps {
		if s.Result.Success {
			n++
		}
	}
	return n
}

// RunInput — всё, что нужно для запуска очереди.
type RunInput struct {
	Save    *herd.SaveState // Только чтение
	Plan    *plan.DayPlan
	Display Display
	Players map[herd.Kind]herd.Participant // Кто из семьи играет вид, может быть nil
}

// Runner запускает очередь дня.
type Runner struct {
	registry *Registry
	cfg      config.DayConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRunner создаёт раннер.
func NewRunner(registry *Registry, cfg config.DayConfig, rng *rand.Rand) *Runner {
	if rng == nil {
		rng = common.NewRNG(0)
	}
	return &Runner{registry: registry, cfg: cfg, rng: rng}
}

// Registry возвращает реестр мини-игр раннера.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Difficulty растёт с номером дня и позицией в очереди, но не выше потолка.
func (r *Runner) Difficulty(day, step int) float64 {
	d := r.cfg.DifficultyBase +
		r.cfg.DifficultyPerDay*float64(max(day-1, 0)) +
		r.cfg.DifficultyPerStep*float64(step)
	return math.Min(d, r.cfg.DifficultyCap)
}

// SelectParticipants выбирает до MaxParticipants персонажей: ведущий события
// первым, остальные случайно без повторов.
func (r *Runner) SelectParticipants(characters []*herd.Character, leadID string) []*herd.Character {
	limit := min(r.cfg.MaxParticipants, len(characters))
	if limit <= 0 {
		return nil
	}

	out := make([]*herd.Character, 0, limit)
	rest := make([]*herd.Character, 0, len(characters))
	for _, c := range characters {
		if leadID != "" && c.ID == leadID && len(out) == 0 {
			out = append(out, c)
			continue
		}
		rest = append(rest, c)
	}

	r.mu.Lock()
	perm := r.rng.Perm(len(rest))
	r.mu.Unlock()

	for _, i := range perm {
		if len(out) == limit {
			break
		}
		out = append(out, rest[i])
	}
	return out
}

// RunQueue запускает все мини-игры плана по очереди и накапливает изменения.
// При отмене ctx или таймауте активная мини-игра останавливается, а день
// прерывается с ошибкой: накопленное к этому моменту не применяется.
func (r *Runner) RunQueue(ctx context.Context, in RunInput) (*DayRun, error) {
	if in.Plan == nil || len(in.Plan.Queue) == 0 {
		return nil, common.ErrNoMiniGames
	}
	if in.Display == nil {
		in.Display = noopDisplay{}
	}

	run := &DayRun{
		Adjustments:   make(map[string]*herd.Adjustment),
		PerfectClears: make(map[herd.Kind]int),
	}
	for step, kind := range in.Plan.Queue {
		sr, ok, err := r.runStep(ctx, in, step, kind)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		Merge(run.Adjustments, sr.Result.Adjustments)
		if sr.Result.PerfectClear() {
			run.PerfectClears[kind]++
		}
		run.Steps = append(run.Steps, sr)
	}
	if len(run.Steps) == 0 {
		return nil, common.ErrNoMiniGames
	}
	return run, nil
}

func (r *Runner) runStep(ctx context.Context, in RunInput, step int, kind herd.Kind) (StepResult, bool, error) {
	logger := log.WithFields(log.Fields{
		"save_id": in.Save.ID,
		"day":     in.Plan.Day,
		"step":    step,
		"kind":    kind,
	})

	game, ok := r.registry.New(kind)
	if !ok {
		logger.Warn("Нет реализации мини-игры, шаг пропущен")
		return StepResult{}, false, nil
	}

	ev := in.Plan.Event(kind)
	leadID, instruction := "", fmt.Sprintf("Play %s!", kind.Title())
	if ev != nil {
		leadID = ev.LeadID
		instruction = events.Render(ev.Rule.Instruction, ev.LeadName)
	}
	participants := r.SelectParticipants(in.Save.Herd, leadID)
	player := in.Players[kind]

	names := make([]string, 0, len(participants))
	ids := make([]string, 0, len(participants))
	for _, c := range participants {
		names = append(names, c.Name)
		ids = append(ids, c.ID)
	}

	in.Display.ShowStep(ctx, StepInfo{
		Day:          in.Plan.Day,
		Step:         step,
		Total:        len(in.Plan.Queue),
		Kind:         kind,
		Title:        kind.Title(),
		Instruction:  instruction,
		Participants: names,
		Player:       player.Name,
	})

	done := NewCompletion(kind)
	sc := &StartContext{
		Kind:         kind,
		Day:          in.Plan.Day,
		Step:         step,
		Participants: participants,
		Difficulty:   r.Difficulty(in.Plan.Day, step),
		Modifiers:    copyModifiers(in.Plan.Modifiers[kind]),
		Instruction:  instruction,
		Player:       player.Name,
		Consumables:  append([]string(nil), in.Save.Unlocks.Consumables...),
		Wardrobe:     append([]string(nil), in.Save.Unlocks.Cosmetics...),
		Display:      in.Display,
		Complete:     done,
	}

	var res herd.Result
	if err := game.Start(ctx, sc); err != nil {
		// Мини-игра, которая не смогла стартовать, засчитывается как проигрыш
		game.Stop()
		logger.WithError(err).Warn("Мини-игра не запустилась")
		res = herd.Result{Summary: fmt.Sprintf("%s could not start.", kind.Title())}
	} else {
		var waitErr error
		res, waitErr = done.Wait(ctx, r.cfg.MiniGameTimeout)
		game.Stop()
		if waitErr != nil {
			if errors.Is(waitErr, common.ErrMiniGameTimeout) {
				logger.WithField("timeout", r.cfg.MiniGameTimeout).Error("Мини-игра не завершилась вовремя")
			} else {
				logger.WithError(waitErr).Warn("День прерван во время мини-игры")
			}
			return StepResult{}, false, fmt.Errorf("мини-игра %s: %w", kind, waitErr)
		}
	}

	if ev != nil && ev.Rule.Outcome != nil {
		var lead *herd.Character
		if len(participants) > 0 && participants[0].ID == ev.LeadID {
			lead = participants[0]
		}
		ev.Rule.Outcome(events.HookContext{
			Kind:         kind,
			Day:          in.Plan.Day,
			Lead:         lead,
			Participants: participants,
		}, &res)
	}

	logger.WithFields(log.Fields{
		"success": res.Success,
		"perfect": res.Perfect,
	}).Info("Мини-игра завершена")

	return StepResult{
		Step:         step,
		Kind:         kind,
		Participants: ids,
		Player:       player.ID,
		Event:        ev,
		Result:       res,
	}, true, nil
}

func copyModifiers(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	maps.Copy(out, m)
	return out
}
