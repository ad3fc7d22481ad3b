// Package autoplay — мини-игры, которые играют сами за себя.
// Нужны боту и herdctl, чтобы день можно было провести без живого ввода:
// исход зависит от сложности, модификаторов и настроения участников.
package autoplay

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
)

// Rounds — сколько «ходов» длится одна мини-игра.
const Rounds = 3

// DefaultTimeBudget — время на игру, если модификатор time_budget_sec не задан.
const DefaultTimeBudget = 30 * time.Second

// Register регистрирует автоигры всех видов.
// seed = 0 — от текущего времени; stepDelay — пауза между ходами.
func Register(reg *minigame.Registry, seed int64, stepDelay time.Duration) {
	src := &seeder{rng: common.NewRNG(seed)}
	for _, kind := range herd.Kinds {
		reg.Register(kind, func() minigame.MiniGame {
			return &Game{kind: kind, rng: rand.New(rand.NewSource(src.next())), stepDelay: stepDelay}
		})
	}
}

// seeder раздаёт сиды играм; игры создаются из разных горутин.
type seeder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *seeder) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// Game — одна автоигра.
type Game struct {
	kind      herd.Kind
	rng       *rand.Rand
	stepDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start запускает игру в фоне и сразу возвращается.
func (g *Game) Start(ctx context.Context, sc *minigame.StartContext) error {
	if sc == nil || sc.Complete == nil {
		return fmt.Errorf("autoplay %s: нет сигнала завершения", g.kind)
	}
	ctx, g.cancel = context.WithCancel(ctx)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.play(ctx, sc)
	}()
	return nil
}

// Stop прерывает игру, если она ещё идёт, и ждёт её горутину.
func (g *Game) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.wg.Wait()
}

func (g *Game) play(ctx context.Context, sc *minigame.StartContext) {
	if sc.Display != nil {
		sc.Display.ShowInstruction(ctx, sc.Instruction)
	}

	budget := DefaultTimeBudget
	if sec := sc.Modifiers["time_budget_sec"]; sec > 0 {
		budget = time.Duration(sec * float64(time.Second))
	}
	if sc.Display != nil {
		sc.Display.ShowTimer(ctx, budget)
	}
	for round := 1; round <= Rounds; round++ {
		if g.stepDelay > 0 {
			t := time.NewTimer(g.stepDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return
		}
		if sc.Display != nil {
			sc.Display.ShowTimer(ctx, budget*time.Duration(Rounds-round)/Rounds)
		}
	}

	chance := Chance(sc.Difficulty, sc.Modifiers, sc.Participants)
	res := herd.Result{Success: g.rng.Float64() < chance}
	res.Perfect = res.Success && g.rng.Float64() < chance/2
	g.effects(sc, &res)

	log.WithFields(log.Fields{
		"kind":    g.kind,
		"chance":  fmt.Sprintf("%.2f", chance),
		"success": res.Success,
		"perfect": res.Perfect,
	}).Debug("Автоигра завершена")

	if err := sc.Complete.Done(res); err != nil {
		log.WithError(err).WithField("kind", g.kind).Warn("Автоигра не смогла сообщить результат")
	}
}

// Chance — вероятность успеха: падает со сложностью, растёт с настроением
// участников, окна шире — легче, скорость выше — сложнее.
func Chance(difficulty float64, mods map[string]float64, participants []*herd.Character) float64 {
	chance := 0.85 - 0.15*(difficulty-1)

	if len(participants) > 0 {
		mood := 0
		for _, c := range participants {
			mood += c.Happiness
		}
		chance += (float64(mood)/float64(len(participants)) - 50) / 200
	}
	if ws, ok := mods["window_scale"]; ok {
		chance += (ws - 1) * 0.3
	}
	if ss, ok := mods["speed_scale"]; ok {
		chance -= (ss - 1) * 0.3
	}

	switch {
	case chance < 0.1:
		return 0.1
	case chance > 0.95:
		return 0.95
	default:
		return chance
	}
}

func (g *Game) effects(sc *minigame.StartContext, res *herd.Result) {
	for _, c := range sc.Participants {
		a := res.Adjust(c.ID)
		if !res.Success {
			a.Happiness -= 3
		}
		switch g.kind {
		case herd.KindFeeding:
			a.Hunger -= pick(res.Success, 15, 5)
			a.Chonk += 2
			a.Happiness += pick(res.Success, 5, 0)
			if treat := g.treat(sc.Consumables); treat != "" {
				a.Treats = append(a.Treats, treat)
				for i := 0; i < int(sc.Modifiers["treat_bonus"]); i++ {
					a.Treats = append(a.Treats, g.treat(sc.Consumables))
				}
			}
		case herd.KindGrooming:
			a.Cleanliness += pick(res.Success, 20, 5)
			a.Happiness += 3
		case herd.KindLullaby:
			a.Happiness += pick(res.Success, 8, 2)
			a.Hunger += 5
		case herd.KindFetch:
			a.Happiness += pick(res.Success, 10, 3)
			a.Cleanliness -= 8
			a.Hunger += 8
			a.Chonk -= 2
		}
	}

	if g.kind == herd.KindGrooming && res.Perfect && len(sc.Participants) > 0 && len(sc.Wardrobe) > 0 {
		res.Adjust(sc.Participants[0].ID).Accessory = sc.Wardrobe[g.rng.Intn(len(sc.Wardrobe))]
	}

	switch {
	case res.Perfect:
		res.Summary = fmt.Sprintf("Flawless %s!", sc.Kind.Title())
	case res.Success:
		res.Summary = fmt.Sprintf("%s cleared.", sc.Kind.Title())
	default:
		res.Summary = fmt.Sprintf("%s went sideways.", sc.Kind.Title())
	}
}

func (g *Game) treat(consumables []string) string {
	if len(consumables) == 0 {
		return ""
	}
	return consumables[g.rng.Intn(len(consumables))]
}

func pick(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}
