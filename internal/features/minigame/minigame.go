// Package minigame — контракт мини-игры и последовательный запуск очереди дня.
//
// Мини-игры запускаются строго по одной: старт, ожидание единственного
// сигнала завершения, немедленная остановка и только потом следующая.
package minigame

import (
	"context"
	"slices"
	"sync"
	"time"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

// Display — UI-колбэки, через которые раннер и мини-игра показывают ход дня.
type Display interface {
	// ShowStep вызывается перед стартом каждой мини-игры
	ShowStep(ctx context.Context, step StepInfo)
	// ShowInstruction — подсказка для игроков во время мини-игры
	ShowInstruction(ctx context.Context, text string)
	// ShowTimer — сколько осталось времени
	ShowTimer(ctx context.Context, left time.Duration)
}

// StepInfo — что показать игроку перед мини-игрой.
type StepInfo struct {
	Day          int
	Step         int // С нуля
	Total        int
	Kind         herd.Kind
	Title        string
	Instruction  string
	Participants []string // Имена персонажей
	Player       string   // Участник семейного челленджа, пусто если выключен
}

// StartContext — всё, что мини-игра получает при старте.
type StartContext struct {
	Kind         herd.Kind
	Day          int
	Step         int
	Participants []*herd.Character
	Difficulty   float64
	Modifiers    map[string]float64 // Мини-игра трактует ключи сама
	Instruction  string
	Player       string
	Consumables  []string // Угощения, которые можно подавать
	Wardrobe     []string // Косметика, которую можно выдать как аксессуар
	Display      Display
	Complete     *Completion // Вызвать ровно один раз
}

// MiniGame — внешняя реализация мини-игры.
// Start не должен блокироваться до конца игры: результат приходит через Complete.
type MiniGame interface {
	Start(ctx context.Context, sc *StartContext) error
	Stop()
}

// Factory создаёт новый экземпляр мини-игры на один запуск.
type Factory func() MiniGame

// Registry — реализации мини-игр по видам.
type Registry struct {
	mu        sync.RWMutex
	factories map[herd.Kind]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[herd.Kind]Factory)}
}

// Register регистрирует реализацию. Неизвестные виды игнорируются.
func (r *Registry) Register(kind herd.Kind, f Factory) bool {
	if !kind.Valid() || f == nil {
		return false
	}
	r.mu.Lock()
	r.factories[kind] = f
	r.mu.Unlock()
	return true
}

// Kinds возвращает зарегистрированные виды в порядке объявления.
func (r *Registry) Kinds() []herd.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]herd.Kind, 0, len(r.factories))
	for _, k := range herd.Kinds {
		if _, ok := r.factories[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// New создаёт мини-игру вида.
func (r *Registry) New(kind herd.Kind) (MiniGame, bool) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Has — есть ли реализация вида.
func (r *Registry) Has(kind herd.Kind) bool {
	return slices.Contains(r.Kinds(), kind)
}

type noopDisplay struct{}

func (noopDisplay) ShowStep(context.Context, StepInfo)       {}
func (noopDisplay) ShowInstruction(context.Context, string)  {}
func (noopDisplay) ShowTimer(context.Context, time.Duration) {}
