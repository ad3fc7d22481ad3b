// Package plan — построитель плана дня.
// План кешируется по ключу (день + отпечаток стада), чтобы повторные
// запросы превью не тратили случайность и не меняли исход дня.
package plan

import (
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/season"
)

// Note — строка превью: заголовок и подробности.
type Note struct {
	Title  string
	Detail string
}

// EventAssignment — правило события, выбранное на день для вида мини-игры.
type EventAssignment struct {
	Rule     *events.Rule
	LeadID   string // Персонаж, к характеру которого привязано правило
	LeadName string
}

// DayPlan — план дня. После построения не меняется, его можно отдавать
// нескольким читателям одновременно.
type DayPlan struct {
	Day       int
	Queue     []herd.Kind                      // Без повторов
	Events    map[herd.Kind]*EventAssignment   // nil-значения не хранятся
	Modifiers map[herd.Kind]map[string]float64 // Модификаторы правила + фестиваля
	Notes     []Note
	Season    season.Snapshot
	CacheKey  string
}

// Event возвращает событие вида или nil.
func (p *DayPlan) Event(kind herd.Kind) *EventAssignment {
	return p.Events[kind]
}

// CacheKey — "day=N|id:personality,..." с отсортированными парами.
func CacheKey(s *herd.SaveState) string {
	pairs := make([]string, 0, len(s.Herd))
	for _, c := range s.Herd {
		pairs = append(pairs, c.ID+":"+string(c.Personality))
	}
	slices.Sort(pairs)
	return fmt.Sprintf("day=%d|%s", s.Day, strings.Join(pairs, ","))
}

// Builder строит и кеширует планы дня, по одному на сохранение.
type Builder struct {
	catalog   *events.Catalog
	kinds     []herd.Kind
	lookahead int

	mu    sync.Mutex
	rng   *rand.Rand
	cache map[string]*DayPlan // save ID → последний план
}

// NewBuilder создаёт построитель. kinds — виды мини-игр, для которых есть
// реализация; rng — источник случайности (для тестов задаётся с seed).
func NewBuilder(catalog *events.Catalog, kinds []herd.Kind, lookahead int, rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Builder{
		catalog:   catalog,
		kinds:     slices.Clone(kinds),
		lookahead: lookahead,
		rng:       rng,
		cache:     make(map[string]*DayPlan),
	}
}

// GetOrBuild возвращает план из кеша, если ключ совпал, иначе строит новый.
func (b *Builder) GetOrBuild(s *herd.SaveState) *DayPlan {
	key := CacheKey(s)

	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.cache[s.ID]; ok && p.CacheKey == key {
		return p
	}

	p := b.build(s, key)
	b.cache[s.ID] = p

	log.WithFields(log.Fields{
		"save_id": s.ID,
		"day":     s.Day,
		"queue":   p.Queue,
		"events":  len(p.Events),
	}).Debug("План дня построен")
	return p
}

// Invalidate сбрасывает кешированный план сохранения.
func (b *Builder) Invalidate(saveID string) {
	b.mu.Lock()
	delete(b.cache, saveID)
	b.mu.Unlock()
}

func (b *Builder) build(s *herd.SaveState, key string) *DayPlan {
	p := &DayPlan{
		Day:       s.Day,
		Events:    make(map[herd.Kind]*EventAssignment),
		Modifiers: make(map[herd.Kind]map[string]float64),
		Season:    season.Take(s.Season, s.Day, b.lookahead),
		CacheKey:  key,
	}

	for _, i := range b.rng.Perm(len(b.kinds)) {
		p.Queue = append(p.Queue, b.kinds[i])
	}

	for _, kind := range p.Queue {
		var mods map[string]float64
		if rule, lead := b.catalog.Select(kind, s.Herd); rule != nil {
			p.Events[kind] = &EventAssignment{Rule: rule, LeadID: lead.ID, LeadName: lead.Name}
			mods = rule.ModifiersCopy()
		}
		if overrides := p.Season.Overrides(kind); len(overrides) > 0 {
			if mods == nil {
				mods = make(map[string]float64, len(overrides))
			}
			maps.Copy(mods, overrides)
		}
		if len(mods) > 0 {
			p.Modifiers[kind] = mods
		}
		p.Notes = append(p.Notes, note(kind, p.Events[kind]))
	}

	if line := p.Season.Highlight(); line != "" {
		title := p.Season.SeasonName
		if title == "" {
			title = "Season"
		}
		p.Notes = append(p.Notes, Note{Title: title, Detail: line})
	}
	if tasks := p.Season.Checklist(); len(tasks) > 0 {
		p.Notes = append(p.Notes, Note{
			Title:  p.Season.Active.Name + " tasks",
			Detail: strings.Join(tasks, "; "),
		})
	}
	return p
}

var titleCase = cases.Title(language.English)

// PersonalityLabel — характер для отображения: "greedy" → "Greedy".
func PersonalityLabel(p herd.Personality) string {
	return titleCase.String(string(p))
}

func note(kind herd.Kind, ev *EventAssignment) Note {
	if ev == nil {
		return Note{Title: kind.Title(), Detail: "A regular round, no special event."}
	}
	return Note{
		Title:  fmt.Sprintf("%s · %s (%s)", kind.Title(), ev.Rule.Label, PersonalityLabel(ev.Rule.Personality)),
		Detail: events.Render(ev.Rule.Note, ev.LeadName),
	}
}
