// Package events — каталог правил событий: для каждого вида мини-игры набор правил,
// привязанных к характеру персонажа, с модификаторами, инструкцией, заметкой
// для превью и обработчиком результата.
package events

import (
	_ "embed"
	"fmt"
	"maps"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

//go:embed events.yaml
var defaultRules []byte

// Rule — правило события для одного вида мини-игры.
type Rule struct {
	Kind        herd.Kind          `yaml:"kind"`
	Personality herd.Personality   `yaml:"personality"`
	Label       string             `yaml:"label"`
	Instruction string             `yaml:"instruction"` // Для участников, {lead} — имя ведущего
	Note        string             `yaml:"note"`        // Для превью дня
	Modifiers   map[string]float64 `yaml:"modifiers"`
	Achievement string             `yaml:"achievement"` // Выдаётся при успехе, пусто = нет
	Hook        string             `yaml:"hook"`

	Outcome OutcomeFunc `yaml:"-"`
}

// Render подставляет имя ведущего персонажа в шаблон.
func Render(tmpl, lead string) string {
	if lead == "" {
		lead = "The herd"
	}
	return strings.ReplaceAll(tmpl, "{lead}", lead)
}

// ModifiersCopy возвращает копию модификаторов, которую можно менять.
func (r *Rule) ModifiersCopy() map[string]float64 {
	out := make(map[string]float64, len(r.Modifiers))
	maps.Copy(out, r.Modifiers)
	return out
}

// Catalog — правила по видам мини-игр: тематическое и запасное social.
type Catalog struct {
	thematic map[herd.Kind]*Rule
	social   map[herd.Kind]*Rule
}

type catalogFile struct {
	Rules []*Rule `yaml:"rules"`
}

// Default загружает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultRules)
}

// Parse разбирает YAML-каталог. Правила с неизвестным видом или характером
// пропускаются, неизвестный обработчик заменяется пустым — день должен
// оставаться проходимым при любой ошибке в каталоге.
// На вид берётся первое тематическое и первое social-правило, остальные пропускаются.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("events.yaml: %w", err)
	}

	c := &Catalog{
		thematic: make(map[herd.Kind]*Rule),
		social:   make(map[herd.Kind]*Rule),
	}
	for i, r := range file.Rules {
		if r == nil {
			continue
		}
		if !r.Kind.Valid() || !r.Personality.Valid() {
			log.WithFields(log.Fields{
				"index":       i,
				"kind":        r.Kind,
				"personality": r.Personality,
			}).Warn("Правило события с неизвестным видом или характером пропущено")
			continue
		}

		slot := c.thematic
		if r.Personality == herd.Social {
			slot = c.social
		}
		if prev, ok := slot[r.Kind]; ok {
			log.WithFields(log.Fields{
				"index":       i,
				"kind":        r.Kind,
				"personality": r.Personality,
				"kept":        prev.Personality,
			}).Warn("Лишнее правило для вида мини-игры пропущено")
			continue
		}

		hook, ok := hooks[r.Hook]
		if !ok {
			if r.Hook != "" {
				log.WithFields(log.Fields{
					"kind": r.Kind,
					"hook": r.Hook,
				}).Warn("Неизвестный обработчик результата, правило работает без него")
			}
			hook = noop
		}
		r.Outcome = hook
		slot[r.Kind] = r
	}
	return c, nil
}

// Rules возвращает правила вида в порядке проверки: тематическое, затем social.
func (c *Catalog) Rules(kind herd.Kind) []*Rule {
	var out []*Rule
	if r := c.thematic[kind]; r != nil {
		out = append(out, r)
	}
	if r := c.social[kind]; r != nil {
		out = append(out, r)
	}
	return out
}

// Select выбирает правило для вида мини-игры. Если в стаде есть характер
// тематического правила, берётся оно, иначе social, если в стаде есть social.
// Ведущий — первый персонаж стада с этим характером.
// Если ни то ни другое не подходит, возвращает nil, nil.
func (c *Catalog) Select(kind herd.Kind, characters []*herd.Character) (*Rule, *herd.Character) {
	for _, r := range c.Rules(kind) {
		for _, ch := range characters {
			if ch != nil && ch.Personality == r.Personality {
				return r, ch
			}
		}
	}
	return nil, nil
}
