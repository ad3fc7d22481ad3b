// Package rewards — выбор единственной награды дня: фестиваль, серия,
// идеальный день или ротация категорий по тематическим наборам.
package rewards

import (
	_ "embed"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

//go:embed themes.yaml
var defaultThemes []byte

// Theme — именованный набор предметов из разных категорий.
type Theme struct {
	ID    string            `yaml:"id"`
	Name  string            `yaml:"name"`
	Items []herd.RewardItem `yaml:"items"`
}

// Catalog — темы в порядке объявления плюс фестивальные предметы.
type Catalog struct {
	Themes    []Theme
	exclusive []herd.RewardItem
}

type catalogFile struct {
	Themes    []Theme           `yaml:"themes"`
	Exclusive []herd.RewardItem `yaml:"exclusive"`
}

// Default загружает встроенный каталог тем.
func Default() (*Catalog, error) {
	return Parse(defaultThemes)
}

// Parse разбирает YAML-каталог. Предметы с неизвестной категорией или без
// названия отбрасываются: такой вариант награды просто недоступен.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("themes.yaml: %w", err)
	}

	c := &Catalog{exclusive: validItems("exclusive", file.Exclusive)}
	for _, th := range file.Themes {
		th.Items = validItems(th.ID, th.Items)
		if len(th.Items) == 0 {
			continue
		}
		c.Themes = append(c.Themes, th)
	}
	return c, nil
}

func validItems(owner string, items []herd.RewardItem) []herd.RewardItem {
	out := items[:0:0]
	for _, it := range items {
		if !it.Category.Valid() || it.Item == "" {
			log.WithFields(log.Fields{
				"theme":    owner,
				"category": it.Category,
				"item":     it.Item,
			}).Warn("Предмет награды отброшен: неизвестная категория или пустое название")
			continue
		}
		out = append(out, it)
	}
	return out
}

// Known — есть ли предмет в каком-либо каталоге.
func (c *Catalog) Known(it herd.RewardItem) bool {
	for _, ex := range c.exclusive {
		if ex == it {
			return true
		}
	}
	for _, th := range c.Themes {
		for _, ti := range th.Items {
			if ti == it {
				return true
			}
		}
	}
	return false
}

// Theme возвращает тему, в которую входит предмет, или пустую строку.
func (c *Catalog) Theme(it herd.RewardItem) string {
	for _, th := range c.Themes {
		for _, ti := range th.Items {
			if ti == it {
				return th.ID
			}
		}
	}
	return ""
}

// Locked — сколько ещё закрытых предметов категории в теме и первый из них.
func (th Theme) Locked(cat herd.Category, unlocks *herd.Unlocks) (int, string) {
	count, first := 0, ""
	for _, it := range th.Items {
		if it.Category != cat || unlocks.Has(cat, it.Item) {
			continue
		}
		if count == 0 {
			first = it.Item
		}
		count++
	}
	return count, first
}

// Remaining — максимум закрытых предметов категории в одной теме.
func (c *Catalog) Remaining(cat herd.Category, unlocks *herd.Unlocks) int {
	best := 0
	for _, th := range c.Themes {
		if n, _ := th.Locked(cat, unlocks); n > best {
			best = n
		}
	}
	return best
}
