// Package herd описывает стадо и всё сохранение игрока.
// models.go — структуры данных: персонажи, разблокировки, статистика, сезон,
// семейный челлендж и результат мини-игры.
package herd

import "time"

// Personality — характер персонажа. Набор закрыт, меняется только вместе с каталогом событий.
type Personality string

const (
	Greedy  Personality = "greedy"
	Vain    Personality = "vain"
	Sleepy  Personality = "sleepy"
	Playful Personality = "playful"
	Social  Personality = "social"
	Grumpy  Personality = "grumpy"
)

// Personalities — все характеры в порядке объявления.
var Personalities = []Personality{Greedy, Vain, Sleepy, Playful, Social, Grumpy}

// Valid проверяет, что характер из закрытого набора.
func (p Personality) Valid() bool {
	for _, known := range Personalities {
		if p == known {
			return true
		}
	}
	return false
}

// Kind — вид мини-игры. За день каждый вид встречается не больше одного раза.
type Kind string

const (
	KindFeeding  Kind = "feeding"
	KindGrooming Kind = "grooming"
	KindLullaby  Kind = "lullaby"
	KindFetch    Kind = "fetch"
)

// Kinds — все виды мини-игр в порядке объявления.
var Kinds = []Kind{KindFeeding, KindGrooming, KindLullaby, KindFetch}

var kindTitles = map[Kind]string{
	KindFeeding:  "Snack Rush",
	KindGrooming: "Bath Time",
	KindLullaby:  "Nap Time",
	KindFetch:    "Ball Fetch",
}

// Title возвращает название мини-игры для экрана.
func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// Valid проверяет, что вид мини-игры известен.
func (k Kind) Valid() bool {
	_, ok := kindTitles[k]
	return ok
}

// Category — один из трёх независимых каталогов разблокировок.
type Category string

const (
	Consumable Category = "consumable"
	Cosmetic   Category = "cosmetic"
	Decoration Category = "decoration"
)

// Categories — базовый порядок предпочтения категорий наград.
var Categories = []Category{Consumable, Cosmetic, Decoration}

// Valid проверяет категорию.
func (c Category) Valid() bool {
	return c == Consumable || c == Cosmetic || c == Decoration
}

// Границы характеристик персонажа.
const (
	StatMin = 0
	StatMax = 100

	// Сколько последних угощений помнит персонаж
	TreatHistoryLimit = 10
)

// Character — персонаж стада.
// Меняется только при фиксации итогов дня, из стада во время дня не удаляется.
type Character struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Personality  Personality `json:"personality"`
	Happiness    int         `json:"happiness"`
	Hunger       int         `json:"hunger"`
	Cleanliness  int         `json:"cleanliness"`
	Chonk        int         `json:"chonk"`         // Косметическая «пухлость»
	Accessories  []string    `json:"accessories"`   // Надетые аксессуары, по порядку надевания
	RecentTreats []string    `json:"recent_treats"` // Последние угощения, старые в начале
}

// Unlocks — три независимых каталога разблокировок.
// Порядок элементов = порядок получения.
type Unlocks struct {
	Consumables []string `json:"consumables"`
	Cosmetics   []string `json:"cosmetics"`
	Decorations []string `json:"decorations"`
}

// Stats — накопительная статистика сохранения.
type Stats struct {
	PerfectClears      map[Kind]int `json:"perfect_clears"`       // Идеальные прохождения по видам мини-игр
	PerfectDays        int          `json:"perfect_days"`         // Всего идеальных дней
	Streak             int          `json:"streak"`               // Текущая серия идеальных дней
	BestStreak         int          `json:"best_streak"`          // Лучшая серия
	LastRewardCategory Category     `json:"last_reward_category"` // Категория вчерашней награды
	DaysPlayed         int          `json:"days_played"`
}

// RewardItem — предмет из каталога разблокировок.
type RewardItem struct {
	Category Category `json:"category" yaml:"category"`
	Item     string   `json:"item" yaml:"item"`
}

// Festival — фестивальное окно внутри сезона.
// Смещения считаются от первого дня сезона, конец включительно.
type Festival struct {
	ID          string                      `json:"id" yaml:"id"`
	Name        string                      `json:"name" yaml:"name"`
	StartOffset int                         `json:"start_offset" yaml:"start_offset"`
	EndOffset   int                         `json:"end_offset" yaml:"end_offset"`
	Tasks       []string                    `json:"tasks" yaml:"tasks"`
	Modifiers   map[Kind]map[string]float64 `json:"modifiers,omitempty" yaml:"modifiers"`
	Reward      *RewardItem                 `json:"reward,omitempty" yaml:"reward"`
}

// Season — сезон сохранения. Для планирования только читается,
// пишется лишь при выдаче фестивальной награды.
type Season struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	StartDay           int        `json:"start_day" yaml:"start_day"`
	Festivals          []Festival `json:"festivals" yaml:"festivals"`
	CompletedFestivals []string   `json:"completed_festivals" yaml:"-"`
}

// Participant — участник семейного челленджа (живой игрок, не персонаж стада).
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ParticipantStats — накопленная статистика участника.
type ParticipantStats struct {
	Plays         int `json:"plays"`
	Wins          int `json:"wins"`
	PerfectClears int `json:"perfect_clears"`
	Score         int `json:"score"`
	MVPCount      int `json:"mvp_count"`
	LastPlayedDay int `json:"last_played_day"`
	LastMVPDay    int `json:"last_mvp_day"`
}

// FamilyLedger — семейный челлендж.
// Индекс ротации всегда берётся по модулю текущего числа участников.
type FamilyLedger struct {
	Enabled       bool                         `json:"enabled"`
	Participants  []Participant                `json:"participants"`
	RotationIndex int                          `json:"rotation_index"`
	Streak        int                          `json:"streak"`
	BestStreak    int                          `json:"best_streak"`
	Stats         map[string]*ParticipantStats `json:"stats"`
	LastMVP       string                       `json:"last_mvp"`
	PivotIndex    int                          `json:"pivot_index"` // Для разрешения ничьей, пока MVP ещё не было
}

// DayRecord — строка истории сохранения.
type DayRecord struct {
	Day      int       `json:"day"`
	Perfect  bool      `json:"perfect"`
	Reward   string    `json:"reward,omitempty"`
	MVP      string    `json:"mvp,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

// SaveState — всё сохранение одного стада.
// Грузится один раз, меняется в течение сессии, сохраняется после каждого дня.
type SaveState struct {
	ID           string          `json:"id"`
	ChatID       int64           `json:"chat_id"` // 0 для локальных сохранений herdctl
	Day          int             `json:"day"`
	Herd         []*Character    `json:"herd"`
	Unlocks      Unlocks         `json:"unlocks"`
	Stats        Stats           `json:"stats"`
	Achievements map[string]bool `json:"achievements"`
	Season       Season          `json:"season"`
	Family       *FamilyLedger   `json:"family,omitempty"`
	AutoPlay     bool            `json:"auto_play"`
	History      []DayRecord     `json:"history"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Adjustment — частичные изменения одного персонажа.
// Числа — дельты, а не абсолютные значения.
type Adjustment struct {
	Happiness   int      `json:"happiness,omitempty"`
	Hunger      int      `json:"hunger,omitempty"`
	Cleanliness int      `json:"cleanliness,omitempty"`
	Chonk       int      `json:"chonk,omitempty"`
	Accessory   string   `json:"accessory,omitempty"` // Выданный аксессуар, пусто = нет
	Treats      []string `json:"treats,omitempty"`    // Поданные угощения
}

// Result — итог одной мини-игры. Появляется ровно один раз за запуск и не повторяется.
type Result struct {
	Success     bool                   `json:"success"`
	Perfect     bool                   `json:"perfect"` // Идеальное прохождение (засчитывается только вместе с Success)
	Adjustments map[string]*Adjustment `json:"adjustments"`
	Summary     string                 `json:"summary"`
}

// Adjust возвращает запись изменений персонажа, создавая её при необходимости.
func (r *Result) Adjust(characterID string) *Adjustment {
	if r.Adjustments == nil {
		r.Adjustments = make(map[string]*Adjustment)
	}
	a, ok := r.Adjustments[characterID]
	if !ok {
		a = &Adjustment{}
		r.Adjustments[characterID] = a
	}
	return a
}

// PerfectClear — идеальное прохождение засчитывается только при успехе.
func (r Result) PerfectClear() bool {
	return r.Success && r.Perfect
}
