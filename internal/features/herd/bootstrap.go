package herd

import (
	"time"

	"github.com/google/uuid"
)

// starter — стартовое стадо: по персонажу на тематический характер каждой
// мини-игры и один social.
var starter = []struct {
	name        string
	personality Personality
}{
	{"Biscuit", Greedy},
	{"Duchess", Vain},
	{"Pillow", Sleepy},
	{"Pogo", Playful},
	{"Buddy", Social},
}

// StarterConsumables — угощения, доступные с первого дня.
var StarterConsumables = []string{"carrot"}

// NewSave создаёт новое сохранение со стартовым стадом.
func NewSave(id string, chatID int64, season Season, familyEnabled bool) *SaveState {
	now := time.Now().UTC()
	s := &SaveState{
		ID:     id,
		ChatID: chatID,
		Day:    1,
		Unlocks: Unlocks{
			Consumables: append([]string(nil), StarterConsumables...),
		},
		Season: season,
		Family: &FamilyLedger{
			Enabled: familyEnabled,
			Stats:   make(map[string]*ParticipantStats),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, st := range starter {
		s.Herd = append(s.Herd, NewCharacter(st.name, st.personality))
	}
	s.EnsureDefaults()
	return s
}

// NewCharacter создаёт персонажа со средними характеристиками.
func NewCharacter(name string, p Personality) *Character {
	return &Character{
		ID:          uuid.NewString(),
		Name:        name,
		Personality: p,
		Happiness:   60,
		Hunger:      50,
		Cleanliness: 70,
		Chonk:       30,
	}
}
