package minigame

import (
	"slices"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

// Merge добавляет изменения одной мини-игры к накопленным за день.
// Статы складываются, угощения дописываются, аксессуар заменяется последним.
// Ограничение [0,100] здесь не применяется: это делается один раз при фиксации дня.
func Merge(cumulative, incoming map[string]*herd.Adjustment) {
	for id, in := range incoming {
		if in == nil {
			continue
		}
		acc, ok := cumulative[id]
		if !ok {
			acc = &herd.Adjustment{}
			cumulative[id] = acc
		}
		acc.Happiness += in.Happiness
		acc.Hunger += in.Hunger
		acc.Cleanliness += in.Cleanliness
		acc.Chonk += in.Chonk
		if in.Accessory != "" {
			acc.Accessory = in.Accessory
		}
		if len(in.Treats) > 0 {
			acc.Treats = append(slices.Clip(acc.Treats), in.Treats...)
		}
	}
}
