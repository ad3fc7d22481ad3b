package common

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// NewRNG создаёт генератор случайных чисел.
// seed = 0 означает «от текущего времени», выбранный seed пишется в лог для воспроизведения.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
		log.WithField("seed", seed).Debug("Генератор случайных чисел инициализирован от времени")
	}
	return rand.New(rand.NewSource(seed))
}

// Seeds — независимые сиды для генераторов одного дня.
type Seeds struct {
	Plan     int64 // Очередь мини-игр
	Runner   int64 // Выбор участников
	Autoplay int64 // Исходы автоигр
}

// DeriveSeeds выводит из одного сида отдельные сиды для каждого генератора,
// чтобы их последовательности не совпадали. seed = 0 — от текущего времени.
func DeriveSeeds(seed int64) Seeds {
	src := NewRNG(seed)
	next := func() int64 {
		for {
			// 0 у NewRNG значит «от времени», такой сид не выдаём
			if v := src.Int63(); v != 0 {
				return v
			}
		}
	}
	return Seeds{Plan: next(), Runner: next(), Autoplay: next()}
}
