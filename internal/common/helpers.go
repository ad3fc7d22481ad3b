// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, ограничение значений, работа с часовым поясом.
package common

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// Clamp ограничивает значение отрезком [lo, hi].
// Значение именно обрезается, а не заворачивается по модулю.
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
// Правила:
//   - 1, 21, 31 → "день"
//   - 2-4, 22-24 → "дня"
//   - 5-20, 25-30 → "дней"
func PluralizeDays(n int) string {
	return pluralize(n, "день", "дня", "дней")
}

// PluralizeGames возвращает правильную форму слова «мини-игра».
func PluralizeGames(n int) string {
	return pluralize(n, "мини-игра", "мини-игры", "мини-игр")
}

// pluralize выбирает одну из трёх форм по правилам русского языка.
func pluralize(n int, one, few, many string) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// LoadLocation загружает часовой пояс по имени.
// Если загрузить не удалось (нет tzdata в контейнере) — используем UTC+3.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("timezone", name).Warn("Не удалось загрузить часовой пояс, используем UTC+3")
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}
