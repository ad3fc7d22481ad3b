// Package common — pluralize.go содержит форматирование чисел для сообщений:
// дельты характеристик и счётчики.
package common

import "fmt"

// FormatDelta создаёт строку вида "+5" или "-3".
// Ноль выводится как "±0", чтобы в сводке было видно, что стат не менялся.
//
// Примеры:
//
//	FormatDelta(5)  → "+5"
//	FormatDelta(-3) → "-3"
//	FormatDelta(0)  → "±0"
func FormatDelta(v int) string {
	switch {
	case v > 0:
		return fmt.Sprintf("+%d", v)
	case v < 0:
		return fmt.Sprintf("%d", v)
	default:
		return "±0"
	}
}

// FormatStreak форматирует серию: "3 дня подряд".
func FormatStreak(n int) string {
	return fmt.Sprintf("%d %s подряд", n, PluralizeDays(n))
}
