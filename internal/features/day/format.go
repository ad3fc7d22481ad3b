// Package day — format.go собирает тексты сообщений: превью, шаги, итоги,
// стадо, история и таблица семейного челленджа.
// Тексты общие для Telegram и herdctl.
package day

import (
	"fmt"
	"slices"
	"strings"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

// FormatPreview — превью дня.
//
//	📅 День 7
//
//	1. Snack Rush · Snack Hoarder (Greedy)
//	   Biscuit is eyeing the pantry. Expect a faster Snack Rush.
//	   🎮 Играет: Мама
func FormatPreview(p *plan.DayPlan, assignments []family.Assignment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 День %d\n", p.Day)

	players := family.Players(assignments)
	for i, n := range p.Notes {
		b.WriteString("\n")
		if i < len(p.Queue) {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, n.Title, n.Detail)
			if pl, ok := players[p.Queue[i]]; ok {
				fmt.Fprintf(&b, "   🎮 Играет: %s\n", pl.Name)
			}
			continue
		}
		fmt.Fprintf(&b, "🌸 %s: %s\n", n.Title, n.Detail)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStep — сообщение о старте мини-игры.
func FormatStep(st minigame.StepInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "▶️ %d/%d: %s\n%s", st.Step+1, st.Total, st.Title, st.Instruction)
	if len(st.Participants) > 0 {
		fmt.Fprintf(&b, "\nУчастники: %s", strings.Join(st.Participants, ", "))
	}
	if st.Player != "" {
		fmt.Fprintf(&b, "\n🎮 Ход: %s", st.Player)
	}
	return b.String()
}

// FormatSummary — итоги дня.
func FormatSummary(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌙 Итоги дня %d\n\n", s.Day)

	for _, st := range s.Steps {
		mark := "❌"
		switch {
		case st.Result.PerfectClear():
			mark = "🌟"
		case st.Result.Success:
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s", mark, st.Kind.Title())
		if st.Result.Summary != "" {
			fmt.Fprintf(&b, " — %s", st.Result.Summary)
		}
		b.WriteString("\n")
	}

	if len(s.Adjustments) > 0 {
		b.WriteString("\nИзменения:\n")
		ids := make([]string, 0, len(s.Adjustments))
		for id := range s.Adjustments {
			if _, ok := s.Names[id]; ok {
				ids = append(ids, id)
			}
		}
		slices.SortFunc(ids, func(a, b string) int { return strings.Compare(s.Names[a], s.Names[b]) })
		for _, id := range ids {
			fmt.Fprintf(&b, "• %s: %s\n", s.Names[id], formatAdjustment(s.Adjustments[id]))
		}
	}

	b.WriteString("\n")
	if s.PerfectDay {
		fmt.Fprintf(&b, "🏆 Идеальный день! Серия: %s\n", common.FormatStreak(s.Streak))
	} else {
		fmt.Fprintf(&b, "Пройдено %d %s из %d. Серия сброшена.\n",
			s.Successes, common.PluralizeGames(s.Successes), len(s.Steps))
	}
	if s.Reward != nil {
		fmt.Fprintf(&b, "🎁 Награда: %s (%s, %s)\n", s.Reward.Item, s.Reward.Category, s.Reward.Reason)
	} else {
		b.WriteString("🎁 Сегодня без награды\n")
	}
	for _, a := range s.Achievements {
		fmt.Fprintf(&b, "🏅 Достижение: %s\n", a)
	}
	if s.Season != "" {
		fmt.Fprintf(&b, "🌸 %s\n", s.Season)
	}
	for _, task := range s.Tasks {
		fmt.Fprintf(&b, "📋 %s\n", task)
	}
	if s.Family != nil {
		b.WriteString("\n")
		b.WriteString(formatFamilySummary(s.Family))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAdjustment(a *herd.Adjustment) string {
	parts := make([]string, 0, 6)
	add := func(label string, v int) {
		if v != 0 {
			parts = append(parts, label+" "+common.FormatDelta(v))
		}
	}
	add("😊", a.Happiness)
	add("🍽", a.Hunger)
	add("🛁", a.Cleanliness)
	add("🍩", a.Chonk)
	if a.Accessory != "" {
		parts = append(parts, "🎀 "+a.Accessory)
	}
	if len(a.Treats) > 0 {
		parts = append(parts, "🥕 "+strings.Join(a.Treats, ", "))
	}
	if len(parts) == 0 {
		return "без изменений"
	}
	return strings.Join(parts, ", ")
}

func formatFamilySummary(fs *family.Summary) string {
	var b strings.Builder
	b.WriteString("👨‍👩‍👧 Семейный челлендж\n")
	if fs.MVP != nil {
		fmt.Fprintf(&b, "MVP дня: %s\n", fs.MVP.Name)
	} else {
		b.WriteString("MVP дня: никто не набрал очков\n")
	}
	for i, st := range fs.Leaderboard {
		fmt.Fprintf(&b, "%d. %s — %d (+%d)\n", i+1, st.Participant.Name, st.Stats.Score, st.DayScore)
	}
	fmt.Fprintf(&b, "Семейная серия: %d (рекорд %d)\n", fs.Streak, fs.BestStreak)
	if fs.NextUp != nil {
		fmt.Fprintf(&b, "Завтра начинает: %s\n", fs.NextUp.Name)
	}
	return b.String()
}

// FormatHerd — состояние стада и разблокировки.
func FormatHerd(s *herd.SaveState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🐑 Стадо, день %d\n\n", s.Day)
	for _, c := range s.Herd {
		fmt.Fprintf(&b, "%s (%s)\n   😊 %d  🍽 %d  🛁 %d  🍩 %d\n",
			c.Name, plan.PersonalityLabel(c.Personality), c.Happiness, c.Hunger, c.Cleanliness, c.Chonk)
		if len(c.Accessories) > 0 {
			fmt.Fprintf(&b, "   🎀 %s\n", strings.Join(c.Accessories, ", "))
		}
	}

	b.WriteString("\nОткрыто:\n")
	for _, cat := range herd.Categories {
		items := s.Unlocks.Items(cat)
		list := "—"
		if len(items) > 0 {
			list = strings.Join(items, ", ")
		}
		fmt.Fprintf(&b, "• %s: %s\n", cat, list)
	}
	fmt.Fprintf(&b, "\nСерия: %s (рекорд %d)\nИдеальных дней: %d", common.FormatStreak(s.Stats.Streak), s.Stats.BestStreak, s.Stats.PerfectDays)
	return b.String()
}

// FormatHistory — последние дни, новые сверху.
func FormatHistory(s *herd.SaveState, limit int) string {
	if len(s.History) == 0 {
		return "📜 История пуста — сыграйте первый день: /play"
	}
	var b strings.Builder
	b.WriteString("📜 Последние дни\n")
	shown := 0
	for i := len(s.History) - 1; i >= 0 && (limit <= 0 || shown < limit); i-- {
		rec := s.History[i]
		mark := "▫️"
		if rec.Perfect {
			mark = "🌟"
		}
		fmt.Fprintf(&b, "\n%s День %d", mark, rec.Day)
		if rec.Reward != "" {
			fmt.Fprintf(&b, " · 🎁 %s", rec.Reward)
		}
		if rec.MVP != "" {
			fmt.Fprintf(&b, " · MVP %s", rec.MVP)
		}
		shown++
	}
	return b.String()
}

// FormatFamily — состояние семейного челленджа.
func FormatFamily(s *herd.SaveState) string {
	l := s.Family
	if l == nil || !l.Enabled {
		return "👨‍👩‍👧 Семейный челлендж выключен. Включить: /family on"
	}
	if len(l.Participants) == 0 {
		return "👨‍👩‍👧 Семейный челлендж включён, но участников нет. Добавьтесь: /join <имя>"
	}

	var b strings.Builder
	b.WriteString("👨‍👩‍👧 Семейный челлендж\n\n")
	for i, st := range family.Board(l) {
		fmt.Fprintf(&b, "%d. %s — %d очк., побед %d/%d, MVP ×%d\n",
			i+1, st.Participant.Name, st.Stats.Score, st.Stats.Wins, st.Stats.Plays, st.Stats.MVPCount)
	}
	fmt.Fprintf(&b, "\nСемейная серия: %d (рекорд %d)", l.Streak, l.BestStreak)
	if next := family.NextUp(l); next != nil {
		fmt.Fprintf(&b, "\nСледующий ход: %s", next.Name)
	}
	return b.String()
}
