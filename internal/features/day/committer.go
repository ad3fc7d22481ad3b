package day

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
)

// commit фиксирует итоги дня в три контрольные точки, каждая заканчивается
// сохранением: статы и серия, награда, семейный челлендж и переход на новый день.
// Изменения в памяти применяются до записи, поэтому ошибка хранилища
// не оставляет сохранение применённым наполовину.
func (s *Service) commit(
	ctx context.Context,
	save *herd.SaveState,
	p *plan.DayPlan,
	run *minigame.DayRun,
	assignments []family.Assignment,
) (*Summary, error) {
	logger := log.WithFields(log.Fields{
		"save_id": save.ID,
		"day":     save.Day,
	})

	sum := &Summary{
		Day:         save.Day,
		Steps:       run.Steps,
		Adjustments: run.Adjustments,
		Names:       make(map[string]string, len(save.Herd)),
		PerfectDay:  run.PerfectDay(),
		Successes:   run.Successes(),
		Season:      p.Season.Highlight(),
	}
	for _, c := range save.Herd {
		sum.Names[c.ID] = c.Name
	}

	var firstErr error
	persist := func(checkpoint string) {
		save.UpdatedAt = time.Now().UTC()
		if err := s.store.Save(ctx, save); err != nil {
			logger.WithError(err).WithField("checkpoint", checkpoint).Error("Ошибка сохранения итогов дня")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	achieve := func(name string) {
		if save.UnlockAchievement(name) {
			sum.Achievements = append(sum.Achievements, name)
		}
	}

	// 1. Статы персонажей, серия, достижения
	_, sum.Ignored = save.ApplyAdjustments(run.Adjustments, s.cfg.MaxAccessories)
	sum.PreStreak, sum.Streak = save.RecordDayStats(sum.PerfectDay, run.PerfectClears)
	sum.BestStreak = save.Stats.BestStreak

	for _, st := range run.Steps {
		if st.Result.Success && st.Event != nil {
			achieve(st.Event.Rule.Achievement)
		}
	}
	if sum.PerfectDay {
		achieve(AchievementFirstPerfectDay)
	}
	if sum.Streak >= 3 {
		achieve(AchievementStreak3)
	}
	if sum.Streak >= 7 {
		achieve(AchievementStreak7)
	}
	persist("stats")

	// 2. Награда
	reward := s.resolver.Resolve(rewards.Input{
		PerfectDay:   sum.PerfectDay,
		PreStreak:    sum.PreStreak,
		PostStreak:   sum.Streak,
		LastCategory: save.Stats.LastRewardCategory,
		Season:       p.Season,
		Unlocks:      &save.Unlocks,
	})
	granted, err := rewards.Grant(save, reward)
	if err != nil {
		logger.WithError(err).Warn("Награда дня не выдана")
	}
	if granted {
		sum.Reward = reward
		if reward.FestivalID != "" {
			achieve(achievementFestivalPrefix + reward.FestivalID)
		}
	}
	if sum.Reward == nil || sum.Reward.FestivalID == "" {
		sum.Tasks = p.Season.Checklist()
	}
	persist("reward")

	// 3. Семейный челлендж, история, следующий день
	plays := make([]family.Play, 0, len(run.Steps))
	for _, st := range run.Steps {
		if st.Player == "" {
			continue
		}
		plays = append(plays, family.Play{
			ParticipantID: st.Player,
			Success:       st.Result.Success,
			Perfect:       st.Result.Perfect,
		})
	}
	sum.Family = family.Finalize(save.Family, save.Day, assignments, plays, sum.PerfectDay, nil)

	rec := herd.DayRecord{Day: save.Day, Perfect: sum.PerfectDay, PlayedAt: time.Now().UTC()}
	if sum.Reward != nil {
		rec.Reward = string(sum.Reward.Category) + ":" + sum.Reward.Item
	}
	if sum.Family != nil && sum.Family.MVP != nil {
		rec.MVP = sum.Family.MVP.Name
	}
	save.AppendHistory(rec, s.cfg.HistoryLimit)
	save.AdvanceDay()
	persist("finalize")

	logger.WithFields(log.Fields{
		"perfect": sum.PerfectDay,
		"streak":  sum.Streak,
		"reward":  sum.Reward.String(),
		"ignored": len(sum.Ignored),
	}).Info("День зафиксирован")

	return sum, firstErr
}
