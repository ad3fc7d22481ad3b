// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: утренняя рассылка плана дня
// и вечерний автопрогон дня для стад с включённым автопилотом.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
)

// Runner — обработчики, которые дёргает планировщик.
type Runner interface {
	SendPreviewDigest(ctx context.Context)
	RunAutoDays(ctx context.Context)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    *config.Config
	loc    *time.Location
}

// NewScheduler создаёт планировщик задач в часовом поясе APP_TIMEZONE.
func NewScheduler(runner Runner, cfg *config.Config) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		cfg:    cfg,
		loc:    loc,
	}
}

// Start регистрирует задачи по фича-флагам и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.FeaturePreviewDigest {
		if _, err := s.cron.AddFunc(s.cfg.JobsPreviewCron, func() {
			log.Info("[CRON] Утренняя рассылка плана дня")
			s.runner.SendPreviewDigest(ctx)
		}); err != nil {
			return err
		}
	}

	if s.cfg.FeatureAutoDay {
		if _, err := s.cron.AddFunc(s.cfg.JobsAutoDayCron, func() {
			log.Info("[CRON] Автопрогон дня")
			s.runner.RunAutoDays(ctx)
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"timezone": s.loc.String(),
		"jobs":     len(s.cron.Entries()),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
