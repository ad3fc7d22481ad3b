package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"serotonyl.ru/herd-bot/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type nopRunner struct{}

func (nopRunner) SendPreviewDigest(context.Context) {}
func (nopRunner) RunAutoDays(context.Context)       {}

func TestSchedulerRegistersFlaggedJobs(t *testing.T) {
	cfg := &config.Config{
		AppTimezone:          "UTC",
		JobsPreviewCron:      "0 9 * * *",
		JobsAutoDayCron:      "0 20 * * *",
		FeaturePreviewDigest: true,
	}
	s := NewScheduler(nopRunner{}, cfg)
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()

	cfg.FeatureAutoDay = true
	s = NewScheduler(nopRunner{}, cfg)
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	cfg := &config.Config{
		AppTimezone:     "UTC",
		JobsAutoDayCron: "not a cron",
		FeatureAutoDay:  true,
	}
	s := NewScheduler(nopRunner{}, cfg)
	assert.Error(t, s.Start(context.Background()))
}
