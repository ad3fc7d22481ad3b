package minigame

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/herd"
)

// Completion — одноразовый сигнал завершения мини-игры.
// Первый вызов Done доставляет результат, все последующие отклоняются.
type Completion struct {
	kind herd.Kind
	done atomic.Bool
	ch   chan herd.Result
}

// NewCompletion создаёт сигнал завершения для мини-игры вида kind.
func NewCompletion(kind herd.Kind) *Completion {
	return &Completion{kind: kind, ch: make(chan herd.Result, 1)}
}

// Done сообщает результат. Никогда не блокируется.
func (c *Completion) Done(res herd.Result) error {
	if !c.done.CompareAndSwap(false, true) {
		log.WithField("kind", c.kind).Warn("Повторное завершение мини-игры отклонено")
		return common.ErrAlreadyCompleted
	}
	c.ch <- res
	return nil
}

// Completed — был ли уже вызван Done.
func (c *Completion) Completed() bool {
	return c.done.Load()
}

// Wait ждёт результат. timeout = 0 — ждать без ограничения (до отмены ctx).
func (c *Completion) Wait(ctx context.Context, timeout time.Duration) (herd.Result, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case res := <-c.ch:
		return res, nil
	case <-expired:
		return herd.Result{}, common.ErrMiniGameTimeout
	case <-ctx.Done():
		return herd.Result{}, ctx.Err()
	}
}
