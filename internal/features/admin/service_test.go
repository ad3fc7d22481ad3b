package admin

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/features/day"
	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
)

const (
	adminID  int64 = 100
	password       = "hunter2"
)

type attempt struct {
	userID  int64
	success bool
	at      time.Time
}

// memoryStore хранит сессии и попытки в памяти.
type memoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions []*AdminSession
	attempts []attempt
}

func (m *memoryStore) CreateSession(_ context.Context, s *AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.IsActive = true
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memoryStore) GetActiveSession(_ context.Context, userID int64) (*AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive && s.ExpiresAt.After(m.now()) {
			return s, nil
		}
	}
	return nil, errors.New("no rows")
}

func (m *memoryStore) DeactivateSession(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (m *memoryStore) UpdateActivity(context.Context, int64) error { return nil }

func (m *memoryStore) LogAttempt(_ context.Context, userID int64, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt{userID: userID, success: success, at: m.now()})
	return nil
}

func (m *memoryStore) GetRecentAttempts(_ context.Context, userID int64, period time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.userID == userID && !a.success && !a.at.Before(m.now().Add(-period)) {
			n++
		}
	}
	return n, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)

	clk := &clock{t: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(&memoryStore{now: clk.now}, hash, func(id int64) bool { return id == adminID })
	svc.now = clk.now
	return svc, clk
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	assert.True(t, VerifyArgon2id(password, hash))
	assert.False(t, VerifyArgon2id("wrong", hash))
	assert.False(t, VerifyArgon2id(password, "plain-text"))
	assert.False(t, VerifyArgon2id(password, "$argon2id$v=19$m=x$salt$hash"))

	other, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt is random")
}

func TestVerifyPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.VerifyPassword(ctx, 7, password), common.ErrNotAdmin)
	assert.ErrorIs(t, svc.RequireSession(ctx, adminID), common.ErrSessionExpired)

	require.NoError(t, svc.VerifyPassword(ctx, adminID, password))
	assert.NoError(t, svc.RequireSession(ctx, adminID))

	require.NoError(t, svc.Logout(ctx, adminID))
	assert.ErrorIs(t, svc.RequireSession(ctx, adminID), common.ErrSessionExpired)
}

func TestSessionExpires(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.VerifyPassword(ctx, adminID, password))
	clk.advance(SessionTTL - time.Minute)
	assert.NoError(t, svc.RequireSession(ctx, adminID))
	clk.advance(2 * time.Minute)
	assert.ErrorIs(t, svc.RequireSession(ctx, adminID), common.ErrSessionExpired)
}

func TestBruteForceLockout(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for range MaxFailedLogins {
		assert.ErrorIs(t, svc.VerifyPassword(ctx, adminID, "nope"), common.ErrWrongPassword)
	}
	assert.ErrorIs(t, svc.VerifyPassword(ctx, adminID, password), common.ErrTooManyAttempts,
		"even the right password is refused while locked")

	clk.advance(FailedLoginsSpan + time.Second)
	assert.NoError(t, svc.VerifyPassword(ctx, adminID, password))
}

func TestStateExpires(t *testing.T) {
	svc, clk := newTestService(t)

	svc.SetState(adminID, StateAwaitingPassword)
	require.NotNil(t, svc.GetState(adminID))
	assert.Equal(t, StateAwaitingPassword, svc.GetState(adminID).State)

	clk.advance(StateTTL + time.Second)
	assert.Nil(t, svc.GetState(adminID))

	svc.SetState(adminID, StateAwaitingPassword)
	svc.ClearState(adminID)
	assert.Nil(t, svc.GetState(adminID))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendText(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func newDayService(t *testing.T) *day.Service {
	t.Helper()
	catalog, err := events.Default()
	require.NoError(t, err)
	themes, err := rewards.Default()
	require.NoError(t, err)

	cfg := config.DayConfig{MaxParticipants: 3, MaxAccessories: 3, DifficultyBase: 1, DifficultyCap: 3, HistoryLimit: 30}
	reg := minigame.NewRegistry()
	builder := plan.NewBuilder(catalog, reg.Kinds(), 1, rand.New(rand.NewSource(1)))
	runner := minigame.NewRunner(reg, cfg, rand.New(rand.NewSource(1)))
	return day.NewService(herd.NewMemoryStore(), builder, runner, rewards.NewResolver(themes), cfg, false)
}

func TestAdminHandlerFlow(t *testing.T) {
	svc, _ := newTestService(t)
	days := newDayService(t)
	sender := &fakeSender{}
	h := NewHandler(svc, days, sender)
	ctx := context.Background()

	_, err := days.CreateSave(ctx, day.SaveID(555), 555)
	require.NoError(t, err)

	assert.False(t, h.HandleAdminMessage(ctx, 7, 7, "/admin"), "not an admin")
	assert.False(t, h.HandleAdminMessage(ctx, adminID, adminID, "привет"))

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/grant 555 cosmetic sailor_hat"))
	assert.Contains(t, sender.last(), "/admin", "no session yet")

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/admin"))
	assert.Contains(t, sender.last(), "пароль")
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, password))
	assert.Contains(t, sender.last(), "успешна")

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/grant 555 cosmetic sailor_hat"))
	assert.Contains(t, sender.last(), "Выдано cosmetic:sailor_hat")
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/grant 555 cosmetic sailor_hat"))
	assert.Contains(t, sender.last(), "уже открыт")
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/grant 555 hats sailor_hat"))
	assert.Contains(t, sender.last(), "Категория")

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/setday 555 7"))
	assert.Contains(t, sender.last(), "дне 7")
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/setday 555 0"))
	assert.Contains(t, sender.last(), "❌")

	save, err := days.Load(ctx, day.SaveID(555))
	require.NoError(t, err)
	assert.Equal(t, 7, save.Day)
	assert.True(t, save.Unlocks.Has(herd.Cosmetic, "sailor_hat"))

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/saves"))
	assert.Contains(t, sender.last(), "555: день 7")

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/resetplan 555"))
	assert.Contains(t, sender.last(), "сброшен")

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/logout"))
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/saves"))
	assert.Contains(t, sender.last(), "/admin")
}

func TestAdminInlineLogin(t *testing.T) {
	svc, _ := newTestService(t)
	sender := &fakeSender{}
	h := NewHandler(svc, newDayService(t), sender)
	ctx := context.Background()

	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/login wrong"))
	assert.Contains(t, sender.last(), common.ErrWrongPassword.Error())
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/login "+password))
	assert.Contains(t, sender.last(), "успешна")
	require.True(t, h.HandleAdminMessage(ctx, adminID, adminID, "/admin"))
	assert.Contains(t, sender.last(), "/grant")
}
