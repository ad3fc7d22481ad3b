// Package admin — service.go содержит аутентификацию по Argon2id,
// управление сессиями и состояние диалога входа.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/herd-bot/internal/common"
)

// Параметры Argon2id для новых хешей.
const (
	argonMemory      uint32 = 64 * 1024 // 64 MB
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// Service управляет админ-доступом.
type Service struct {
	repo         Store
	passwordHash string
	admins       func(userID int64) bool
	now          func() time.Time

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис. isAdmin — проверка по ADMIN_IDS.
func NewService(repo Store, passwordHash string, isAdmin func(userID int64) bool) *Service {
	return &Service{
		repo:         repo,
		passwordHash: passwordHash,
		admins:       isAdmin,
		now:          time.Now,
		states:       make(map[int64]*AdminState),
	}
}

// IsAdmin — входит ли пользователь в список администраторов.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins != nil && s.admins(userID)
}

// VerifyPassword проверяет пароль и открывает сессию на сутки.
// 3 неудачные попытки за час блокируют вход на час.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.repo.GetRecentAttempts(ctx, userID, FailedLoginsSpan)
	if err != nil {
		return fmt.Errorf("ошибка проверки попыток входа: %w", err)
	}
	if attempts >= MaxFailedLogins {
		return common.ErrTooManyAttempts
	}

	match := VerifyArgon2id(password, s.passwordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}
	if !match {
		return common.ErrWrongPassword
	}

	session := &AdminSession{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    s.now().Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Администратор вошёл")
	return nil
}

// RequireSession проверяет, что пользователь — админ с активной сессией,
// и продлевает активность.
func (s *Service) RequireSession(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	if _, err := s.repo.GetActiveSession(ctx, userID); err != nil {
		return common.ErrSessionExpired
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось обновить активность сессии")
	}
	return nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSession(ctx, userID)
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &AdminState{
		State:     stateName,
		ExpiresAt: s.now().Add(StateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Криптографические утилиты ---

// HashPassword возвращает хеш Argon2id в формате
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyArgon2id проверяет пароль по хешу Argon2id.
func VerifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	// Сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
