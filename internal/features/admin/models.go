// Package admin реализует админ-команды с парольной аутентификацией:
// ручная выдача предметов, перестановка дня и сброс плана.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// AdminSession — активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// AdminState — состояние диалога с админом.
type AdminState struct {
	State     string    // Текущее состояние ("", "awaiting_password")
	ExpiresAt time.Time // Когда состояние истекает (5 минут)
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                  // Нет активного состояния
	StateAwaitingPassword = "awaiting_password" // Ждём пароль следующим сообщением
)

// Параметры защиты входа
const (
	SessionTTL       = 24 * time.Hour
	StateTTL         = 5 * time.Minute
	MaxFailedLogins  = 3
	FailedLoginsSpan = time.Hour
)
