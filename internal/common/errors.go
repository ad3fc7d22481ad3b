// Package common — errors.go определяет ошибки, общие для всех модулей бота.
// Обработчики различают их через errors.Is и отвечают игроку понятным текстом.
package common

import "errors"

// Ошибки сохранений и игрового дня
var (
	// ErrSaveNotFound — для чата ещё не создано стадо
	ErrSaveNotFound = errors.New("сохранение не найдено")
	// ErrDayInProgress — день этого стада уже идёт
	ErrDayInProgress = errors.New("день уже запущен")
	// ErrNoMiniGames — в очереди дня нет ни одной доступной мини-игры
	ErrNoMiniGames = errors.New("нет доступных мини-игр")
	// ErrMiniGameTimeout — мини-игра не завершилась за отведённое время
	ErrMiniGameTimeout = errors.New("мини-игра не ответила вовремя")
	// ErrAlreadyCompleted — мини-игра попыталась завершиться второй раз
	ErrAlreadyCompleted = errors.New("мини-игра уже завершена")
	// ErrUnknownCategory — категория разблокировок не существует
	ErrUnknownCategory = errors.New("неизвестная категория")
	// ErrHerdExists — стадо для чата уже создано
	ErrHerdExists = errors.New("стадо уже существует")
)

// Ошибки семейного челленджа
var (
	// ErrFamilyDisabled — челлендж выключен для этого стада
	ErrFamilyDisabled = errors.New("семейный челлендж выключен")
	// ErrParticipantExists — участник с таким именем уже есть
	ErrParticipantExists = errors.New("участник уже в списке")
	// ErrParticipantNotFound — участник с таким именем не найден
	ErrParticipantNotFound = errors.New("участник не найден")
	// ErrBadParticipantName — пустое или слишком длинное имя
	ErrBadParticipantName = errors.New("имя участника должно быть от 1 до 32 символов")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
