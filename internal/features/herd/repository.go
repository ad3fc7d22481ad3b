// Package herd — repository.go хранит сохранения в PostgreSQL.
// Сохранение лежит одним JSONB-документом, история дней дублируется в herd_day_log.
package herd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/herd-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицами herd_saves и herd_day_log.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий сохранений.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get возвращает сохранение по ID.
func (r *Repository) Get(ctx context.Context, id string) (*SaveState, error) {
	query := `SELECT state FROM herd_saves WHERE id = $1`

	var raw []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w (id=%s)", common.ErrSaveNotFound, id)
		}
		return nil, fmt.Errorf("ошибка чтения сохранения (id=%s): %w", id, err)
	}
	return decodeSave(raw)
}

// Save записывает сохранение в одной транзакции:
// upsert документа + строка последнего дня в журнал (если её ещё нет).
func (r *Repository) Save(ctx context.Context, s *SaveState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сохранения: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO herd_saves (id, chat_id, day, state, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET chat_id = EXCLUDED.chat_id, day = EXCLUDED.day,
		    state = EXCLUDED.state, updated_at = NOW()
	`, s.ID, s.ChatID, s.Day, raw)
	if err != nil {
		return fmt.Errorf("ошибка записи сохранения: %w", err)
	}

	if n := len(s.History); n > 0 {
		last := s.History[n-1]
		_, err = tx.Exec(ctx, `
			INSERT INTO herd_day_log (save_id, day, perfect, reward, mvp, played_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (save_id, day) DO NOTHING
		`, s.ID, last.Day, last.Perfect, last.Reward, last.MVP, last.PlayedAt)
		if err != nil {
			return fmt.Errorf("ошибка записи журнала дня: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// List возвращает все сохранения. Используется планировщиком.
func (r *Repository) List(ctx context.Context) ([]*SaveState, error) {
	rows, err := r.db.Query(ctx, `SELECT state FROM herd_saves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сохранений: %w", err)
	}
	defer rows.Close()

	var saves []*SaveState
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		s, err := decodeSave(raw)
		if err != nil {
			return nil, err
		}
		saves = append(saves, s)
	}
	return saves, rows.Err()
}

func decodeSave(raw []byte) (*SaveState, error) {
	var s SaveState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("повреждённое сохранение: %w", err)
	}
	s.EnsureDefaults()
	return &s, nil
}
