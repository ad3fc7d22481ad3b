// Package herd — sqlite_store.go хранит сохранения в локальном SQLite-файле.
// Используется утилитой herdctl, где нет PostgreSQL.
package herd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"serotonyl.ru/herd-bot/internal/common"
)

// SQLiteStore — хранилище сохранений поверх database/sql (драйвер modernc.org/sqlite).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore создаёт хранилище. Схема должна быть создана заранее (sqlite.Open).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*SaveState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM herd_saves WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w (id=%s)", common.ErrSaveNotFound, id)
		}
		return nil, fmt.Errorf("ошибка чтения сохранения (id=%s): %w", id, err)
	}
	return decodeSave([]byte(raw))
}

func (s *SQLiteStore) Save(ctx context.Context, save *SaveState) error {
	raw, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сохранения: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO herd_saves (id, chat_id, day, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE
		SET chat_id = excluded.chat_id, day = excluded.day,
		    state = excluded.state, updated_at = excluded.updated_at
	`, save.ID, save.ChatID, save.Day, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ошибка записи сохранения: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]*SaveState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM herd_saves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сохранений: %w", err)
	}
	defer rows.Close()

	var saves []*SaveState
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		save, err := decodeSave([]byte(raw))
		if err != nil {
			return nil, err
		}
		saves = append(saves, save)
	}
	return saves, rows.Err()
}
