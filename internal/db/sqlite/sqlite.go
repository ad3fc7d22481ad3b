// Package sqlite открывает локальную базу SQLite для herdctl.
// Драйвер — modernc.org/sqlite (чистый Go, без cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS herd_saves (
    id TEXT PRIMARY KEY,
    chat_id INTEGER NOT NULL DEFAULT 0,
    day INTEGER NOT NULL DEFAULT 1,
    state TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Open открывает (или создаёт) файл базы и применяет схему.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("пустой путь к базе")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия %s: %w", path, err)
	}
	// SQLite не любит параллельных писателей
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка PRAGMA: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания схемы: %w", err)
	}

	log.WithField("path", path).Debug("SQLite открыт")
	return db, nil
}
