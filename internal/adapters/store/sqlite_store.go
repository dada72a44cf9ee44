package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of core.OverrideStore
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens the database at dbPath and creates the tables
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Writers would otherwise race on the file lock
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS priority_overrides (
			message_id TEXT PRIMARY KEY,
			priority TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS override_sync (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_sync TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{sqlStore{
		db:         db,
		logger:     logger,
		upsertSync: `INSERT OR REPLACE INTO override_sync (id, last_sync) VALUES (1, ?)`,
	}}, nil
}
