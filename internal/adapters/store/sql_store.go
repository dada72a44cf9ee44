package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// sqlStore holds the queries shared by the SQL backends. The snapshot lives
// in two tables: one row per override and a single row with the sync time.
type sqlStore struct {
	db         *sql.DB
	logger     *zap.Logger
	upsertSync string
}

// Load reads the stored snapshot
func (s *sqlStore) Load(ctx context.Context) (*core.OverrideSnapshot, error) {
	snapshot := emptySnapshot()

	var lastSync string
	err := s.db.QueryRowContext(ctx, `SELECT last_sync FROM override_sync WHERE id = 1`).Scan(&lastSync)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to query sync time: %w", err)
	default:
		t, err := time.Parse(time.RFC3339Nano, lastSync)
		if err != nil {
			s.logger.Warn("Stored sync time is invalid, treating overrides as expired",
				zap.String("last_sync", lastSync),
				zap.Error(err))
		} else {
			snapshot.LastSync = t
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT message_id, priority FROM priority_overrides`)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, priority string
		if err := rows.Scan(&id, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		snapshot.Overrides[id] = core.Priority(priority)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	return snapshot, nil
}

// Save replaces the stored snapshot in one transaction
func (s *sqlStore) Save(ctx context.Context, snapshot *core.OverrideSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM priority_overrides`); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	for id, priority := range snapshot.Overrides {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO priority_overrides (message_id, priority) VALUES (?, ?)`,
			id, string(priority)); err != nil {
			return fmt.Errorf("failed to insert override for %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.upsertSync, snapshot.LastSync.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to store sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit overrides: %w", err)
	}
	s.logger.Debug("Saved overrides", zap.Int("count", len(snapshot.Overrides)))
	return nil
}

// Clear deletes the stored snapshot
func (s *sqlStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM priority_overrides`); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM override_sync`); err != nil {
		return fmt.Errorf("failed to delete sync time: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	return nil
}
