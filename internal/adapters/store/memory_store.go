// Package store persists the priority override ledger between runs.
package store

import (
	"context"
	"sync"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore keeps the snapshot in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	snapshot *core.OverrideSnapshot
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{logger: logger}
}

// Load returns a copy of the stored snapshot
func (s *MemoryStore) Load(ctx context.Context) (*core.OverrideSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return emptySnapshot(), nil
	}
	return copySnapshot(s.snapshot), nil
}

// Save replaces the stored snapshot
func (s *MemoryStore) Save(ctx context.Context, snapshot *core.OverrideSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = copySnapshot(snapshot)
	s.logger.Debug("Saved overrides in memory", zap.Int("count", len(snapshot.Overrides)))
	return nil
}

// Clear drops the stored snapshot
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = nil
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func emptySnapshot() *core.OverrideSnapshot {
	return &core.OverrideSnapshot{Overrides: make(map[string]core.Priority)}
}

func copySnapshot(snapshot *core.OverrideSnapshot) *core.OverrideSnapshot {
	out := emptySnapshot()
	if snapshot == nil {
		return out
	}
	for id, p := range snapshot.Overrides {
		out.Overrides[id] = p
	}
	out.LastSync = snapshot.LastSync
	return out
}
