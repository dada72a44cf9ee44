package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// FileStore keeps the snapshot in a JSON session file:
//
//	{"priority_overrides": {"<id>": "High"}, "last_sync": "2024-03-01T12:00:00Z"}
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the session file. A missing file is an empty snapshot; a
// corrupted one is removed and treated as empty.
func (s *FileStore) Load(ctx context.Context) (*core.OverrideSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	snapshot := emptySnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		s.logger.Warn("Session file is corrupted, removing it",
			zap.String("path", s.path),
			zap.Error(err))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove corrupted session file: %w", rmErr)
		}
		return emptySnapshot(), nil
	}
	if snapshot.Overrides == nil {
		snapshot.Overrides = make(map[string]core.Priority)
	}
	return snapshot, nil
}

// Save writes the snapshot atomically
func (s *FileStore) Save(ctx context.Context, snapshot *core.OverrideSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(copySnapshot(snapshot), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Debug("Saved overrides",
		zap.String("path", s.path),
		zap.Int("count", len(snapshot.Overrides)))
	return nil
}

// Clear removes the session file
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}
