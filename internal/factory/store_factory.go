package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/mail-triage/internal/adapters/store"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/ledger"
	"go.uber.org/zap"
)

// StoreFactory creates the override store and ledger based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOverrideStore creates the store selected by overrides.store.type
func (f *StoreFactory) CreateOverrideStore() (core.OverrideStore, error) {
	oc, err := f.cfg.GetOverrides()
	if err != nil {
		return nil, err
	}

	switch oc.StoreType {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "file":
		return store.NewFileStore(oc.FilePath, f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(oc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(oc.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(oc.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported override store type: %s", oc.StoreType)
	}
}

// CreateLedger creates an empty override ledger with the configured retention
func (f *StoreFactory) CreateLedger() (*ledger.Ledger, error) {
	oc, err := f.cfg.GetOverrides()
	if err != nil {
		return nil, err
	}
	return ledger.New(oc.Retention, f.logger), nil
}
