package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// Watcher re-triages an exported batch file and writes the scored result
type Watcher struct {
	service *core.TriageService
	input   string
	output  string
	logger  *zap.Logger
}

// NewWatcher creates a watcher reading input and writing output
func NewWatcher(service *core.TriageService, input, output string, logger *zap.Logger) *Watcher {
	return &Watcher{
		service: service,
		input:   input,
		output:  output,
		logger:  logger,
	}
}

// Run performs one re-triage pass
func (w *Watcher) Run(ctx context.Context) error {
	data, err := os.ReadFile(w.input)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	results, skipped, err := w.service.TriageBatch(ctx, data)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := writeFileAtomic(w.output, out); err != nil {
		return err
	}

	w.logger.Info("Re-triaged batch",
		zap.String("input", w.input),
		zap.String("output", w.output),
		zap.Int("messages", len(results)),
		zap.Int("skipped", len(skipped)))
	return nil
}

// Job adapts Run to a cron job. Failures are logged and the next run
// proceeds as scheduled.
func (w *Watcher) Job(ctx context.Context) func() {
	return func() {
		if err := w.Run(ctx); err != nil {
			w.logger.Error("Re-triage failed", zap.String("input", w.input), zap.Error(err))
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".triage-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace results file: %w", err)
	}
	return nil
}
