package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/mail-triage/internal/adapters/store"
	"github.com/mikey/mail-triage/internal/categorizer"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/ledger"
	"github.com/mikey/mail-triage/internal/nlp"
	"github.com/mikey/mail-triage/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler("America/New_York", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", s.location.String())

	_, err = NewScheduler("Invalid/Zone", zap.NewNop())
	assert.Error(t, err)
}

func TestScheduleReplacesJob(t *testing.T) {
	s, err := NewScheduler("UTC", zap.NewNop())
	require.NoError(t, err)
	defer s.Stop()

	assert.True(t, s.Next().IsZero())
	require.NoError(t, s.Schedule("@every 5m", func() {}))
	require.NoError(t, s.Schedule("0 9 * * *", func() {}))
	require.NoError(t, s.Start())

	assert.Len(t, s.cron.Entries(), 1)
	assert.False(t, s.Next().IsZero())
}

func TestScheduleInvalidExpression(t *testing.T) {
	s, err := NewScheduler("UTC", zap.NewNop())
	require.NoError(t, err)

	for _, expr := range []string{"", "every five minutes", "61 * * * *"} {
		assert.Error(t, s.Schedule(expr, func() {}), expr)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, err := NewScheduler("UTC", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func newService(t *testing.T) *core.TriageService {
	t.Helper()
	logger := zap.NewNop()
	scorer, err := scoring.NewScorer(nil, nil, scoring.DefaultOptions(), logger)
	require.NoError(t, err)
	return core.NewTriageService(
		nil,
		nlp.NewNormalizer(nlp.EnglishStopwords(), nil, logger),
		nil,
		categorizer.New(nil, logger),
		scorer,
		ledger.New(24*time.Hour, logger),
		store.NewMemoryStore(logger),
		logger,
		core.TriageOptions{Workers: 1},
	)
}

func TestWatcherKeepsOverridesAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.json")
	output := filepath.Join(dir, "scored.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"id": "a", "subject": "Project meeting", "sender": "x@y.z", "body_or_snippet": "agenda attached", "date": "bogus"},
		{"id": "b", "subject": "Weekly digest", "sender": "news@y.z", "body_or_snippet": "unsubscribe", "date": "bogus"}
	]`), 0600))

	service := newService(t)
	w := NewWatcher(service, input, output, zap.NewNop())
	require.NoError(t, w.Run(context.Background()))
	require.NoError(t, service.SetPriority(context.Background(), "b", "High"))

	w.Job(context.Background())()

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var results []core.ScoredMessage
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 2)

	byID := map[string]core.ScoredMessage{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, core.CategoryWork, byID["a"].Category)
	assert.Equal(t, core.CategoryNewsletters, byID["b"].Category)
	assert.Equal(t, core.PriorityHigh, byID["b"].Priority)
	assert.True(t, byID["b"].Overridden)
}

func TestWatcherMissingInput(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(newService(t), filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"), zap.NewNop())
	assert.Error(t, w.Run(context.Background()))

	w.Job(context.Background())()
	_, err := os.Stat(filepath.Join(dir, "out.json"))
	assert.True(t, os.IsNotExist(err))
}
