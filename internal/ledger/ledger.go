// Package ledger keeps the user's priority overrides for one session.
//
// Overrides are keyed by message id and win over computed scores. The
// ledger expires as a whole: once the retention window has passed since
// the last successful sync, every entry is dropped at once.
package ledger

import (
	"sync"
	"time"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// Ledger is the in-memory override ledger
type Ledger struct {
	mu        sync.Mutex
	overrides map[string]core.Priority
	lastSync  time.Time
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates an empty ledger. A retention of zero disables expiry.
func New(retention time.Duration, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		overrides: make(map[string]core.Priority),
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSync = l.now()
	return l
}

// Set stores an override; a later Set for the same id wins. Saving an
// override counts as a sync.
func (l *Ledger) Set(messageID string, priority core.Priority) error {
	if _, err := core.ParsePriority(string(priority)); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()
	l.overrides[messageID] = priority
	l.lastSync = l.now()
	return nil
}

// Get returns the override for a message
func (l *Ledger) Get(messageID string) (core.Priority, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()
	p, ok := l.overrides[messageID]
	return p, ok
}

// Apply rewrites the displayed priority of every overridden message. Scores
// and the computed priority stay untouched for audit.
func (l *Ledger) Apply(batch []core.ScoredMessage) []core.ScoredMessage {
	snapshot := l.Snapshot().Overrides
	if len(snapshot) == 0 {
		return batch
	}

	for i := range batch {
		p, ok := snapshot[batch[i].ID]
		if !ok {
			continue
		}
		if l.logger != nil {
			l.logger.Debug("Applied priority override",
				zap.String("message_id", batch[i].ID),
				zap.String("computed", string(batch[i].ComputedPriority)),
				zap.String("override", string(p)))
		}
		batch[i].Priority = p
		batch[i].Overridden = true
	}
	return batch
}

// Remove drops the override for one message. It reports whether one existed.
func (l *Ledger) Remove(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()
	if _, ok := l.overrides[messageID]; !ok {
		return false
	}
	delete(l.overrides, messageID)
	return true
}

// MarkSynced restarts the retention window
func (l *Ledger) MarkSynced() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()
	l.lastSync = l.now()
}

// Clear drops every override
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides = make(map[string]core.Priority)
}

// Len returns the number of overrides in effect
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()
	return len(l.overrides)
}

// Snapshot returns a copy of the ledger, expiring it first if due
func (l *Ledger) Snapshot() *core.OverrideSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked()

	overrides := make(map[string]core.Priority, len(l.overrides))
	for id, p := range l.overrides {
		overrides[id] = p
	}
	return &core.OverrideSnapshot{
		Overrides: overrides,
		LastSync:  l.lastSync,
	}
}

// Restore replaces the ledger with a persisted snapshot. Snapshots without
// a sync time or older than the retention window are discarded wholesale
// and leave the ledger empty.
func (l *Ledger) Restore(snapshot *core.OverrideSnapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.overrides = make(map[string]core.Priority)
	if snapshot == nil {
		return true
	}
	if snapshot.LastSync.IsZero() {
		if len(snapshot.Overrides) == 0 {
			return true
		}
		return false
	}
	if l.expired(snapshot.LastSync) {
		return false
	}

	for id, p := range snapshot.Overrides {
		if _, err := core.ParsePriority(string(p)); err != nil {
			if l.logger != nil {
				l.logger.Warn("Ignoring stored override with invalid priority",
					zap.String("message_id", id),
					zap.String("priority", string(p)))
			}
			continue
		}
		l.overrides[id] = p
	}
	l.lastSync = snapshot.LastSync
	return true
}

func (l *Ledger) expired(since time.Time) bool {
	return l.retention > 0 && l.now().Sub(since) > l.retention
}

func (l *Ledger) expireLocked() {
	if len(l.overrides) == 0 || !l.expired(l.lastSync) {
		return
	}
	if l.logger != nil {
		l.logger.Info("Override ledger expired, clearing",
			zap.Int("count", len(l.overrides)),
			zap.Time("last_sync", l.lastSync))
	}
	l.overrides = make(map[string]core.Priority)
}
