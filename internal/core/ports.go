package core

import (
	"context"
)

// TextNormalizer cleans raw text and turns it into analysis tokens
type TextNormalizer interface {
	// Normalize returns the cleaned text and the filtered, lemmatized tokens
	Normalize(text string) (string, []string)
}

// EntityExtractor finds named entities in text. Implementations are
// optional; the pipeline treats a nil extractor as "no model available".
type EntityExtractor interface {
	// Extract returns entities in order of appearance
	Extract(ctx context.Context, text string) ([]Entity, error)
}

// Categorizer assigns one category from the closed set
type Categorizer interface {
	Categorize(tokens []string) Category
}

// PriorityScorer turns an analyzed message into a scored one
type PriorityScorer interface {
	Score(msg AnalyzedMessage) ScoredMessage
}

// OverrideLedger holds user chosen priorities for the current session
type OverrideLedger interface {
	// Set stores an override, replacing any earlier one for the same id
	Set(messageID string, priority Priority) error

	// Get returns the override for a message, if any
	Get(messageID string) (Priority, bool)

	// Remove drops the override for a message, reporting whether one existed
	Remove(messageID string) bool

	// Apply rewrites the displayed priority of overridden messages
	Apply(batch []ScoredMessage) []ScoredMessage

	// MarkSynced records a successful fetch
	MarkSynced()

	// Clear drops every override
	Clear()

	// Snapshot returns a copy of the ledger content for persistence
	Snapshot() *OverrideSnapshot

	// Restore replaces the ledger content with a persisted snapshot. It
	// reports false when the snapshot was discarded as expired.
	Restore(snapshot *OverrideSnapshot) bool
}

// OverrideStore persists the override ledger between runs
type OverrideStore interface {
	// Load retrieves the stored snapshot, or an empty one when nothing is stored
	Load(ctx context.Context) (*OverrideSnapshot, error)

	// Save replaces the stored snapshot
	Save(ctx context.Context, snapshot *OverrideSnapshot) error

	// Clear removes any stored snapshot
	Clear(ctx context.Context) error
}
