package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BodyProcessor prepares a raw message body for analysis
type BodyProcessor interface {
	ProcessBody(body string) string
}

// TriageOptions tunes the triage service
type TriageOptions struct {
	Workers       int
	EntityTimeout time.Duration
}

// TriageService is the core service: analysis, scoring and overrides
type TriageService struct {
	bodies      BodyProcessor
	normalizer  TextNormalizer
	extractor   EntityExtractor
	categorizer Categorizer
	scorer      PriorityScorer
	ledger      OverrideLedger
	store       OverrideStore
	logger      *zap.Logger
	opts        TriageOptions
}

// NewTriageService creates a new triage service. extractor may be nil.
func NewTriageService(
	bodies BodyProcessor,
	normalizer TextNormalizer,
	extractor EntityExtractor,
	categorizer Categorizer,
	scorer PriorityScorer,
	ledger OverrideLedger,
	store OverrideStore,
	logger *zap.Logger,
	opts TriageOptions,
) *TriageService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &TriageService{
		bodies:      bodies,
		normalizer:  normalizer,
		extractor:   extractor,
		categorizer: categorizer,
		scorer:      scorer,
		ledger:      ledger,
		store:       store,
		logger:      logger,
		opts:        opts,
	}
}

// Triage analyzes and scores a batch, applies stored overrides and returns
// the batch sorted by descending score. A failure inside one message never
// aborts the batch; only cancellation of ctx does.
func (s *TriageService) Triage(ctx context.Context, messages []Message) ([]ScoredMessage, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	logger.Info("Starting triage batch", zap.Int("messages", len(messages)))

	results := make([]ScoredMessage, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, msg := range messages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.process(gctx, logger, msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("triage cancelled: %w", err)
	}

	results = s.ledger.Apply(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Info("Finished triage batch", zap.Int("messages", len(results)))
	return results, nil
}

// TriageBatch decodes a JSON batch, triages the valid records and records
// the fetch as a successful sync. Skipped records are returned alongside
// the result. A failed sync is logged and does not fail the batch.
func (s *TriageService) TriageBatch(ctx context.Context, data []byte) ([]ScoredMessage, []error, error) {
	messages, skipped, err := DecodeBatch(data)
	if err != nil {
		return nil, nil, err
	}
	for _, skip := range skipped {
		s.logger.Warn("Skipping invalid batch item", zap.Error(skip))
	}

	results, err := s.Triage(ctx, messages)
	if err != nil {
		return nil, skipped, err
	}
	if err := s.Sync(ctx); err != nil {
		s.logger.Warn("Could not record sync time", zap.Error(err))
	}
	return results, skipped, nil
}

// process runs one message through the pipeline, falling back to the
// neutral result if anything panics
func (s *TriageService) process(ctx context.Context, logger *zap.Logger, msg Message) (result ScoredMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Message processing failed, using neutral values",
				zap.String("message_id", msg.ID),
				zap.Any("panic", r))
			result = NeutralScore(msg)
		}
	}()

	analyzed := s.Analyze(ctx, msg)
	scored := s.scorer.Score(analyzed)
	logger.Debug("Scored message",
		zap.String("message_id", msg.ID),
		zap.String("category", string(scored.Category)),
		zap.Float64("score", scored.Score),
		zap.String("priority", string(scored.ComputedPriority)))
	return scored
}

// Analyze runs the text analysis stage for one message
func (s *TriageService) Analyze(ctx context.Context, msg Message) AnalyzedMessage {
	body := msg.Body
	if s.bodies != nil {
		body = s.bodies.ProcessBody(body)
	}

	text := msg.Subject + " " + body
	_, tokens := s.normalizer.Normalize(text)
	if tokens == nil {
		tokens = []string{}
	}

	return AnalyzedMessage{
		Message:  msg,
		Tokens:   tokens,
		Entities: s.extractEntities(ctx, msg.ID, text),
		Category: s.categorizer.Categorize(tokens),
		Text:     text,
	}
}

func (s *TriageService) extractEntities(ctx context.Context, messageID, text string) []Entity {
	text = strings.Join(strings.Fields(text), " ")
	if s.extractor == nil || text == "" {
		return []Entity{}
	}

	if s.opts.EntityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.EntityTimeout)
		defer cancel()
	}

	entities, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.logger.Warn("Entity extraction failed, continuing without entities",
			zap.String("message_id", messageID),
			zap.Error(err))
		return []Entity{}
	}
	if entities == nil {
		return []Entity{}
	}
	return entities
}

// SetPriority records a user override and persists the ledger
func (s *TriageService) SetPriority(ctx context.Context, messageID, label string) error {
	priority, err := ParsePriority(label)
	if err != nil {
		return err
	}
	if err := s.ledger.Set(messageID, priority); err != nil {
		return err
	}
	s.logger.Info("Stored priority override",
		zap.String("message_id", messageID),
		zap.String("priority", string(priority)))
	return s.persist(ctx)
}

// ClearPriority removes a user override and persists the ledger
func (s *TriageService) ClearPriority(ctx context.Context, messageID string) error {
	if !s.ledger.Remove(messageID) {
		return ErrNotFound
	}
	s.logger.Info("Removed priority override", zap.String("message_id", messageID))
	return s.persist(ctx)
}

// GetPriority returns the override for a message
func (s *TriageService) GetPriority(messageID string) (Priority, error) {
	p, ok := s.ledger.Get(messageID)
	if !ok {
		return "", ErrNotFound
	}
	return p, nil
}

// Overrides returns every override currently in effect
func (s *TriageService) Overrides() map[string]Priority {
	return s.ledger.Snapshot().Overrides
}

// Sync marks a successful fetch and persists the ledger
func (s *TriageService) Sync(ctx context.Context) error {
	s.ledger.MarkSynced()
	return s.persist(ctx)
}

// Restore loads the persisted ledger. Expired data is discarded and removed
// from the store.
func (s *TriageService) Restore(ctx context.Context) error {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load overrides: %w", err)
	}
	if !s.ledger.Restore(snapshot) {
		s.logger.Info("Stored overrides are older than the retention window, clearing")
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear expired overrides: %w", err)
		}
		return nil
	}
	s.logger.Info("Loaded priority overrides", zap.Int("count", len(snapshot.Overrides)))
	return nil
}

// Disconnect ends the session: all overrides are dropped, in memory and in the store
func (s *TriageService) Disconnect(ctx context.Context) error {
	s.ledger.Clear()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored overrides: %w", err)
	}
	s.logger.Info("Session disconnected, overrides cleared")
	return nil
}

func (s *TriageService) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.ledger.Snapshot()); err != nil {
		s.logger.Error("Failed to persist overrides", zap.Error(err))
		return fmt.Errorf("failed to persist overrides: %w", err)
	}
	return nil
}
