// Package scoring computes the priority of an analyzed message from four
// independent sub-scores: sender, recency, content and subject pattern.
//
// Each sub-score is an integer in [0, 5]. The total is their weighted sum
// plus a bonus for recent replies, capped at MaxScore, and is mapped to a
// label by fixed thresholds. Scoring is a pure function of the message and
// the current time.
package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

const maxSubScore = 5

var recencyBuckets = []struct {
	within time.Duration
	score  int
}{
	{15 * time.Minute, 5},
	{time.Hour, 4},
	{4 * time.Hour, 3},
	{24 * time.Hour, 2},
	{7 * 24 * time.Hour, 1},
}

// OrgMatcher recognizes senders from the user's organization
type OrgMatcher interface {
	Matches(sender string) bool
}

// orgFloor is the minimum sender score of an organization sender
const orgFloor = 3

// Options holds the tunable constants of the scorer
type Options struct {
	SenderWeight    float64
	RecencyWeight   float64
	ContentWeight   float64
	PatternWeight   float64
	ReplyBonus      float64
	ReplyWindow     time.Duration
	MaxScore        float64
	HighThreshold   float64
	MediumThreshold float64
}

// DefaultOptions returns equal weights of 0.25, a +2 bonus for replies
// within 24 hours, a ceiling of 10 and the High >= 8, Medium >= 5 bands
func DefaultOptions() Options {
	return Options{
		SenderWeight:    0.25,
		RecencyWeight:   0.25,
		ContentWeight:   0.25,
		PatternWeight:   0.25,
		ReplyBonus:      2,
		ReplyWindow:     24 * time.Hour,
		MaxScore:        10,
		HighThreshold:   8,
		MediumThreshold: 5,
	}
}

type subjectPattern struct {
	re     *regexp.Regexp
	weight int
}

// Scorer implements core.PriorityScorer
type Scorer struct {
	senders  []WeightedTerm
	urgency  []WeightedTerm
	actions  []string
	patterns []subjectPattern
	orgs     OrgMatcher
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer compiles the lexicon into a scorer. orgs may be nil.
func NewScorer(lex *Lexicon, orgs OrgMatcher, opts Options, logger *zap.Logger, options ...Option) (*Scorer, error) {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if opts.MaxScore <= 0 {
		return nil, fmt.Errorf("max score must be positive, got %v", opts.MaxScore)
	}
	if opts.MediumThreshold > opts.HighThreshold {
		return nil, fmt.Errorf("medium threshold %v is above high threshold %v", opts.MediumThreshold, opts.HighThreshold)
	}

	s := &Scorer{
		senders: lowerTerms(lex.SenderWeights),
		urgency: lowerTerms(lex.UrgencyKeywords),
		orgs:    orgs,
		opts:    opts,
		now:     time.Now,
		logger:  logger,
	}

	seen := make(map[string]struct{}, len(lex.ActionWords))
	for _, w := range lex.ActionWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if _, dup := seen[w]; dup || w == "" {
			continue
		}
		seen[w] = struct{}{}
		s.actions = append(s.actions, w)
	}

	for _, p := range lex.SubjectPatterns {
		re, err := compileSubjectPattern(p.Pattern)
		if err != nil {
			return nil, err
		}
		s.patterns = append(s.patterns, subjectPattern{re: re, weight: p.Weight})
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func lowerTerms(terms []WeightedTerm) []WeightedTerm {
	out := make([]WeightedTerm, 0, len(terms))
	for _, t := range terms {
		out = append(out, WeightedTerm{Term: strings.ToLower(t.Term), Weight: t.Weight})
	}
	return out
}

// Score computes the sub-scores, total and label of a message. An
// unparseable date only zeroes the recency signal.
func (s *Scorer) Score(msg core.AnalyzedMessage) core.ScoredMessage {
	now := s.now()

	recency := 0
	elapsed, dated := s.elapsed(msg.Message, now)
	if dated {
		recency = RecencyScore(elapsed)
	}

	out := core.ScoredMessage{
		AnalyzedMessage: msg,
		SenderScore:     s.SenderScore(msg.Sender),
		RecencyScore:    recency,
		ContentScore:    s.contentScore(msg.ContentText()),
		PatternScore:    s.PatternScore(msg.Subject),
	}

	total := s.opts.SenderWeight*float64(out.SenderScore) +
		s.opts.RecencyWeight*float64(out.RecencyScore) +
		s.opts.ContentWeight*float64(out.ContentScore) +
		s.opts.PatternWeight*float64(out.PatternScore)
	if dated && s.isRecentReply(elapsed, msg.Subject) {
		total += s.opts.ReplyBonus
	}
	if total > s.opts.MaxScore {
		total = s.opts.MaxScore
	}
	if total < 0 {
		total = 0
	}

	out.Score = total
	out.ComputedPriority = s.Label(total)
	out.Priority = out.ComputedPriority
	return out
}

func (s *Scorer) elapsed(msg core.Message, now time.Time) (time.Duration, bool) {
	sent, unknownZone, err := parseDate(msg.Date, now.Location())
	if unknownZone != "" && s.logger != nil {
		s.logger.Debug("Unknown time zone name, treating it as UTC",
			zap.String("message_id", msg.ID),
			zap.String("zone", unknownZone),
			zap.String("date", msg.Date))
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Could not parse message date, recency score is zero",
				zap.String("message_id", msg.ID),
				zap.Error(core.NewParseFailure(msg.ID, "date", msg.Date)))
		}
		return 0, false
	}
	return now.Sub(sent), true
}

// Label maps a total score to its priority band
func (s *Scorer) Label(total float64) core.Priority {
	switch {
	case total >= s.opts.HighThreshold:
		return core.PriorityHigh
	case total >= s.opts.MediumThreshold:
		return core.PriorityMedium
	default:
		return core.PriorityLow
	}
}

// SenderScore is the largest weight of any sender keyword contained in the
// lower-cased sender, floored for organization senders
func (s *Scorer) SenderScore(sender string) int {
	lower := strings.ToLower(sender)
	score := 0
	for _, t := range s.senders {
		if t.Term != "" && strings.Contains(lower, t.Term) && t.Weight > score {
			score = t.Weight
		}
	}
	if s.orgs != nil && s.orgs.Matches(sender) && score < orgFloor {
		score = orgFloor
	}
	return capScore(score)
}

// RecencyScore maps the age of a message to its recency bucket. Timestamps
// in the future count as brand new.
func RecencyScore(elapsed time.Duration) int {
	for _, b := range recencyBuckets {
		if elapsed < b.within {
			return b.score
		}
	}
	return 0
}

// ContentScore rates urgency keywords, questions and action words in the
// subject and body
func (s *Scorer) ContentScore(subject, body string) int {
	return s.contentScore(subject + " " + body)
}

func (s *Scorer) contentScore(text string) int {
	text = strings.ToLower(text)

	score := 0
	for _, t := range s.urgency {
		if t.Term != "" && strings.Contains(text, t.Term) && t.Weight > score {
			score = t.Weight
		}
	}
	if strings.Contains(text, "?") {
		score++
	}
	for _, w := range s.actions {
		if strings.Contains(text, w) {
			score++
		}
	}
	return capScore(score)
}

// PatternScore sums the weights of every subject pattern matching at the
// start of the lower-cased subject
func (s *Scorer) PatternScore(subject string) int {
	lower := strings.ToLower(strings.TrimSpace(subject))
	score := 0
	for _, p := range s.patterns {
		if p.re.MatchString(lower) {
			score += p.weight
		}
	}
	return capScore(score)
}

func (s *Scorer) isRecentReply(elapsed time.Duration, subject string) bool {
	return elapsed < s.opts.ReplyWindow &&
		strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:")
}

func capScore(score int) int {
	if score > maxSubScore {
		return maxSubScore
	}
	return score
}
