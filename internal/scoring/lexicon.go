package scoring

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mikey/mail-triage/internal/categorizer"
	"gopkg.in/yaml.v3"
)

// WeightedTerm is a keyword and the score it contributes
type WeightedTerm struct {
	Term   string `yaml:"term"`
	Weight int    `yaml:"weight"`
}

// WeightedPattern is a subject pattern and the score it adds. Patterns are
// matched at the start of the lower-cased subject.
type WeightedPattern struct {
	Pattern string `yaml:"pattern"`
	Weight  int    `yaml:"weight"`
}

// Lexicon holds every lookup table used for scoring and categorization.
// It is plain data; components compile what they need at construction and
// never modify it.
type Lexicon struct {
	SenderWeights   []WeightedTerm      `yaml:"sender_weights"`
	UrgencyKeywords []WeightedTerm      `yaml:"urgency_keywords"`
	ActionWords     []string            `yaml:"action_words"`
	SubjectPatterns []WeightedPattern   `yaml:"subject_patterns"`
	Categories      map[string][]string `yaml:"categories"`
}

// DefaultLexicon returns the built-in tables
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		SenderWeights: []WeightedTerm{
			{Term: "boss", Weight: 5},
			{Term: "manager", Weight: 4},
			{Term: "director", Weight: 4},
			{Term: "vp", Weight: 4},
			{Term: "team", Weight: 3},
			{Term: "client", Weight: 3},
			{Term: "customer", Weight: 3},
			{Term: "colleague", Weight: 2},
			{Term: "hr", Weight: 2},
			{Term: "support", Weight: 2},
			{Term: "noreply", Weight: 0},
			{Term: "notification", Weight: 0},
		},
		UrgencyKeywords: []WeightedTerm{
			{Term: "urgent", Weight: 5},
			{Term: "asap", Weight: 5},
			{Term: "immediate", Weight: 5},
			{Term: "critical", Weight: 5},
			{Term: "emergency", Weight: 5},
			{Term: "important", Weight: 4},
			{Term: "priority", Weight: 4},
			{Term: "deadline", Weight: 4},
			{Term: "reminder", Weight: 4},
			{Term: "follow up", Weight: 4},
			{Term: "action required", Weight: 4},
			{Term: "response needed", Weight: 4},
			{Term: "please review", Weight: 3},
			{Term: "attention", Weight: 3},
		},
		ActionWords: []string{"please", "need", "request", "required", "should", "must"},
		SubjectPatterns: []WeightedPattern{
			{Pattern: `re:`, Weight: 2},
			{Pattern: `fwd:`, Weight: 1},
			{Pattern: `meeting`, Weight: 3},
			{Pattern: `call`, Weight: 3},
			{Pattern: `presentation`, Weight: 3},
			{Pattern: `report`, Weight: 2},
			{Pattern: `update`, Weight: 2},
			{Pattern: `status`, Weight: 2},
		},
		Categories: categorizer.DefaultKeywordLists(),
	}
}

// LoadLexicon reads a YAML lexicon. Tables missing from the file keep their
// built-in values.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	lex := DefaultLexicon()
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file %s: %w", path, err)
	}
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon file %s: %w", path, err)
	}
	return lex, nil
}

// Validate checks weights are within the sub-score range and patterns compile
func (l *Lexicon) Validate() error {
	for _, t := range append(append([]WeightedTerm{}, l.SenderWeights...), l.UrgencyKeywords...) {
		if strings.TrimSpace(t.Term) == "" {
			return fmt.Errorf("empty term")
		}
		if t.Weight < 0 || t.Weight > maxSubScore {
			return fmt.Errorf("weight %d for %q outside 0-%d", t.Weight, t.Term, maxSubScore)
		}
	}
	for _, p := range l.SubjectPatterns {
		if _, err := compileSubjectPattern(p.Pattern); err != nil {
			return err
		}
		if p.Weight < 0 || p.Weight > maxSubScore {
			return fmt.Errorf("weight %d for pattern %q outside 0-%d", p.Weight, p.Pattern, maxSubScore)
		}
	}
	if _, err := categorizer.NewKeywords(l.Categories); err != nil {
		return err
	}
	return nil
}

func compileSubjectPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid subject pattern %q: %w", pattern, err)
	}
	return re, nil
}
