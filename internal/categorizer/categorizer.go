// Package categorizer assigns a message one category from a closed set by
// keyword overlap.
package categorizer

import (
	"fmt"
	"strings"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// Order in which categories are evaluated. With a strict comparison and
// ties resolving to Other the order never changes the result; it only
// keeps iteration deterministic.
var categoryOrder = []core.Category{
	core.CategoryWork,
	core.CategoryPersonal,
	core.CategoryNewsletters,
	core.CategoryNotifications,
}

// Keywords holds the representative keyword set of every non-Other category.
// It is built once and never mutated.
type Keywords struct {
	sets map[core.Category]map[string]struct{}
}

// DefaultKeywords returns the built-in keyword sets
func DefaultKeywords() *Keywords {
	k, _ := NewKeywords(DefaultKeywordLists())
	return k
}

// DefaultKeywordLists returns the built-in keyword lists
func DefaultKeywordLists() map[string][]string {
	return map[string][]string{
		string(core.CategoryWork): {
			"meeting", "project", "report", "deadline", "client", "colleague",
			"presentation", "invoice", "work", "office", "schedule", "agenda",
		},
		string(core.CategoryPersonal): {
			"family", "friend", "birthday", "party", "dinner", "weekend",
			"personal", "trip", "home", "hello", "hi",
		},
		string(core.CategoryNewsletters): {
			"unsubscribe", "newsletter", "update", "promotion", "sale",
			"weekly", "daily", "digest", "subscription", "offer",
		},
		string(core.CategoryNotifications): {
			"alert", "notification", "verify", "confirm", "password", "account",
			"security", "login", "system", "reset", "message", "comment", "reply",
		},
	}
}

// NewKeywords builds keyword sets from lists keyed by category name.
// Keywords are lower-cased. Unknown category names are rejected.
func NewKeywords(lists map[string][]string) (*Keywords, error) {
	k := &Keywords{sets: make(map[core.Category]map[string]struct{}, len(categoryOrder))}
	for name, words := range lists {
		category, ok := lookupCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				set[w] = struct{}{}
			}
		}
		k.sets[category] = set
	}
	return k, nil
}

func lookupCategory(name string) (core.Category, bool) {
	for _, c := range categoryOrder {
		if strings.EqualFold(name, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Overlap returns the number of distinct tokens that are keywords of category
func (k *Keywords) Overlap(category core.Category, tokens map[string]struct{}) int {
	set := k.sets[category]
	n := 0
	for token := range tokens {
		if _, ok := set[token]; ok {
			n++
		}
	}
	return n
}

// Categorizer implements core.Categorizer
type Categorizer struct {
	keywords *Keywords
	logger   *zap.Logger
}

// New creates a categorizer over the given keyword sets
func New(keywords *Keywords, logger *zap.Logger) *Categorizer {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Categorizer{keywords: keywords, logger: logger}
}

// Categorize picks the category with the strictly largest keyword overlap.
// Zero overlap and ties for the maximum both give Other.
func (c *Categorizer) Categorize(tokens []string) core.Category {
	if len(tokens) == 0 {
		return core.CategoryOther
	}

	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	best := core.CategoryOther
	bestOverlap := 0
	tied := false
	for _, category := range categoryOrder {
		overlap := c.keywords.Overlap(category, set)
		switch {
		case overlap > bestOverlap:
			best, bestOverlap, tied = category, overlap, false
		case overlap == bestOverlap && overlap > 0:
			tied = true
		}
	}
	if tied {
		best = core.CategoryOther
	}

	if c.logger != nil {
		c.logger.Debug("Detected category",
			zap.String("category", string(best)),
			zap.Int("overlap", bestOverlap),
			zap.Bool("tied", tied))
	}
	return best
}
