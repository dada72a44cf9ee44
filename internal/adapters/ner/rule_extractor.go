// Package ner holds the local entity recognizer and the prompt and response
// handling shared by the model-backed extractors.
package ner

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// Entity labels produced by the rule extractor
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelMoney  = "MONEY"
	LabelDate   = "DATE"
	LabelTime   = "TIME"
	LabelEmail  = "EMAIL"
	LabelURL    = "URL"
)

const months = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`
const weekdays = `(?:Mon|Tues|Wednes|Thurs|Fri|Satur|Sun)day`

type rule struct {
	label string
	re    *regexp.Regexp
}

// Rules are listed by precedence: when two matches start at the same
// offset and have the same length, the earlier rule wins.
var defaultRules = []rule{
	{LabelEmail, regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)},
	{LabelURL, regexp.MustCompile(`(?:https?://|www\.)[^\s<>"']+`)},
	{LabelMoney, regexp.MustCompile(`[$€£]\s?\d+(?:,\d{3})*(?:\.\d+)?(?:\s?(?:k|K|m|M|bn|million|billion)\b)?|\b\d+(?:,\d{3})*(?:\.\d+)?\s?(?:USD|EUR|GBP|dollars|euros|pounds)\b`)},
	{LabelDate, regexp.MustCompile(`\b(?:` + weekdays + `,?\s+)?` + months + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)},
	{LabelDate, regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+` + months + `\b(?:\s+\d{4})?`)},
	{LabelDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{LabelDate, regexp.MustCompile(`\b` + weekdays + `\b|\b(?i:today|tomorrow|tonight|yesterday)\b`)},
	{LabelTime, regexp.MustCompile(`\b(?:[01]?\d|2[0-3]):[0-5]\d(?:\s?(?:am|pm|AM|PM))?\b|\b(?:1[0-2]|0?[1-9])\s?(?:am|pm|AM|PM)\b`)},
	{LabelPerson, regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
	{LabelOrg, regexp.MustCompile(`\b[A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*){0,3},?\s+(?:Inc|LLC|Ltd|Corp|Corporation|GmbH|PLC|Group|AG)\b\.?`)},
}

type span struct {
	start, end int
	rank       int
	label      string
}

// RuleExtractor recognizes entities with regular expressions over the
// case-preserved text. It needs no model and does no I/O.
type RuleExtractor struct {
	rules  []rule
	logger *zap.Logger
}

// NewRuleExtractor creates the local extractor
func NewRuleExtractor(logger *zap.Logger) *RuleExtractor {
	return &RuleExtractor{rules: defaultRules, logger: logger}
}

// Extract returns the entities found in text in order of appearance.
// Overlapping matches are resolved in favour of the one starting first, then
// the longest.
func (e *RuleExtractor) Extract(ctx context.Context, text string) ([]core.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []core.Entity{}, nil
	}

	var spans []span
	for rank, r := range e.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if r.label == LabelURL || r.label == LabelEmail {
				end = start + len(strings.TrimRight(text[start:end], ".,;:!?)]"))
			}
			if end > start {
				spans = append(spans, span{start: start, end: end, rank: rank, label: r.label})
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if li, lj := spans[i].end-spans[i].start, spans[j].end-spans[j].start; li != lj {
			return li > lj
		}
		return spans[i].rank < spans[j].rank
	})

	entities := make([]core.Entity, 0, len(spans))
	covered := 0
	for _, s := range spans {
		if s.start < covered {
			continue
		}
		entities = append(entities, core.Entity{Text: text[s.start:s.end], Label: s.label})
		covered = s.end
	}

	if e.logger != nil {
		e.logger.Debug("Extracted entities", zap.Int("count", len(entities)))
	}
	return entities, nil
}
