// Package nlp turns raw message text into analysis tokens.
package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Placeholders substituted for masked spans. They are upper case so that
// they never collide with the lower-cased text around them.
const (
	EmailPlaceholder  = "EMAIL"
	URLPlaceholder    = "URL"
	NumberPlaceholder = "NUMBER"
)

const minTokenLength = 3

var (
	emailPattern      = regexp.MustCompile(`\S+@\S+`)
	urlPattern        = regexp.MustCompile(`https?\S+|www\S+`)
	disallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.',!?\-]`)
	digitsPattern     = regexp.MustCompile(`\p{Nd}+`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// Segmenter splits cleaned text into word tokens
type Segmenter func(text string) []string

// Normalizer cleans, tokenizes, filters and lemmatizes text. A nil
// lemmatizer or empty stopword set is a supported degraded mode.
type Normalizer struct {
	stopwords  Stopwords
	lemmatizer Lemmatizer
	segment    Segmenter
	lower      cases.Caser
	logger     *zap.Logger
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithSegmenter replaces the UAX #29 word segmenter
func WithSegmenter(s Segmenter) NormalizerOption {
	return func(n *Normalizer) {
		n.segment = s
	}
}

// NewNormalizer creates a normalizer. stopwords and lemmatizer may be nil.
func NewNormalizer(stopwords Stopwords, lemmatizer Lemmatizer, logger *zap.Logger, opts ...NormalizerOption) *Normalizer {
	if stopwords == nil {
		stopwords = Stopwords{}
	}
	n := &Normalizer{
		stopwords:  stopwords,
		lemmatizer: lemmatizer,
		segment:    SegmentWords,
		lower:      cases.Lower(language.English),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Clean applies the substitution chain and returns a single cleaned string
func (n *Normalizer) Clean(text string) string {
	if text == "" {
		return ""
	}
	cleaned := n.lower.String(norm.NFKC.String(text))
	cleaned = emailPattern.ReplaceAllString(cleaned, " "+EmailPlaceholder+" ")
	cleaned = urlPattern.ReplaceAllString(cleaned, " "+URLPlaceholder+" ")
	cleaned = disallowedPattern.ReplaceAllString(cleaned, "")
	cleaned = digitsPattern.ReplaceAllString(cleaned, " "+NumberPlaceholder+" ")
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Normalize returns the cleaned text and its filtered, lemmatized tokens.
// It never fails: missing resources only reduce the token quality.
func (n *Normalizer) Normalize(text string) (string, []string) {
	cleaned := n.Clean(text)
	if cleaned == "" {
		return "", []string{}
	}

	raw := n.tokenize(cleaned)
	tokens := make([]string, 0, len(raw))
	for _, word := range raw {
		if n.stopwords.Contains(word) || utf8.RuneCountInString(word) < minTokenLength {
			continue
		}
		tokens = append(tokens, n.lemma(word))
	}

	if n.logger != nil {
		n.logger.Debug("Normalized text",
			zap.Int("original_length", len(text)),
			zap.Int("raw_tokens", len(raw)),
			zap.Int("tokens", len(tokens)))
	}
	return cleaned, tokens
}

func (n *Normalizer) tokenize(cleaned string) (tokens []string) {
	defer func() {
		if r := recover(); r != nil {
			if n.logger != nil {
				n.logger.Warn("Word segmentation failed, falling back to whitespace split",
					zap.Any("panic", r))
			}
			tokens = WhitespaceSegmenter(cleaned)
		}
	}()
	return n.segment(cleaned)
}

func (n *Normalizer) lemma(word string) string {
	if n.lemmatizer == nil || isPlaceholder(word) {
		return word
	}
	lemma, err := n.lemmatizer.Lemma(word)
	if err != nil {
		if n.logger != nil {
			n.logger.Warn("Lemmatization failed, keeping original token",
				zap.String("token", word),
				zap.Error(err))
		}
		return word
	}
	return lemma
}

func isPlaceholder(word string) bool {
	return word == EmailPlaceholder || word == URLPlaceholder || word == NumberPlaceholder
}

// SegmentWords splits text at Unicode (UAX #29) word boundaries and keeps
// the segments that contain a letter or digit
func SegmentWords(text string) []string {
	var out []string
	segments := words.FromString(text)
	for segments.Next() {
		word := segments.Value()
		if hasWordRune(word) {
			out = append(out, word)
		}
	}
	return out
}

// WhitespaceSegmenter is the degraded tokenizer: a plain whitespace split
// with surrounding punctuation trimmed
func WhitespaceSegmenter(text string) []string {
	var out []string
	for _, f := range strings.Fields(text) {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// String describes the normalizer configuration for logs
func (n *Normalizer) String() string {
	return fmt.Sprintf("normalizer(stopwords=%d, lemmatizer=%t)", len(n.stopwords), n.lemmatizer != nil)
}
