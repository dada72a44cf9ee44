package nlp

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Lemmatizer reduces an inflected word to its dictionary form
type Lemmatizer interface {
	Lemma(word string) (string, error)
}

// GolemLemmatizer is a dictionary based English lemmatizer
type GolemLemmatizer struct {
	lemmatizer *golem.Lemmatizer
}

// NewGolemLemmatizer loads the English dictionary
func NewGolemLemmatizer() (*GolemLemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load english lemma dictionary: %w", err)
	}
	return &GolemLemmatizer{lemmatizer: l}, nil
}

// Lemma returns the dictionary form of word, or the word itself when the
// dictionary has no entry for it
func (g *GolemLemmatizer) Lemma(word string) (lemma string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lemmatizer panic on %q: %v", word, r)
		}
	}()
	lemma = g.lemmatizer.Lemma(word)
	if lemma == "" {
		return "", fmt.Errorf("no lemma for %q", word)
	}
	return lemma, nil
}
