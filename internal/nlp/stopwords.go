package nlp

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed stopwords_en.txt
var englishStopwords string

// Stopwords is an immutable set of words dropped during normalization
type Stopwords map[string]struct{}

// EnglishStopwords returns the built-in English stopword list
func EnglishStopwords() Stopwords {
	return parseStopwords(englishStopwords)
}

// LoadStopwords reads a stopword list, one word per line. Blank lines and
// lines starting with # are ignored.
func LoadStopwords(path string) (Stopwords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stopwords file: %w", err)
	}
	return parseStopwords(string(data)), nil
}

func parseStopwords(data string) Stopwords {
	set := make(Stopwords)
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

// Contains reports whether word is a stopword
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}
