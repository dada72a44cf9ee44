package ner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey/mail-triage/internal/core"
)

// PromptFormat asks a language model for entities as a JSON array. The
// single %s is the message text.
const PromptFormat = `You are a named entity recognition system. Find the named entities in the following email text.
Respond with a JSON array of objects, each containing:
- text: string (the entity exactly as written in the email)
- label: string (one of PERSON, ORG, GPE, LOC, DATE, TIME, MONEY, PRODUCT, EVENT)

Email text:
%s

Respond only with the JSON array and nothing else. Respond with [] if there are no entities.`

// SystemPrompt is sent as the system message where the API supports one
const SystemPrompt = "You are a named entity recognition system. Respond only with JSON."

// BuildPrompt formats the prompt for text
func BuildPrompt(text string) string {
	return fmt.Sprintf(PromptFormat, text)
}

type rawEntity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ParseEntities decodes a model response. The JSON array may be wrapped in
// prose or code fences, or in an {"entities": [...]} object. Entities that do
// not occur in source are dropped and the rest are ordered by first
// occurrence.
func ParseEntities(responseText, source string) ([]core.Entity, error) {
	raw, err := decodeEntities(responseText)
	if err != nil {
		return nil, err
	}

	type located struct {
		entity core.Entity
		at     int
	}
	found := make([]located, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		label := strings.ToUpper(strings.TrimSpace(r.Label))
		if label == "" {
			label = strings.ToUpper(strings.TrimSpace(r.Type))
		}
		if text == "" || label == "" {
			continue
		}
		at := strings.Index(source, text)
		if at < 0 {
			continue
		}
		found = append(found, located{entity: core.Entity{Text: text, Label: label}, at: at})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].at < found[j].at
	})

	entities := make([]core.Entity, 0, len(found))
	for _, f := range found {
		entities = append(entities, f.entity)
	}
	return entities, nil
}

func decodeEntities(responseText string) ([]rawEntity, error) {
	var list []rawEntity
	if err := json.Unmarshal([]byte(responseText), &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Entities []rawEntity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(responseText), &wrapped); err == nil && wrapped.Entities != nil {
		return wrapped.Entities, nil
	}

	// Try to extract the array from the text response
	jsonStart := strings.Index(responseText, "[")
	jsonEnd := strings.LastIndex(responseText, "]")
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("failed to extract JSON array from model response")
	}
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &list); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return list, nil
}
