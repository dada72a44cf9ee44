package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawMessage accepts the body under any of the names the mail clients use
type rawMessage struct {
	ID            *string `json:"id"`
	Subject       *string `json:"subject"`
	Sender        *string `json:"sender"`
	BodyOrSnippet *string `json:"body_or_snippet"`
	Body          *string `json:"body"`
	Snippet       *string `json:"snippet"`
	Date          *string `json:"date"`
}

// DecodeBatch decodes a JSON array of message records. Items that are not
// valid records are skipped and reported as INPUT_SHAPE errors; only a
// document that is not an array fails as a whole.
func DecodeBatch(data []byte) ([]Message, []error, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, fmt.Errorf("batch is not a JSON array: %w", err)
	}

	messages := make([]Message, 0, len(items))
	var skipped []error
	for i, item := range items {
		msg, err := decodeMessage(i, item)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, skipped, nil
}

func decodeMessage(index int, item json.RawMessage) (Message, error) {
	trimmed := strings.TrimSpace(string(item))
	if !strings.HasPrefix(trimmed, "{") {
		return Message{}, NewInputShape(index, "not an object", nil)
	}

	var raw rawMessage
	if err := json.Unmarshal(item, &raw); err != nil {
		return Message{}, NewInputShape(index, "field has the wrong type", err)
	}
	if raw.ID == nil || strings.TrimSpace(*raw.ID) == "" {
		return Message{}, NewInputShape(index, "missing id", nil)
	}

	msg := Message{
		ID:      *raw.ID,
		Subject: deref(raw.Subject),
		Sender:  deref(raw.Sender),
		Date:    deref(raw.Date),
	}
	switch {
	case raw.BodyOrSnippet != nil:
		msg.Body = *raw.BodyOrSnippet
	case raw.Body != nil:
		msg.Body = *raw.Body
	case raw.Snippet != nil:
		msg.Body = *raw.Snippet
	}
	return msg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Merge appends a later page to an already displayed batch, dropping
// messages whose id is already present
func Merge(existing, page []ScoredMessage) []ScoredMessage {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}
	merged := append([]ScoredMessage(nil), existing...)
	for _, m := range page {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	return merged
}
