package core

import (
	"time"
)

// Category is the closed set of labels the categorizer assigns
type Category string

const (
	CategoryWork          Category = "Work"
	CategoryPersonal      Category = "Personal"
	CategoryNewsletters   Category = "Newsletters"
	CategoryNotifications Category = "Notifications"
	CategoryOther         Category = "Other"
)

// Priority is the final label shown for a message
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority validates a user supplied priority label
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", NewInvalidPriority(s)
}

// Message is a single record handed over by the mail collaborator
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body_or_snippet"`
	Date    string `json:"date"`
}

// Entity is a named entity found in a message
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// AnalyzedMessage is a message with the output of the text analysis stage
type AnalyzedMessage struct {
	Message
	Tokens   []string `json:"tokens"`
	Entities []Entity `json:"entities"`
	Category Category `json:"category"`

	// Text is the subject and processed body the analysis ran on
	Text string `json:"-"`
}

// ContentText returns the text content signals are read from: the analyzed
// text, or the raw subject and body for a message that was not analyzed
func (m AnalyzedMessage) ContentText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Subject + " " + m.Body
}

// ScoredMessage is an analyzed message with its priority scoring.
// ComputedPriority is always derived from Score; Priority is what is
// displayed and differs only when an override is in effect.
type ScoredMessage struct {
	AnalyzedMessage
	SenderScore      int      `json:"sender_score"`
	RecencyScore     int      `json:"recency_score"`
	ContentScore     int      `json:"content_score"`
	PatternScore     int      `json:"pattern_score"`
	Score            float64  `json:"score"`
	ComputedPriority Priority `json:"computed_priority"`
	Priority         Priority `json:"priority"`
	Overridden       bool     `json:"overridden"`
}

// NeutralAnalysis is the analysis result for a message whose analysis failed
func NeutralAnalysis(msg Message) AnalyzedMessage {
	return AnalyzedMessage{
		Message:  msg,
		Tokens:   []string{},
		Entities: []Entity{},
		Category: CategoryOther,
	}
}

// NeutralScore is the scoring result for a message whose processing failed
func NeutralScore(msg Message) ScoredMessage {
	return ScoredMessage{
		AnalyzedMessage:  NeutralAnalysis(msg),
		ComputedPriority: PriorityLow,
		Priority:         PriorityLow,
	}
}

// OverrideSnapshot is the persisted form of the override ledger
type OverrideSnapshot struct {
	Overrides map[string]Priority `json:"priority_overrides"`
	LastSync  time.Time           `json:"last_sync"`
}
