package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures the triage pipeline can observe.
// None of them aborts a batch.
type ErrorKind string

const (
	KindResourceUnavailable ErrorKind = "RESOURCE_UNAVAILABLE"
	KindParseFailure        ErrorKind = "PARSE_FAILURE"
	KindInputShape          ErrorKind = "INPUT_SHAPE"
	KindInvalidPriority     ErrorKind = "INVALID_PRIORITY"
)

// ErrNotFound is returned when no override exists for a message
var ErrNotFound = errors.New("override not found")

// TriageError carries the kind of failure and the message it concerns
type TriageError struct {
	Kind      ErrorKind
	MessageID string
	Index     int
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *TriageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.MessageID != "" {
		msg = fmt.Sprintf("%s (message %s)", msg, e.MessageID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TriageError) Unwrap() error {
	return e.Err
}

// NewResourceUnavailable reports a missing linguistic resource or model
func NewResourceUnavailable(resource string, err error) *TriageError {
	return &TriageError{
		Kind:    KindResourceUnavailable,
		Message: fmt.Sprintf("resource %q unavailable", resource),
		Err:     err,
	}
}

// NewParseFailure reports a value that could not be parsed
func NewParseFailure(messageID, what, value string) *TriageError {
	return &TriageError{
		Kind:      KindParseFailure,
		MessageID: messageID,
		Message:   fmt.Sprintf("cannot parse %s %q", what, value),
	}
}

// NewInputShape reports a batch item that is not a valid message record
func NewInputShape(index int, reason string, err error) *TriageError {
	return &TriageError{
		Kind:    KindInputShape,
		Index:   index,
		Message: fmt.Sprintf("item %d: %s", index, reason),
		Err:     err,
	}
}

// NewInvalidPriority reports a priority label outside High/Medium/Low
func NewInvalidPriority(label string) *TriageError {
	return &TriageError{
		Kind:    KindInvalidPriority,
		Message: fmt.Sprintf("invalid priority %q (want High, Medium or Low)", label),
	}
}

// IsKind reports whether err is a TriageError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var tErr *TriageError
	if errors.As(err, &tErr) {
		return tErr.Kind == kind
	}
	return false
}
