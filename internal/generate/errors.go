// Package generate decodes and validates replies from the generation
// service and classifies failures for the retry loop.
package generate

import (
	"errors"
	"fmt"

	"github.com/ppiankov/infodemic/internal/llm"
)

// TransportError is a failed exchange with the generation service:
// unreachable host, non-success status or timeout.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error from %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedGenerationError is a reply that does not match the required JSON shape
type MalformedGenerationError struct {
	Stage  string // "envelope" or "content"
	Reason string
	Err    error
}

func (e *MalformedGenerationError) Error() string {
	msg := fmt.Sprintf("malformed generation (%s): %s", e.Stage, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedGenerationError) Unwrap() error { return e.Err }

func malformed(reason string, err error) *MalformedGenerationError {
	return &MalformedGenerationError{Stage: "content", Reason: reason, Err: err}
}

// GenerationFailedError is terminal: every attempt of a cycle failed
type GenerationFailedError struct {
	Operation   string // "event" or "scoring"
	EventTypeID int64
	EventID     int64
	Attempts    int
	Last        error
}

func (e *GenerationFailedError) Error() string {
	subject := fmt.Sprintf("event type %d", e.EventTypeID)
	if e.EventID > 0 {
		subject = fmt.Sprintf("event %d", e.EventID)
	}
	return fmt.Sprintf("%s generation failed for %s after %d attempts: %v", e.Operation, subject, e.Attempts, e.Last)
}

func (e *GenerationFailedError) Unwrap() error { return e.Last }

// Classify maps a provider error onto the retry taxonomy
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, llm.ErrMalformedResponse) {
		return &MalformedGenerationError{Stage: "envelope", Reason: "unreadable provider reply", Err: err}
	}
	return &TransportError{Provider: provider, Err: err}
}

// IsRetryable reports whether err should re-run the generation cycle
func IsRetryable(err error) bool {
	var transport *TransportError
	var bad *MalformedGenerationError
	return errors.As(err, &transport) || errors.As(err, &bad)
}
