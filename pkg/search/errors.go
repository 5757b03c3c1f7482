package search

import (
	"errors"
	"fmt"
)

// Kind discriminates the error classes surfaced by the search engine.
type Kind string

const (
	// KindValidation marks malformed input (query, limit, threshold).
	// Raised before any I/O.
	KindValidation Kind = "validation_error"

	// KindCapabilityUnavailable marks a missing optional backend feature
	// (similarity search). Raised by the vector channel, absorbed by the
	// orchestrator for semantic searches.
	KindCapabilityUnavailable Kind = "capability_unavailable"

	// KindStore marks an unreachable store or a malformed store response.
	// Always fatal to the current call, never absorbed.
	KindStore Kind = "store_error"

	// KindEmbedding marks a failed embedding computation. Absorbed by the
	// vector channel as zero vector candidates.
	KindEmbedding Kind = "embedding_error"
)

// Error is the error payload surfaced to callers of the search engine.
type Error struct {
	Kind        Kind   `json:"kind"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a search *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	searchErr, ok := AsError(err)
	return ok && searchErr.Kind == kind
}

// AsError extracts a search *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var searchErr *Error
	if errors.As(err, &searchErr) {
		return searchErr, true
	}
	return nil, false
}

func newValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func newCapabilityError(message, remediation string, cause error) *Error {
	return &Error{
		Kind:        KindCapabilityUnavailable,
		Message:     message,
		Remediation: remediation,
		cause:       cause,
	}
}

func newStoreError(message string, cause error) *Error {
	return &Error{
		Kind:    KindStore,
		Message: message,
		cause:   cause,
	}
}

func newEmbeddingError(message string, cause error) *Error {
	return &Error{
		Kind:    KindEmbedding,
		Message: message,
		cause:   cause,
	}
}
