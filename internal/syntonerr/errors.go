// Package syntonerr defines the error-kind taxonomy shared by every
// SYNTON-DB component (spec §7) plus a small circuit breaker used to
// degrade gracefully when the Embedder capability is failing.
package syntonerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error without committing callers to a Go type per
// error. Handling policy is attached to the kind, not to where it's
// raised, so every layer reacts the same way.
type Kind string

const (
	// NotFound: id requested does not exist.
	NotFound Kind = "not_found"
	// DanglingEdge: edge references a missing endpoint node.
	DanglingEdge Kind = "dangling_edge"
	// DimensionMismatch: vector length != the store's configured D.
	DimensionMismatch Kind = "dimension_mismatch"
	// InvalidArgument: out-of-range weight, empty content, bad PaQL syntax.
	InvalidArgument Kind = "invalid_argument"
	// Conflict: a write would violate an invariant.
	Conflict Kind = "conflict"
	// Cancelled: cooperative cancellation via context.
	Cancelled Kind = "cancelled"
	// EmbedderUnavailable: embedder configured but failing.
	EmbedderUnavailable Kind = "embedder_unavailable"
	// Storage: C1 failure (I/O, corruption detected during read).
	Storage Kind = "storage"
	// Corrupted: invariant check failed on read; record is quarantined.
	Corrupted Kind = "corrupted"
	// RetrievalUnavailable: no seed ids and no usable vector index.
	RetrievalUnavailable Kind = "retrieval_unavailable"
)

// Error is the structured error type returned by SYNTON-DB's public API.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Offset/Expected/Found are populated only for InvalidArgument errors
	// raised by the PaQL parser (spec §4.5.1).
	Offset   int
	Expected string
	Found    string
}

func (e *Error) Error() string {
	if e.Offset > 0 || e.Expected != "" {
		return fmt.Sprintf("%s: %s (at offset %d, expected %s, found %s)",
			e.Kind, e.Message, e.Offset, e.Expected, e.Found)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is enables errors.Is(err, &Error{Kind: X}) to match by kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ParseError builds an InvalidArgument error carrying PaQL parser position
// context, per spec §4.5.1 ("Errors carry (offset, expected, found)").
func ParseError(offset int, expected, found string) *Error {
	return &Error{
		Kind:     InvalidArgument,
		Message:  "PaQL parse error",
		Offset:   offset,
		Expected: expected,
		Found:    found,
	}
}

// Of reports the Kind of err, or "" if err is not (or does not wrap) a
// *Error.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}
