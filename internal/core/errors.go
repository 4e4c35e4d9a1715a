package core

import (
	"errors"
)

// Kind classifies a failed question at the application boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindUnavailable
	KindNoCollections
	KindDownstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	case KindNoCollections:
		return "no_collections"
	case KindDownstream:
		return "downstream"
	default:
		return "unknown"
	}
}

// Client-facing messages.
const (
	MsgMissingFields = "password and query are required"
	MsgWrongPassword = "wrong password"
	MsgNotReady      = "LLM or ArangoDB graph not initialized properly"
	MsgNoCollections = "no catalog collections are relevant to the question"
)

var (
	// ErrNotReady means the model or the graph schema failed to initialize.
	ErrNotReady = errors.New(MsgNotReady)
	// ErrNoCollections means the selector chose nothing usable.
	ErrNoCollections = errors.New(MsgNoCollections)
)

// Error is a classified failure of the ask path. Query is set for kinds
// raised after the question was accepted.
type Error struct {
	Kind  Kind
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, query string, err error) *Error {
	return &Error{Kind: kind, Query: query, Err: err}
}

// KindOf returns the kind of err, or KindDownstream for unclassified errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindDownstream
}
