package llm

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the fixed taxonomy every upstream failure is mapped into.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindRateLimit  Kind = "rate_limit"
	KindValidation Kind = "validation"
	KindResponse   Kind = "response"
	KindUnknown    Kind = "unknown"
)

// Error codes carried in Metadata.Code.
const (
	CodeNetwork         = "NETWORK_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeRateLimit       = "RATE_LIMIT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeResponse        = "RESPONSE_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// Metadata describes where a classified error came from.
type Metadata struct {
	Code      string    `json:"code,omitempty"`
	Status    int       `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Error is a classified upstream failure. The model client never returns
// raw transport errors; callers switch on Kind.
type Error struct {
	Kind     Kind
	Message  string
	Metadata Metadata

	cause error
}

// NewError builds a classified error.
func NewError(kind Kind, message string, md Metadata) *Error {
	return &Error{Kind: kind, Message: message, Metadata: md}
}

// WithCause attaches the underlying error for errors.Is/As.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the failure happened before any HTTP response
// was received. Only those are retried.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

// AsError extracts a classified error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of a classified error, or KindUnknown.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}
