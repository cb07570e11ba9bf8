package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// Failure is the raw input to classification. Response is nil when the
// request never produced an HTTP response (dial errors, timeouts, resets).
type Failure struct {
	Err      error
	Response *RawResponse
}

// RawResponse is a non-success upstream reply. Body is nil when the body was
// absent or not a JSON object.
type RawResponse struct {
	Status int
	Body   map[string]any
}

// handler is one link of the classification chain.
type handler struct {
	name      string
	canHandle func(f *Failure) bool
	handle    func(f *Failure, now time.Time) *Error
}

// Classifier maps any failure into the fixed Kind taxonomy. Handlers run in
// order and the first match wins; the last handler always matches.
type Classifier struct {
	handlers []handler
	now      func() time.Time
}

// NewClassifier returns the standard chain:
// network, rate limit, validation, response, fallback.
func NewClassifier() *Classifier {
	return &Classifier{
		handlers: []handler{
			{name: "network", canHandle: noResponse, handle: classifyNetwork},
			{name: "rate_limit", canHandle: hasStatus(http.StatusTooManyRequests), handle: classifyRateLimit},
			{name: "validation", canHandle: hasStatus(http.StatusBadRequest), handle: classifyValidation},
			{name: "response", canHandle: hasResponse, handle: classifyResponse},
			{name: "fallback", canHandle: func(*Failure) bool { return true }, handle: classifyUnknown},
		},
		now: time.Now,
	}
}

// Classify runs the chain. It never returns nil.
func (c *Classifier) Classify(f *Failure) *Error {
	now := c.now()
	for _, h := range c.handlers {
		if h.canHandle(f) {
			e := h.handle(f, now)
			if f != nil && f.Err != nil && e.cause == nil {
				e.cause = f.Err
			}
			return e
		}
	}
	return classifyUnknown(f, now)
}

// Handler names in evaluation order, for diagnostics and tests.
func (c *Classifier) Handlers() []string {
	names := make([]string, len(c.handlers))
	for i, h := range c.handlers {
		names[i] = h.name
	}
	return names
}

func noResponse(f *Failure) bool {
	return f != nil && f.Response == nil && f.Err != nil
}

func hasResponse(f *Failure) bool {
	return f != nil && f.Response != nil
}

func hasStatus(status int) func(*Failure) bool {
	return func(f *Failure) bool {
		return hasResponse(f) && f.Response.Status == status
	}
}

func classifyNetwork(f *Failure, now time.Time) *Error {
	if isTimeout(f.Err) {
		return NewError(KindTimeout, "model API communication failed: timeout", Metadata{
			Code:      CodeTimeout,
			Timestamp: now,
		})
	}
	return NewError(KindNetwork, "model API communication failed: network error", Metadata{
		Code:      CodeNetwork,
		Timestamp: now,
	})
}

func classifyRateLimit(_ *Failure, now time.Time) *Error {
	return NewError(KindRateLimit, "model API error: rate limit exceeded", Metadata{
		Code:      CodeRateLimit,
		Status:    http.StatusTooManyRequests,
		Timestamp: now,
	})
}

func classifyValidation(f *Failure, now time.Time) *Error {
	msg := "model API error: invalid message format"
	nested := nestedMessage(f.Response.Body)
	switch {
	case strings.Contains(nested, "system prompt"):
		msg = "model API error: invalid system prompt"
	case strings.Contains(nested, "message content"):
		msg = "model API error: invalid message content"
	}
	return NewError(KindValidation, msg, Metadata{
		Code:      CodeValidation,
		Status:    http.StatusBadRequest,
		Timestamp: now,
	})
}

func classifyResponse(f *Failure, now time.Time) *Error {
	status := f.Response.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	md := Metadata{Code: CodeResponse, Status: status, Timestamp: now}

	body := f.Response.Body
	if len(body) == 0 {
		return NewError(KindResponse, "model API error: unknown error", md)
	}
	if nested := nestedMessage(body); nested != "" {
		return NewError(KindResponse, "model API error: "+nested, md)
	}
	return NewError(KindResponse, "model API error: generic error", md)
}

func classifyUnknown(_ *Failure, now time.Time) *Error {
	return NewError(KindUnknown, "model API error: unknown error", Metadata{
		Code:      CodeUnknown,
		Status:    http.StatusInternalServerError,
		Timestamp: now,
	})
}

// nestedMessage reads {error:{message}} and falls back to {type, message}.
func nestedMessage(body map[string]any) string {
	if body == nil {
		return ""
	}
	if inner, ok := body["error"].(map[string]any); ok {
		if msg, ok := inner["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if msg, ok := body["message"].(string); ok {
		return msg
	}
	return ""
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
