package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o wait exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fixedClassifier(now time.Time) *Classifier {
	c := NewClassifier()
	c.now = func() time.Time { return now }
	return c
}

func TestClassifier_Order(t *testing.T) {
	assert.Equal(t, []string{"network", "rate_limit", "validation", "response", "fallback"}, NewClassifier().Handlers())
}

func TestClassifier_Network(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := fixedClassifier(now)

	tests := []struct {
		name string
		err  error
		kind Kind
		code string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, kind: KindTimeout, code: CodeTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), kind: KindTimeout, code: CodeTimeout},
		{name: "net timeout", err: timeoutErr{}, kind: KindTimeout, code: CodeTimeout},
		{name: "timeout in message", err: errors.New("read tcp: Timeout while reading"), kind: KindTimeout, code: CodeTimeout},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), kind: KindNetwork, code: CodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&Failure{Err: tt.err})
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.code, got.Metadata.Code)
			assert.Equal(t, now, got.Metadata.Timestamp)
			assert.Zero(t, got.Metadata.Status)
			assert.True(t, got.Retryable())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifier_RateLimit(t *testing.T) {
	c := NewClassifier()

	for _, body := range []map[string]any{nil, {}, {"error": map[string]any{"message": "slow down"}}} {
		got := c.Classify(&Failure{Response: &RawResponse{Status: http.StatusTooManyRequests, Body: body}})
		assert.Equal(t, KindRateLimit, got.Kind)
		assert.Equal(t, CodeRateLimit, got.Metadata.Code)
		assert.Equal(t, http.StatusTooManyRequests, got.Metadata.Status)
		assert.False(t, got.Retryable())
	}
}

func TestClassifier_Validation(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "system prompt",
			body: map[string]any{"error": map[string]any{"message": "invalid system prompt supplied"}},
			want: "model API error: invalid system prompt",
		},
		{
			name: "message content",
			body: map[string]any{"error": map[string]any{"message": "message content must not be empty"}},
			want: "model API error: invalid message content",
		},
		{
			name: "flat message body",
			body: map[string]any{"type": "invalid_request_error", "message": "bad system prompt"},
			want: "model API error: invalid system prompt",
		},
		{
			name: "other",
			body: map[string]any{"error": map[string]any{"message": "max_tokens too large"}},
			want: "model API error: invalid message format",
		},
		{
			name: "no body",
			want: "model API error: invalid message format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&Failure{Response: &RawResponse{Status: http.StatusBadRequest, Body: tt.body}})
			assert.Equal(t, KindValidation, got.Kind)
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, CodeValidation, got.Metadata.Code)
			assert.Equal(t, http.StatusBadRequest, got.Metadata.Status)
		})
	}
}

func TestClassifier_Response(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   string
	}{
		{name: "nested message", status: 500, body: map[string]any{"error": map[string]any{"message": "overloaded"}}, want: "model API error: overloaded"},
		{name: "flat message", status: 503, body: map[string]any{"type": "error", "message": "unavailable"}, want: "model API error: unavailable"},
		{name: "empty body", status: 502, want: "model API error: unknown error"},
		{name: "unrecognized body", status: 500, body: map[string]any{"detail": "x"}, want: "model API error: generic error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&Failure{Response: &RawResponse{Status: tt.status, Body: tt.body}})
			assert.Equal(t, KindResponse, got.Kind)
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, CodeResponse, got.Metadata.Code)
			assert.Equal(t, tt.status, got.Metadata.Status)
			assert.False(t, got.Retryable())
		})
	}

	t.Run("missing status defaults to 500", func(t *testing.T) {
		got := c.Classify(&Failure{Response: &RawResponse{}})
		assert.Equal(t, http.StatusInternalServerError, got.Metadata.Status)
	})
}

func TestClassifier_Fallback(t *testing.T) {
	got := NewClassifier().Classify(nil)
	require.NotNil(t, got)
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, CodeUnknown, got.Metadata.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Metadata.Status)

	got = NewClassifier().Classify(&Failure{})
	assert.Equal(t, KindUnknown, got.Kind)
}

func TestKindOf(t *testing.T) {
	e := NewError(KindRateLimit, "limited", Metadata{Code: CodeRateLimit})
	assert.Equal(t, KindRateLimit, KindOf(fmt.Errorf("wrapped: %w", e)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	got, ok := AsError(fmt.Errorf("wrapped: %w", e))
	require.True(t, ok)
	assert.Same(t, e, got)
}
