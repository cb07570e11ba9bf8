package llm

import (
	"context"
)

// Role values accepted by the Messages API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn sent to the upstream model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body POSTed to the messages endpoint.
//
// Field order is fixed so the JSON encoding is stable; CacheKey relies on it.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
}

// Usage reports token accounting for a single call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the normalized, validated upstream reply.
type Response struct {
	ID           string  `json:"id"`
	Model        string  `json:"model"`
	Role         string  `json:"role"`
	Content      string  `json:"content"`
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
	Usage        Usage   `json:"usage"`
}

// Sender is the single call primitive every client layer shares.
// Implementations return *Error on failure.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req *Request) (*Response, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a Sender with a cross-cutting concern
// (cache, retry, rate limiting, instrumentation).
type Middleware func(Sender) Sender

// Chain applies middlewares in left-to-right order.
// Example: Chain(inner, A, B) => A(B(inner))
func Chain(inner Sender, mws ...Middleware) Sender {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}
