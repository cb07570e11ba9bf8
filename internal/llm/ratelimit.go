package llm

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig throttles upstream attempts. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// WithRateLimit waits for a token before each upstream attempt. It returns
// nil when limiting is disabled so Chain skips it.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				// Wait fails only when ctx ends or cannot be satisfied in time.
				return nil, NewError(KindTimeout, "model API communication failed: timeout", Metadata{
					Code:      CodeTimeout,
					Timestamp: time.Now(),
				}).WithCause(err)
			}
			return next.Send(ctx, req)
		})
	}
}

// rateLimited reports whether err is a classified upstream rate limit.
func rateLimited(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindRateLimit && e.Metadata.Status == http.StatusTooManyRequests
}
