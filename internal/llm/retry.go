package llm

import (
	"context"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
)

// Retry defaults.
const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = time.Second
	DefaultMaxDelay      = 10 * time.Second
	DefaultBackoffFactor = 2.0
)

// RetryPolicy controls how failed upstream attempts are repeated.
//
// Only failures where no HTTP response was received are retried.
// RetryableStatusCodes is advisory: a failure that carries an HTTP status
// is raised on first occurrence even when the status is listed.
type RetryPolicy struct {
	MaxAttempts          int
	InitialDelay         time.Duration
	MaxDelay             time.Duration
	BackoffFactor        float64
	RetryableStatusCodes []int
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:          DefaultMaxAttempts,
		InitialDelay:         DefaultInitialDelay,
		MaxDelay:             DefaultMaxDelay,
		BackoffFactor:        DefaultBackoffFactor,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = DefaultBackoffFactor
	}
	return p
}

// Delay returns the wait before attempt n (n >= 2):
// min(InitialDelay * BackoffFactor^(n-1), MaxDelay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	d := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if d >= float64(p.MaxDelay) || math.IsInf(d, 1) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRetry repeats retryable failures according to policy. The last
// classified error is returned when attempts are exhausted.
func WithRetry(policy RetryPolicy, sleep Sleeper, logger *zap.Logger) Middleware {
	policy = policy.normalized()
	if sleep == nil {
		sleep = sleepContext
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			var lastErr error
			for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
				if attempt > 1 {
					delay := policy.Delay(attempt)
					logger.Debug("retrying model API call",
						zap.Int("attempt", attempt),
						zap.Duration("delay", delay),
						zap.Error(lastErr))
					if err := sleep(ctx, delay); err != nil {
						return nil, lastErr
					}
					RetriesTotal.Inc()
				}

				resp, err := next.Send(ctx, req)
				if err == nil {
					return resp, nil
				}
				lastErr = err

				classified, ok := AsError(err)
				if !ok || !classified.Retryable() {
					if ok && slices.Contains(policy.RetryableStatusCodes, classified.Metadata.Status) {
						logger.Debug("status listed as retryable but a response was received; not retrying",
							zap.Int("status", classified.Metadata.Status))
					}
					return nil, err
				}
			}
			return nil, lastErr
		})
	}
}
