package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

// scriptedSender returns the scripted errors in order, then succeeds.
type scriptedSender struct {
	errs  []error
	calls int
}

func (s *scriptedSender) Send(ctx context.Context, req *Request) (*Response, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return testResponse("ok"), nil
}

func networkErr() error {
	return NewError(KindNetwork, "model API communication failed: network error", Metadata{Code: CodeNetwork})
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, 800*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(5))
	assert.Equal(t, time.Second, p.Delay(50))
}

func TestWithRetry(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:          3,
		InitialDelay:         10 * time.Millisecond,
		MaxDelay:             15 * time.Millisecond,
		BackoffFactor:        2,
		RetryableStatusCodes: []int{429, 500},
	}

	t.Run("retryable failure then success", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		inner := &scriptedSender{errs: []error{networkErr()}}
		resp, err := Chain(inner, WithRetry(policy, sleeper.Sleep, nil)).Send(context.Background(), &Request{})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 2, inner.calls)
		assert.Equal(t, []time.Duration{15 * time.Millisecond}, sleeper.delays)
	})

	t.Run("validation error is not retried", func(t *testing.T) {
		inner := &scriptedSender{errs: []error{
			NewError(KindValidation, "model API error: invalid message format", Metadata{Code: CodeValidation, Status: 400}),
		}}
		_, err := Chain(inner, WithRetry(policy, (&recordingSleeper{}).Sleep, nil)).Send(context.Background(), &Request{})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("listed status is still not retried", func(t *testing.T) {
		for _, e := range []error{
			NewError(KindRateLimit, "model API error: rate limit exceeded", Metadata{Code: CodeRateLimit, Status: 429}),
			NewError(KindResponse, "model API error: overloaded", Metadata{Code: CodeResponse, Status: 500}),
		} {
			inner := &scriptedSender{errs: []error{e}}
			_, err := Chain(inner, WithRetry(policy, (&recordingSleeper{}).Sleep, nil)).Send(context.Background(), &Request{})
			require.Error(t, err)
			assert.Equal(t, 1, inner.calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		inner := &scriptedSender{errs: []error{networkErr(), networkErr(), networkErr(), networkErr()}}
		_, err := Chain(inner, WithRetry(policy, sleeper.Sleep, nil)).Send(context.Background(), &Request{})
		require.Error(t, err)
		assert.Equal(t, KindNetwork, KindOf(err))
		assert.Equal(t, 3, inner.calls)
		assert.Len(t, sleeper.delays, 2)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		inner := &scriptedSender{errs: []error{networkErr(), networkErr()}}
		_, err := Chain(inner, WithRetry(policy, (&recordingSleeper{}).Sleep, nil)).Send(ctx, &Request{})
		require.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("unclassified errors are returned as is", func(t *testing.T) {
		plain := errors.New("plain")
		inner := &scriptedSender{errs: []error{plain}}
		_, err := Chain(inner, WithRetry(policy, (&recordingSleeper{}).Sleep, nil)).Send(context.Background(), &Request{})
		assert.ErrorIs(t, err, plain)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestRetryPolicy_Normalized(t *testing.T) {
	p := RetryPolicy{}.normalized()
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, p.InitialDelay)
	assert.Equal(t, DefaultMaxDelay, p.MaxDelay)
	assert.Equal(t, DefaultBackoffFactor, p.BackoffFactor)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Sender) Sender {
			return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name)
				return next.Send(ctx, req)
			})
		}
	}
	inner := SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
		order = append(order, "inner")
		return testResponse("x"), nil
	})

	_, err := Chain(inner, mark("a"), nil, mark("b")).Send(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "inner"}, order)
}
