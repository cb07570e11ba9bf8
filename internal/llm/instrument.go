package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/docent/internal/llm"

// WithInstrumentation logs and measures every upstream attempt.
func WithInstrumentation(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Send(ctx, req)
			elapsed := time.Since(start)
			RequestDuration.Observe(elapsed.Seconds())

			fields := []zap.Field{
				zap.String("model", req.Model),
				zap.Int("messages", len(req.Messages)),
				zap.Duration("duration", elapsed),
			}

			if err != nil {
				kind := KindOf(err)
				RequestsTotal.WithLabelValues(string(kind)).Inc()
				fields = append(fields, zap.String("kind", string(kind)), zap.Error(err))
				if rateLimited(err) {
					logger.Warn("model API rate limited", fields...)
				} else {
					logger.Debug("model API call failed", fields...)
				}
				return nil, err
			}

			RequestsTotal.WithLabelValues("success").Inc()
			TokensTotal.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
			TokensTotal.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
			logger.Debug("model API call succeeded", append(fields,
				zap.String("stop_reason", resp.StopReason),
				zap.Int("input_tokens", resp.Usage.InputTokens),
				zap.Int("output_tokens", resp.Usage.OutputTokens))...)
			return resp, nil
		})
	}
}

// WithTracing wraps each logical send, cache hits and retries included, in a span.
func WithTracing(tracer trace.Tracer) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			ctx, span := tracer.Start(ctx, "llm.send")
			defer span.End()

			span.SetAttributes(
				attribute.String("llm.model", req.Model),
				attribute.Int("llm.messages", len(req.Messages)),
				attribute.Int("llm.max_tokens", req.MaxTokens),
				attribute.Bool("llm.system", req.System != ""),
			)

			resp, err := next.Send(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("llm.error_kind", string(KindOf(err))))
				return nil, err
			}
			span.SetAttributes(
				attribute.String("llm.stop_reason", resp.StopReason),
				attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
				attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
			)
			return resp, nil
		})
	}
}
