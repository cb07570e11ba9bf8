package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithProjectID(ctx, "proj-9")

	fields := map[string]bool{}
	for _, f := range ContextFields(ctx) {
		fields[f.Key] = true
	}
	assert.Equal(t, map[string]bool{
		"trace_id":      true,
		"span_id":       true,
		"trace_sampled": true,
		"request.id":    true,
		"project.id":    true,
	}, fields)
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, strings.Repeat("r", 500))
	assert.Len(t, RequestIDFromContext(ctx), maxIDLen)
}

func TestTestLogger_CorrelatesProject(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithProjectID(context.Background(), "proj-1")

	tl.Info(ctx, "message processed")

	tl.AssertLogged(t, zapcore.InfoLevel, "processed")
	tl.AssertField(t, "message processed", "project.id", "proj-1")
	tl.AssertNoSecrets(t)
}

func TestFromContext(t *testing.T) {
	nop := FromContext(context.Background())
	require.NotNil(t, nop)
	assert.False(t, nop.Enabled(zapcore.ErrorLevel))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))
}
