package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	log := zap.NewExample()
	assert.Same(t, log, FromContext(WithContext(context.Background(), log)))
}

func TestCorrelationValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithJobID(ctx, "job-1")
	ctx = WithStatementID(ctx, "st-1")
	ctx = WithOperator(ctx, "alice")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "job-1", GetJobID(ctx))
	assert.Equal(t, "st-1", GetStatementID(ctx))
	assert.Equal(t, "alice", GetOperator(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestL_InjectsFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithContext(ctx, zap.New(core))
	ctx = WithJobID(ctx, "job-42")

	L(ctx).With(zap.String("group", "g1")).Info("Generating invoices for group 1/1")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.Equal(t, "job-42", fields["job_id"])
	assert.Equal(t, "g1", fields["group"])
	assert.NotContains(t, fields, "request_id")
	assert.Equal(t, traceID.String(), GetTraceID(ctx))
}

func TestWithLogger_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		WithLogger(context.Background(), nil).Warn("dropped")
	})
}
