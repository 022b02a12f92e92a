package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("desktop", zap.New(core))
	t.Cleanup(tracer.Close)
	return tracer, logs
}

func TestStartSpanStartsTrace(t *testing.T) {
	tracer, _ := newObservedTracer(t)

	span, ctx := tracer.StartSpan(context.Background(), "root")

	assert.True(t, strings.HasPrefix(string(span.TraceID), "req_"))
	assert.NotEqual(t, string(span.TraceID), string(span.SpanID))
	assert.Empty(t, span.ParentID)
	assert.Equal(t, "desktop", span.Service)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))
}

func TestChildSpanContinuesTrace(t *testing.T) {
	tracer, _ := newObservedTracer(t)

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, childCtx := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
}

func TestSubmitExportsToLog(t *testing.T) {
	tracer, logs := newObservedTracer(t)

	ctx := ContextWithTrace(context.Background(), "trace-1", "")
	ok, _ := tracer.StartSpan(ctx, "ok")
	ok.SetTag("app_id", "notes")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(ctx, "failed")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "span completed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "ok", fields["operation"])
	assert.Equal(t, "notes", fields["app_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	tracer, logs := newObservedTracer(t)
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	span.Finish()
	assert.NotPanics(t, func() { tracer.Submit(span) })
	assert.NotPanics(t, tracer.Close)
	assert.Zero(t, logs.Len())
}

func TestNilTracerStillPropagates(t *testing.T) {
	var tracer *Tracer

	ctx := ContextWithTrace(context.Background(), "trace-1", "span-1")
	span, childCtx := tracer.StartSpan(ctx, "op")
	span.Finish()

	assert.Equal(t, TraceID("trace-1"), span.TraceID)
	assert.Equal(t, SpanID("span-1"), span.ParentID)
	assert.Equal(t, span.SpanID, GetSpanID(childCtx))
	assert.NotPanics(t, func() { tracer.Submit(span) })
	assert.NotPanics(t, tracer.Close)
}
