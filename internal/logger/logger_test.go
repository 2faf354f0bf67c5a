package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN", true))
	assert.Equal(t, slog.LevelError, ParseLevel(" error ", false))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", true))
	assert.Equal(t, slog.LevelDebug, ParseLevel("nonsense", false))
}

func TestTraceContextHandler_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", record["span_id"])
}

func TestTraceContextHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("plain")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, "trace_id")
}

func TestColorTextHandler_ColorsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newColorTextHandler(&buf, nil))

	log.Error("failed")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, colorRed), out)
	assert.True(t, strings.HasSuffix(out, colorReset+"\n"), out)
	assert.Contains(t, out, "msg=failed")
	assert.NotContains(t, out, `\x1b`)

	buf.Reset()
	log.With("component", "db").Warn("slow query")
	out = buf.String()
	assert.True(t, strings.HasPrefix(out, colorYellow), out)
	assert.Contains(t, out, "component=db")

	buf.Reset()
	log.Info("fine")
	assert.NotContains(t, buf.String(), colorReset)
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, colorRed, levelColor([]byte("time=now level=ERROR msg=x")))
	assert.Equal(t, colorYellow, levelColor([]byte("level=WARN msg=x")))
	assert.Equal(t, "", levelColor([]byte("level=INFO msg=\"level=ERROR\"")))
	assert.Equal(t, "", levelColor([]byte("no level here")))
}
