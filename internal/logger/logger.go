package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// New builds the process logger.
// Kubernetes / prod / dev: JSON for log aggregation. Anywhere else: colored text.
// Every handler is wrapped so records logged with a span context carry trace_id/span_id.
func New(w io.Writer) *slog.Logger {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")

	env := os.Getenv("ENV")
	useJSON := inK8s || env == "prod" || env == "dev"

	level := ParseLevel(os.Getenv("LOG_LEVEL"), useJSON)

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	} else {
		handler = newColorTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(newTraceContextHandler(handler))
}

func NewWithServiceContext(serviceName, version string) *slog.Logger {
	return New(os.Stdout).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", os.Getenv("ENV")),
	)
}

// ParseLevel maps LOG_LEVEL values; structured output defaults to info, text to debug.
func ParseLevel(s string, structured bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if structured {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// newColorTextHandler returns a TextHandler whose WARN and ERROR lines are colored.
// The color wraps the formatted line because TextHandler quotes control characters in values.
func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(&colorWriter{w: w}, opts)
}

// colorWriter relies on TextHandler writing one record per Write call.
type colorWriter struct {
	w io.Writer
}

func (c *colorWriter) Write(p []byte) (int, error) {
	color := levelColor(p)
	if color == "" {
		return c.w.Write(p)
	}

	line := bytes.TrimSuffix(p, []byte("\n"))
	out := make([]byte, 0, len(p)+len(color)+len(colorReset))
	out = append(out, color...)
	out = append(out, line...)
	out = append(out, colorReset...)
	if len(line) < len(p) {
		out = append(out, '\n')
	}

	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// levelColor reads the first level= field, which TextHandler emits before the message.
func levelColor(line []byte) string {
	i := bytes.Index(line, []byte("level="))
	if i < 0 {
		return ""
	}
	rest := line[i+len("level="):]
	switch {
	case bytes.HasPrefix(rest, []byte("ERROR")):
		return colorRed
	case bytes.HasPrefix(rest, []byte("WARN")):
		return colorYellow
	}
	return ""
}

// traceContextHandler adds trace_id and span_id from the OTel span context
type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
