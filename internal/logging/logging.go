// Package logging configures the process-wide slog.Logger, grounded on
// the teacher's pkg/logger: a level-filtering handler that silences
// third-party library noise below debug, plus context-scoped fields
// (tenant, task, chain) threaded through request handling.
package logging

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

var defaultLogger *slog.Logger

const modulePackagePrefix = "github.com/omniforge/agentcore"

// ParseLevel converts a string log level to slog.Level. Unrecognized
// values fall back to info, matching the teacher's permissive parsing.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// filteringHandler suppresses non-module log records below debug, the
// same third-party noise reduction the teacher's logger applies.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel && h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || h.fromModule(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) fromModule(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	return strings.Contains(fn.Name(), modulePackagePrefix)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

// Init builds the process-wide logger at the given level, writing JSON
// records to output — structured, machine-parseable logs fit the
// multi-tenant service better than the teacher's terminal-colored text
// format, but the filtering-for-noise behavior is carried over as-is.
func Init(level slog.Level, output *os.File) {
	base := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	defaultLogger = slog.New(&filteringHandler{handler: base, minLevel: level})
	slog.SetDefault(defaultLogger)
}

// Logger returns the process-wide logger, initializing it at info level
// to stderr on first use if Init was never called.
func Logger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr)
	}
	return defaultLogger
}

type ctxKey string

const fieldsKey ctxKey = "logging_fields"

// WithFields attaches request-scoped fields (tenant_id, task_id,
// chain_id, …) to ctx so FromContext can recover a logger carrying them.
func WithFields(ctx context.Context, args ...any) context.Context {
	logger := FromContext(ctx).With(args...)
	return context.WithValue(ctx, fieldsKey, logger)
}

// FromContext returns the logger WithFields attached to ctx, or the
// process-wide logger if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(fieldsKey).(*slog.Logger); ok {
		return l
	}
	return Logger()
}
