// Package logging is deskflip's structured logger. It builds on log/slog
// and copies request details carried in the context onto every record.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	operationKey
	profileKey
	sourceKey
)

// contextFields maps context keys to the attribute names they log under.
var contextFields = []struct {
	key  ctxKey
	attr string
}{
	{correlationKey, "correlation_id"},
	{operationKey, "operation"},
	{profileKey, "profile_id"},
	{sourceKey, "source"},
}

// Level is a configured log level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format is a log encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatText, Output: os.Stderr}
}

// Logger is a slog.Logger whose level can be raised or lowered at runtime.
// Loggers derived with With share the level.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

var defaultLogger = sync.OnceValue(func() *Logger { return New(DefaultConfig()) })

// Default returns the process-wide logger used when none is injected.
func Default() *Logger {
	return defaultLogger()
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Config{Output: io.Discard})
}

// New builds a logger from cfg.
func New(cfg Config) *Logger {
	level := new(slog.LevelVar)
	level.Set(cfg.Level.slogLevel())

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if cfg.Format == FormatJSON {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}

	return &Logger{Logger: slog.New(contextHandler{base}), level: level}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the level of l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slogLevel())
}

// With returns a child logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// contextHandler adds the request fields found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, f := range contextFields {
			if v := ctx.Value(f.key); v != nil {
				r.AddAttrs(slog.Any(f.attr, v))
			}
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// WithCorrelationID tags ctx with a request correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// WithOperation tags ctx with the workspace operation being run.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// WithProfileID tags ctx with the target profile.
func WithProfileID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, profileKey, id)
}

// WithSource records where a request came from: cli, api, hotkey or scheduler.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// CorrelationID returns the correlation id in ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// Source returns the request origin in ctx, if any.
func Source(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey).(string)
	return s
}

// LogOperationStart logs the start of a workspace operation.
func LogOperationStart(ctx context.Context, logger *Logger, op string, fromID, toID int) {
	logger.InfoContext(ctx, "workspace operation started", "op", op, "from", fromID, "to", toID)
}

// LogOperationComplete logs a finished workspace operation.
func LogOperationComplete(ctx context.Context, logger *Logger, op string, duration time.Duration, warnings int) {
	logger.InfoContext(ctx, "workspace operation completed",
		"op", op, "duration_ms", duration.Milliseconds(), "warnings", warnings)
}

// LogOperationFailed logs a failed workspace operation.
func LogOperationFailed(ctx context.Context, logger *Logger, op string, err error, duration time.Duration) {
	logger.ErrorContext(ctx, "workspace operation failed",
		"op", op, "error", err.Error(), "duration_ms", duration.Milliseconds())
}

// LogStepSkipped logs a best-effort step whose failure was tolerated.
func LogStepSkipped(ctx context.Context, logger *Logger, step string, err error) {
	logger.WarnContext(ctx, "best-effort step failed", "step", step, "error", err.Error())
}

// LogShellRetry logs a poll of the desktop shell that has not settled yet.
func LogShellRetry(ctx context.Context, logger *Logger, what string, next time.Duration) {
	logger.DebugContext(ctx, "waiting for shell", "what", what, "next_ms", next.Milliseconds())
}
