// ABOUTME: Structured logging with slog for Loki compatibility
// ABOUTME: JSON or text output with service metadata, trace IDs and attribute redaction

package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggingConfig holds configuration for structured logging.
type LoggingConfig struct {
	// Log level: debug, info, warn, error.
	Level string

	// Output format: json or text.
	Format string

	// Service name to include in logs.
	ServiceName string

	// Service version to include in logs.
	Version string

	// Include source location in logs.
	AddSource bool

	// Redactor masks sensitive attributes before they are written.
	// Nil disables attribute redaction.
	Redactor *Redactor
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	if cfg.Redactor != nil {
		opts.ReplaceAttr = cfg.Redactor.ReplaceAttr
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}

// ParseLogLevel parses a log level string into a slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogWithContext logs a message with the trace and correlation IDs found in ctx.
func LogWithContext(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, args ...any) {
	if traceID := ExtractTraceID(ctx); traceID != "" {
		args = append(args, slog.String("trace_id", traceID))
	}
	if spanID := ExtractSpanID(ctx); spanID != "" {
		args = append(args, slog.String("span_id", spanID))
	}
	if id := FromContext(ctx); id != "" {
		args = append(args, slog.String("correlation_id", id.String()))
	}

	logger.Log(ctx, level, msg, args...)
}

// ContextLogger wraps a logger to automatically extract request context.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger creates a new context-aware logger.
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextLogger{logger: logger}
}

// Debug logs a debug message with request context.
func (cl *ContextLogger) Debug(ctx context.Context, msg string, args ...any) {
	LogWithContext(ctx, cl.logger, slog.LevelDebug, msg, args...)
}

// Info logs an info message with request context.
func (cl *ContextLogger) Info(ctx context.Context, msg string, args ...any) {
	LogWithContext(ctx, cl.logger, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message with request context.
func (cl *ContextLogger) Warn(ctx context.Context, msg string, args ...any) {
	LogWithContext(ctx, cl.logger, slog.LevelWarn, msg, args...)
}

// Error logs an error message with request context.
func (cl *ContextLogger) Error(ctx context.Context, msg string, args ...any) {
	LogWithContext(ctx, cl.logger, slog.LevelError, msg, args...)
}

// With returns a new logger with the given attributes.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{logger: cl.logger.With(args...)}
}

// Logger returns the underlying slog.Logger.
func (cl *ContextLogger) Logger() *slog.Logger {
	return cl.logger
}
