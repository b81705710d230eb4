// ABOUTME: Audit logging system for security event tracking
// ABOUTME: Records censor requests, journal access, and rate limit denials

package observability

import (
	"context"
	"log/slog"
	"time"
)

// Audit event type constants.
const (
	EventTypeCensor = "CENSOR"
	EventTypeAccess = "ACCESS"
	EventTypeRecord = "RECORD"
)

// Audit action constants.
const (
	ActionCreate = "CREATE"
	ActionRead   = "READ"
	ActionDelete = "DELETE"
)

// Audit result constants.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDenied  = "denied"
)

// AuditLogger provides structured audit logging for security events.
// Audit events never carry field values, only field counts and identifiers.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

// LogCensor logs a censored document. A document with failed fields is
// reported as a failure.
func (a *AuditLogger) LogCensor(ctx context.Context, source, recordID string, masked, failed int) {
	result := ResultSuccess
	if failed > 0 {
		result = ResultFailure
	}

	a.logger.InfoContext(ctx, "audit_event",
		slog.String("event_type", EventTypeCensor),
		slog.String("action", ActionCreate),
		slog.String("source", source),
		slog.String("resource", recordID),
		slog.Int("fields_masked", masked),
		slog.Int("fields_failed", failed),
		slog.String("result", result),
		slog.String("correlation_id", string(FromContext(ctx))),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogRecordAccess logs a read of a journal record.
func (a *AuditLogger) LogRecordAccess(ctx context.Context, recordID string, found bool) {
	result := ResultSuccess
	if !found {
		result = ResultFailure
	}

	a.logger.InfoContext(ctx, "audit_event",
		slog.String("event_type", EventTypeRecord),
		slog.String("action", ActionRead),
		slog.String("resource", recordID),
		slog.String("result", result),
		slog.String("correlation_id", string(FromContext(ctx))),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogRecordDelete logs the removal of a journal record.
func (a *AuditLogger) LogRecordDelete(ctx context.Context, recordID string) {
	a.logger.InfoContext(ctx, "audit_event",
		slog.String("event_type", EventTypeRecord),
		slog.String("action", ActionDelete),
		slog.String("resource", recordID),
		slog.String("result", ResultSuccess),
		slog.String("correlation_id", string(FromContext(ctx))),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogRateLimitViolation logs a rate limit violation event.
func (a *AuditLogger) LogRateLimitViolation(ctx context.Context, client, endpoint string, limit float64) {
	a.logger.WarnContext(ctx, "audit_event",
		slog.String("event_type", EventTypeAccess),
		slog.String("action", ActionRead),
		slog.String("client", client),
		slog.String("resource", endpoint),
		slog.String("result", ResultDenied),
		slog.String("reason", "rate_limit_exceeded"),
		slog.Float64("limit", limit),
		slog.String("correlation_id", string(FromContext(ctx))),
		slog.Time("timestamp", time.Now().UTC()),
	)
}
