// ABOUTME: Censoring engine tying the field registry, mapper and journal together
// ABOUTME: Adds tracing, metrics, audit events and structured failure logging

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/journal"
	"github.com/hikmaai-io/hikmaai-censor/internal/mapper"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
	"github.com/hikmaai-io/hikmaai-censor/internal/schema"
)

// ErrJournalDisabled is returned by record operations when no journal is configured.
var ErrJournalDisabled = errors.New("journal is disabled")

// Config holds the engine's collaborators. Only Registry is required;
// without a Journal censored documents are not recorded.
type Config struct {
	Registry *schema.Registry
	Journal  *journal.Store
	Metrics  *observability.CensorMetrics
	Audit    *observability.AuditLogger
	Logger   *slog.Logger

	// PatternCache backs ad-hoc MaskValue calls.
	PatternCache *censor.PatternCache

	// MaskingCharacter is used by MaskValue when the caller gives none.
	MaskingCharacter rune
}

// Outcome is the result of censoring one document.
type Outcome struct {
	Document json.RawMessage `json:"document"`
	Report   mapper.Report   `json:"report"`
	RecordID string          `json:"record_id,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Stats contains engine statistics.
type Stats struct {
	Metrics  *observability.MetricsSnapshot      `json:"metrics"`
	Latency  observability.LatencyPercentiles     `json:"latency"`
	Sources  map[string]*observability.SourceStat `json:"sources"`
	Registry schema.RegistryStats                 `json:"registry"`
	Records  int64                                `json:"records"`
}

// Engine censors documents against a fixed registry. It is safe for
// concurrent use.
type Engine struct {
	registry *schema.Registry
	mapper   *mapper.Mapper
	journal  *journal.Store
	metrics  *observability.CensorMetrics
	audit    *observability.AuditLogger
	logger   *observability.ContextLogger
	cache    *censor.PatternCache
	char     rune
}

// New creates an engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine requires a field registry")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewCensorMetrics()
	}
	if cfg.Audit == nil {
		cfg.Audit = observability.NewAuditLogger(cfg.Logger)
	}
	if cfg.PatternCache == nil {
		cfg.PatternCache = censor.NewPatternCache()
	}
	if cfg.MaskingCharacter == 0 {
		cfg.MaskingCharacter = censor.DefaultMaskingCharacter
	}

	return &Engine{
		registry: cfg.Registry,
		mapper:   mapper.New(mapper.WithRegistry(cfg.Registry)),
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		logger:   observability.NewContextLogger(cfg.Logger).With(slog.String("component", "engine")),
		cache:    cfg.PatternCache,
		char:     cfg.MaskingCharacter,
	}, nil
}

// Close closes the journal, if any.
func (e *Engine) Close() error {
	if e.journal == nil {
		return nil
	}
	return e.journal.Close()
}

// Registry returns the field registry.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Mapper returns the masking mapper built on the registry.
func (e *Engine) Mapper() *mapper.Mapper {
	return e.mapper
}

// Metrics returns the metrics collector.
func (e *Engine) Metrics() *observability.CensorMetrics {
	return e.metrics
}

// HasJournal reports whether censored documents are recorded.
func (e *Engine) HasJournal() bool {
	return e.journal != nil
}

// CensorDocument masks the registered fields of a raw JSON document and,
// when a journal is configured, records the censored form. Masking failures
// do not fail the call; they are reported in Outcome.Report.
func (e *Engine) CensorDocument(ctx context.Context, source string, doc []byte) (*Outcome, error) {
	ctx, span := observability.StartSpan(ctx, "engine.CensorDocument",
		trace.WithAttributes(attribute.String("censor.source", source)),
	)
	defer span.End()

	e.metrics.IncrementActive()
	defer e.metrics.DecrementActive()

	start := time.Now()

	out, report, err := e.mapper.Censor(doc)
	if err != nil {
		e.metrics.RecordDocumentFailure()
		ec := observability.NewErrorContext(observability.CodeInvalidDocument, observability.CategoryUserError, "censor_document").
			WithError(err)
		e.logger.Warn(ctx, "document rejected", slog.String("source", source), slog.Any("error", ec))
		observability.RecordSpanError(span, err)
		return nil, err
	}

	for _, f := range report.Fields {
		if f.Status != censor.StatusError {
			continue
		}
		e.logger.Warn(ctx, "field masking failed",
			slog.String("source", source),
			slog.Any("error", observability.NewMaskingErrorContext("censor_document", f.Field, f.Err)),
		)
	}

	outcome := &Outcome{
		Document: out,
		Report:   report,
	}

	if e.journal != nil {
		rec := &journal.Record{
			Source:        source,
			Document:      out,
			Masked:        report.Masked,
			Failed:        report.Failed,
			CorrelationID: observability.FromContext(ctx).String(),
		}
		if err := e.journal.Put(ctx, rec); err != nil {
			ec := observability.NewErrorContext(observability.CodeJournalFailure, observability.CategoryTransient, "journal_put").
				WithError(err)
			e.logger.Error(ctx, "failed to record document", slog.Any("error", ec))
			observability.RecordSpanError(span, err)
			return nil, fmt.Errorf("failed to record document: %w", err)
		}
		e.metrics.RecordStored()
		outcome.RecordID = rec.ID
	}

	outcome.Duration = time.Since(start)
	e.metrics.RecordDocument(source, outcome.Duration, report.Masked, report.Failed, report.PassThrough)
	e.audit.LogCensor(ctx, source, outcome.RecordID, report.Masked, report.Failed)

	span.SetAttributes(
		attribute.Int("censor.fields_masked", report.Masked),
		attribute.Int("censor.fields_failed", report.Failed),
	)

	e.logger.Debug(ctx, "document censored",
		slog.String("source", source),
		slog.Int("masked", report.Masked),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", outcome.Duration),
	)

	return outcome, nil
}

// MaskValue masks a single value with an ad-hoc pattern. A zero char
// selects the engine's masking character.
func (e *Engine) MaskValue(ctx context.Context, value, pattern string, char rune) censor.Result {
	_, span := observability.StartSpan(ctx, "engine.MaskValue")
	defer span.End()

	if char == 0 {
		char = e.char
	}
	c := censor.New(
		censor.WithMaskingCharacter(char),
		censor.WithPatternCache(e.cache),
		censor.WithLogger(e.logger.Logger()),
	)

	res := c.Process(value, pattern)
	if res.Status != censor.StatusPassThrough {
		e.metrics.RecordValue(res.OK())
	}
	if res.Err != nil {
		observability.RecordSpanError(span, res.Err)
	}
	return res
}

// Record returns a journal record by ID.
func (e *Engine) Record(ctx context.Context, id string) (*journal.Record, error) {
	if e.journal == nil {
		return nil, ErrJournalDisabled
	}
	rec, err := e.journal.Get(ctx, id)
	e.audit.LogRecordAccess(ctx, id, err == nil)
	return rec, err
}

// Records lists up to limit journal records, newest first.
func (e *Engine) Records(ctx context.Context, limit int) ([]*journal.Record, error) {
	if e.journal == nil {
		return nil, ErrJournalDisabled
	}
	return e.journal.List(ctx, limit)
}

// DeleteRecord removes a journal record.
func (e *Engine) DeleteRecord(ctx context.Context, id string) error {
	if e.journal == nil {
		return ErrJournalDisabled
	}
	if err := e.journal.Delete(ctx, id); err != nil {
		return err
	}
	e.audit.LogRecordDelete(ctx, id)
	return nil
}

// Stats returns a snapshot of engine statistics.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Metrics:  e.metrics.Snapshot(),
		Latency:  e.metrics.LatencyPercentiles(),
		Sources:  e.metrics.SourceStats(),
		Registry: e.registry.Stats(),
	}
	if e.journal != nil {
		n, err := e.journal.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
		stats.Records = n
	}
	return stats, nil
}
