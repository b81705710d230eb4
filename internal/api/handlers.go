// ABOUTME: HTTP handlers for hikmaai-censor API endpoints
// ABOUTME: Provides value masking, document censoring, schema listing and journal access

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/engine"
	"github.com/hikmaai-io/hikmaai-censor/internal/journal"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultListLimit    = 50
	maxListLimit        = 1000
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	engine       *engine.Engine
	logger       *slog.Logger
	audit        *observability.AuditLogger
	limiter      *RateLimiter
	maxBodyBytes int64
	version      string
	started      time.Time
}

// HandlerConfig holds configuration for API handlers.
type HandlerConfig struct {
	Engine *engine.Engine
	Logger *slog.Logger
	Audit  *observability.AuditLogger

	// RateLimit is the sustained requests per second allowed on write
	// endpoints. Zero disables rate limiting.
	RateLimit float64
	Burst     int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// Version is reported by the health endpoint.
	Version string
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = observability.NewAuditLogger(cfg.Logger)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	h := &Handler{
		engine:       cfg.Engine,
		logger:       cfg.Logger,
		audit:        cfg.Audit,
		maxBodyBytes: cfg.MaxBodyBytes,
		version:      cfg.Version,
		started:      time.Now(),
	}
	if cfg.RateLimit > 0 {
		h.limiter = NewRateLimiter(cfg.RateLimit, cfg.Burst, cfg.Audit)
	}
	return h
}

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(observability.CorrelationMiddleware)
	r.Use(LoggingMiddleware(h.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/metrics", h.HandleMetrics)
		r.Get("/patterns", h.HandlePatterns)
		r.Get("/fields", h.HandleFields)

		r.Group(func(g chi.Router) {
			if h.limiter != nil {
				g.Use(h.limiter.Middleware)
			}
			g.Post("/mask", h.HandleMask)
			g.Post("/censor", h.HandleCensor)
		})

		r.Get("/records", h.HandleListRecords)
		r.Get("/records/{id}", h.HandleGetRecord)
		r.Delete("/records/{id}", h.HandleDeleteRecord)
	})

	return r
}

// MaskRequest is the body of POST /api/v1/mask.
type MaskRequest struct {
	Value     string `json:"value"`
	Pattern   string `json:"pattern,omitempty"`
	Builtin   string `json:"builtin,omitempty"`
	Character string `json:"character,omitempty"`
}

// MaskResponse is the reply to POST /api/v1/mask.
type MaskResponse struct {
	Status string `json:"status"`
	Value  string `json:"value"`
	Error  string `json:"error,omitempty"`
}

// HandleMask masks a single value.
// POST /api/v1/mask
func (h *Handler) HandleMask(w http.ResponseWriter, r *http.Request) {
	var req MaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	pattern, err := censor.ResolvePattern(req.Pattern, req.Builtin)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	char, err := censor.ParseMaskingCharacter(req.Character)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.engine.MaskValue(r.Context(), req.Value, pattern, char)
	resp := MaskResponse{
		Status: res.Status.String(),
		Value:  res.String(),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}

	// A masking error is a valid outcome, reported in the body.
	writeJSON(w, http.StatusOK, resp)
}

// CensorResponse is the reply to POST /api/v1/censor.
type CensorResponse struct {
	Document   json.RawMessage `json:"document"`
	Masked     int             `json:"masked"`
	Failed     int             `json:"failed"`
	RecordID   string          `json:"record_id,omitempty"`
	DurationMs float64         `json:"duration_ms"`
}

// HandleCensor censors the JSON document in the request body. The optional
// source query parameter labels the document in metrics and the journal.
// POST /api/v1/censor
func (h *Handler) HandleCensor(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}

	out, err := h.engine.CensorDocument(r.Context(), source, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CensorResponse{
		Document:   out.Document,
		Masked:     out.Report.Masked,
		Failed:     out.Report.Failed,
		RecordID:   out.RecordID,
		DurationMs: float64(out.Duration.Microseconds()) / 1000,
	})
}

// HandlePatterns lists the predefined patterns.
// GET /api/v1/patterns
func (h *Handler) HandlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": censor.Builtins(),
	})
}

// FieldInfo describes one registered field.
type FieldInfo struct {
	Field     string `json:"field"`
	Type      string `json:"type,omitempty"`
	Pattern   string `json:"pattern"`
	Character string `json:"character"`
}

// HandleFields lists the registered fields.
// GET /api/v1/fields
func (h *Handler) HandleFields(w http.ResponseWriter, r *http.Request) {
	strategies := h.engine.Registry().Strategies()
	fields := make([]FieldInfo, 0, len(strategies))
	for _, s := range strategies {
		fields = append(fields, FieldInfo{
			Field:     s.Field(),
			Type:      s.Type(),
			Pattern:   s.Pattern(),
			Character: string(s.MaskingCharacter()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields": fields,
	})
}

// HandleListRecords lists journal records, newest first.
// GET /api/v1/records?limit=N
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := h.engine.Records(r.Context(), limit)
	if err != nil {
		h.writeRecordError(w, err)
		return
	}
	if records == nil {
		records = []*journal.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// HandleGetRecord returns one journal record.
// GET /api/v1/records/{id}
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.Record(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDeleteRecord removes one journal record.
// DELETE /api/v1/records/{id}
func (h *Handler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeRecordError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeRecordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrJournalDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, journal.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("journal access failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "journal access failed")
	}
}

// HandleHealth handles health check requests.
// GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := make(map[string]any)

	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		status = "degraded"
		checks["engine"] = "error: " + err.Error()
	} else {
		checks["engine"] = map[string]any{
			"fields": stats.Registry.Index.Fields,
		}
		if h.engine.HasJournal() {
			checks["journal"] = map[string]any{
				"records": stats.Records,
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"version":   h.version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// HandleMetrics returns engine statistics.
// GET /api/v1/metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
