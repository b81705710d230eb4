// ABOUTME: NATS message handler for censor requests
// ABOUTME: Censors documents or masks single values and builds replies

package queue

import (
	"context"
	"time"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/engine"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
)

// DefaultSource labels documents received over NATS.
const DefaultSource = "nats"

// Handler processes censor requests using the engine.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new message handler.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{
		engine: eng,
	}
}

// ProcessRequest processes a single request and returns the response.
// The request ID doubles as the correlation ID and is generated when absent.
func (h *Handler) ProcessRequest(ctx context.Context, req CensorRequest) CensorResponse {
	start := time.Now()
	ctx, id := observability.EnsureCorrelationID(ctx, req.RequestID)

	resp := CensorResponse{RequestID: id.String()}
	if len(req.Document) > 0 {
		h.censorDocument(ctx, req, &resp)
	} else {
		h.maskValue(ctx, req, &resp)
	}

	resp.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	resp.CensoredAt = time.Now().UTC()
	return resp
}

func (h *Handler) censorDocument(ctx context.Context, req CensorRequest, resp *CensorResponse) {
	source := req.Source
	if source == "" {
		source = DefaultSource
	}

	out, err := h.engine.CensorDocument(ctx, source, req.Document)
	if err != nil {
		resp.Status = StatusError
		resp.Error = err.Error()
		return
	}

	resp.Status = StatusCensored
	resp.Document = out.Document
	resp.Masked = out.Report.Masked
	resp.Failed = out.Report.Failed
	resp.RecordID = out.RecordID
}

func (h *Handler) maskValue(ctx context.Context, req CensorRequest, resp *CensorResponse) {
	pattern, err := censor.ResolvePattern(req.Pattern, req.Builtin)
	if err != nil {
		resp.Status = StatusError
		resp.Error = err.Error()
		return
	}
	char, err := censor.ParseMaskingCharacter(req.Character)
	if err != nil {
		resp.Status = StatusError
		resp.Error = err.Error()
		return
	}

	res := h.engine.MaskValue(ctx, req.Value, pattern, char)
	resp.Status = res.Status.String()
	resp.Value = res.String()
	if res.Err != nil {
		resp.Error = res.Err.Error()
		resp.Failed = 1
	} else if res.Status == censor.StatusMasked {
		resp.Masked = 1
	}
}

// ProcessBatch processes multiple requests and returns all responses.
func (h *Handler) ProcessBatch(ctx context.Context, reqs []CensorRequest) []CensorResponse {
	responses := make([]CensorResponse, 0, len(reqs))

	for _, req := range reqs {
		select {
		case <-ctx.Done():
			// Context cancelled; return partial results.
			return responses
		default:
		}

		responses = append(responses, h.ProcessRequest(ctx, req))
	}

	return responses
}
