// ABOUTME: Tests for NATS message handler
// ABOUTME: Covers document and value requests, batches and error replies

package queue

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/engine"
	"github.com/hikmaai-io/hikmaai-censor/internal/journal"
	"github.com/hikmaai-io/hikmaai-censor/internal/schema"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	reg, err := schema.NewBuilder().
		AddSpec(schema.FieldSpec{Field: "card", Builtin: "credit_card"}).
		Build()
	require.NoError(t, err)

	store, err := journal.Open(journal.StoreConfig{InMemory: true})
	require.NoError(t, err)

	eng, err := engine.New(engine.Config{
		Registry: reg,
		Journal:  store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return NewHandler(eng)
}

func TestHandler_ProcessRequest_Document(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	resp := h.ProcessRequest(context.Background(), CensorRequest{
		RequestID: "req-1",
		Document:  json.RawMessage(`{"card":"1234-5678-9012-3456","other":"x"}`),
	})

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, StatusCensored, resp.Status)
	assert.JSONEq(t, `{"card":"1234-XXXX-XXXX-3456","other":"x"}`, string(resp.Document))
	assert.Equal(t, 1, resp.Masked)
	assert.NotEmpty(t, resp.RecordID)
	assert.False(t, resp.CensoredAt.IsZero())
	assert.Empty(t, resp.Error)
}

func TestHandler_ProcessRequest_InvalidDocument(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	resp := h.ProcessRequest(context.Background(), CensorRequest{Document: json.RawMessage(`{"card"`)})

	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.RequestID, "a request ID is generated when absent")
}

func TestHandler_ProcessRequest_Value(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	tests := []struct {
		name       string
		req        CensorRequest
		wantStatus string
		wantValue  string
		wantError  bool
	}{
		{
			name:       "builtin",
			req:        CensorRequest{Value: "123-45-6789", Builtin: "ssn"},
			wantStatus: "masked",
			wantValue:  "XXXXXXX6789",
		},
		{
			name:       "pattern_and_character",
			req:        CensorRequest{Value: "hello@mail.com", Pattern: censor.PatternEmail, Character: "*"},
			wantStatus: "masked",
			wantValue:  "*****@mail.com",
		},
		{
			name:       "empty_value",
			req:        CensorRequest{Value: "", Builtin: "ssn"},
			wantStatus: "passthrough",
		},
		{
			name:       "no_pattern",
			req:        CensorRequest{Value: "keep"},
			wantStatus: "passthrough",
			wantValue:  "keep",
		},
		{
			name:       "masking_error",
			req:        CensorRequest{Value: "012", Builtin: "password"},
			wantStatus: "error",
			wantValue:  censor.MaskingError,
			wantError:  true,
		},
		{
			name:       "unknown_builtin",
			req:        CensorRequest{Value: "x", Builtin: "iban"},
			wantStatus: StatusError,
			wantError:  true,
		},
		{
			name:       "pattern_and_builtin",
			req:        CensorRequest{Value: "x", Pattern: "(x)", Builtin: "ssn"},
			wantStatus: StatusError,
			wantError:  true,
		},
		{
			name:       "bad_character",
			req:        CensorRequest{Value: "x", Pattern: "(x)", Character: "ab"},
			wantStatus: StatusError,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := h.ProcessRequest(context.Background(), tt.req)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantValue, resp.Value)
			assert.Equal(t, tt.wantError, resp.Error != "")
		})
	}
}

func TestHandler_ProcessBatch(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	resps := h.ProcessBatch(context.Background(), []CensorRequest{
		{RequestID: "a", Value: "123-45-6789", Builtin: "ssn"},
		{RequestID: "b", Document: json.RawMessage(`{"card":"bad"}`)},
	})

	require.Len(t, resps, 2)
	assert.Equal(t, "a", resps[0].RequestID)
	assert.Equal(t, "b", resps[1].RequestID)
	assert.Equal(t, StatusCensored, resps[1].Status)
	assert.Equal(t, 1, resps[1].Failed)
}

func TestHandler_ProcessBatch_Cancelled(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resps := h.ProcessBatch(ctx, []CensorRequest{{Value: "x"}, {Value: "y"}})
	assert.Empty(t, resps)
}
