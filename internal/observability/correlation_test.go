// ABOUTME: Tests for request correlation IDs
// ABOUTME: Validates context propagation and the HTTP middleware

package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID_Context(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FromContext(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, CorrelationID("abc"), FromContext(ctx))
	assert.Equal(t, "abc", FromContext(ctx).String())
}

func TestNewCorrelationID_Unique(t *testing.T) {
	t.Parallel()

	a, b := NewCorrelationID(), NewCorrelationID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
}

func TestEnsureCorrelationID(t *testing.T) {
	t.Parallel()

	ctx, id := EnsureCorrelationID(context.Background(), "given")
	assert.Equal(t, CorrelationID("given"), id)
	assert.Equal(t, id, FromContext(ctx))

	ctx, id = EnsureCorrelationID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestCorrelationMiddleware(t *testing.T) {
	t.Parallel()

	var seen CorrelationID
	handler := CorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	t.Run("propagates_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "from-client")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, CorrelationID("from-client"), seen)
		assert.Equal(t, "from-client", rec.Header().Get(CorrelationIDHeader))
	})

	t.Run("generates_when_missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen.String(), rec.Header().Get(CorrelationIDHeader))
	})
}
