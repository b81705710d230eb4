// ABOUTME: Tests for the censoring engine
// ABOUTME: Covers document censoring, journaling, metrics, audit events and value masking

package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/journal"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
	"github.com/hikmaai-io/hikmaai-censor/internal/schema"
)

// syncBuffer guards a bytes.Buffer shared by concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEngine struct {
	*Engine
	logs *syncBuffer
}

func newTestEngine(t *testing.T, withJournal bool) *testEngine {
	t.Helper()

	reg, err := schema.NewBuilder().
		AddSpec(schema.FieldSpec{Field: "card", Builtin: "credit_card"}).
		AddSpec(schema.FieldSpec{Field: "user.ssn", Builtin: "ssn"}).
		Build()
	require.NoError(t, err)

	logs := &syncBuffer{}
	cfg := Config{
		Registry: reg,
		Logger:   slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	if withJournal {
		store, err := journal.Open(journal.StoreConfig{InMemory: true})
		require.NoError(t, err)
		cfg.Journal = store
	}

	eng, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return &testEngine{Engine: eng, logs: logs}
}

func TestNew_RequiresRegistry(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	assert.Error(t, err)
}

func TestEngine_CensorDocument(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, false)
	ctx := observability.WithCorrelationID(context.Background(), "corr-42")

	out, err := eng.CensorDocument(ctx, "api", []byte(`{"card":"1234-5678-9012-3456","user":{"ssn":"123-45-6789","name":"Ann"}}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"card":"1234-XXXX-XXXX-3456","user":{"ssn":"XXXXXXX6789","name":"Ann"}}`, string(out.Document))
	assert.Equal(t, 2, out.Report.Masked)
	assert.Empty(t, out.RecordID)
	assert.Positive(t, out.Duration)

	snap := eng.Metrics().Snapshot()
	assert.EqualValues(t, 1, snap.DocumentsTotal)
	assert.EqualValues(t, 2, snap.FieldsMasked)
	assert.EqualValues(t, 0, snap.ActiveRequests)

	logs := eng.logs.String()
	assert.Contains(t, logs, `"event_type":"CENSOR"`)
	assert.Contains(t, logs, `"correlation_id":"corr-42"`)
	assert.NotContains(t, logs, "123-45-6789")
}

func TestEngine_CensorDocument_FieldFailure(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, false)

	out, err := eng.CensorDocument(context.Background(), "nats", []byte(`{"card":"not a card"}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"card":"MASKING_ERROR"}`, string(out.Document))
	assert.Equal(t, 1, out.Report.Failed)

	logs := eng.logs.String()
	assert.Contains(t, logs, "field masking failed")
	assert.Contains(t, logs, observability.CodePatternNoMatch)
	assert.NotContains(t, logs, "not a card")
}

func TestEngine_CensorDocument_Invalid(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, true)

	_, err := eng.CensorDocument(context.Background(), "api", []byte(`{"card":`))
	require.Error(t, err)
	assert.Contains(t, eng.logs.String(), observability.CodeInvalidDocument)
	assert.EqualValues(t, 1, eng.Metrics().Snapshot().DocumentsFailed)

	n, err := eng.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n.Records)
}

func TestEngine_Journal(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, true)
	ctx := context.Background()
	require.True(t, eng.HasJournal())

	out, err := eng.CensorDocument(ctx, "api", []byte(`{"card":"1234-5678-9012-3456"}`))
	require.NoError(t, err)
	require.NotEmpty(t, out.RecordID)

	rec, err := eng.Record(ctx, out.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "api", rec.Source)
	assert.JSONEq(t, `{"card":"1234-XXXX-XXXX-3456"}`, string(rec.Document))
	assert.Equal(t, 1, rec.Masked)

	records, err := eng.Records(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Records)
	assert.EqualValues(t, 1, stats.Metrics.RecordsStored)
	assert.Contains(t, stats.Sources, "api")
	assert.Equal(t, 2, stats.Registry.Index.Fields)

	require.NoError(t, eng.DeleteRecord(ctx, out.RecordID))
	_, err = eng.Record(ctx, out.RecordID)
	assert.ErrorIs(t, err, journal.ErrRecordNotFound)
	assert.Contains(t, eng.logs.String(), `"action":"DELETE"`)
}

func TestEngine_JournalDisabled(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, false)
	ctx := context.Background()

	_, err := eng.Record(ctx, "x")
	assert.ErrorIs(t, err, ErrJournalDisabled)
	_, err = eng.Records(ctx, 1)
	assert.ErrorIs(t, err, ErrJournalDisabled)
	assert.ErrorIs(t, eng.DeleteRecord(ctx, "x"), ErrJournalDisabled)
}

func TestEngine_MaskValue(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		value   string
		pattern string
		char    rune
		want    string
		status  censor.Status
	}{
		{name: "default_char", value: "123-45-6789", pattern: censor.PatternSSN, want: "XXXXXXX6789", status: censor.StatusMasked},
		{name: "custom_char", value: "123-45-6789", pattern: censor.PatternSSN, char: '*', want: "*******6789", status: censor.StatusMasked},
		{name: "empty_value", value: "", pattern: censor.PatternSSN, want: "", status: censor.StatusPassThrough},
		{name: "bad_pattern", value: "abc", pattern: "(", want: censor.MaskingError, status: censor.StatusError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := eng.MaskValue(ctx, tt.value, tt.pattern, tt.char)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, res.String())
		})
	}
}

func TestEngine_MaskValue_Metrics(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, false)
	ctx := context.Background()

	eng.MaskValue(ctx, "123-45-6789", censor.PatternSSN, 0)
	eng.MaskValue(ctx, "nope", censor.PatternSSN, 0)
	eng.MaskValue(ctx, "", censor.PatternSSN, 0)

	snap := eng.Metrics().Snapshot()
	assert.EqualValues(t, 2, snap.ValuesTotal)
	assert.EqualValues(t, 1, snap.FieldsMasked)
	assert.EqualValues(t, 1, snap.FieldsFailed)
}

func TestEngine_Concurrent(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := eng.CensorDocument(ctx, "api", []byte(`{"card":"1234-5678-9012-3456"}`))
			if assert.NoError(t, err) {
				assert.True(t, strings.Contains(string(out.Document), "XXXX"))
			}
		}()
	}
	wg.Wait()

	records, err := eng.Records(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
