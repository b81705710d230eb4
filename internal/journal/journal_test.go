// ABOUTME: Tests for the badger record journal
// ABOUTME: Uses in-memory badger to cover put, get, ordering, delete and TTL

package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	cfg.InMemory = true
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(StoreConfig{})
	assert.Error(t, err)
}

func TestOpen_OnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(StoreConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &Record{Source: "cli", Document: json.RawMessage(`{}`)}))
	require.NoError(t, s.Close())

	s, err = Open(StoreConfig{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	ctx := context.Background()

	rec := &Record{
		Source:        "api",
		Document:      json.RawMessage(`{"card":"1234-XXXX-XXXX-3456"}`),
		Masked:        1,
		CorrelationID: "corr-1",
	}
	require.NoError(t, s.Put(ctx, rec))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "api", got.Source)
	assert.JSONEq(t, `{"card":"1234-XXXX-XXXX-3456"}`, string(got.Document))
	assert.Equal(t, 1, got.Masked)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_PutKeepsGivenID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &Record{ID: "fixed", Document: json.RawMessage(`1`)}))
	got, err := s.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.ID)
}

func TestStore_Get_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestStore_Put_Nil(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	assert.Error(t, s.Put(context.Background(), nil))
}

func TestStore_List_NewestFirst(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		rec := &Record{Source: "api", Document: json.RawMessage(`{}`)}
		require.NoError(t, s.Put(ctx, rec))
		ids = append(ids, rec.ID)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, rec := range all {
		assert.Equal(t, ids[len(ids)-1-i], rec.ID)
	}

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[4], limited[0].ID)
	assert.Equal(t, ids[3], limited[1].ID)
}

func TestStore_List_Empty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	records, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	ctx := context.Background()

	rec := &Record{Document: json.RawMessage(`{}`)}
	require.NoError(t, s.Put(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrRecordNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_TTL(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{TTL: time.Second})
	ctx := context.Background()

	rec := &Record{Document: json.RawMessage(`{}`)}
	require.NoError(t, s.Put(ctx, rec))

	_, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, rec.ID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, StoreConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, &Record{}), context.Canceled)
	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
