// ABOUTME: Tests for censoring metrics collection
// ABOUTME: Validates counters, latency percentiles, and per-source stats

package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCensorMetrics_RecordDocument(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	m.RecordDocument("api", 10*time.Millisecond, 3, 1, 2)
	m.RecordDocument("nats", 30*time.Millisecond, 1, 0, 0)
	m.RecordDocumentFailure()

	s := m.Snapshot()
	assert.EqualValues(t, 2, s.DocumentsTotal)
	assert.EqualValues(t, 1, s.DocumentsFailed)
	assert.EqualValues(t, 4, s.FieldsMasked)
	assert.EqualValues(t, 1, s.FieldsFailed)
	assert.EqualValues(t, 2, s.FieldsPassThrough)

	stats := m.SourceStats()
	require.Contains(t, stats, "api")
	assert.EqualValues(t, 1, stats["api"].Documents)
	assert.EqualValues(t, 3, stats["api"].FieldsMasked)
	assert.Equal(t, 10*time.Millisecond, stats["api"].AverageLatency)
	assert.Equal(t, 30*time.Millisecond, stats["nats"].TotalLatency)
}

func TestCensorMetrics_Values(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	m.RecordValue(true)
	m.RecordValue(false)
	m.RecordStored()

	s := m.Snapshot()
	assert.EqualValues(t, 2, s.ValuesTotal)
	assert.EqualValues(t, 1, s.FieldsMasked)
	assert.EqualValues(t, 1, s.FieldsFailed)
	assert.EqualValues(t, 1, s.RecordsStored)
}

func TestCensorMetrics_ActiveRequests(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	m.IncrementActive()
	m.IncrementActive()
	m.DecrementActive()

	assert.EqualValues(t, 1, m.Snapshot().ActiveRequests)
}

func TestCensorMetrics_LatencyPercentiles(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	assert.Equal(t, LatencyPercentiles{}, m.LatencyPercentiles())

	for i := 100; i >= 1; i-- {
		m.RecordDocument("api", time.Duration(i)*time.Millisecond, 0, 0, 0)
	}

	p := m.LatencyPercentiles()
	assert.Equal(t, 51*time.Millisecond, p.P50)
	assert.Equal(t, 100*time.Millisecond, p.P99)
	assert.Equal(t, 100*time.Millisecond, p.Max)
}

func TestCensorMetrics_Reset(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	m.RecordDocument("api", time.Millisecond, 1, 1, 1)
	m.Reset()

	s := m.Snapshot()
	assert.Zero(t, s.DocumentsTotal)
	assert.Zero(t, s.FieldsMasked)
	assert.Empty(t, m.SourceStats())
	assert.Equal(t, LatencyPercentiles{}, m.LatencyPercentiles())
}

func TestCensorMetrics_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordDocument("api", time.Millisecond, 1, 0, 0)
			_ = m.SourceStats()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, m.Snapshot().DocumentsTotal)
	assert.EqualValues(t, 50, m.SourceStats()["api"].Documents)
}

func TestCensorMetrics_String(t *testing.T) {
	t.Parallel()

	m := NewCensorMetrics()
	m.RecordDocument("api", time.Millisecond, 2, 0, 0)

	assert.Contains(t, m.String(), "documents=1")
	assert.Contains(t, m.String(), "masked=2")
	assert.Contains(t, m.String(), "p50=")
}
