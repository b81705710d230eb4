// ABOUTME: Censoring metrics collection for observability
// ABOUTME: Counters, latency histograms, and per-source statistics

package observability

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	maxLatencies       = 10000
	keptLatencies      = 5000
	maxSourceLatencies = 1000
	keptSourceLatency  = 500
)

// MetricsSnapshot contains a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	// Documents censored (successfully or not).
	DocumentsTotal int64 `json:"documents_total"`

	// Documents rejected as malformed.
	DocumentsFailed int64 `json:"documents_failed"`

	// Single values masked outside of a document.
	ValuesTotal int64 `json:"values_total"`

	// Fields that were masked.
	FieldsMasked int64 `json:"fields_masked"`

	// Fields replaced with the masking error sentinel.
	FieldsFailed int64 `json:"fields_failed"`

	// Fields passed through unchanged.
	FieldsPassThrough int64 `json:"fields_passthrough"`

	// Records written to the journal.
	RecordsStored int64 `json:"records_stored"`

	// Currently active requests.
	ActiveRequests int64 `json:"active_requests"`

	// Timestamp of snapshot.
	Timestamp time.Time `json:"timestamp"`
}

// String returns a human-readable representation.
func (s *MetricsSnapshot) String() string {
	return fmt.Sprintf(
		"documents=%d (failed=%d) values=%d fields masked=%d failed=%d passthrough=%d records=%d active=%d",
		s.DocumentsTotal, s.DocumentsFailed, s.ValuesTotal,
		s.FieldsMasked, s.FieldsFailed, s.FieldsPassThrough,
		s.RecordsStored, s.ActiveRequests,
	)
}

// LatencyPercentiles contains latency distribution.
type LatencyPercentiles struct {
	P50 time.Duration `json:"p50"`
	P75 time.Duration `json:"p75"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
	Max time.Duration `json:"max"`
}

// SourceStat contains statistics for a single document source.
type SourceStat struct {
	Documents      int64         `json:"documents"`
	FieldsMasked   int64         `json:"fields_masked"`
	FieldsFailed   int64         `json:"fields_failed"`
	TotalLatency   time.Duration `json:"total_latency"`
	AverageLatency time.Duration `json:"average_latency"`
}

type sourceStats struct {
	mu        sync.Mutex
	documents int64
	masked    int64
	failed    int64
	latencies []time.Duration
}

// CensorMetrics collects metrics for censoring operations.
type CensorMetrics struct {
	documentsTotal    atomic.Int64
	documentsFailed   atomic.Int64
	valuesTotal       atomic.Int64
	fieldsMasked      atomic.Int64
	fieldsFailed      atomic.Int64
	fieldsPassThrough atomic.Int64
	recordsStored     atomic.Int64
	activeRequests    atomic.Int64

	// Latency histogram (protected by mutex).
	mu        sync.RWMutex
	latencies []time.Duration

	sources map[string]*sourceStats
}

// NewCensorMetrics creates a new metrics collector.
func NewCensorMetrics() *CensorMetrics {
	return &CensorMetrics{
		latencies: make([]time.Duration, 0, 1000),
		sources:   make(map[string]*sourceStats),
	}
}

// RecordDocument records one censored document and its field outcomes.
func (m *CensorMetrics) RecordDocument(source string, duration time.Duration, masked, failed, passThrough int) {
	m.documentsTotal.Add(1)
	m.fieldsMasked.Add(int64(masked))
	m.fieldsFailed.Add(int64(failed))
	m.fieldsPassThrough.Add(int64(passThrough))

	m.mu.Lock()
	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > maxLatencies {
		m.latencies = m.latencies[len(m.latencies)-keptLatencies:]
	}

	stats, ok := m.sources[source]
	if !ok {
		stats = &sourceStats{}
		m.sources[source] = stats
	}
	m.mu.Unlock()

	stats.mu.Lock()
	stats.documents++
	stats.masked += int64(masked)
	stats.failed += int64(failed)
	stats.latencies = append(stats.latencies, duration)
	if len(stats.latencies) > maxSourceLatencies {
		stats.latencies = stats.latencies[len(stats.latencies)-keptSourceLatency:]
	}
	stats.mu.Unlock()
}

// RecordDocumentFailure records a document that could not be parsed.
func (m *CensorMetrics) RecordDocumentFailure() {
	m.documentsFailed.Add(1)
}

// RecordValue records a single value masking outcome.
func (m *CensorMetrics) RecordValue(ok bool) {
	m.valuesTotal.Add(1)
	if ok {
		m.fieldsMasked.Add(1)
	} else {
		m.fieldsFailed.Add(1)
	}
}

// RecordStored records a journal write.
func (m *CensorMetrics) RecordStored() {
	m.recordsStored.Add(1)
}

// IncrementActive increments the active request counter.
func (m *CensorMetrics) IncrementActive() {
	m.activeRequests.Add(1)
}

// DecrementActive decrements the active request counter.
func (m *CensorMetrics) DecrementActive() {
	m.activeRequests.Add(-1)
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *CensorMetrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		DocumentsTotal:    m.documentsTotal.Load(),
		DocumentsFailed:   m.documentsFailed.Load(),
		ValuesTotal:       m.valuesTotal.Load(),
		FieldsMasked:      m.fieldsMasked.Load(),
		FieldsFailed:      m.fieldsFailed.Load(),
		FieldsPassThrough: m.fieldsPassThrough.Load(),
		RecordsStored:     m.recordsStored.Load(),
		ActiveRequests:    m.activeRequests.Load(),
		Timestamp:         time.Now(),
	}
}

// LatencyPercentiles returns document latency distribution percentiles.
func (m *CensorMetrics) LatencyPercentiles() LatencyPercentiles {
	m.mu.RLock()
	sorted := slices.Clone(m.latencies)
	m.mu.RUnlock()

	if len(sorted) == 0 {
		return LatencyPercentiles{}
	}
	slices.Sort(sorted)

	return LatencyPercentiles{
		P50: percentile(sorted, 50),
		P75: percentile(sorted, 75),
		P90: percentile(sorted, 90),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
		Max: sorted[len(sorted)-1],
	}
}

// percentile calculates the pth percentile of a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// SourceStats returns per-source statistics.
func (m *CensorMetrics) SourceStats() map[string]*SourceStat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*SourceStat, len(m.sources))
	for name, stats := range m.sources {
		stats.mu.Lock()
		stat := &SourceStat{
			Documents:    stats.documents,
			FieldsMasked: stats.masked,
			FieldsFailed: stats.failed,
		}
		if len(stats.latencies) > 0 {
			var total time.Duration
			for _, lat := range stats.latencies {
				total += lat
			}
			stat.TotalLatency = total
			stat.AverageLatency = total / time.Duration(len(stats.latencies))
		}
		stats.mu.Unlock()
		result[name] = stat
	}
	return result
}

// Reset resets all metrics to zero.
func (m *CensorMetrics) Reset() {
	m.documentsTotal.Store(0)
	m.documentsFailed.Store(0)
	m.valuesTotal.Store(0)
	m.fieldsMasked.Store(0)
	m.fieldsFailed.Store(0)
	m.fieldsPassThrough.Store(0)
	m.recordsStored.Store(0)
	m.activeRequests.Store(0)

	m.mu.Lock()
	m.latencies = m.latencies[:0]
	m.sources = make(map[string]*sourceStats)
	m.mu.Unlock()
}

// String returns a summary string.
func (m *CensorMetrics) String() string {
	snapshot := m.Snapshot()
	percentiles := m.LatencyPercentiles()

	var sb strings.Builder
	sb.WriteString(snapshot.String())
	fmt.Fprintf(&sb, " p50=%v p99=%v", percentiles.P50, percentiles.P99)
	return sb.String()
}
