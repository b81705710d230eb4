// ABOUTME: Immutable registry mapping field paths to masking strategies
// ABOUTME: Two-tier lookup through a bloom filter then the strategy map

package schema

import (
	"slices"
	"sync/atomic"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

// Registry maps dotted field paths to strategies. It is immutable after
// Build and safe for concurrent use.
type Registry struct {
	strategies map[string]*Strategy
	fields     []string
	index      *fieldIndex
	cache      *censor.PatternCache

	rejected       atomic.Int64
	falsePositives atomic.Int64
}

// RegistryStats contains index and pattern cache statistics.
type RegistryStats struct {
	Index IndexStats        `json:"index"`
	Cache censor.CacheStats `json:"cache"`
}

// Lookup returns the strategy registered for field.
func (r *Registry) Lookup(field string) (*Strategy, bool) {
	if r == nil || len(r.strategies) == 0 {
		return nil, false
	}
	if !r.index.mayContain(field) {
		r.rejected.Add(1)
		return nil, false
	}
	s, ok := r.strategies[field]
	if !ok {
		r.falsePositives.Add(1)
	}
	return s, ok
}

// MaskField masks value with the strategy registered for field. It reports
// false when no strategy applies.
func (r *Registry) MaskField(field, value string) (string, bool) {
	s, ok := r.Lookup(field)
	if !ok {
		return value, false
	}
	return s.Mask(value), true
}

// Fields returns the registered field paths in sorted order.
func (r *Registry) Fields() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.fields)
}

// Strategies returns the registered strategies sorted by field.
func (r *Registry) Strategies() []*Strategy {
	if r == nil {
		return nil
	}
	out := make([]*Strategy, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, r.strategies[f])
	}
	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.strategies)
}

// Stats returns lookup and cache statistics.
func (r *Registry) Stats() RegistryStats {
	if r == nil {
		return RegistryStats{}
	}
	idx := r.index.stats()
	idx.Fields = len(r.fields)
	idx.Rejected = r.rejected.Load()
	idx.FalsePositives = r.falsePositives.Load()
	return RegistryStats{
		Index: idx,
		Cache: r.cache.Stats(),
	}
}
