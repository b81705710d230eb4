// ABOUTME: Bloom filter index over registered field paths
// ABOUTME: Rejects unregistered paths before the strategy map is consulted

package schema

import (
	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// indexFalsePositiveRate bounds how often an unregistered path reaches the map.
	indexFalsePositiveRate = 0.001

	// minIndexCapacity keeps tiny schemas from sizing a degenerate filter.
	minIndexCapacity = 64
)

// IndexStats contains statistics about the field index.
type IndexStats struct {
	// Number of registered fields.
	Fields int `json:"fields"`

	// Configured capacity.
	Capacity uint `json:"capacity"`

	// Configured false positive rate.
	FalsePositiveRate float64 `json:"false_positive_rate"`

	// Size of the bit set in bytes.
	BitSetSize uint64 `json:"bit_set_size"`

	// Number of hash functions used.
	HashFunctions uint `json:"hash_functions"`

	// Lookups rejected by the filter alone.
	Rejected int64 `json:"rejected"`

	// Lookups that passed the filter but had no strategy.
	FalsePositives int64 `json:"false_positives"`
}

// fieldIndex is written only during Build, so reads need no locking.
type fieldIndex struct {
	filter   *bloom.BloomFilter
	capacity uint
}

func newFieldIndex(fields []string) *fieldIndex {
	capacity := uint(len(fields))
	if capacity < minIndexCapacity {
		capacity = minIndexCapacity
	}
	idx := &fieldIndex{
		filter:   bloom.NewWithEstimates(capacity, indexFalsePositiveRate),
		capacity: capacity,
	}
	for _, f := range fields {
		idx.filter.AddString(f)
	}
	return idx
}

// mayContain returns false only if field is definitely not registered.
func (idx *fieldIndex) mayContain(field string) bool {
	return idx.filter.TestString(field)
}

func (idx *fieldIndex) stats() IndexStats {
	return IndexStats{
		Capacity:          idx.capacity,
		FalsePositiveRate: indexFalsePositiveRate,
		BitSetSize:        uint64(idx.filter.Cap() / 8),
		HashFunctions:     idx.filter.K(),
	}
}
