// ABOUTME: Interval type and merge algorithm for capture-group spans
// ABOUTME: Flattens nested and overlapping spans into a disjoint ascending set

package censor

import (
	"fmt"
	"slices"
)

// Interval is a half-open span [Start, End) of byte offsets into a value.
// Offsets always fall on rune boundaries because they come from the regex engine.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the interval.
func (i Interval) Len() int {
	return i.End - i.Start
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

// Overlaps reports whether the two intervals share a position or touch.
func (i Interval) Overlaps(other Interval) bool {
	return other.Start <= i.End && i.Start <= other.End
}

// String returns the interval in [start,end) notation.
func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Start, i.End)
}

// MergeIntervals flattens the spans of one match into the minimal set of
// disjoint intervals sorted ascending by start.
//
// A single interval is returned verbatim. Otherwise the intervals are stable
// sorted by start and swept left to right; an interval whose start is at or
// before the running end extends the run, which collapses nesting, overlap and
// exact adjacency alike. The input slice is not modified.
func MergeIntervals(intervals []Interval) []Interval {
	switch len(intervals) {
	case 0:
		return nil
	case 1:
		return []Interval{intervals[0]}
	}

	sorted := slices.Clone(intervals)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return a.Start - b.Start
	})

	merged := make([]Interval, 0, len(sorted))
	acc := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start > acc.End {
			merged = append(merged, acc)
			acc = iv
			continue
		}
		acc.End = max(acc.End, iv.End)
	}

	return append(merged, acc)
}
