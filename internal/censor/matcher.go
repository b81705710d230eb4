// ABOUTME: Pattern matcher wrapping RE2 for capture-group span extraction
// ABOUTME: Compiles mask patterns and reports the group spans of the first match

package censor

import (
	"errors"
	"fmt"
	"regexp"
)

// Matching errors. All of them surface as the MASKING_ERROR sentinel in
// compatibility mode.
var (
	ErrInvalidPattern = errors.New("invalid mask pattern")
	ErrNoMatch        = errors.New("mask pattern does not match value")
	ErrNoGroups       = errors.New("mask pattern has no capture groups")

	// ErrNoParticipatingGroups wraps ErrNoGroups for a match in which every
	// capture group was skipped, so nothing would be masked.
	ErrNoParticipatingGroups = fmt.Errorf("%w taking part in the match", ErrNoGroups)
)

// Matcher is a compiled mask pattern. It is safe for concurrent use.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Compile compiles a mask pattern.
func Compile(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	return &Matcher{pattern: pattern, re: re}, nil
}

// Pattern returns the source text of the pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// NumGroups returns the number of capture groups declared by the pattern.
func (m *Matcher) NumGroups() int {
	return m.re.NumSubexp()
}

// Groups finds the first match of the pattern in value and returns one
// interval per participating capture group, in declaration order.
//
// Groups that do not take part in the match (an untaken alternation branch or
// an optional group) are skipped. When none takes part the match fails with
// ErrNoParticipatingGroups. A group inside a repetition reports only its last
// iteration.
func (m *Matcher) Groups(value string) ([]Interval, error) {
	loc := m.re.FindStringSubmatchIndex(value)
	if loc == nil {
		return nil, ErrNoMatch
	}

	groups := m.re.NumSubexp()
	if groups == 0 {
		return nil, ErrNoGroups
	}

	intervals := make([]Interval, 0, groups)
	for g := 1; g <= groups; g++ {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 {
			continue
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	if len(intervals) == 0 {
		return nil, ErrNoParticipatingGroups
	}

	return intervals, nil
}
