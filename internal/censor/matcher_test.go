// ABOUTME: Tests for mask pattern compilation and capture group extraction
// ABOUTME: Covers group participation, byte offsets and pattern errors

package censor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Groups(t *testing.T) {
	t.Parallel()

	m, err := Compile(PatternPhone)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumGroups())

	groups, err := m.Groups("555-867-5309")
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 0, End: 3}, {Start: 4, End: 7}}, groups)

	_, err = m.Groups("5558675309")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatcher_DeclarationOrder(t *testing.T) {
	t.Parallel()

	m, err := Compile(`((\d)\d)-(\d)`)
	require.NoError(t, err)

	groups, err := m.Groups("12-3")
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 0, End: 2}, {Start: 0, End: 1}, {Start: 3, End: 4}}, groups)
}

func TestMatcher_NoParticipatingGroups(t *testing.T) {
	t.Parallel()

	m, err := Compile(`(pin:\d+)?`)
	require.NoError(t, err)

	_, err = m.Groups("hunter2secret")
	assert.ErrorIs(t, err, ErrNoParticipatingGroups)
	assert.ErrorIs(t, err, ErrNoGroups)

	// One taken branch is enough; the untaken one is skipped.
	m, err = Compile(`(a)|(b)`)
	require.NoError(t, err)
	groups, err := m.Groups("b")
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 0, End: 1}}, groups)
}

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Compile(`a(b`)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), `"a(b"`)
}
