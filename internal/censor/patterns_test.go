// ABOUTME: Tests for predefined mask patterns
// ABOUTME: Guards the exact pattern text and name lookup

package censor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedPatterns_ExactText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `(^\w{4,100}$)`, PatternPassword)
	assert.Equal(t, `(^[^@]+)@[^@]+$`, PatternEmail)
	assert.Equal(t, `(^\d{3})-(\d{3})-\d{4}$`, PatternPhone)
	assert.Equal(t, `^\d{4}-(\d{4})-(\d{4})-\d{4}$`, PatternCreditCard)
	assert.Equal(t, `(^\d{3}-\d{2}-)\d{4}$`, PatternSSN)
}

func TestBuiltins_Compile(t *testing.T) {
	t.Parallel()

	for _, b := range Builtins() {
		m, err := Compile(b.Pattern)
		require.NoError(t, err, b.Name)
		assert.Positive(t, m.NumGroups(), b.Name)
		assert.NotEmpty(t, b.Description, b.Name)
	}
}

func TestLookupBuiltin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		found    bool
	}{
		{"credit_card", PatternCreditCard, true},
		{"Credit-Card", PatternCreditCard, true},
		{" SSN ", PatternSSN, true},
		{"email", PatternEmail, true},
		{"phone", PatternPhone, true},
		{"password", PatternPassword, true},
		{"iban", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := LookupBuiltin(tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuiltins_ReturnsCopy(t *testing.T) {
	t.Parallel()

	list := Builtins()
	list[0].Pattern = "tampered"

	got, ok := LookupBuiltin(list[0].Name)
	require.True(t, ok)
	assert.NotEqual(t, "tampered", got)
}

func TestBuiltinNamed(t *testing.T) {
	t.Parallel()

	b, ok := BuiltinNamed("Credit-Card")
	require.True(t, ok)
	assert.Equal(t, "credit_card", b.Name)
	assert.Equal(t, PatternCreditCard, b.Pattern)
	assert.NotEmpty(t, b.Description)

	_, ok = BuiltinNamed("iban")
	assert.False(t, ok)
}

func TestResolvePattern(t *testing.T) {
	t.Parallel()

	got, err := ResolvePattern(`(a)`, "")
	require.NoError(t, err)
	assert.Equal(t, `(a)`, got)

	got, err = ResolvePattern("", "ssn")
	require.NoError(t, err)
	assert.Equal(t, PatternSSN, got)

	got, err = ResolvePattern("", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ResolvePattern(`(a)`, "ssn")
	assert.Error(t, err)

	_, err = ResolvePattern("", "iban")
	assert.Error(t, err)
}
