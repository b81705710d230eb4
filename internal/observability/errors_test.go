// ABOUTME: Tests for structured error context
// ABOUTME: Validates masking error classification and slog output

package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

func TestNewMaskingErrorContext(t *testing.T) {
	t.Parallel()

	_, compileErr := censor.Compile("(unbalanced")
	require.Error(t, compileErr)

	tests := []struct {
		name         string
		err          error
		wantCode     string
		wantCategory string
	}{
		{"invalid_pattern", compileErr, CodeInvalidPattern, CategoryPermanent},
		{"no_groups", censor.ErrNoGroups, CodePatternNoGroups, CategoryPermanent},
		{"no_match", fmt.Errorf("field ssn: %w", censor.ErrNoMatch), CodePatternNoMatch, CategoryUserError},
		{"unknown", errors.New("boom"), CodeMaskingFailed, CategoryPermanent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ec := NewMaskingErrorContext("censor_document", "ssn", tt.err)
			assert.Equal(t, tt.wantCode, ec.Code)
			assert.Equal(t, tt.wantCategory, ec.Category)
			assert.False(t, ec.IsRetryable())
			assert.ErrorIs(t, ec, tt.err)
			assert.Equal(t, map[string]string{"field": "ssn"}, ec.Details)
		})
	}
}

func TestErrorContext_Error(t *testing.T) {
	t.Parallel()

	ec := NewErrorContext(CodeJournalFailure, CategoryTransient, "journal_put")
	assert.Equal(t, "[JOURNAL_FAILURE] transient: journal_put", ec.Error())
	assert.True(t, ec.IsRetryable())

	ec.WithError(errors.New("disk full"))
	assert.Equal(t, "[JOURNAL_FAILURE] transient: journal_put: disk full", ec.Error())
}

func TestErrorContext_WithStack(t *testing.T) {
	t.Parallel()

	ec := NewErrorContext(CodeMaskingFailed, CategoryPermanent, "op").WithStack()
	assert.Contains(t, ec.StackTrace, "TestErrorContext_WithStack")
}

func TestErrorContext_LogValue(t *testing.T) {
	t.Parallel()

	ec := NewMaskingErrorContext("mask_value", "", censor.ErrNoMatch)
	v := ec.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())

	got := map[string]string{}
	for _, a := range v.Group() {
		got[a.Key] = a.Value.String()
	}
	assert.Equal(t, CodePatternNoMatch, got["code"])
	assert.Equal(t, CategoryUserError, got["category"])
	assert.Equal(t, "false", got["is_retryable"])
	assert.Contains(t, got, "error")
	assert.NotContains(t, got, "details")
}
