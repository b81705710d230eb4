// ABOUTME: Immutable per-field masking strategy built once at schema setup
// ABOUTME: Binds a field path to a pattern, a masking character and a shared censor

package schema

import (
	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

// Strategy masks the value of one registered field. A Strategy never changes
// after Build and is safe for concurrent use.
type Strategy struct {
	field   string
	kind    string
	pattern string
	censor  *censor.Censor
}

// Field returns the dotted field path the strategy applies to.
func (s *Strategy) Field() string { return s.field }

// Type returns the free-form sensitivity label, e.g. "credit_card".
func (s *Strategy) Type() string { return s.kind }

// Pattern returns the mask pattern.
func (s *Strategy) Pattern() string { return s.pattern }

// MaskingCharacter returns the character written over masked positions.
func (s *Strategy) MaskingCharacter() rune { return s.censor.MaskingCharacter() }

// Process masks value and reports the structured outcome.
func (s *Strategy) Process(value string) censor.Result {
	return s.censor.Process(value, s.pattern)
}

// Mask masks value, returning censor.MaskingError on failure.
func (s *Strategy) Mask(value string) string {
	return s.Process(value).String()
}
