// ABOUTME: Masking engine facade orchestrating matcher, merger and rewriter
// ABOUTME: Implements the pass-through policy and the MASKING_ERROR sentinel

// Package censor masks the sensitive parts of a string value.
//
// The parts to hide are described by a regular expression whose capture
// groups mark the spans to redact. For example, with the credit card pattern
//
//	^\d{4}-(\d{4})-(\d{4})-\d{4}$
//
// the value 1234-5678-9012-3456 becomes 1234-XXXX-XXXX-3456. Only the first
// match is used. Nested or overlapping groups collapse to their outermost
// span, and a group inside a repetition such as (\d{4}-){3} masks only its
// last iteration.
//
// An empty value or an empty pattern passes through untouched. An invalid
// pattern, a pattern that does not match, or a pattern without groups yields
// the MaskingError sentinel in place of the value so that one misconfigured
// field never aborts serialization of a whole document.
package censor

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaskingCharacter overwrites masked characters unless configured otherwise.
const DefaultMaskingCharacter = 'X'

// ErrInvalidMaskingCharacter is returned for a masking character that is not
// exactly one character.
var ErrInvalidMaskingCharacter = errors.New("masking character must be a single character")

// ParseMaskingCharacter returns the single character in s. An empty s
// returns 0, which callers treat as "use the default".
func ParseMaskingCharacter(s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaskingCharacter, s)
	}
	return r, nil
}

// Censor masks values with a fixed masking character. It holds no mutable
// state and is safe for concurrent use.
type Censor struct {
	maskingCharacter rune
	cache            *PatternCache
	logger           *slog.Logger
}

// Option configures a Censor.
type Option func(*Censor)

// WithMaskingCharacter sets the character written over masked positions.
// Zero keeps DefaultMaskingCharacter.
func WithMaskingCharacter(r rune) Option {
	return func(c *Censor) {
		c.maskingCharacter = r
	}
}

// WithPatternCache compiles patterns through a shared cache instead of
// compiling them on every call.
func WithPatternCache(cache *PatternCache) Option {
	return func(c *Censor) {
		c.cache = cache
	}
}

// WithLogger sets the logger used to report masking failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Censor) {
		c.logger = logger
	}
}

// New creates a Censor. Without options it masks with 'X' and compiles the
// pattern fresh on every call.
func New(opts ...Option) *Censor {
	c := &Censor{
		maskingCharacter: DefaultMaskingCharacter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maskingCharacter == 0 {
		c.maskingCharacter = DefaultMaskingCharacter
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// MaskingCharacter returns the configured masking character.
func (c *Censor) MaskingCharacter() rune {
	return c.maskingCharacter
}

// Process masks value according to pattern and returns the structured result.
func (c *Censor) Process(value, pattern string) Result {
	if value == "" || pattern == "" {
		return passThrough(value)
	}

	m, err := c.compile(pattern)
	if err != nil {
		c.logger.Debug("mask pattern rejected", slog.String("error", err.Error()))
		return failed(err)
	}

	groups, err := m.Groups(value)
	if err != nil {
		c.logger.Debug("mask pattern not applied",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()),
		)
		return failed(err)
	}

	intervals := MergeIntervals(groups)
	return Result{
		Status:    StatusMasked,
		Value:     Rewrite(value, intervals, c.maskingCharacter),
		Intervals: intervals,
	}
}

// Mask masks value according to pattern, returning MaskingError on failure.
func (c *Censor) Mask(value, pattern string) string {
	return c.Process(value, pattern).String()
}

func (c *Censor) compile(pattern string) (*Matcher, error) {
	if c.cache != nil {
		return c.cache.Compile(pattern)
	}
	return Compile(pattern)
}

var defaultCensor = New()

// Mask masks value with the default 'X' character.
func Mask(value, pattern string) string {
	return defaultCensor.Mask(value, pattern)
}

// MaskWith masks value with the given masking character, or 'X' when
// maskChar is zero.
func MaskWith(value, pattern string, maskChar rune) string {
	return New(WithMaskingCharacter(maskChar)).Mask(value, pattern)
}

// MaskOptional is Mask for values and patterns that may be absent. A nil
// value is returned as nil, and a nil pattern returns the value unchanged.
func MaskOptional(value, pattern *string, maskChar rune) *string {
	if value == nil {
		return nil
	}
	if pattern == nil {
		out := *value
		return &out
	}
	out := MaskWith(*value, *pattern, maskChar)
	return &out
}
