// ABOUTME: Structured masking result with pass-through and error variants
// ABOUTME: Keeps the MASKING_ERROR sentinel string as the compatible output

package censor

import (
	"encoding/json"
	"fmt"
)

// MaskingError is the literal value emitted in place of a field that could
// not be masked. Downstream consumers match on it, so it must not change.
const MaskingError = "MASKING_ERROR"

// Status is the outcome class of a masking call.
type Status int

const (
	// StatusMasked means the pattern matched and its groups were rewritten.
	StatusMasked Status = iota
	// StatusPassThrough means the value or the pattern was empty and the
	// value was returned untouched without evaluating the pattern.
	StatusPassThrough
	// StatusError means the pattern was invalid, did not match, or had no
	// capture groups.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusMasked:
		return "masked"
	case StatusPassThrough:
		return "passthrough"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "masked":
		*s = StatusMasked
	case "passthrough":
		*s = StatusPassThrough
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown masking status %q", name)
	}
	return nil
}

// Result is the structured outcome of a masking call.
type Result struct {
	// Status classifies the outcome.
	Status Status

	// Value is the rewritten value (StatusMasked), the original value
	// (StatusPassThrough), or empty (StatusError).
	Value string

	// Intervals are the merged spans that were masked.
	Intervals []Interval

	// Err explains a StatusError result. It wraps one of ErrInvalidPattern,
	// ErrNoMatch or ErrNoGroups.
	Err error
}

// OK reports whether the result carries a usable value.
func (r Result) OK() bool {
	return r.Status != StatusError
}

// String returns the compatible output: the value, or MaskingError.
func (r Result) String() string {
	if r.Status == StatusError {
		return MaskingError
	}
	return r.Value
}

func passThrough(value string) Result {
	return Result{Status: StatusPassThrough, Value: value}
}

func failed(err error) Result {
	return Result{Status: StatusError, Err: err}
}
