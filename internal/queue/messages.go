// ABOUTME: Message types for NATS request/reply communication
// ABOUTME: Defines CensorRequest and CensorResponse structures

package queue

import (
	"encoding/json"
	"time"
)

// Response status values beyond the censor statuses.
const (
	StatusCensored = "censored"
	StatusError    = "error"
)

// CensorRequest asks for either a document to be censored against the
// field registry, or a single value to be masked with a pattern.
type CensorRequest struct {
	// Optional request ID for correlation.
	RequestID string `json:"request_id,omitempty"`

	// Source labels where the document came from. Defaults to "nats".
	Source string `json:"source,omitempty"`

	// Document is a JSON document to censor. When set, the value fields are ignored.
	Document json.RawMessage `json:"document,omitempty"`

	// Value is a single value to mask.
	Value string `json:"value,omitempty"`

	// Pattern is the mask pattern for Value. Mutually exclusive with Builtin.
	Pattern string `json:"pattern,omitempty"`

	// Builtin names a predefined pattern for Value.
	Builtin string `json:"builtin,omitempty"`

	// Character overrides the masking character for Value.
	Character string `json:"character,omitempty"`
}

// CensorResponse is the reply to a CensorRequest.
type CensorResponse struct {
	// Request ID for correlation.
	RequestID string `json:"request_id,omitempty"`

	// Status: "censored" for documents; "masked", "passthrough" or "error"
	// for values.
	Status string `json:"status"`

	// Document is the censored document.
	Document json.RawMessage `json:"document,omitempty"`

	// Value is the masked value, or MASKING_ERROR.
	Value string `json:"value,omitempty"`

	// Fields masked and failed in the document.
	Masked int `json:"masked"`
	Failed int `json:"failed"`

	// RecordID is the journal record, if the document was recorded.
	RecordID string `json:"record_id,omitempty"`

	// Error message if status is "error".
	Error string `json:"error,omitempty"`

	// Processing time in milliseconds.
	DurationMs float64 `json:"duration_ms"`

	// Timestamp of the response.
	CensoredAt time.Time `json:"censored_at"`
}

// BatchCensorRequest is the message for batch operations.
type BatchCensorRequest struct {
	// Requests to process in order.
	Requests []CensorRequest `json:"requests"`

	// Optional request ID for correlation.
	RequestID string `json:"request_id,omitempty"`
}

// BatchCensorResponse is the response for batch operations.
type BatchCensorResponse struct {
	// Request ID for correlation.
	RequestID string `json:"request_id,omitempty"`

	// Individual results, in request order.
	Results []CensorResponse `json:"results"`

	// Total processing time in milliseconds.
	TotalTimeMs float64 `json:"total_time_ms"`
}
