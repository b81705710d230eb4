// ABOUTME: JSON mapper that masks registered fields while serializing
// ABOUTME: Streams the token sequence so key order and number text are preserved

// Package mapper serializes values to JSON with sensitive fields masked.
//
// A Mapper built with a schema.Registry passes every string value found at
// a registered dotted path through that field's strategy. Elements of an
// array share the path of the array. A Mapper without a registry is the
// exposed mapper: it writes values unchanged and underpins Equal, Compare,
// Copy and Hash.
package mapper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/schema"
)

// DefaultIndent is the indentation used by MarshalString.
const DefaultIndent = "  "

// ErrInvalidDocument is returned when the input is not a single JSON value.
var ErrInvalidDocument = errors.New("invalid json document")

// FieldOutcome records the masking result for one string value.
type FieldOutcome struct {
	Field  string        `json:"field"`
	Status censor.Status `json:"status"`
	Error  string        `json:"error,omitempty"`

	// Err is the underlying masking error.
	Err error `json:"-"`
}

// Report counts masking outcomes for one document. Field values are never
// included.
type Report struct {
	Masked      int            `json:"masked"`
	Failed      int            `json:"failed"`
	PassThrough int            `json:"passthrough"`
	Fields      []FieldOutcome `json:"fields,omitempty"`
}

func (r *Report) record(field string, res censor.Result) {
	out := FieldOutcome{Field: field, Status: res.Status, Err: res.Err}
	switch res.Status {
	case censor.StatusMasked:
		r.Masked++
	case censor.StatusPassThrough:
		r.PassThrough++
	case censor.StatusError:
		r.Failed++
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
	}
	r.Fields = append(r.Fields, out)
}

// Mapper serializes values with registered fields masked. It is immutable
// and safe for concurrent use.
type Mapper struct {
	registry *schema.Registry
	indent   string
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithRegistry sets the field strategies applied during serialization.
func WithRegistry(reg *schema.Registry) Option {
	return func(m *Mapper) {
		m.registry = reg
	}
}

// WithIndent sets the per-level indentation used by MarshalString and
// MarshalIndent.
func WithIndent(indent string) Option {
	return func(m *Mapper) {
		m.indent = indent
	}
}

// New creates a Mapper. Without a registry it masks nothing.
func New(opts ...Option) *Mapper {
	m := &Mapper{indent: DefaultIndent}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the registry in use, which may be nil.
func (m *Mapper) Registry() *schema.Registry {
	return m.registry
}

// Marshal encodes v as compact JSON with registered fields masked.
func (m *Mapper) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	out, _, err := m.Censor(raw)
	return out, err
}

// MarshalIndent encodes v like Marshal, then indents every line after the
// first with prefix followed by nesting levels of the mapper's indent.
func (m *Mapper) MarshalIndent(v any, prefix string) ([]byte, error) {
	out, err := m.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, prefix, m.indent); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalString returns the indented, masked JSON form of v.
func (m *Mapper) MarshalString(v any) (string, error) {
	out, err := m.MarshalIndent(v, "")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Unmarshal decodes data into v. Unknown fields are ignored.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// Censor rewrites a raw JSON document with registered string fields masked
// and returns it in compact form. Only strings are masked; nulls, numbers,
// booleans and containers at a registered path are written unchanged.
func (m *Mapper) Censor(raw []byte) ([]byte, Report, error) {
	w := &walker{
		dec:      json.NewDecoder(bytes.NewReader(raw)),
		registry: m.registry,
	}
	w.dec.UseNumber()

	if err := w.value(""); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, Report{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if _, err := w.dec.Token(); !errors.Is(err, io.EOF) {
		return nil, Report{}, fmt.Errorf("%w: trailing data after top-level value", ErrInvalidDocument)
	}
	return w.out.Bytes(), w.report, nil
}

type walker struct {
	dec      *json.Decoder
	registry *schema.Registry
	out      bytes.Buffer
	report   Report
}

func (w *walker) value(path string) error {
	tok, err := w.dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return w.object(path)
		case '[':
			return w.array(path)
		default:
			return fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		if s, ok := w.registry.Lookup(path); ok {
			res := s.Process(t)
			w.report.record(path, res)
			t = res.String()
		}
		return writeString(&w.out, t)
	case json.Number:
		w.out.WriteString(t.String())
	case bool:
		if t {
			w.out.WriteString("true")
		} else {
			w.out.WriteString("false")
		}
	case nil:
		w.out.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}

func (w *walker) object(path string) error {
	w.out.WriteByte('{')
	for first := true; w.dec.More(); first = false {
		tok, err := w.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("object key is %T, not string", tok)
		}
		if !first {
			w.out.WriteByte(',')
		}
		if err := writeString(&w.out, key); err != nil {
			return err
		}
		w.out.WriteByte(':')

		child := key
		if path != "" {
			child = path + "." + key
		}
		if err := w.value(child); err != nil {
			return err
		}
	}
	if _, err := w.dec.Token(); err != nil {
		return err
	}
	w.out.WriteByte('}')
	return nil
}

func (w *walker) array(path string) error {
	w.out.WriteByte('[')
	for first := true; w.dec.More(); first = false {
		if !first {
			w.out.WriteByte(',')
		}
		if err := w.value(path); err != nil {
			return err
		}
	}
	if _, err := w.dec.Token(); err != nil {
		return err
	}
	w.out.WriteByte(']')
	return nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
