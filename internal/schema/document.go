// ABOUTME: Field masking specifications loaded from YAML or TOML schema files
// ABOUTME: Validates each spec with go-playground/validator before registration

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

// Format identifies a schema file encoding.
type Format string

// Supported schema formats. JSON files are read with the YAML decoder.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrInvalidSpec is returned when a field spec fails validation.
var ErrInvalidSpec = errors.New("invalid field spec")

// FieldSpec describes how one field is masked.
type FieldSpec struct {
	// Field is the dotted JSON path, e.g. "customer.card".
	Field string `yaml:"field" toml:"field" json:"field" validate:"required"`

	// Type is a free-form sensitivity label.
	Type string `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"`

	// Pattern is the mask pattern. Exactly one of Pattern and Builtin is set.
	Pattern string `yaml:"pattern,omitempty" toml:"pattern,omitempty" json:"pattern,omitempty" validate:"required_without=Builtin,excluded_with=Builtin"`

	// Builtin names a predefined pattern such as "credit_card".
	Builtin string `yaml:"builtin,omitempty" toml:"builtin,omitempty" json:"builtin,omitempty" validate:"required_without=Pattern,excluded_with=Pattern"`

	// Character overrides the document masking character.
	Character string `yaml:"character,omitempty" toml:"character,omitempty" json:"character,omitempty" validate:"omitempty,len=1"`
}

// Document is the on-disk form of a masking schema.
type Document struct {
	DefaultCharacter string      `yaml:"default_character,omitempty" toml:"default_character,omitempty" validate:"omitempty,len=1"`
	Fields           []FieldSpec `yaml:"fields" toml:"fields" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the field and resolves its builtin name.
func (f FieldSpec) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, f.Field, err)
	}
	if f.Builtin != "" {
		if _, ok := censor.LookupBuiltin(f.Builtin); !ok {
			return fmt.Errorf("%w %q: unknown builtin %q", ErrInvalidSpec, f.Field, f.Builtin)
		}
	}
	return nil
}

// resolve returns the pattern and type for a validated spec. A builtin's
// name becomes the type when none is given.
func (f FieldSpec) resolve() (pattern, kind string) {
	if f.Builtin == "" {
		return f.Pattern, f.Type
	}
	b, _ := censor.BuiltinNamed(f.Builtin)
	kind = f.Type
	if kind == "" {
		kind = b.Name
	}
	return b.Pattern, kind
}

// Validate checks the document and every field in it.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalidSpec, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	for _, f := range d.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FormatFromPath infers the schema format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported schema file extension %q", filepath.Ext(path))
	}
}

// Parse decodes and validates a schema document.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse yaml schema: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse toml schema: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse toml schema: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads a schema document from path.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data, format)
}

// parseCharacter returns the single rune in s, or fallback when s is empty.
func parseCharacter(s string, fallback rune) (rune, error) {
	r, err := censor.ParseMaskingCharacter(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	if r == 0 {
		return fallback, nil
	}
	return r, nil
}
