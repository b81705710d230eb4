// ABOUTME: Tests for schema document parsing and validation
// ABOUTME: Covers YAML and TOML decoding, builtin resolution and rejected specs

package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

const yamlSchema = `
default_character: "*"
fields:
  - field: customer.card
    builtin: credit_card
  - field: customer.ssn
    type: national_id
    pattern: '(^\d{3}-\d{2}-)\d{4}$'
    character: "#"
`

const tomlSchema = `
default_character = "*"

[[fields]]
field = "customer.card"
builtin = "credit_card"

[[fields]]
field = "customer.ssn"
type = "national_id"
pattern = '(^\d{3}-\d{2}-)\d{4}$'
character = "#"
`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "yaml", data: yamlSchema, format: FormatYAML},
		{name: "toml", data: tomlSchema, format: FormatTOML},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "*", doc.DefaultCharacter)
			require.Len(t, doc.Fields, 2)
			assert.Equal(t, FieldSpec{Field: "customer.card", Builtin: "credit_card"}, doc.Fields[0])
			assert.Equal(t, FieldSpec{
				Field:     "customer.ssn",
				Type:      "national_id",
				Pattern:   censor.PatternSSN,
				Character: "#",
			}, doc.Fields[1])
		})
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	doc, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc.Fields)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "missing_field", data: "fields:\n  - builtin: ssn\n", format: FormatYAML},
		{name: "no_pattern", data: "fields:\n  - field: a\n", format: FormatYAML},
		{name: "pattern_and_builtin", data: "fields:\n  - field: a\n    pattern: (a)\n    builtin: ssn\n", format: FormatYAML},
		{name: "unknown_builtin", data: "fields:\n  - field: a\n    builtin: iban\n", format: FormatYAML},
		{name: "long_character", data: "fields:\n  - field: a\n    builtin: ssn\n    character: ab\n", format: FormatYAML},
		{name: "bad_default_character", data: "default_character: xy\n", format: FormatYAML},
		{name: "unknown_yaml_key", data: "fields:\n  - field: a\n    builtin: ssn\n    colour: red\n", format: FormatYAML},
		{name: "unknown_toml_key", data: "[[fields]]\nfield = \"a\"\nbuiltin = \"ssn\"\ncolour = \"red\"\n", format: FormatTOML},
		{name: "malformed_toml", data: "[[fields]\n", format: FormatTOML},
		{name: "unsupported_format", data: "", format: Format("ini")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestParse_MultibyteCharacter(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte("fields:\n  - field: a\n    builtin: ssn\n    character: \"•\"\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "•", doc.Fields[0].Character)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]Format{
		"schema.yaml": FormatYAML,
		"schema.YML":  FormatYAML,
		"schema.json": FormatYAML,
		"schema.toml": FormatTOML,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("schema.ini")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "schema.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlSchema), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Fields, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
