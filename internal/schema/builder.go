// ABOUTME: Builder assembling a Registry from explicit specs, schema files and struct tags
// ABOUTME: Resolves censor struct tags to JSON field paths once, at build time

package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

// TagName is the struct tag read by AddStruct.
const TagName = "censor"

// ErrDuplicateField is returned when a field path is registered twice.
var ErrDuplicateField = errors.New("duplicate field")

type entry struct {
	field   string
	kind    string
	pattern string
	char    rune
}

// Builder collects field registrations. Errors are deferred to Build so
// registrations can be chained.
type Builder struct {
	defaultChar rune
	cache       *censor.PatternCache
	logger      *slog.Logger
	entries     []entry
	errs        []error
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDefaultCharacter sets the masking character for fields that do not
// name one. Zero keeps censor.DefaultMaskingCharacter.
func WithDefaultCharacter(r rune) BuilderOption {
	return func(b *Builder) {
		b.defaultChar = r
	}
}

// WithPatternCache shares a compiled-pattern cache across registries.
func WithPatternCache(cache *censor.PatternCache) BuilderOption {
	return func(b *Builder) {
		b.cache = cache
	}
}

// WithLogger sets the logger handed to every strategy.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{defaultChar: censor.DefaultMaskingCharacter}
	for _, opt := range opts {
		opt(b)
	}
	if b.defaultChar == 0 {
		b.defaultChar = censor.DefaultMaskingCharacter
	}
	if b.cache == nil {
		b.cache = censor.NewPatternCache()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Add registers pattern for field. A zero char selects the default.
func (b *Builder) Add(field, pattern string, char rune) *Builder {
	if field == "" {
		b.errs = append(b.errs, fmt.Errorf("%w: empty field path", ErrInvalidSpec))
		return b
	}
	b.entries = append(b.entries, entry{field: field, pattern: pattern, char: char})
	return b
}

// AddSpec registers a validated FieldSpec.
func (b *Builder) AddSpec(spec FieldSpec) *Builder {
	return b.addSpec(spec, 0)
}

func (b *Builder) addSpec(spec FieldSpec, fallback rune) *Builder {
	if err := spec.Validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	char, err := parseCharacter(spec.Character, fallback)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	pattern, kind := spec.resolve()
	b.entries = append(b.entries, entry{field: spec.Field, kind: kind, pattern: pattern, char: char})
	return b
}

// AddDocument registers every field of doc. The document's default
// character applies to fields that do not name one.
func (b *Builder) AddDocument(doc *Document) *Builder {
	if doc == nil {
		return b
	}
	fallback, err := parseCharacter(doc.DefaultCharacter, 0)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	for _, spec := range doc.Fields {
		b.addSpec(spec, fallback)
	}
	return b
}

// AddStruct registers the censor-tagged fields of v, a struct or pointer to
// struct. Paths follow json tags; slice and array elements share the path
// of their parent field. A recursive type is walked once.
//
//	type Payment struct {
//		Card  string `json:"card" censor:"credit_card"`
//		Owner struct {
//			SSN string `json:"ssn" censor:"builtin=ssn,char=*"`
//		} `json:"owner"`
//	}
func (b *Builder) AddStruct(v any) *Builder {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		b.errs = append(b.errs, fmt.Errorf("%w: AddStruct needs a struct, got %T", ErrInvalidSpec, v))
		return b
	}
	b.walkStruct(t, "", map[reflect.Type]bool{})
	return b
}

func (b *Builder) walkStruct(t reflect.Type, prefix string, visiting map[reflect.Type]bool) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		ft := elemType(sf.Type)
		if !sf.IsExported() && !(sf.Anonymous && ft.Kind() == reflect.Struct) {
			continue
		}

		name, skip := jsonName(sf)
		if skip {
			continue
		}

		if sf.Anonymous && ft.Kind() == reflect.Struct && !hasJSONName(sf) {
			b.walkStruct(ft, prefix, visiting)
			continue
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if tag, ok := sf.Tag.Lookup(TagName); ok {
			spec, err := parseTag(path, tag)
			if err != nil {
				b.errs = append(b.errs, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err))
				continue
			}
			b.AddSpec(spec)
			continue
		}

		if ft.Kind() == reflect.Struct {
			b.walkStruct(ft, path, visiting)
		}
	}
}

// elemType strips pointers, slices and arrays down to the element type.
func elemType(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, false
}

func hasJSONName(sf reflect.StructField) bool {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	return name != ""
}

// parseTag turns a censor tag into a FieldSpec. A bare value names a
// builtin. Otherwise the tag is a comma-separated list of key=value pairs;
// pattern must come last because patterns may contain commas.
func parseTag(path, tag string) (FieldSpec, error) {
	spec := FieldSpec{Field: path}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return spec, fmt.Errorf("%w: empty %s tag", ErrInvalidSpec, TagName)
	}
	if !strings.Contains(tag, "=") {
		spec.Builtin = tag
		return spec, nil
	}

	rest := tag
	for rest != "" {
		if value, ok := strings.CutPrefix(rest, "pattern="); ok {
			spec.Pattern = value
			break
		}
		var part string
		part, rest, _ = strings.Cut(rest, ",")
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return spec, fmt.Errorf("%w: malformed %s tag option %q", ErrInvalidSpec, TagName, part)
		}
		switch strings.TrimSpace(key) {
		case "builtin":
			spec.Builtin = value
		case "char":
			spec.Character = value
		case "type":
			spec.Type = value
		default:
			return spec, fmt.Errorf("%w: unknown %s tag option %q", ErrInvalidSpec, TagName, key)
		}
	}
	return spec, nil
}

// Build validates the registrations and returns an immutable Registry.
// Patterns that fail to compile are logged but still registered, so the
// affected fields render as censor.MaskingError.
func (b *Builder) Build() (*Registry, error) {
	errs := slices.Clone(b.errs)

	censors := make(map[rune]*censor.Censor)
	strategies := make(map[string]*Strategy, len(b.entries))
	for _, e := range b.entries {
		if _, dup := strategies[e.field]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateField, e.field))
			continue
		}

		char := e.char
		if char == 0 {
			char = b.defaultChar
		}
		c, ok := censors[char]
		if !ok {
			c = censor.New(
				censor.WithMaskingCharacter(char),
				censor.WithPatternCache(b.cache),
				censor.WithLogger(b.logger),
			)
			censors[char] = c
		}

		if e.pattern != "" {
			if _, err := b.cache.Compile(e.pattern); err != nil {
				b.logger.Warn("field pattern does not compile",
					slog.String("field", e.field),
					slog.String("error", err.Error()),
				)
			}
		}

		strategies[e.field] = &Strategy{
			field:   e.field,
			kind:    e.kind,
			pattern: e.pattern,
			censor:  c,
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(strategies))
	for f := range strategies {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	return &Registry{
		strategies: strategies,
		fields:     fields,
		index:      newFieldIndex(fields),
		cache:      b.cache,
	}, nil
}
