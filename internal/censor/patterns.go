// ABOUTME: Predefined mask patterns for common sensitive values
// ABOUTME: Pattern text is kept byte-identical for compatibility with existing schemas

package censor

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Predefined mask patterns.
const (
	// PatternPassword masks a whole password or alphanumeric PIN of 4 to 100
	// word characters. Shorter or longer values produce MaskingError.
	PatternPassword = `(^\w{4,100}$)`

	// PatternEmail masks everything before the @ of an email address.
	PatternEmail = `(^[^@]+)@[^@]+$`

	// PatternPhone masks the area code and exchange of DDD-DDD-DDDD.
	PatternPhone = `(^\d{3})-(\d{3})-\d{4}$`

	// PatternCreditCard masks the two middle blocks of DDDD-DDDD-DDDD-DDDD.
	PatternCreditCard = `^\d{4}-(\d{4})-(\d{4})-\d{4}$`

	// PatternSSN masks the DDD-DD- prefix of DDD-DD-DDDD.
	PatternSSN = `(^\d{3}-\d{2}-)\d{4}$`
)

// Builtin is a named predefined pattern.
type Builtin struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

var builtins = []Builtin{
	{Name: "credit_card", Pattern: PatternCreditCard, Description: "Credit card number: dddd-XXXX-XXXX-dddd"},
	{Name: "email", Pattern: PatternEmail, Description: "Email address: every character before @"},
	{Name: "password", Pattern: PatternPassword, Description: "Password or PIN of 4-100 word characters: all characters"},
	{Name: "phone", Pattern: PatternPhone, Description: "Phone number: XXX-XXX-dddd"},
	{Name: "ssn", Pattern: PatternSSN, Description: "Social security number: XXXXXXXdddd"},
}

// Builtins returns the predefined patterns sorted by name.
func Builtins() []Builtin {
	return slices.Clone(builtins)
}

// BuiltinNamed returns the predefined pattern entry with the given name.
// Names are case-insensitive and accept '-' in place of '_'.
func BuiltinNamed(name string) (Builtin, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, b := range builtins {
		if b.Name == key {
			return b, true
		}
	}
	return Builtin{}, false
}

// LookupBuiltin returns the pattern text of the named predefined pattern.
func LookupBuiltin(name string) (string, bool) {
	b, ok := BuiltinNamed(name)
	return b.Pattern, ok
}

// ResolvePattern returns pattern, or the pattern of the named builtin when
// builtin is set. Naming both is an error.
func ResolvePattern(pattern, builtin string) (string, error) {
	if builtin == "" {
		return pattern, nil
	}
	if pattern != "" {
		return "", errors.New("pattern and builtin are mutually exclusive")
	}
	p, ok := LookupBuiltin(builtin)
	if !ok {
		return "", fmt.Errorf("unknown builtin pattern %q", builtin)
	}
	return p, nil
}
