// ABOUTME: Sensitive attribute redaction for secure logging
// ABOUTME: Applies registered field masks to slog attributes and blanks well-known secrets

package observability

import (
	"log/slog"
	"regexp"
	"strings"
)

// RedactionPlaceholder is the replacement text for redacted values.
const RedactionPlaceholder = "[REDACTED]"

// FieldMasker masks the value of a named field. It reports false when the
// field has no masking strategy.
type FieldMasker interface {
	MaskField(field, value string) (string, bool)
}

type secretRule struct {
	re          *regexp.Regexp
	replacement string
}

// secretRules catch credentials embedded in free-form strings.
// [^\s&]+ stops a value at whitespace or & so query strings keep their shape.
var secretRules = []secretRule{
	{regexp.MustCompile(`(?i)(password|passwd|pwd)=[^\s&]+`), "${1}=" + RedactionPlaceholder},
	{regexp.MustCompile(`(?i)(token|auth_token|access_token)=[^\s&]+`), "${1}=" + RedactionPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[^\s&]+`), "${1}=" + RedactionPlaceholder},
	{regexp.MustCompile(`(?i)(secret|client_secret)=[^\s&]+`), "${1}=" + RedactionPlaceholder},
	{regexp.MustCompile(`(?i)Bearer\s+[^\s]+`), "Bearer " + RedactionPlaceholder},
}

// sensitiveKeyPatterns are substrings of attribute keys that always hold secrets.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"pwd",
	"token",
	"secret",
	"api_key",
	"api-key",
	"apikey",
	"authorization",
	"credential",
	"private_key",
	"private-key",
	"privatekey",
}

// RedactSensitive replaces credentials embedded in a string with [REDACTED].
func RedactSensitive(value string) string {
	for _, rule := range secretRules {
		value = rule.re.ReplaceAllString(value, rule.replacement)
	}
	return value
}

// IsSensitiveKey returns true if the key name suggests a secret.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lowerKey, pattern) {
			return true
		}
	}
	return false
}

// Redactor rewrites slog attributes before they reach the handler.
//
// String attributes whose dotted key (group names included) has a masking
// strategy are masked by it. Keys that look like secrets are replaced with
// RedactionPlaceholder. Every other string has embedded credentials stripped.
type Redactor struct {
	masker FieldMasker
}

// NewRedactor creates a Redactor. masker may be nil.
func NewRedactor(masker FieldMasker) *Redactor {
	return &Redactor{masker: masker}
}

// ReplaceAttr implements slog.HandlerOptions.ReplaceAttr.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey:
			return a
		}
	}

	value := a.Value.Resolve()
	if value.Kind() != slog.KindString {
		return a
	}

	field := a.Key
	if len(groups) > 0 {
		field = strings.Join(groups, ".") + "." + a.Key
	}

	if r.masker != nil {
		if masked, ok := r.masker.MaskField(field, value.String()); ok {
			return slog.String(a.Key, masked)
		}
	}

	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactionPlaceholder)
	}

	return slog.String(a.Key, RedactSensitive(value.String()))
}
