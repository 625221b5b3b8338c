package types

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// DefaultLocale is used whenever a localized value has to collapse to one string.
const DefaultLocale = "en"

// LocalizedText holds a per-locale string. Catalog documents send either a
// plain string or an object keyed by locale ({"en": "...", "hi": "..."});
// both shapes decode into the same map.
type LocalizedText map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (l *LocalizedText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '"' {
		var plain string
		if err := json.Unmarshal(trimmed, &plain); err != nil {
			return err
		}
		*l = LocalizedText{DefaultLocale: plain}
		return nil
	}

	if trimmed[0] != '{' {
		// numbers, arrays and booleans carry no usable name
		*l = nil
		return nil
	}

	raw := map[string]any{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	out := LocalizedText{}
	for locale, value := range raw {
		if s, ok := value.(string); ok {
			out[strings.ToLower(locale)] = s
		}
	}
	*l = out
	return nil
}

// Resolve returns the requested locale, falling back to English and then to
// any non-empty value in stable key order.
func (l LocalizedText) Resolve(locale string) string {
	if v := strings.TrimSpace(l[strings.ToLower(locale)]); v != "" {
		return v
	}
	if v := strings.TrimSpace(l[DefaultLocale]); v != "" {
		return v
	}
	for _, key := range sortedKeys(l) {
		if v := strings.TrimSpace(l[key]); v != "" {
			return v
		}
	}
	return ""
}

// String resolves the default locale.
func (l LocalizedText) String() string {
	return l.Resolve(DefaultLocale)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
