package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Log records are decoded into generic maps because the payload shapes
// vary between host versions. These helpers read them loosely.

// object returns m[key] when it is a JSON object.
func object(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

// truthy reports whether v carries a non-empty value: not null, not false,
// not zero, not an empty string, array or object.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// firstTruthy returns the first non-empty value among keys.
func firstTruthy(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v := m[k]; truthy(v) {
			return v, true
		}
	}
	return nil, false
}

// stringValue returns the string form of a decoded JSON value. Strings are
// returned as is and everything else is JSON-encoded.
func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return encodeJSON(v)
}

// stringField returns m[key] if it is a string.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// encodeJSON marshals v without HTML escaping so shell commands and code
// survive intact in entry text.
func encodeJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02",
}

// parseTimestamp parses an ISO-8601 timestamp and normalizes it to UTC.
// Values without an offset are read as UTC. Anything unparseable,
// including non-string values, yields nil.
func parseTimestamp(raw any) *time.Time {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// FormatTimestamp renders t as RFC3339 UTC with a literal Z, or "" for nil.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
