package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Merged is the result of overlaying overrides onto defaults. It is created
// fresh per operation invocation and treated as read-only for its lifetime.
// Command-line values arrive as strings, so the typed accessors coerce.
type Merged struct {
	keys   []string
	values map[string]interface{}
}

// Get returns the raw value for key and whether it is present
func (m *Merged) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in defaults order
func (m *Merged) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// IsSet reports whether key holds a non-nil value
func (m *Merged) IsSet(key string) bool {
	v, ok := m.values[key]
	return ok && v != nil
}

// String returns the value for key rendered as a string, or "" if unset
func (m *Merged) String(key string) string {
	v, ok := m.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Bool returns the value for key as a boolean
func (m *Merged) Bool(key string) bool {
	switch v := m.values[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.ToLower(v))
		return err == nil && b
	}
	return false
}

// Int returns the value for key as an int, or fallback if absent or
// not convertible
func (m *Merged) Int(key string, fallback int) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Float returns the value for key as a float64, or fallback if absent or
// not convertible
func (m *Merged) Float(key string, fallback float64) float64 {
	switch v := m.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Map returns a copy of the merged values. Callers own the copy.
func (m *Merged) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
