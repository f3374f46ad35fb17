package adapter

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// priorityTextKeys are tried first when pulling display text out of a
// decoded JSON object.
var priorityTextKeys = []string{
	"text", "content", "message", "value", "output", "input", "body", "prompt", "parts",
}

// nonContentKeys never contribute text when falling back to a full-object
// sweep.
var nonContentKeys = map[string]bool{
	"id": true, "type": true, "role": true, "name": true, "model": true,
	"provider": true, "timestamp": true, "created_at": true, "updated_at": true,
	"status": true, "kind": true, "index": true,
}

// ExtractText pulls human-readable text out of a decoded JSON value.
// Objects are searched by priority key first, then by the remaining keys in
// sorted order so extraction is deterministic. Arrays join their fragments
// with newlines.
func ExtractText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		var fragments []string
		for _, item := range v {
			if text := ExtractText(item); text != "" {
				fragments = append(fragments, text)
			}
		}
		return strings.Join(fragments, "\n")
	case map[string]any:
		for _, key := range priorityTextKeys {
			if inner, ok := v[key]; ok {
				if text := ExtractText(inner); text != "" {
					return text
				}
			}
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fragments []string
		for _, key := range keys {
			if nonContentKeys[key] || isPriorityKey(key) {
				continue
			}
			if text := ExtractText(v[key]); text != "" {
				fragments = append(fragments, text)
			}
		}
		return strings.Join(fragments, "\n")
	default:
		return ""
	}
}

// StringField returns the trimmed string under key, or "".
func StringField(object map[string]any, keys ...string) string {
	for _, key := range keys {
		if raw, ok := object[key]; ok {
			if s, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// RawTimestampField returns the raw timestamp value under key as a string,
// preserving numeric epochs exactly as written.
func RawTimestampField(object map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := object[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			// encoding/json decodes numbers as float64; epoch values up to
			// 2^53 round-trip exactly.
			if v == math.Trunc(v) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func isPriorityKey(key string) bool {
	for _, p := range priorityTextKeys {
		if p == key {
			return true
		}
	}
	return false
}
