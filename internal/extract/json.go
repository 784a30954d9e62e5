// Package extract pulls clean values out of loosely typed JSON documents and
// HTML markup. Missing or mistyped fields yield zero values, never errors.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Object is a decoded JSON object.
type Object = map[string]interface{}

// DecodeObject parses body as a JSON object. An HTML error page is reported
// explicitly since some APIs answer blocked requests with markup.
func DecodeObject(body []byte) (Object, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<") {
		return nil, fmt.Errorf("expected JSON, got HTML: %s", snippet(trimmed))
	}
	var out Object
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, snippet(trimmed))
	}
	return out, nil
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

// String returns m[key] when it is a string.
func String(m Object, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// FirstString returns the first non-blank value.
func FirstString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Int returns m[key] as an int, accepting numbers and numeric strings.
func Int(m Object, key string) int {
	if v, ok := m[key]; ok {
		return ToInt(v)
	}
	return 0
}

// Bool returns m[key] when it is a bool.
func Bool(m Object, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Map returns the nested object at key, or an empty object.
func Map(m Object, key string) Object {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return Object{}
}

// Array returns the array at key, or an empty slice.
func Array(m Object, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

// Objects returns the objects in the array at key, skipping other values.
func Objects(m Object, key string) []Object {
	arr := Array(m, key)
	out := make([]Object, 0, len(arr))
	for _, v := range arr {
		if obj, ok := v.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

// ToInt converts a JSON scalar to an int. Unparseable input is zero.
func ToInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(val))
		return i
	case int:
		return val
	case json.Number:
		i, _ := val.Int64()
		return int(i)
	default:
		return 0
	}
}
