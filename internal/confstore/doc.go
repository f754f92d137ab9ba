package confstore

import (
	"fmt"
	"strconv"
	"strings"
)

// The configuration document is a dynamic tree: tables are map[string]any,
// arrays are []any, leaves are TOML scalars. These helpers follow the
// normalize-on-load pattern instead of assuming a fixed schema.

func asTable(v any) (map[string]any, bool) {
	t, ok := v.(map[string]any)
	return t, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// toText coerces any scalar to its text form; composite values fall back to
// fmt formatting so a malformed key still normalizes to something stable.
func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ensureTable returns parent[key] as a table, replacing whatever was there
// if it is not one.
func ensureTable(parent map[string]any, key string) map[string]any {
	if t, ok := asTable(parent[key]); ok {
		return t
	}
	t := map[string]any{}
	parent[key] = t
	return t
}

// ensureArray returns parent[key] as an array, replacing whatever was there
// if it is not one.
func ensureArray(parent map[string]any, key string) []any {
	if a, ok := asArray(parent[key]); ok {
		return a
	}
	a := []any{}
	parent[key] = a
	return a
}
