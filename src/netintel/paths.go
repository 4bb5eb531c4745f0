// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder is rendered in place of a missing value.
const Placeholder = "—"

// KeyPath is a sequence of object keys. Each segment is matched
// case-insensitively.
type KeyPath []string

// P builds a [KeyPath] from its segments.
func P(segments ...string) KeyPath {
	return KeyPath(segments)
}

// PathCI walks v along path. Each segment is matched against the keys of
// the current object, preferring an exact match and otherwise the first
// case-insensitive match in sorted key order.
//
// The second result is false when a segment is missing or the walk reaches
// a non-object before the path is exhausted. A present JSON null is found.
func PathCI(v any, path KeyPath) (any, bool) {
	cur := v
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := lookupKeyCI(obj, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lookupKeyCI(obj map[string]any, key string) (any, bool) {
	if val, ok := obj[key]; ok {
		return val, true
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return obj[k], true
		}
	}
	return nil, false
}

// FirstPath returns the value at the first path that resolves in v.
// The candidates are equally valid shapes of the same datum; order
// expresses preference only.
func FirstPath(v any, paths ...KeyPath) (any, bool) {
	for _, p := range paths {
		if val, ok := PathCI(v, p); ok {
			return val, true
		}
	}
	return nil, false
}

// displayValue renders v as a single display line.
// Lists are joined with ", ", objects become compact JSON.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return Placeholder
	case string:
		if val == "" {
			return Placeholder
		}
		return val
	case []any:
		if len(val) == 0 {
			return Placeholder
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, scalarString(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return compactJSON(val)
	default:
		return scalarString(val)
	}
}

// scalarString renders a decoded JSON value without the placeholder rules.
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		return compactJSON(val)
	default:
		return fmt.Sprint(val)
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// isPresent reports whether v carries a usable value: not nil, not an
// empty string, not an empty list.
func isPresent(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
