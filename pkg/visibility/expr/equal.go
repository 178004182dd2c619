package expr

import (
	"encoding/json"
	"reflect"
)

// Equal reports whether two condition values are equal. Numbers of any Go
// numeric type compare by value, maps and slices compare element-wise, and
// everything else must match in type and value. Strings never equal numbers
// or booleans.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if fa, ok := coerceNumber(a); ok {
		fb, ok := coerceNumber(b)
		return ok && fa == fb
	}
	if _, ok := coerceNumber(b); ok {
		return false
	}

	switch left := a.(type) {
	case string:
		right, ok := b.(string)
		return ok && left == right
	case bool:
		right, ok := b.(bool)
		return ok && left == right
	case map[string]any:
		right, ok := toMap(b)
		if !ok || len(left) != len(right) {
			return false
		}
		for key, lv := range left {
			rv, exists := right[key]
			if !exists || !Equal(lv, rv) {
				return false
			}
		}
		return true
	case []any:
		right, ok := toSlice(b)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !Equal(left[i], right[i]) {
				return false
			}
		}
		return true
	}

	if left, ok := toMap(a); ok {
		return Equal(left, b)
	}
	if left, ok := toSlice(a); ok {
		return Equal(left, b)
	}
	return reflect.DeepEqual(a, b)
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func toSlice(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
