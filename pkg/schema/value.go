package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindPath
	KindObject
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindPath:
		return "path"
	case KindObject:
		return "object"
	case KindOpaque:
		return "opaque"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged field value. The zero Value is null. Opaque values carry
// data for fields without metadata, or data that did not fit the declared
// type.
type Value struct {
	kind Kind
	text string
	num  float64
	flag bool
	obj  map[string]any
	raw  any
}

func Null() Value                   { return Value{} }
func Text(s string) Value           { return Value{kind: KindText, text: s} }
func Number(f float64) Value        { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value             { return Value{kind: KindBool, flag: b} }
func Path(p string) Value           { return Value{kind: KindPath, text: p} }
func Object(m map[string]any) Value { return Value{kind: KindObject, obj: m} }

// Opaque wraps an arbitrary value. nil yields Null and an existing Value is
// returned unchanged.
func Opaque(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Null()
	case Value:
		return typed
	default:
		return Value{kind: KindOpaque, raw: v}
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

func (v Value) Path() (string, bool) {
	return v.text, v.kind == KindPath
}

func (v Value) Object() (map[string]any, bool) {
	return v.obj, v.kind == KindObject
}

// Interface returns the plain Go representation: string, float64, bool,
// map[string]any, the opaque payload, or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindText, KindPath:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindObject:
		return v.obj
	case KindOpaque:
		return v.raw
	default:
		return nil
	}
}

// IsEmpty reports whether the value counts as absent for required checks.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText, KindPath:
		return strings.TrimSpace(v.text) == ""
	case KindObject:
		return len(v.obj) == 0
	case KindOpaque:
		if s, ok := v.raw.(string); ok {
			return strings.TrimSpace(s) == ""
		}
		return false
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindText, KindPath:
		return strconv.Quote(v.text)
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return fmt.Sprint(v.Interface())
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes into an opaque Value; Model construction narrows it to
// the declared type.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: decode value: %w", err)
	}
	*v = Opaque(raw)
	return nil
}

// coerce narrows raw to the variant required by t. The boolean is false when
// raw's shape disagrees with t, in which case raw is kept as an opaque value.
func coerce(t FieldType, raw any) (Value, bool) {
	if existing, ok := raw.(Value); ok {
		raw = existing.Interface()
	}
	if raw == nil {
		return Null(), true
	}

	switch t {
	case FieldTypeText, FieldTypePassword:
		if s, ok := raw.(string); ok {
			return Text(s), true
		}
	case FieldTypePath:
		if s, ok := raw.(string); ok {
			return Path(s), true
		}
	case FieldTypeNumber:
		if f, ok := toFloat(raw); ok {
			return Number(f), true
		}
	case FieldTypeCheckbox:
		if b, ok := raw.(bool); ok {
			return Bool(b), true
		}
	case FieldTypeObject:
		if m, ok := toObject(raw); ok {
			return Object(m), true
		}
	case FieldTypeDropdown:
		if s, ok := raw.(string); ok {
			return Text(s), true
		}
		if b, ok := raw.(bool); ok {
			return Bool(b), true
		}
		if f, ok := toFloat(raw); ok {
			return Number(f), true
		}
	default:
		return Opaque(raw), true
	}
	return Opaque(raw), false
}

// fits reports whether an already stored value matches t.
func fits(t FieldType, v Value) bool {
	if v.kind == KindNull || !t.Known() {
		return true
	}
	switch t {
	case FieldTypeText, FieldTypePassword:
		return v.kind == KindText
	case FieldTypePath:
		return v.kind == KindPath
	case FieldTypeNumber:
		return v.kind == KindNumber
	case FieldTypeCheckbox:
		return v.kind == KindBool
	case FieldTypeObject:
		return v.kind == KindObject
	case FieldTypeDropdown:
		return v.kind == KindText || v.kind == KindNumber || v.kind == KindBool
	}
	return false
}

func toFloat(raw any) (float64, bool) {
	switch typed := raw.(type) {
	case float64:
		return typed, true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case bool, string:
		return 0, false
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func toObject(raw any) (map[string]any, bool) {
	if m, ok := raw.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(raw)
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

func describe(raw any) string {
	if v, ok := raw.(Value); ok {
		return v.kind.String()
	}
	if raw == nil {
		return "null"
	}
	return fmt.Sprintf("%T", raw)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
