package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// maxDepth bounds map/list nesting, matching DynamoDB's own limit.
const maxDepth = 32

// Value is a schema-less feature value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	m    map[string]Value
	l    []Value
}

func NullValue() Value            { return Value{} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }

// MapValue wraps m. A nil map is stored as an empty map.
func MapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// ListValue wraps items. No items yields an empty list, not null.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, l: items}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool)        { return v.s, v.kind == KindString }
func (v Value) AsNumber() (float64, bool)       { return v.n, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool)            { return v.b, v.kind == KindBool }
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }
func (v Value) AsList() ([]Value, bool)         { return v.l, v.kind == KindList }

// Interface converts v to plain Go values: nil, string, float64, bool,
// map[string]any or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		return v.b
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}

// Equal reports whether v and other hold the same variant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == other.s
	case KindNumber:
		return v.n == other.n
	case KindBool:
		return v.b == other.b
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, item := range v.m {
			o, ok := other.m[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.l) != len(other.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(other.l[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// MarshalJSON encodes v as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.n) || math.IsInf(v.n, 0)) {
		return nil, &MarshalError{Reason: fmt.Sprintf("number %v is not representable", v.n)}
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON document into v. Numbers are decoded
// through json.Number.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts decoded JSON or plain Go values into a Value. Supported inputs are
// nil, Value, string, bool, the built-in integer and float types, json.Number,
// map[string]any, map[string]Value, []any, []string and []Value. Anything else, or
// nesting deeper than 32 levels, fails with a *MarshalError.
func FromAny(x any) (Value, error) {
	return fromAny(x, "", 0)
}

func fromAny(x any, path string, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, &MarshalError{Path: path, Reason: "nesting exceeds 32 levels"}
	}
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		return numberFromFloat(t, path)
	case float32:
		return numberFromFloat(float64(t), path)
	case int:
		return NumberValue(float64(t)), nil
	case int8:
		return NumberValue(float64(t)), nil
	case int16:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case uint:
		return NumberValue(float64(t)), nil
	case uint8:
		return NumberValue(float64(t)), nil
	case uint16:
		return NumberValue(float64(t)), nil
	case uint32:
		return NumberValue(float64(t)), nil
	case uint64:
		return NumberValue(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, &MarshalError{Path: path, Reason: fmt.Sprintf("number %q: %v", t.String(), err)}
		}
		return numberFromFloat(f, path)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := fromAny(item, joinPath(path, k), depth+1)
			if err != nil {
				return Value{}, err
			}
			out[k] = val
		}
		return MapValue(out), nil
	case map[string]Value:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := fromAny(item, joinPath(path, k), depth+1)
			if err != nil {
				return Value{}, err
			}
			out[k] = val
		}
		return MapValue(out), nil
	case []any:
		out := make([]Value, len(t))
		for i, item := range t {
			val, err := fromAny(item, indexPath(path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			out[i] = val
		}
		return ListValue(out...), nil
	case []string:
		out := make([]Value, len(t))
		for i, item := range t {
			out[i] = StringValue(item)
		}
		return ListValue(out...), nil
	case []Value:
		out := make([]Value, len(t))
		for i, item := range t {
			val, err := fromAny(item, indexPath(path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			out[i] = val
		}
		return ListValue(out...), nil
	}
	return Value{}, &MarshalError{Path: path, Reason: fmt.Sprintf("unsupported type %T", x)}
}

func numberFromFloat(f float64, path string) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, &MarshalError{Path: path, Reason: fmt.Sprintf("number %v is not representable", f)}
	}
	return NumberValue(f), nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// Data maps feature names to values.
type Data map[string]Value

// DataFromMap converts a decoded JSON object into Data.
func DataFromMap(m map[string]any) (Data, error) {
	out := make(Data, len(m))
	for k, item := range m {
		val, err := fromAny(item, k, 1)
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}

// Names returns the feature names in sorted order.
func (d Data) Names() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Filter returns the subset of d named in names. Unknown names are ignored.
func (d Data) Filter(names []string) Data {
	out := make(Data, len(names))
	for _, name := range names {
		if v, ok := d[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Equal reports whether d and other hold the same names and values.
func (d Data) Equal(other Data) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		o, ok := other[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}
