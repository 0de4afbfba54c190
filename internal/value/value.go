package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

var (
	// ErrWrongType is returned by accessors when the variant doesn't match.
	ErrWrongType = errors.New("wrong value type")

	// ErrMissingArgument is returned by Map getters for absent required keys.
	ErrMissingArgument = errors.New("missing required argument")
)

// Value is a small tagged union for JSON-like data passed to tools and
// returned from them. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	l    []Value
	m    Map
}

// Map is a string-keyed collection of Values with typed getters.
type Map map[string]Value

func Null() Value           { return Value{} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func List(items ...Value) Value {
	return Value{kind: KindList, l: items}
}
func FromMap(m Map) Value {
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean variant or ErrWrongType.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: have %s, want bool", ErrWrongType, v.kind)
	}
	return v.b, nil
}

// AsInt returns the integer variant. Floats with no fractional part convert.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), nil
		}
	}
	return 0, fmt.Errorf("%w: have %s, want int", ErrWrongType, v.kind)
}

// AsFloat returns the numeric variant widened to float64.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	}
	return 0, fmt.Errorf("%w: have %s, want number", ErrWrongType, v.kind)
}

// AsString returns the string variant or ErrWrongType.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: have %s, want string", ErrWrongType, v.kind)
	}
	return v.s, nil
}

// AsList returns the list variant or ErrWrongType.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, fmt.Errorf("%w: have %s, want list", ErrWrongType, v.kind)
	}
	return v.l, nil
}

// AsMap returns the map variant or ErrWrongType.
func (v Value) AsMap() (Map, error) {
	if v.kind != KindMap {
		return nil, fmt.Errorf("%w: have %s, want map", ErrWrongType, v.kind)
	}
	return v.m, nil
}

// ToAny converts the Value back to plain Go types for JSON encoding.
func (v Value) ToAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes the underlying variant.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// Render returns a compact deterministic string form. Map keys are sorted,
// which keeps prompts built from the same data byte-identical.
func (v Value) Render() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		parts := make([]string, len(v.l))
		for i, item := range v.l {
			parts[i] = item.Render()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q:%s", k, v.m[k].Render())
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "null"
	}
}

// FromJSON decodes raw JSON into a Value. Numbers without a fractional part
// become ints so tool argument checks stay predictable.
func FromJSON(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Null(), fmt.Errorf("decode value: %w", err)
	}
	return fromAny(decoded)
}

// MapFromJSON decodes raw JSON that must be an object.
func MapFromJSON(raw json.RawMessage) (Map, error) {
	v, err := FromJSON(raw)
	if err != nil {
		return nil, err
	}
	m, err := v.AsMap()
	if err != nil {
		return nil, fmt.Errorf("arguments must be an object: %w", err)
	}
	return m, nil
}

func fromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("bad number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return Null(), err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		m := make(Map, len(t))
		for k, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return Null(), err
			}
			m[k] = v
		}
		return FromMap(m), nil
	default:
		return Null(), fmt.Errorf("%w: unsupported type %T", ErrWrongType, in)
	}
}

// String returns the named string argument, failing with ErrMissingArgument
// or ErrWrongType so tools report named errors instead of panicking.
func (m Map) String(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("argument %s: %w", name, err)
	}
	return s, nil
}

// StringOr returns the named string argument or a default when absent.
func (m Map) StringOr(name, def string) (string, error) {
	if _, ok := m[name]; !ok {
		return def, nil
	}
	return m.String(name)
}

// Int returns the named integer argument.
func (m Map) Int(name string) (int64, error) {
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	i, err := v.AsInt()
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	return i, nil
}

// IntOr returns the named integer argument or a default when absent.
func (m Map) IntOr(name string, def int64) (int64, error) {
	if _, ok := m[name]; !ok {
		return def, nil
	}
	return m.Int(name)
}

// Bool returns the named boolean argument.
func (m Map) Bool(name string) (bool, error) {
	v, ok := m[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	b, err := v.AsBool()
	if err != nil {
		return false, fmt.Errorf("argument %s: %w", name, err)
	}
	return b, nil
}

// Has reports whether the key is present.
func (m Map) Has(name string) bool {
	_, ok := m[name]
	return ok
}
