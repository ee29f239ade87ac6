package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValueKind enumerates the supported flag value types.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindFloat  ValueKind = "float"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
	KindJSON   ValueKind = "json"
)

// Value is a tagged union holding a flag default or variant payload. Each
// value carries an explicit kind validated at construction, so evaluation
// never has to coerce types at runtime.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	flt  float64
	bol  bool
	list []string
	raw  json.RawMessage
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func IntValue(i int64) Value { return Value{kind: KindInt, num: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

func BoolValue(b bool) Value { return Value{kind: KindBool, bol: b} }

func ListValue(items ...string) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

// JSONValue wraps a raw JSON document. Invalid JSON is rejected so that a
// malformed payload can never reach evaluation.
func JSONValue(raw []byte) (Value, error) {
	if !json.Valid(raw) {
		return Value{}, errors.Join(ErrInvalidValue, errors.New("malformed json payload"))
	}
	return Value{kind: KindJSON, raw: slices.Clone(raw)}, nil
}

// Kind returns the value's kind, or the empty string for the zero Value.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether the value was never set.
func (v Value) IsZero() bool { return v.kind == "" }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.flt, v.kind == KindFloat }

func (v Value) AsBool() (bool, bool) { return v.bol, v.kind == KindBool }

func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

func (v Value) AsJSON() (json.RawMessage, bool) {
	if v.kind != KindJSON {
		return nil, false
	}
	return slices.Clone(v.raw), true
}

// Any returns the underlying value as an interface, nil for the zero Value.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.bol
	case KindList:
		return slices.Clone(v.list)
	case KindJSON:
		return slices.Clone(v.raw)
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindList:
		return slices.Equal(v.list, other.list)
	case KindJSON:
		return string(v.raw) == string(other.raw)
	default:
		return v.str == other.str && v.num == other.num &&
			v.flt == other.flt && v.bol == other.bol
	}
}

type valueEnvelope struct {
	Kind  ValueKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	payload, err := json.Marshal(v.Any())
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{Kind: v.kind, Value: payload})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Join(ErrInvalidValue, err)
	}
	if env.Kind == KindJSON {
		parsed, err := JSONValue(env.Value)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	parsed, err := parseValue(env.Kind, func(dst any) error {
		return json.Unmarshal(env.Value, dst)
	})
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	if v.IsZero() {
		return nil, nil
	}
	payload := v.Any()
	if v.kind == KindJSON {
		payload = string(v.raw)
	}
	return map[string]any{"kind": string(v.kind), "value": payload}, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var env struct {
		Kind  ValueKind `yaml:"kind"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&env); err != nil {
		return errors.Join(ErrInvalidValue, err)
	}
	parsed, err := parseValue(env.Kind, func(dst any) error {
		return env.Value.Decode(dst)
	})
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// parseValue decodes a payload into the variant named by kind. The switch is
// exhaustive over ValueKind; anything else is rejected.
func parseValue(kind ValueKind, decode func(any) error) (Value, error) {
	switch kind {
	case KindString:
		var s string
		if err := decode(&s); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return StringValue(s), nil
	case KindInt:
		var i int64
		if err := decode(&i); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return IntValue(i), nil
	case KindFloat:
		var f float64
		if err := decode(&f); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return FloatValue(f), nil
	case KindBool:
		var b bool
		if err := decode(&b); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return BoolValue(b), nil
	case KindList:
		var items []string
		if err := decode(&items); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return ListValue(items...), nil
	case KindJSON:
		// YAML carries JSON payloads as strings; the JSON codec handles
		// this kind before reaching parseValue.
		var raw string
		if err := decode(&raw); err != nil {
			return Value{}, errors.Join(ErrInvalidValue, err)
		}
		return JSONValue([]byte(raw))
	default:
		return Value{}, errors.Join(ErrInvalidValue, fmt.Errorf("unknown value kind %q", kind))
	}
}
