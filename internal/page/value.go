package page

import (
	"encoding/json"
	"fmt"
)

// Kind is the populated variant of a Value.
type Kind int

const (
	// KindString is a string attribute.
	KindString Kind = iota + 1
	// KindInt is an integer attribute.
	KindInt
	// KindFloat is a floating point attribute.
	KindFloat
	// KindJSON is a structured JSON attribute.
	KindJSON
	// KindBool is a boolean attribute.
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindJSON:
		return "json"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a page attribute value holding exactly one variant.
//
// The zero Value is absent: it holds no variant at all.
type Value struct {
	kind Kind
	v    any
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, v: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, v: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, v: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, v: b} }

// JSON returns a structured Value from an already decoded JSON document.
// A nil document is JSON null, which is absent.
func JSON(doc any) Value {
	if doc == nil {
		return Value{}
	}
	return Value{kind: KindJSON, v: doc}
}

// ParseJSON decodes data and returns it as a structured Value.
func ParseJSON(data []byte) (Value, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("invalid json attribute: %v", err)
	}
	return JSON(doc), nil
}

// Kind returns the populated variant, 0 when the value is absent.
func (v Value) Kind() Kind { return v.kind }

// Valid returns true when a variant is populated.
func (v Value) Valid() bool { return v.kind != 0 }

// Interface returns the populated variant as a plain Go value, or nil when absent.
func (v Value) Interface() any { return v.v }

// Union is a raw attribute value as stored: every variant is optional.
type Union struct {
	String *string
	Int    *int64
	Float  *float64
	JSON   any
	Bool   *bool
}

// Resolve returns the first populated variant, in the order string, int, float, json, bool.
func (u Union) Resolve() Value {
	switch {
	case u.String != nil:
		return String(*u.String)
	case u.Int != nil:
		return Int(*u.Int)
	case u.Float != nil:
		return Float(*u.Float)
	case u.JSON != nil:
		return JSON(u.JSON)
	case u.Bool != nil:
		return Bool(*u.Bool)
	}
	return Value{}
}
