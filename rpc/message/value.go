package message

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// --------------------------------------------------------------------------
// Value Type Definition
// --------------------------------------------------------------------------

// ValueType defines the variant of a Value.
type ValueType uint8

const (
	TypeNil ValueType = iota
	TypeBool
	TypeInt    // signed integer, also covers all unsigned values <= MaxInt64
	TypeUint   // unsigned integer above MaxInt64
	TypeFloat  // 64-bit float
	TypeString // UTF-8 text
	TypeBinary // raw byte blob
	TypeArray  // ordered sequence of values
	TypeMap    // ordered key-value pairs, keys need not be unique
	TypeExt    // typed binary blob (msgpack extension)
)

// String returns the string representation of a ValueType.
func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeExt:
		return "ext"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Value Structure
// --------------------------------------------------------------------------

// Value is a closed tagged union over every data shape the wire format can
// carry. The engine never interprets values, it only moves them between the
// wire and the handler layer.
//
// Only the fields belonging to Type are meaningful; the factory functions
// below keep the representation normalized so that structural comparison
// (Equal, reflect.DeepEqual) is stable across an encode/decode round trip.
type Value struct {
	Type ValueType `json:"type"`

	Bool    bool       `json:"bool,omitempty"`
	Int     int64      `json:"int,omitempty"`
	Uint    uint64     `json:"uint,omitempty"`
	Float   float64    `json:"float,omitempty"`
	Str     string     `json:"str,omitempty"`
	Bin     []byte     `json:"bin,omitempty"`
	Array   []Value    `json:"array,omitempty"`
	Entries []MapEntry `json:"entries,omitempty"`

	// Extension values only
	ExtType int8 `json:"ext_type,omitempty"`
}

// MapEntry is one key-value pair of a map value. The wire format allows
// duplicate keys, so maps are kept as ordered entry lists instead of Go maps.
type MapEntry struct {
	Key Value `json:"key"`
	Val Value `json:"val"`
}

// --------------------------------------------------------------------------
// Value Factory Functions
// --------------------------------------------------------------------------

// Nil returns the nil value.
func Nil() Value {
	return Value{Type: TypeNil}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{Type: TypeBool, Bool: b}
}

// Int returns a signed integer value.
func Int(i int64) Value {
	return Value{Type: TypeInt, Int: i}
}

// Uint returns an unsigned integer value. Values representable as int64 are
// normalized to the int variant so that Uint(5) and Int(5) compare equal and
// survive a wire round trip unchanged.
func Uint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Value{Type: TypeInt, Int: int64(u)}
	}
	return Value{Type: TypeUint, Uint: u}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{Type: TypeFloat, Float: f}
}

// Str returns a string value.
func Str(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// Bin returns a binary value. A nil slice is normalized to an empty one.
func Bin(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Type: TypeBinary, Bin: b}
}

// Array returns an array value over the given elements.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Type: TypeArray, Array: elems}
}

// Map returns a map value over the given entries.
func Map(entries ...MapEntry) Value {
	if entries == nil {
		entries = []MapEntry{}
	}
	return Value{Type: TypeMap, Entries: entries}
}

// Ext returns an extension value with the given type tag and payload.
func Ext(extType int8, data []byte) Value {
	if data == nil {
		data = []byte{}
	}
	return Value{Type: TypeExt, ExtType: extType, Bin: data}
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// IsNil reports whether the value is the nil variant.
func (v Value) IsNil() bool {
	return v.Type == TypeNil
}

// AsInt returns the value as an int64 if it is an integer variant.
func (v Value) AsInt() (int64, bool) {
	switch v.Type {
	case TypeInt:
		return v.Int, true
	case TypeUint:
		if v.Uint <= math.MaxInt64 {
			return int64(v.Uint), true
		}
	}
	return 0, false
}

// AsUint returns the value as a uint64 if it is a non-negative integer.
func (v Value) AsUint() (uint64, bool) {
	switch v.Type {
	case TypeInt:
		if v.Int >= 0 {
			return uint64(v.Int), true
		}
	case TypeUint:
		return v.Uint, true
	}
	return 0, false
}

// AsString returns the value as a string if it is the string variant.
func (v Value) AsString() (string, bool) {
	if v.Type == TypeString {
		return v.Str, true
	}
	return "", false
}

// Equal reports structural equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNil:
		return true
	case TypeBool:
		return v.Bool == o.Bool
	case TypeInt:
		return v.Int == o.Int
	case TypeUint:
		return v.Uint == o.Uint
	case TypeFloat:
		// bit-wise comparison so NaN values survive a round trip check
		return math.Float64bits(v.Float) == math.Float64bits(o.Float)
	case TypeString:
		return v.Str == o.Str
	case TypeBinary:
		return bytes.Equal(v.Bin, o.Bin)
	case TypeArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(v.Entries) != len(o.Entries) {
			return false
		}
		for i := range v.Entries {
			if !v.Entries[i].Key.Equal(o.Entries[i].Key) || !v.Entries[i].Val.Equal(o.Entries[i].Val) {
				return false
			}
		}
		return true
	case TypeExt:
		return v.ExtType == o.ExtType && bytes.Equal(v.Bin, o.Bin)
	default:
		return false
	}
}

// String returns a debug representation of the value.
func (v Value) String() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeBool:
		return fmt.Sprintf("%t", v.Bool)
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeUint:
		return fmt.Sprintf("%d", v.Uint)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeString:
		return fmt.Sprintf("%q", v.Str)
	case TypeBinary:
		return fmt.Sprintf("bin(%d bytes)", len(v.Bin))
	case TypeArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = e.Key.String() + ": " + e.Val.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeExt:
		return fmt.Sprintf("ext(%d, %d bytes)", v.ExtType, len(v.Bin))
	default:
		return "unknown"
	}
}

