// Package rpcvalue implements the dynamic value tree that carries every
// message on the wire: a tagged union of nil, bool, integer, float32,
// float64, string, byte array, array, map, and extension variants, modeled
// after MessagePack's type system.
//
// The rest of the protocol stack (internal/codec, internal/rpcmsg) depends
// only on the ability to construct each variant, enumerate array/map
// contents, and extract scalars — never on how a Value happens to be
// serialized.
package rpcvalue

import "fmt"

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat32
	KindFloat64
	KindStr
	KindBytes
	KindArray
	KindMap
	KindExt
)

// Pair is one (key, value) entry of a Map value. Order is preserved;
// MessagePack maps are not required to be sorted and neither are these.
type Pair struct {
	Key Value
	Val Value
}

// Ext is the payload of an extension value: an application-defined signed
// 8-bit type tag plus an opaque binary body.
type Ext struct {
	Tag  int8
	Data []byte
}

// Value is an immutable dynamic value. The zero Value is KindNil.
type Value struct {
	kind Kind

	b     bool
	i     int64
	u     uint64
	isU   bool // true when the int variant holds an unsigned magnitude in u
	f32   float32
	f64   float64
	str   string
	bytes []byte
	arr   []Value
	m     []Pair
	ext   Ext
}

// Nil returns the nil Value.
func Nil() Value { return Value{kind: KindNil} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a signed integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Uint returns an unsigned integer Value.
func Uint(u uint64) Value { return Value{kind: KindInt, u: u, isU: true} }

// Float32 returns a 32-bit floating point Value.
func Float32(f float32) Value { return Value{kind: KindFloat32, f32: f} }

// Float64 returns a 64-bit floating point Value.
func Float64(f float64) Value { return Value{kind: KindFloat64, f64: f} }

// Str returns a UTF-8 string Value.
func Str(s string) Value { return Value{kind: KindStr, str: s} }

// Bytes returns a binary Value. The slice is retained, not copied.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Array returns an array Value wrapping the given elements in order.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// ArrayOf returns an array Value from a pre-built slice, retained not copied.
func ArrayOf(vs []Value) Value { return Value{kind: KindArray, arr: vs} }

// Map returns a map Value from an ordered list of pairs.
func Map(pairs ...Pair) Value { return Value{kind: KindMap, m: pairs} }

// MapOf returns a map Value from a pre-built pair slice, retained not copied.
func MapOf(pairs []Pair) Value { return Value{kind: KindMap, m: pairs} }

// ExtValue returns an extension Value with the given type tag and payload.
func ExtValue(tag int8, data []byte) Value {
	return Value{kind: KindExt, ext: Ext{Tag: tag, Data: data}}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns one of the fixed strings
// {nil, bool, int, float32, float64, str, bytearray, array, map, ext}.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytearray"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExt:
		return "ext"
	default:
		return fmt.Sprintf("unknown(%d)", v.kind)
	}
}

// IsNil reports whether this Value is the nil variant.
func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool returns (b, true) if this Value is a bool, else (false, false).
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt64 returns the integer as a signed int64 if this Value holds an
// integer that fits in that range, else (0, false).
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	if v.isU {
		if v.u > 1<<63-1 {
			return 0, false
		}
		return int64(v.u), true
	}
	return v.i, true
}

// AsUint64 returns the integer as an unsigned uint64 if this Value holds a
// non-negative integer, else (0, false).
func (v Value) AsUint64() (uint64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	if v.isU {
		return v.u, true
	}
	if v.i < 0 {
		return 0, false
	}
	return uint64(v.i), true
}

// AsFloat32 returns (f, true) if this Value is a float32, else (0, false).
func (v Value) AsFloat32() (float32, bool) {
	if v.kind != KindFloat32 {
		return 0, false
	}
	return v.f32, true
}

// AsFloat64 returns (f, true) if this Value is a float64, else (0, false).
func (v Value) AsFloat64() (float64, bool) {
	if v.kind != KindFloat64 {
		return 0, false
	}
	return v.f64, true
}

// AsStr returns (s, true) if this Value is a string, else ("", false).
func (v Value) AsStr() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.str, true
}

// AsBytes returns (b, true) if this Value is binary, else (nil, false).
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

// AsArray returns (elems, true) if this Value is an array, else (nil, false).
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsMap returns (pairs, true) if this Value is a map, else (nil, false).
func (v Value) AsMap() ([]Pair, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsExt returns (ext, true) if this Value is an extension, else (Ext{}, false).
func (v Value) AsExt() (Ext, bool) {
	if v.kind != KindExt {
		return Ext{}, false
	}
	return v.ext, true
}

// Equal reports deep structural equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		au, aok := a.AsUint64()
		bu, bok := b.AsUint64()
		if aok && bok {
			return au == bu
		}
		ai, _ := a.AsInt64()
		bi, _ := b.AsInt64()
		return ai == bi
	case KindFloat32:
		return a.f32 == b.f32
	case KindFloat64:
		return a.f64 == b.f64
	case KindStr:
		return a.str == b.str
	case KindBytes:
		return string(a.bytes) == string(b.bytes)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for i := range a.m {
			if !Equal(a.m[i].Key, b.m[i].Key) || !Equal(a.m[i].Val, b.m[i].Val) {
				return false
			}
		}
		return true
	case KindExt:
		return a.ext.Tag == b.ext.Tag && string(a.ext.Data) == string(b.ext.Data)
	default:
		return false
	}
}
