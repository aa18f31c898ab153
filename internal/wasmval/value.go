// Package wasmval defines the runtime value representation shared by the
// administrative code machine (internal/engine/interpreter)
// and the store types (internal/wasm), plus the pure numeric, vector and
// reference evaluators described as "operator + operands -> result" in the
// core's numeric semantics.
package wasmval

import "fmt"

// Type is a Wasm value type. Kept as a distinct byte-enum rather than
// reusing wazero's api.ValueType alias because this core additionally needs
// V128 and a Funcref/Externref split at the value level, not just at the
// type-section level.
type Type byte

const (
	I32 Type = iota
	I64
	F32
	F64
	V128
	FuncRef
	ExternRef
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	case FuncRef:
		return "funcref"
	case ExternRef:
		return "externref"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// IsRefType reports whether t is one of the two reference types.
func (t Type) IsRefType() bool {
	return t == FuncRef || t == ExternRef
}

// Ref is a reference value: either null, a function instance (held
// opaquely in FuncAddr), or an opaque extern value supplied by the
// embedder. Equality on references is by identity, modeled here as
// equality of (Null, FuncAddr, Extern) since Go interface
// values already compare by identity for pointer-shaped Extern payloads.
type Ref struct {
	Null     bool
	FuncAddr interface{} // *wasm FunctionInstance, opaque to this package to avoid an import cycle
	Extern   interface{}
}

// NullRef is the null reference of either reference type.
var NullRef = Ref{Null: true}

// Equal implements the identity equality required of reference values.
func (r Ref) Equal(o Ref) bool {
	if r.Null != o.Null {
		return false
	}
	if r.Null {
		return true
	}
	if r.FuncAddr != nil || o.FuncAddr != nil {
		return r.FuncAddr == o.FuncAddr
	}
	return r.Extern == o.Extern
}

// Value is a tagged Wasm runtime value. Scalars (i32/i64/f32/f64) are held
// bit-for-bit in Lo (zero/sign-extended as appropriate); v128 uses both Lo
// and Hi as its little-endian low/high 64-bit lanes, mirroring how wazero's
// interpreter stack pushes two stack slots for a v128 operand. Reference
// values use Reference instead.
type Value struct {
	Type      Type
	Lo, Hi    uint64
	Reference Ref
}

func I32Val(v uint32) Value  { return Value{Type: I32, Lo: uint64(v)} }
func I64Val(v uint64) Value  { return Value{Type: I64, Lo: v} }
func F32Val(bits uint32) Value { return Value{Type: F32, Lo: uint64(bits)} }
func F64Val(bits uint64) Value { return Value{Type: F64, Lo: bits} }
func V128Val(lo, hi uint64) Value { return Value{Type: V128, Lo: lo, Hi: hi} }
func RefVal(t Type, r Ref) Value  { return Value{Type: t, Reference: r} }

func (v Value) I32() uint32 { return uint32(v.Lo) }
func (v Value) I64() uint64 { return v.Lo }

// Equal is structural equality for numerics/vectors and identity equality
// for references, per the data model's definition of value equality.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	if v.Type.IsRefType() {
		return v.Reference.Equal(o.Reference)
	}
	if v.Type == V128 {
		return v.Lo == o.Lo && v.Hi == o.Hi
	}
	return v.Lo == o.Lo
}

func (v Value) String() string {
	switch v.Type {
	case V128:
		return fmt.Sprintf("v128(0x%016x%016x)", v.Hi, v.Lo)
	case FuncRef, ExternRef:
		if v.Reference.Null {
			return v.Type.String() + "(null)"
		}
		return fmt.Sprintf("%s(%v)", v.Type, v.Reference.FuncAddr)
	default:
		return fmt.Sprintf("%s(0x%x)", v.Type, v.Lo)
	}
}
