package interp

import "github.com/scc-lang/scvm/ast"

// Value is a 32-bit runtime value with its type tag. The bit pattern is
// always the two's-complement representation; Type only changes how
// comparisons, division, and shifts interpret those bits.
type Value struct {
	Bits uint32
	Type ast.Type
}

func uintValue(v uint32) Value { return Value{Bits: v, Type: ast.Uint32} }
func intValue(v int32) Value   { return Value{Bits: uint32(v), Type: ast.Int32} }

func (v Value) AsInt32() int32 { return int32(v.Bits) }
func (v Value) IsZero() bool   { return v.Bits == 0 }

func boolValue(b bool) Value {
	if b {
		return uintValue(1)
	}
	return uintValue(0)
}

// arithResultType implements the operator-class result-type table from
// spec.md §4.4: int32 if any operand is int32, else uint32.
func arithResultType(l, r ast.Type) ast.Type {
	if l == ast.Int32 || r == ast.Int32 {
		return ast.Int32
	}
	return ast.Uint32
}
