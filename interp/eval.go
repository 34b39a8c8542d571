package interp

import (
	"github.com/scc-lang/scvm/ast"
)

// evalExpr evaluates expr in env and returns its 32-bit result with
// type tag, per the operator-class result-type table in spec.md §4.4.
func (rt *Runtime) evalExpr(env *Environment, expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return uintValue(e.Value), nil

	case *ast.Identifier:
		v, ok := env.readScalar(e.Name)
		if !ok {
			return Value{}, errf(e.Position(), "undefined variable %q", e.Name)
		}
		return v, nil

	case *ast.BinaryOp:
		return rt.evalBinary(env, e)

	case *ast.UnaryOp:
		return rt.evalUnary(env, e)

	case *ast.FunctionCall:
		return rt.evalCall(env, e)

	case *ast.ArrayAccess:
		base, size, typ, ok := env.arrayInfo(e.Name)
		if !ok {
			return Value{}, errf(e.Position(), "undefined array %q", e.Name)
		}
		idx, err := rt.evalExpr(env, e.Index)
		if err != nil {
			return Value{}, err
		}
		if idx.Bits >= size {
			return Value{}, errf(e.Position(), "array index %d out of bounds for %q (size %d)", idx.Bits, e.Name, size)
		}
		return Value{Bits: rt.memory[base+idx.Bits], Type: typ}, nil

	case *ast.AddressOf:
		addr, err := rt.evalAddress(env, e.Operand)
		if err != nil {
			return Value{}, err
		}
		return uintValue(addr), nil

	case *ast.Dereference:
		ptr, err := rt.evalExpr(env, e.Operand)
		if err != nil {
			return Value{}, err
		}
		v, ok := rt.memory[ptr.Bits]
		if !ok {
			return Value{}, errf(e.Position(), "invalid pointer dereference at address %#x", ptr.Bits)
		}
		return uintValue(v), nil

	default:
		return Value{}, errf(expr.Position(), "unsupported expression %T", expr)
	}
}

// evalAddress computes the address an &operand expression yields,
// lazily promoting scalars to memory on first use (spec.md §3).
func (rt *Runtime) evalAddress(env *Environment, operand ast.Expr) (uint32, error) {
	switch o := operand.(type) {
	case *ast.Identifier:
		addr, ok := env.addressOfScalar(o.Name)
		if !ok {
			return 0, errf(o.Position(), "cannot take address of %q", o.Name)
		}
		return addr, nil

	case *ast.ArrayAccess:
		base, size, _, ok := env.arrayInfo(o.Name)
		if !ok {
			return 0, errf(o.Position(), "undefined array %q", o.Name)
		}
		idx, err := rt.evalExpr(env, o.Index)
		if err != nil {
			return 0, err
		}
		if idx.Bits >= size {
			return 0, errf(o.Position(), "array index %d out of bounds for %q (size %d)", idx.Bits, o.Name, size)
		}
		return base + idx.Bits, nil

	case *ast.Dereference:
		// &*p == p.
		v, err := rt.evalExpr(env, o.Operand)
		if err != nil {
			return 0, err
		}
		return v.Bits, nil

	default:
		return 0, errf(operand.Position(), "invalid operand to address-of")
	}
}

func (rt *Runtime) evalUnary(env *Environment, e *ast.UnaryOp) (Value, error) {
	v, err := rt.evalExpr(env, e.Operand)
	if err != nil {
		return Value{}, err
	}
	switch e.Op {
	case "-":
		return intValue(-v.AsInt32()), nil
	case "!":
		return boolValue(v.IsZero()), nil
	case "~":
		return Value{Bits: ^v.Bits, Type: v.Type}, nil
	default:
		return Value{}, errf(e.Position(), "unknown unary operator %q", e.Op)
	}
}

func (rt *Runtime) evalBinary(env *Environment, e *ast.BinaryOp) (Value, error) {
	// && and || short-circuit: the right operand is only evaluated when
	// the left doesn't already determine the result (spec.md §8 laws).
	if e.Op == "&&" {
		l, err := rt.evalExpr(env, e.Left)
		if err != nil {
			return Value{}, err
		}
		if l.IsZero() {
			return boolValue(false), nil
		}
		r, err := rt.evalExpr(env, e.Right)
		if err != nil {
			return Value{}, err
		}
		return boolValue(!r.IsZero()), nil
	}
	if e.Op == "||" {
		l, err := rt.evalExpr(env, e.Left)
		if err != nil {
			return Value{}, err
		}
		if !l.IsZero() {
			return boolValue(true), nil
		}
		r, err := rt.evalExpr(env, e.Right)
		if err != nil {
			return Value{}, err
		}
		return boolValue(!r.IsZero()), nil
	}

	l, err := rt.evalExpr(env, e.Left)
	if err != nil {
		return Value{}, err
	}
	r, err := rt.evalExpr(env, e.Right)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
		return rt.evalArithmetic(e, l, r)
	case "==", "!=", "<", "<=", ">", ">=":
		return rt.evalComparison(e, l, r)
	default:
		return Value{}, errf(e.Position(), "unknown binary operator %q", e.Op)
	}
}

func (rt *Runtime) evalArithmetic(e *ast.BinaryOp, l, r Value) (Value, error) {
	resultType := arithResultType(l.Type, r.Type)
	if resultType == ast.Int32 {
		li, ri := l.AsInt32(), r.AsInt32()
		switch e.Op {
		case "+":
			return intValue(li + ri), nil
		case "-":
			return intValue(li - ri), nil
		case "*":
			return intValue(li * ri), nil
		case "/":
			if ri == 0 {
				return Value{}, errf(e.Position(), "division by zero")
			}
			return intValue(li / ri), nil
		case "%":
			if ri == 0 {
				return Value{}, errf(e.Position(), "modulo by zero")
			}
			return intValue(li % ri), nil
		case "&":
			return intValue(li & ri), nil
		case "|":
			return intValue(li | ri), nil
		case "^":
			return intValue(li ^ ri), nil
		case "<<":
			return intValue(li << (uint32(ri) & 0x1F)), nil
		case ">>":
			return intValue(li >> (uint32(ri) & 0x1F)), nil
		}
	}

	lu, ru := l.Bits, r.Bits
	switch e.Op {
	case "+":
		return uintValue(lu + ru), nil
	case "-":
		return uintValue(lu - ru), nil
	case "*":
		return uintValue(lu * ru), nil
	case "/":
		if ru == 0 {
			return Value{}, errf(e.Position(), "division by zero")
		}
		return uintValue(lu / ru), nil
	case "%":
		if ru == 0 {
			return Value{}, errf(e.Position(), "modulo by zero")
		}
		return uintValue(lu % ru), nil
	case "&":
		return uintValue(lu & ru), nil
	case "|":
		return uintValue(lu | ru), nil
	case "^":
		return uintValue(lu ^ ru), nil
	case "<<":
		return uintValue(lu << (ru & 0x1F)), nil
	case ">>":
		return uintValue(lu >> (ru & 0x1F)), nil
	}
	return Value{}, errf(e.Position(), "unknown arithmetic operator %q", e.Op)
}

func (rt *Runtime) evalComparison(e *ast.BinaryOp, l, r Value) (Value, error) {
	signed := l.Type == ast.Int32 || r.Type == ast.Int32
	var cmp int
	if signed {
		li, ri := l.AsInt32(), r.AsInt32()
		switch {
		case li < ri:
			cmp = -1
		case li > ri:
			cmp = 1
		}
	} else {
		switch {
		case l.Bits < r.Bits:
			cmp = -1
		case l.Bits > r.Bits:
			cmp = 1
		}
	}
	switch e.Op {
	case "==":
		return boolValue(cmp == 0), nil
	case "!=":
		return boolValue(cmp != 0), nil
	case "<":
		return boolValue(cmp < 0), nil
	case "<=":
		return boolValue(cmp <= 0), nil
	case ">":
		return boolValue(cmp > 0), nil
	case ">=":
		return boolValue(cmp >= 0), nil
	}
	return Value{}, errf(e.Position(), "unknown comparison operator %q", e.Op)
}
