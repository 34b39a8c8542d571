package codegen

import (
	"fmt"

	"github.com/scc-lang/scvm/ast"
)

// emitExpr lowers expr, emitting instructions into g.out, and returns the
// register holding its result. The returned register may be a local's
// own persistent register (r11-r25) or a temporary (r1-r10); callers
// that are done consuming it should call g.freeTemp, which is a no-op
// for persistent registers.
func (g *Generator) emitExpr(expr ast.Expr) (int, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		t, err := g.allocTemp(e)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&g.out, "  mov r:%d, #%d\n", t, e.Value)
		g.setRegType(t, ast.Uint32)
		return t, nil

	case *ast.Identifier:
		return g.emitIdentifierRead(e)

	case *ast.BinaryOp:
		return g.emitBinary(e)

	case *ast.UnaryOp:
		return g.emitUnary(e)

	case *ast.FunctionCall:
		t, err := g.emitCall(e)
		if err != nil {
			return 0, err
		}
		// Functions have no declared return type; treat results as
		// ast.Uint32, matching interp/call.go always binding parameters
		// (and thus, in practice, returned expressions) that way.
		g.setRegType(t, ast.Uint32)
		return t, nil

	case *ast.ArrayAccess:
		addr, err := g.emitArrayAddress(e)
		if err != nil {
			return 0, err
		}
		t, err := g.allocTemp(e)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #0]\n", t, addr)
		g.freeTemp(addr)
		// Arrays are always ast.Uint32 (interp/environment.go's
		// declareArray is likewise always called with ast.Uint32).
		g.setRegType(t, ast.Uint32)
		return t, nil

	case *ast.AddressOf:
		t, err := g.emitAddressOf(e)
		if err != nil {
			return 0, err
		}
		g.setRegType(t, ast.Uint32)
		return t, nil

	case *ast.Dereference:
		ptr, err := g.emitExpr(e.Operand)
		if err != nil {
			return 0, err
		}
		t, err := g.allocTemp(e)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #0]\n", t, ptr)
		g.freeTemp(ptr)
		// Dereferences are always ast.Uint32, mirroring interp/eval.go's
		// evalExpr *ast.Dereference case, which always returns uintValue.
		g.setRegType(t, ast.Uint32)
		return t, nil

	default:
		return 0, newError(expr, "unsupported expression %T", expr)
	}
}

func (g *Generator) emitIdentifierRead(ident *ast.Identifier) (int, error) {
	v, ok := g.resolve(ident.Name)
	if !ok {
		return 0, newError(ident, "undefined variable %q", ident.Name)
	}
	switch v.kind {
	case varReg, varAliasReg:
		// Type was recorded once at declaration (allocLocalReg /
		// declareRegisterAlias); the register is persistent so it
		// doesn't need re-tagging on every read.
		return v.reg, nil
	case varStack:
		t, err := g.allocTemp(ident)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #%d]\n", t, regFP, int32(v.offset))
		g.setRegType(t, v.typ)
		return t, nil
	case varGlobal:
		t, err := g.allocTemp(ident)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [%s]\n", t, v.label)
		g.setRegType(t, v.typ)
		return t, nil
	default:
		return 0, newError(ident, "cannot read %q as a scalar", ident.Name)
	}
}

// emitIdentifierWrite stores valueReg into name's storage.
func (g *Generator) emitIdentifierWrite(node ast.Node, name string, valueReg int) error {
	v, ok := g.resolve(name)
	if !ok {
		return newError(node, "undefined variable %q", name)
	}
	switch v.kind {
	case varReg, varAliasReg:
		if v.reg == regIP {
			return newError(node, "register variable %q aliases r%d, which is not assignable", name, regIP)
		}
		if v.reg != valueReg {
			fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", v.reg, valueReg)
		}
		return nil
	case varStack:
		fmt.Fprintf(&g.out, "  st r:%d, [r:%d, #%d]\n", valueReg, regFP, int32(v.offset))
		return nil
	case varGlobal:
		fmt.Fprintf(&g.out, "  st r:%d, [%s]\n", valueReg, v.label)
		return nil
	default:
		return newError(node, "cannot assign %q", name)
	}
}

// emitArrayAddress computes the address of one element of a previously
// declared array into a fresh temp register.
func (g *Generator) emitArrayAddress(e *ast.ArrayAccess) (int, error) {
	v, ok := g.resolve(e.Name)
	if !ok || v.kind != varArray {
		return 0, newError(e, "undefined array %q", e.Name)
	}
	idx, err := g.emitExpr(e.Index)
	if err != nil {
		return 0, err
	}
	base, err := g.allocTemp(e)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, %s\n", base, v.label)
	fmt.Fprintf(&g.out, "  add r:%d, r:%d, r:%d\n", base, base, idx)
	g.freeTemp(idx)
	return base, nil
}

// emitAddressOf computes the address yielded by &operand, spilling a
// register-resident scalar to the stack on first use (spec.md §3, §9).
func (g *Generator) emitAddressOf(e *ast.AddressOf) (int, error) {
	switch o := e.Operand.(type) {
	case *ast.Identifier:
		v, ok := g.resolve(o.Name)
		if !ok {
			return 0, newError(o, "undefined variable %q", o.Name)
		}
		switch v.kind {
		case varReg:
			offset := g.spillToStack(v)
			t, err := g.allocTemp(e)
			if err != nil {
				return 0, err
			}
			fmt.Fprintf(&g.out, "  add r:%d, r:%d, #%d\n", t, regFP, offset)
			return t, nil
		case varStack:
			t, err := g.allocTemp(e)
			if err != nil {
				return 0, err
			}
			fmt.Fprintf(&g.out, "  add r:%d, r:%d, #%d\n", t, regFP, int32(v.offset))
			return t, nil
		case varGlobal:
			t, err := g.allocTemp(e)
			if err != nil {
				return 0, err
			}
			fmt.Fprintf(&g.out, "  mov r:%d, %s\n", t, v.label)
			return t, nil
		default:
			return 0, newError(e, "invalid & operand: %q has no address", o.Name)
		}

	case *ast.ArrayAccess:
		return g.emitArrayAddress(o)

	case *ast.Dereference:
		// &*p == p
		return g.emitExpr(o.Operand)

	default:
		return 0, newError(e, "invalid & operand")
	}
}

func (g *Generator) emitUnary(e *ast.UnaryOp) (int, error) {
	v, err := g.emitExpr(e.Operand)
	if err != nil {
		return 0, err
	}
	vt := g.regType(v)
	t, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(v)
		return 0, err
	}
	var resultType ast.Type
	switch e.Op {
	case "-":
		fmt.Fprintf(&g.out, "  mov r:%d, #0\n", t)
		fmt.Fprintf(&g.out, "  sub r:%d, r:%d, r:%d\n", t, t, v)
		// Negation always yields ast.Int32, mirroring interp/eval.go's
		// evalUnary, which returns intValue(-v.AsInt32()) unconditionally.
		resultType = ast.Int32
	case "~":
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", t, v)
		resultType = vt
	case "!":
		fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", t, v)
		fmt.Fprintf(&g.out, "  and r:%d, r:%d, #1\n", t, t)
		resultType = ast.Uint32
	default:
		g.freeTemp(v)
		return 0, newError(e, "unknown unary operator %q", e.Op)
	}
	g.freeTemp(v)
	g.setRegType(t, resultType)
	return t, nil
}

func (g *Generator) emitBinary(e *ast.BinaryOp) (int, error) {
	switch e.Op {
	case "&&":
		return g.emitShortCircuit(e, true)
	case "||":
		return g.emitShortCircuit(e, false)
	}

	l, err := g.emitExpr(e.Left)
	if err != nil {
		return 0, err
	}
	r, err := g.emitExpr(e.Right)
	if err != nil {
		g.freeTemp(l)
		return 0, err
	}
	// Captured immediately: l and r stay allocated until the op functions
	// free them, so no other emission can reuse their register numbers
	// out from under this read.
	lt, rt := g.regType(l), g.regType(r)

	switch e.Op {
	case "+", "-", "&", "|", "^", "<<", ">>":
		return g.emitSimpleOp(e, l, r, lt, rt)
	case "*":
		return g.emitMultiply(e, l, r, lt, rt)
	case "/", "%":
		return g.emitDivide(e, l, r, lt, rt)
	case "==", "!=", "<", "<=", ">", ">=":
		return g.emitCompare(e, l, r, lt, rt)
	default:
		g.freeTemp(l)
		g.freeTemp(r)
		return 0, newError(e, "unknown binary operator %q", e.Op)
	}
}

var simpleMnemonic = map[string]string{
	"+": "add", "-": "sub", "&": "and", "|": "or", "^": "xor", "<<": "shl", ">>": "shr",
}

func (g *Generator) emitSimpleOp(e *ast.BinaryOp, l, r int, lt, rt ast.Type) (int, error) {
	t, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		return 0, err
	}
	mnem := simpleMnemonic[e.Op]
	if e.Op == "<<" || e.Op == ">>" {
		// shift counts mask to 5 bits (spec.md §8 laws), into a fresh temp
		// since r may be a variable's own persistent register
		masked, err := g.allocTemp(e)
		if err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			g.freeTemp(t)
			return 0, err
		}
		fmt.Fprintf(&g.out, "  and r:%d, r:%d, #31\n", masked, r)
		g.freeTemp(r)
		r = masked
	}
	if e.Op == ">>" && lt == ast.Int32 {
		if err := g.emitArithmeticShiftRight(e, t, l, r); err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			return 0, err
		}
	} else {
		fmt.Fprintf(&g.out, "  %s r:%d, r:%d, r:%d\n", mnem, t, l, r)
	}
	g.freeTemp(l)
	g.freeTemp(r)
	g.setRegType(t, arithResultType(lt, rt))
	return t, nil
}

// emitArithmeticShiftRight lowers a signed >> into the ISA's logical shr
// plus a sign-extension fixup: the glossary names no arithmetic-shift
// primitive (spec.md §6), so a negative left operand's vacated high bits
// must be patched to ones by hand, mirroring interp/eval.go's evalArithmetic
// signed branch (`li >> (uint32(ri) & 0x1F)`, Go's sign-extending shift on
// int32). r already holds the masked shift count.
func (g *Generator) emitArithmeticShiftRight(node ast.Node, t, l, r int) error {
	fmt.Fprintf(&g.out, "  shr r:%d, r:%d, r:%d\n", t, l, r)

	sign, err := g.allocTemp(node)
	if err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "  shr r:%d, r:%d, #31\n", sign, l)
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", sign, sign)

	skip := g.newLabel("asr_skip")
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, zeroMeansFalse(g, sign), skip)

	fill, err := g.allocTemp(node)
	if err != nil {
		g.freeTemp(sign)
		return err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, #-1\n", fill)
	fmt.Fprintf(&g.out, "  shr r:%d, r:%d, r:%d\n", fill, fill, r)
	fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", fill, fill)
	fmt.Fprintf(&g.out, "  or r:%d, r:%d, r:%d\n", t, t, fill)
	g.freeTemp(fill)
	g.freeTemp(sign)
	fmt.Fprintf(&g.out, "%s:\n", skip)
	return nil
}

// emitMultiply lowers * as a repeated-addition loop, per spec.md §4.5.
// Two's-complement multiplication's low 32 bits are identical whether the
// operands are interpreted as signed or unsigned, so only the result's
// type tag (for a later signed comparison or shift) depends on lt/rt.
func (g *Generator) emitMultiply(e *ast.BinaryOp, l, r int, lt, rt ast.Type) (int, error) {
	acc, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		return 0, err
	}
	counter, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		g.freeTemp(acc)
		return 0, err
	}
	cond, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		g.freeTemp(acc)
		g.freeTemp(counter)
		return 0, err
	}
	start := g.newLabel("mul_loop")
	end := g.newLabel("mul_end")
	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", acc)
	fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", counter, r)
	fmt.Fprintf(&g.out, "%s:\n", start)
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", cond, counter)
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, zeroMeansFalse(g, cond), end)
	fmt.Fprintf(&g.out, "  add r:%d, r:%d, r:%d\n", acc, acc, l)
	fmt.Fprintf(&g.out, "  sub r:%d, r:%d, #1\n", counter, counter)
	fmt.Fprintf(&g.out, "  jmp %s\n", start)
	fmt.Fprintf(&g.out, "%s:\n", end)
	g.freeTemp(l)
	g.freeTemp(r)
	g.freeTemp(counter)
	g.freeTemp(cond)
	g.setRegType(acc, arithResultType(lt, rt))
	return acc, nil
}

// zeroMeansFalse inverts a cmpe/cmpb result (0/-1) in place so that the
// following cmovz — which branches only when its condition register is
// exactly zero — branches on the ORIGINAL comparison being true. Used
// wherever the natural comparison reads "true" as -1 but the jump needs
// to fire on "true".
func zeroMeansFalse(g *Generator, reg int) int {
	fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", reg, reg)
	return reg
}

// emitDivide lowers / and % as a repeated-subtraction loop; dividing or
// taking the modulo of a zero divisor is detected at runtime and the
// result is forced to zero rather than faulting (spec.md §4.5).
func (g *Generator) emitDivide(e *ast.BinaryOp, l, r int, lt, rt ast.Type) (int, error) {
	quot, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		return 0, err
	}
	rem, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		g.freeTemp(quot)
		return 0, err
	}
	cond, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		g.freeTemp(quot)
		g.freeTemp(rem)
		return 0, err
	}

	zeroCase := g.newLabel("div_zero")
	loop := g.newLabel("div_loop")
	end := g.newLabel("div_end")

	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", quot)
	fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", rem, l)

	// r == 0 -> force both results to zero without entering the loop.
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", cond, r)
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, zeroMeansFalse(g, cond), zeroCase)

	fmt.Fprintf(&g.out, "%s:\n", loop)
	// stop once rem < r
	fmt.Fprintf(&g.out, "  cmpb r:%d, r:%d, r:%d\n", cond, rem, r)
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, zeroMeansFalse(g, cond), end)
	fmt.Fprintf(&g.out, "  sub r:%d, r:%d, r:%d\n", rem, rem, r)
	fmt.Fprintf(&g.out, "  add r:%d, r:%d, #1\n", quot, quot)
	fmt.Fprintf(&g.out, "  jmp %s\n", loop)

	fmt.Fprintf(&g.out, "%s:\n", zeroCase)
	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", quot)
	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", rem)
	fmt.Fprintf(&g.out, "%s:\n", end)

	g.freeTemp(l)
	g.freeTemp(r)
	g.freeTemp(cond)
	resultType := arithResultType(lt, rt)
	if e.Op == "%" {
		g.freeTemp(quot)
		g.setRegType(rem, resultType)
		return rem, nil
	}
	g.freeTemp(rem)
	g.setRegType(quot, resultType)
	return quot, nil
}

// emitCompare mirrors interp/eval.go's evalComparison: the comparison is
// signed whenever either operand is ast.Int32 (spec.md §8's "Signed
// comparison" boundary scenario — int32/-1 must compare below int32/0,
// which the unsigned cmpb primitive alone gets wrong). The comparison's
// own result is always ast.Uint32 (a 0/1 boolean), same as interp's
// boolValue.
func (g *Generator) emitCompare(e *ast.BinaryOp, l, r int, lt, rt ast.Type) (int, error) {
	t, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		g.freeTemp(r)
		return 0, err
	}
	signed := lt == ast.Int32 || rt == ast.Int32
	switch e.Op {
	case "==":
		fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, r:%d\n", t, l, r)
	case "!=":
		fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, r:%d\n", t, l, r)
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", t, t)
	case "<":
		if err := g.emitOrderedCompare(e, t, l, r, signed); err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			return 0, err
		}
	case ">=":
		if err := g.emitOrderedCompare(e, t, l, r, signed); err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			return 0, err
		}
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", t, t)
	case ">":
		if err := g.emitOrderedCompare(e, t, r, l, signed); err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			return 0, err
		}
	case "<=":
		if err := g.emitOrderedCompare(e, t, r, l, signed); err != nil {
			g.freeTemp(l)
			g.freeTemp(r)
			return 0, err
		}
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", t, t)
	}
	// cmpe/cmpb yield 0 or -1; mask to a clean 0/1 boolean.
	fmt.Fprintf(&g.out, "  and r:%d, r:%d, #1\n", t, t)
	g.freeTemp(l)
	g.freeTemp(r)
	g.setRegType(t, ast.Uint32)
	return t, nil
}

// emitOrderedCompare lowers "a below b" via cmpb. When the comparison is
// signed, both operands first have their sign bit flipped into fresh
// temps (never in place — a/b may be a variable's own persistent
// register): XORing both sides with the sign bit maps signed ordering
// onto cmpb's unsigned ordering losslessly, since flipping the top bit
// is a monotonic relabeling of the 32-bit range that leaves int32/-1
// (0xFFFFFFFF) below int32/0 (0x00000000) as cmpb now sees it.
func (g *Generator) emitOrderedCompare(node ast.Node, t, a, b int, signed bool) error {
	if !signed {
		fmt.Fprintf(&g.out, "  cmpb r:%d, r:%d, r:%d\n", t, a, b)
		return nil
	}
	fa, err := g.allocTemp(node)
	if err != nil {
		return err
	}
	fb, err := g.allocTemp(node)
	if err != nil {
		g.freeTemp(fa)
		return err
	}
	fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-2147483648\n", fa, a)
	fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-2147483648\n", fb, b)
	fmt.Fprintf(&g.out, "  cmpb r:%d, r:%d, r:%d\n", t, fa, fb)
	g.freeTemp(fa)
	g.freeTemp(fb)
	return nil
}

// emitShortCircuit lowers && (isAnd true) and || (isAnd false) via a
// forward jump so the right operand is only evaluated when it can still
// change the result (spec.md §8 laws). && short-circuits to false when
// the left operand is falsy; || short-circuits to true when it's truthy.
func (g *Generator) emitShortCircuit(e *ast.BinaryOp, isAnd bool) (int, error) {
	l, err := g.emitExpr(e.Left)
	if err != nil {
		return 0, err
	}
	isZero, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(l)
		return 0, err
	}
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", isZero, l) // -1 if left is falsy
	g.freeTemp(l)

	short := g.newLabel("sc_short")
	end := g.newLabel("sc_end")
	if isAnd {
		// jump to short (result false) when left is falsy: isZero == -1
		fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, zeroMeansFalse(g, isZero), short)
	} else {
		// jump to short (result true) when left is truthy: isZero == 0
		fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, isZero, short)
	}

	r, err := g.emitExpr(e.Right)
	if err != nil {
		return 0, err
	}
	result, err := g.allocTemp(e)
	if err != nil {
		g.freeTemp(r)
		return 0, err
	}
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", result, r) // -1 if right is falsy
	fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", result, result)
	fmt.Fprintf(&g.out, "  and r:%d, r:%d, #1\n", result, result)
	g.freeTemp(r)
	fmt.Fprintf(&g.out, "  jmp %s\n", end)
	fmt.Fprintf(&g.out, "%s:\n", short)
	if isAnd {
		fmt.Fprintf(&g.out, "  mov r:%d, #0\n", result)
	} else {
		fmt.Fprintf(&g.out, "  mov r:%d, #1\n", result)
	}
	fmt.Fprintf(&g.out, "%s:\n", end)
	g.setRegType(result, ast.Uint32)
	return result, nil
}
