package codegen

import (
	"fmt"

	"github.com/scc-lang/scvm/ast"
)

// newFuncScope starts a fresh register/stack bookkeeping context for one
// function body. r26 is snapshotted to the stack pointer at entry and
// used as a fixed frame base for the life of the function, so argument
// loads (positive offsets, above the frame base) and address-taken local
// spills (negative offsets, pushed below the frame base after entry)
// both resolve through one register regardless of how much the stack
// pointer itself moves for nested calls.
func (g *Generator) newFuncScope() {
	g.cur = &funcScope{
		vars:         make(map[string]*varLoc),
		nextLocalReg: localFirst,
	}
}

// declareParam binds param i to the next local register and emits the
// load from its argument slot. Parameters are always ast.Uint32, mirroring
// interp/call.go's callFunction, which declares every argument binding
// that way regardless of what the caller passed.
func (g *Generator) declareParam(name string, i int) error {
	reg, err := g.allocLocalReg(name, ast.Uint32)
	if err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #%d]\n", reg, regFP, i+1)
	return nil
}

// allocLocalReg binds a plain (non-register-qualified) local to the next
// free local register.
func (g *Generator) allocLocalReg(name string, typ ast.Type) (int, error) {
	if g.cur.nextLocalReg > localLast {
		return 0, fmt.Errorf("too many local variables: register pool r%d-r%d exhausted", localFirst, localLast)
	}
	reg := g.cur.nextLocalReg
	g.cur.nextLocalReg++
	g.cur.vars[name] = &varLoc{kind: varReg, reg: reg, typ: typ}
	g.setRegType(reg, typ)
	return reg, nil
}

// declareRegisterAlias binds a `register`-qualified local directly to its
// named physical register, bypassing the local pool entirely.
func (g *Generator) declareRegisterAlias(name string, reg int, typ ast.Type) {
	g.cur.vars[name] = &varLoc{kind: varAliasReg, reg: reg, typ: typ}
	g.setRegType(reg, typ)
}

// spillToStack promotes a register-resident local to a stack slot on
// first address-of, per spec.md §4.5/§9. Returns the slot's frame-base
// offset (negative: below the frame base).
func (g *Generator) spillToStack(v *varLoc) int32 {
	fmt.Fprintf(&g.out, "  push r:%d\n", v.reg)
	g.cur.frameDepth++
	offset := -int32(g.cur.frameDepth)
	v.kind = varStack
	v.offset = uint32(int32(offset))
	return offset
}

// pushWord pushes reg's value as a call argument and bumps the frame
// depth, for bookkeeping symmetry with spillToStack.
func (g *Generator) pushWord(reg int) {
	fmt.Fprintf(&g.out, "  push r:%d\n", reg)
	g.cur.frameDepth++
}

// discardWords pops n words off the stack after a call returns, restoring
// the frame depth.
func (g *Generator) discardWords(n int) {
	if n == 0 {
		return
	}
	fmt.Fprintf(&g.out, "  add r:%d, r:%d, #%d\n", regSP, regSP, n)
	g.cur.frameDepth -= uint32(n)
}

func (g *Generator) pushLoop(ctx loopCtx) {
	g.cur.loops = append(g.cur.loops, ctx)
}

func (g *Generator) popLoop() {
	g.cur.loops = g.cur.loops[:len(g.cur.loops)-1]
}

func (g *Generator) currentLoop() (loopCtx, bool) {
	if len(g.cur.loops) == 0 {
		return loopCtx{}, false
	}
	return g.cur.loops[len(g.cur.loops)-1], true
}
