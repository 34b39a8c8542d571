package codegen

import (
	"fmt"

	"github.com/scc-lang/scvm/ast"
)

// emitFunction lowers one function definition: prologue (frame-base
// snapshot, argument loads), body, and an implicit `return 0` epilogue
// if control falls off the end without an explicit return (spec.md §9:
// "a function value is well-defined on all exit paths").
func (g *Generator) emitFunction(fn *ast.FunctionDef) error {
	g.newFuncScope()
	g.curFunc = fn
	defer func() { g.cur = nil; g.curFunc = nil }()

	fmt.Fprintf(&g.out, "%s:\n", fn.Name)
	fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", regFP, regSP)

	for i, param := range fn.Params {
		if err := g.declareParam(param, i); err != nil {
			return wrapError(fn, err)
		}
	}

	if err := g.emitBlock(fn.Body); err != nil {
		return err
	}
	// Always append a trailing default return: a path that already
	// returned or halted jumped away before reaching it, and a path
	// that fell off the end of the body needs it (spec.md §9).
	g.emitReturn(fn, -1)
	return nil
}

// emitReturn restores control to the caller. main halts instead of
// returning, per spec.md §4.5. valueReg of -1 means "return 0".
func (g *Generator) emitReturn(fn *ast.FunctionDef, valueReg int) {
	if valueReg < 0 {
		fmt.Fprintf(&g.out, "  mov r:%d, #0\n", regReturn)
	} else if valueReg != regReturn {
		fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", regReturn, valueReg)
	}
	if fn.Name == "main" {
		fmt.Fprintf(&g.out, "  halt\n")
		return
	}
	// Restore r31 (the instruction pointer) from the return-address slot
	// at the frame base; writing it jumps back into the caller.
	fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #0]\n", regIP, regFP)
}
