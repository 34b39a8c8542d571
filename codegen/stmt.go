package codegen

import (
	"fmt"

	"github.com/scc-lang/scvm/ast"
)

func (g *Generator) emitBlock(b *ast.Block) error {
	for _, stmt := range b.Statements {
		if err := g.emitStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return g.emitLocalVarDecl(s)

	case *ast.ArrayDecl:
		return g.emitArrayDecl(s, g.cur.vars, "arr_")

	case *ast.PointerDecl:
		reg, err := g.allocLocalReg(s.Name, ast.Uint32)
		if err != nil {
			return wrapError(s, err)
		}
		if s.Initializer != nil {
			v, err := g.emitExpr(s.Initializer)
			if err != nil {
				return err
			}
			fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", reg, v)
			g.freeTemp(v)
		} else {
			fmt.Fprintf(&g.out, "  mov r:%d, #0\n", reg)
		}
		return nil

	case *ast.Assignment:
		v, err := g.emitExpr(s.Value)
		if err != nil {
			return err
		}
		err = g.emitIdentifierWrite(s, s.Name, v)
		g.freeTemp(v)
		return err

	case *ast.ArrayAssignment:
		addr, err := g.emitArrayAddressByName(s, s.Name, s.Index)
		if err != nil {
			return err
		}
		v, err := g.emitExpr(s.Value)
		if err != nil {
			g.freeTemp(addr)
			return err
		}
		fmt.Fprintf(&g.out, "  st r:%d, [r:%d, #0]\n", v, addr)
		g.freeTemp(addr)
		g.freeTemp(v)
		return nil

	case *ast.PointerAssignment:
		addr, err := g.emitExpr(s.Addr)
		if err != nil {
			return err
		}
		v, err := g.emitExpr(s.Value)
		if err != nil {
			g.freeTemp(addr)
			return err
		}
		fmt.Fprintf(&g.out, "  st r:%d, [r:%d, #0]\n", v, addr)
		g.freeTemp(addr)
		g.freeTemp(v)
		return nil

	case *ast.Increment:
		return g.emitBump(s, s.Name, "add")

	case *ast.Decrement:
		return g.emitBump(s, s.Name, "sub")

	case *ast.IfStmt:
		return g.emitIf(s)

	case *ast.WhileStmt:
		return g.emitWhile(s)

	case *ast.DoWhileStmt:
		return g.emitDoWhile(s)

	case *ast.ForStmt:
		return g.emitFor(s)

	case *ast.Return:
		return g.emitReturnStmt(s)

	case *ast.Break:
		loop, ok := g.currentLoop()
		if !ok {
			return newError(s, "break outside a loop")
		}
		fmt.Fprintf(&g.out, "  jmp %s\n", loop.endLabel)
		return nil

	case *ast.Continue:
		loop, ok := g.currentLoop()
		if !ok {
			return newError(s, "continue outside a loop")
		}
		fmt.Fprintf(&g.out, "  jmp %s\n", loop.stepLabel)
		return nil

	case *ast.Block:
		return g.emitBlock(s)

	case *ast.FunctionCallStmt:
		v, err := g.emitCall(s.Call)
		if err != nil {
			return err
		}
		g.freeTemp(v)
		return nil

	default:
		return newError(stmt, "unsupported statement %T", stmt)
	}
}

func (g *Generator) emitLocalVarDecl(s *ast.VarDecl) error {
	if s.IsRegister {
		if s.RegisterNum == regIP {
			return newError(s, "register variable %q aliases r%d, which is not assignable", s.Name, regIP)
		}
		g.declareRegisterAlias(s.Name, s.RegisterNum, s.Type)
		if s.Initializer != nil {
			v, err := g.emitExpr(s.Initializer)
			if err != nil {
				return err
			}
			fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", s.RegisterNum, v)
			g.freeTemp(v)
		}
		return nil
	}

	reg, err := g.allocLocalReg(s.Name, s.Type)
	if err != nil {
		return wrapError(s, err)
	}
	if s.Initializer != nil {
		v, err := g.emitExpr(s.Initializer)
		if err != nil {
			return err
		}
		fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", reg, v)
		g.freeTemp(v)
	} else {
		fmt.Fprintf(&g.out, "  mov r:%d, #0\n", reg)
	}
	return nil
}

// emitArrayDecl materializes an array declaration (global or local) as a
// uniquely labeled data-section entry, per spec.md §4.5: arrays are
// always memory-backed regardless of lexical scope.
func (g *Generator) emitArrayDecl(d *ast.ArrayDecl, into map[string]*varLoc, labelPrefix string) error {
	label := g.newLabel(labelPrefix + d.Name)
	size := d.Size.Value
	fmt.Fprintf(&g.data, "%s:\n", label)
	for i := uint32(0); i < size; i++ {
		var v uint32
		if i < uint32(len(d.Initializer)) {
			lit, ok := d.Initializer[i].(*ast.Literal)
			if !ok {
				return newError(d, "array %q element %d initializer must be a constant literal", d.Name, i)
			}
			v = lit.Value
		}
		fmt.Fprintf(&g.data, "  dd %d\n", v)
	}
	into[d.Name] = &varLoc{kind: varArray, label: label, size: size, typ: ast.Uint32}
	return nil
}

func (g *Generator) emitArrayAddressByName(node ast.Node, name string, index ast.Expr) (int, error) {
	v, ok := g.resolve(name)
	if !ok || v.kind != varArray {
		return 0, newError(node, "undefined array %q", name)
	}
	idx, err := g.emitExpr(index)
	if err != nil {
		return 0, err
	}
	base, err := g.allocTemp(node)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, %s\n", base, v.label)
	fmt.Fprintf(&g.out, "  add r:%d, r:%d, r:%d\n", base, base, idx)
	g.freeTemp(idx)
	return base, nil
}

func (g *Generator) emitBump(node ast.Node, name string, op string) error {
	v, ok := g.resolve(name)
	if !ok {
		return newError(node, "undefined variable %q", name)
	}
	switch v.kind {
	case varReg, varAliasReg:
		fmt.Fprintf(&g.out, "  %s r:%d, r:%d, #1\n", op, v.reg, v.reg)
		return nil
	case varStack:
		t, err := g.allocTemp(node)
		if err != nil {
			return err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [r:%d, #%d]\n", t, regFP, int32(v.offset))
		fmt.Fprintf(&g.out, "  %s r:%d, r:%d, #1\n", op, t, t)
		fmt.Fprintf(&g.out, "  st r:%d, [r:%d, #%d]\n", t, regFP, int32(v.offset))
		g.freeTemp(t)
		return nil
	case varGlobal:
		t, err := g.allocTemp(node)
		if err != nil {
			return err
		}
		fmt.Fprintf(&g.out, "  ld r:%d, [%s]\n", t, v.label)
		fmt.Fprintf(&g.out, "  %s r:%d, r:%d, #1\n", op, t, t)
		fmt.Fprintf(&g.out, "  st r:%d, [%s]\n", t, v.label)
		g.freeTemp(t)
		return nil
	default:
		return newError(node, "cannot increment/decrement %q", name)
	}
}

func (g *Generator) emitIf(s *ast.IfStmt) error {
	cond, err := g.emitExpr(s.Condition)
	if err != nil {
		return err
	}
	elseLabel := g.newLabel("if_else")
	endLabel := g.newLabel("if_end")
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, cond, elseLabel)
	g.freeTemp(cond)

	if err := g.emitStmt(s.Then); err != nil {
		return err
	}
	if s.Else != nil {
		fmt.Fprintf(&g.out, "  jmp %s\n", endLabel)
		fmt.Fprintf(&g.out, "%s:\n", elseLabel)
		if err := g.emitStmt(s.Else); err != nil {
			return err
		}
		fmt.Fprintf(&g.out, "%s:\n", endLabel)
	} else {
		fmt.Fprintf(&g.out, "%s:\n", elseLabel)
	}
	return nil
}

func (g *Generator) emitWhile(s *ast.WhileStmt) error {
	start := g.newLabel("while_start")
	end := g.newLabel("while_end")
	g.pushLoop(loopCtx{startLabel: start, stepLabel: start, endLabel: end})
	defer g.popLoop()

	fmt.Fprintf(&g.out, "%s:\n", start)
	cond, err := g.emitExpr(s.Condition)
	if err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, cond, end)
	g.freeTemp(cond)

	if err := g.emitStmt(s.Body); err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "  jmp %s\n", start)
	fmt.Fprintf(&g.out, "%s:\n", end)
	return nil
}

func (g *Generator) emitDoWhile(s *ast.DoWhileStmt) error {
	start := g.newLabel("dowhile_start")
	stepLbl := g.newLabel("dowhile_cond")
	end := g.newLabel("dowhile_end")
	g.pushLoop(loopCtx{startLabel: start, stepLabel: stepLbl, endLabel: end})
	defer g.popLoop()

	fmt.Fprintf(&g.out, "%s:\n", start)
	if err := g.emitStmt(s.Body); err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "%s:\n", stepLbl)
	cond, err := g.emitExpr(s.Condition)
	if err != nil {
		return err
	}
	notZero, err := g.allocTemp(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "  cmpe r:%d, r:%d, #0\n", notZero, cond)
	g.freeTemp(cond)
	// notZero is 0 exactly when cond is nonzero, so cmovz loops back
	// while the condition holds.
	fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, notZero, start)
	g.freeTemp(notZero)
	fmt.Fprintf(&g.out, "%s:\n", end)
	return nil
}

func (g *Generator) emitFor(s *ast.ForStmt) error {
	if s.Init != nil {
		if err := g.emitStmt(s.Init); err != nil {
			return err
		}
	}
	start := g.newLabel("for_start")
	step := g.newLabel("for_step")
	end := g.newLabel("for_end")
	g.pushLoop(loopCtx{startLabel: start, stepLabel: step, endLabel: end})
	defer g.popLoop()

	fmt.Fprintf(&g.out, "%s:\n", start)
	if s.Condition != nil {
		cond, err := g.emitExpr(s.Condition)
		if err != nil {
			return err
		}
		fmt.Fprintf(&g.out, "  cmovz r:%d, r:%d, %s\n", regIP, cond, end)
		g.freeTemp(cond)
	}
	if err := g.emitStmt(s.Body); err != nil {
		return err
	}
	fmt.Fprintf(&g.out, "%s:\n", step)
	if s.Step != nil {
		if err := g.emitStmt(s.Step); err != nil {
			return err
		}
	}
	fmt.Fprintf(&g.out, "  jmp %s\n", start)
	fmt.Fprintf(&g.out, "%s:\n", end)
	return nil
}

func (g *Generator) emitReturnStmt(s *ast.Return) error {
	if s.Value == nil {
		g.emitReturn(g.curFunc, -1)
		return nil
	}
	v, err := g.emitExpr(s.Value)
	if err != nil {
		return err
	}
	g.emitReturn(g.curFunc, v)
	g.freeTemp(v)
	return nil
}
