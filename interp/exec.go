package interp

import (
	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/lexer"
)

// execStmt executes one statement in env and returns the control-flow
// signal it produced (none, break, continue, or return-with-value).
func (rt *Runtime) execStmt(env *Environment, stmt ast.Stmt) (ctrl, error) {
	rt.Trace.record(stmt.Position(), stmtKind(stmt))

	switch s := stmt.(type) {
	case *ast.VarDecl:
		var initial uint32
		if s.Initializer != nil {
			v, err := rt.evalExpr(env, s.Initializer)
			if err != nil {
				return none, err
			}
			initial = v.Bits
		}
		regNum := s.RegisterNum
		if s.IsRegister && regNum == 31 {
			return none, errf(s.Position(), "register variable %q aliases r31, which is not assignable", s.Name)
		}
		env.declareScalar(s.Name, s.Type, s.IsRegister, regNum, initial)
		return none, nil

	case *ast.ArrayDecl:
		init := make([]uint32, len(s.Initializer))
		for i, e := range s.Initializer {
			v, err := rt.evalExpr(env, e)
			if err != nil {
				return none, err
			}
			init[i] = v.Bits
		}
		env.declareArray(s.Name, ast.Uint32, s.Size.Value, init)
		return none, nil

	case *ast.PointerDecl:
		var initial uint32
		if s.Initializer != nil {
			v, err := rt.evalExpr(env, s.Initializer)
			if err != nil {
				return none, err
			}
			initial = v.Bits
		}
		env.declarePointer(s.Name, initial)
		return none, nil

	case *ast.Assignment:
		v, err := rt.evalExpr(env, s.Value)
		if err != nil {
			return none, err
		}
		if !env.writeScalar(s.Name, v.Bits) {
			return none, errf(s.Position(), "cannot assign %q: %s", s.Name, writeFailureReason(env, s.Name))
		}
		return none, nil

	case *ast.ArrayAssignment:
		base, size, _, ok := env.arrayInfo(s.Name)
		if !ok {
			return none, errf(s.Position(), "undefined array %q", s.Name)
		}
		idx, err := rt.evalExpr(env, s.Index)
		if err != nil {
			return none, err
		}
		if idx.Bits >= size {
			return none, errf(s.Position(), "array index %d out of bounds for %q (size %d)", idx.Bits, s.Name, size)
		}
		v, err := rt.evalExpr(env, s.Value)
		if err != nil {
			return none, err
		}
		rt.memory[base+idx.Bits] = v.Bits
		return none, nil

	case *ast.PointerAssignment:
		// *addr_expr = value: addr_expr evaluates to the target
		// address itself (e.g. a pointer variable), unlike &operand
		// which computes the address OF an lvalue.
		addr, err := rt.evalExpr(env, s.Addr)
		if err != nil {
			return none, err
		}
		v, err := rt.evalExpr(env, s.Value)
		if err != nil {
			return none, err
		}
		rt.memory[addr.Bits] = v.Bits
		return none, nil

	case *ast.Increment:
		return none, rt.bump(env, s.Position(), s.Name, 1)

	case *ast.Decrement:
		return none, rt.bump(env, s.Position(), s.Name, -1)

	case *ast.IfStmt:
		cond, err := rt.evalExpr(env, s.Condition)
		if err != nil {
			return none, err
		}
		if !cond.IsZero() {
			return rt.execStmt(env.child(), s.Then)
		}
		if s.Else != nil {
			return rt.execStmt(env.child(), s.Else)
		}
		return none, nil

	case *ast.WhileStmt:
		return rt.execWhile(env, s)

	case *ast.DoWhileStmt:
		return rt.execDoWhile(env, s)

	case *ast.ForStmt:
		return rt.execFor(env, s)

	case *ast.Return:
		if s.Value == nil {
			return ctrl{kind: ctrlReturn, value: uintValue(0)}, nil
		}
		v, err := rt.evalExpr(env, s.Value)
		if err != nil {
			return none, err
		}
		return ctrl{kind: ctrlReturn, value: v}, nil

	case *ast.Break:
		return ctrl{kind: ctrlBreak}, nil

	case *ast.Continue:
		return ctrl{kind: ctrlContinue}, nil

	case *ast.Block:
		return rt.execBlock(env.child(), s)

	case *ast.FunctionCallStmt:
		_, err := rt.evalCall(env, s.Call)
		return none, err

	default:
		return none, errf(stmt.Position(), "unsupported statement %T", stmt)
	}
}

func (rt *Runtime) execBlock(env *Environment, b *ast.Block) (ctrl, error) {
	for _, stmt := range b.Statements {
		c, err := rt.execStmt(env, stmt)
		if err != nil {
			return none, err
		}
		if c.kind != ctrlNone {
			return c, nil
		}
	}
	return none, nil
}

func (rt *Runtime) execWhile(env *Environment, s *ast.WhileStmt) (ctrl, error) {
	for {
		cond, err := rt.evalExpr(env, s.Condition)
		if err != nil {
			return none, err
		}
		if cond.IsZero() {
			return none, nil
		}
		rt.Stats.countIteration()
		c, err := rt.execStmt(env.child(), s.Body)
		if err != nil {
			return none, err
		}
		switch c.kind {
		case ctrlBreak:
			return none, nil
		case ctrlReturn:
			return c, nil
		}
	}
}

func (rt *Runtime) execDoWhile(env *Environment, s *ast.DoWhileStmt) (ctrl, error) {
	for {
		rt.Stats.countIteration()
		c, err := rt.execStmt(env.child(), s.Body)
		if err != nil {
			return none, err
		}
		switch c.kind {
		case ctrlBreak:
			return none, nil
		case ctrlReturn:
			return c, nil
		}
		cond, err := rt.evalExpr(env, s.Condition)
		if err != nil {
			return none, err
		}
		if cond.IsZero() {
			return none, nil
		}
	}
}

func (rt *Runtime) execFor(env *Environment, s *ast.ForStmt) (ctrl, error) {
	loopEnv := env.child()
	if s.Init != nil {
		if _, err := rt.execStmt(loopEnv, s.Init); err != nil {
			return none, err
		}
	}
	for {
		if s.Condition != nil {
			cond, err := rt.evalExpr(loopEnv, s.Condition)
			if err != nil {
				return none, err
			}
			if cond.IsZero() {
				return none, nil
			}
		}
		rt.Stats.countIteration()
		c, err := rt.execStmt(loopEnv.child(), s.Body)
		if err != nil {
			return none, err
		}
		if c.kind == ctrlBreak {
			return none, nil
		}
		if c.kind == ctrlReturn {
			return c, nil
		}
		// ctrlContinue falls through to the step, per spec.md §4.4:
		// "continue in a for runs the step before re-testing the condition".
		if s.Step != nil {
			if _, err := rt.execStmt(loopEnv, s.Step); err != nil {
				return none, err
			}
		}
	}
}

// bump implements prefix/postfix ++/-- as a read-modify-write through
// whatever storage backs name (scalar, memory-promoted scalar, or
// register), masked to 32 bits by ordinary uint32 wraparound.
func (rt *Runtime) bump(env *Environment, pos lexer.Position, name string, delta int32) error {
	v, ok := env.readScalar(name)
	if !ok {
		return errf(pos, "undefined variable %q", name)
	}
	newVal := v.Bits
	if delta > 0 {
		newVal++
	} else {
		newVal--
	}
	if !env.writeScalar(name, newVal) {
		return errf(pos, "cannot assign %q: %s", name, writeFailureReason(env, name))
	}
	return nil
}

// writeFailureReason distinguishes an undefined name from a rejected
// write to r31 for diagnostics.
func writeFailureReason(env *Environment, name string) string {
	b, _ := env.resolve(name)
	if b == nil {
		return "undefined variable"
	}
	if b.kind == bindRegister && b.reg == 31 {
		return "r31 is not assignable"
	}
	return "invalid assignment target"
}

func stmtKind(stmt ast.Stmt) string {
	switch stmt.(type) {
	case *ast.IfStmt:
		return "if"
	case *ast.WhileStmt:
		return "while"
	case *ast.DoWhileStmt:
		return "do-while"
	case *ast.ForStmt:
		return "for"
	case *ast.Return:
		return "return"
	case *ast.FunctionCallStmt:
		return "call"
	default:
		return "stmt"
	}
}
