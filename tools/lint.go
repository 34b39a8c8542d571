package tools

import (
	"fmt"
	"sort"

	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/lexer"
)

// LintLevel is the severity of a lint finding.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
)

func (l LintLevel) String() string {
	if l == LintError {
		return "error"
	}
	return "warning"
}

// LintIssue is a single finding.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Column  int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d:%d: %s: %s [%s]", i.Line, i.Column, i.Level, i.Message, i.Code)
}

// scope tracks one function's declared and used variable names for the
// unused/undefined checks.
type scope struct {
	declared map[string]lexer.Position
	used     map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{declared: make(map[string]lexer.Position), used: make(map[string]bool), parent: parent}
}

func (s *scope) declare(name string, pos lexer.Position) {
	s.declared[name] = pos
}

func (s *scope) markUsed(name string) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.declared[name]; ok {
			sc.used[name] = true
			return
		}
	}
}

func (s *scope) isDeclared(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.declared[name]; ok {
			return true
		}
	}
	return false
}

// Linter analyzes a parsed program for common mistakes: undefined
// variables, unused locals, unreachable statements, and loop-control
// keywords used outside a loop.
type Linter struct {
	issues []*LintIssue
	funcs  map[string]*ast.FunctionDef
}

// NewLinter creates a Linter.
func NewLinter() *Linter {
	return &Linter{funcs: make(map[string]*ast.FunctionDef)}
}

// Lint analyzes prog and returns every finding, sorted by position.
func Lint(prog *ast.Program) []*LintIssue {
	l := NewLinter()
	return l.Lint(prog)
}

func (l *Linter) Lint(prog *ast.Program) []*LintIssue {
	globals := newScope(nil)
	for _, decl := range prog.Globals {
		l.declareGlobal(globals, decl)
	}
	for _, fn := range prog.Functions {
		l.funcs[fn.Name] = fn
	}

	for _, fn := range prog.Functions {
		l.lintFunction(fn, globals)
	}

	sort.Slice(l.issues, func(i, j int) bool {
		if l.issues[i].Line == l.issues[j].Line {
			return l.issues[i].Column < l.issues[j].Column
		}
		return l.issues[i].Line < l.issues[j].Line
	})
	return l.issues
}

func (l *Linter) declareGlobal(s *scope, decl ast.Stmt) {
	switch d := decl.(type) {
	case *ast.VarDecl:
		s.declare(d.Name, d.Position())
	case *ast.ArrayDecl:
		s.declare(d.Name, d.Position())
	case *ast.PointerDecl:
		s.declare(d.Name, d.Position())
	}
}

func (l *Linter) report(level LintLevel, pos lexer.Position, code, format string, args ...interface{}) {
	l.issues = append(l.issues, &LintIssue{
		Level:   level,
		Line:    pos.Line,
		Column:  pos.Column,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (l *Linter) lintFunction(fn *ast.FunctionDef, globals *scope) {
	fnScope := newScope(globals)
	for _, p := range fn.Params {
		fnScope.declare(p, fn.Position())
	}
	l.lintBlock(fn.Body, fnScope, false)

	for name, pos := range fnScope.declared {
		if !fnScope.used[name] && !isParam(fn, name) {
			l.report(LintWarning, pos, "UNUSED_VAR", "variable %q declared but never used", name)
		}
	}
}

func isParam(fn *ast.FunctionDef, name string) bool {
	for _, p := range fn.Params {
		if p == name {
			return true
		}
	}
	return false
}

// lintBlock walks one block's statements, checking variable use and
// flagging statements after an unconditional exit (return/break/continue)
// as unreachable.
func (l *Linter) lintBlock(b *ast.Block, s *scope, inLoop bool) {
	terminated := false
	for _, stmt := range b.Statements {
		if terminated {
			l.report(LintWarning, stmt.Position(), "UNREACHABLE_CODE", "unreachable statement")
			terminated = false // report once per run of dead code
		}
		l.lintStmt(stmt, s, inLoop)
		if isTerminal(stmt) {
			terminated = true
		}
	}
}

func isTerminal(stmt ast.Stmt) bool {
	switch stmt.(type) {
	case *ast.Return, *ast.Break, *ast.Continue:
		return true
	default:
		return false
	}
}

func (l *Linter) lintStmt(stmt ast.Stmt, s *scope, inLoop bool) {
	switch st := stmt.(type) {
	case *ast.VarDecl:
		if st.Initializer != nil {
			l.lintExpr(st.Initializer, s)
		}
		s.declare(st.Name, st.Position())

	case *ast.ArrayDecl:
		for _, e := range st.Initializer {
			l.lintExpr(e, s)
		}
		s.declare(st.Name, st.Position())

	case *ast.PointerDecl:
		if st.Initializer != nil {
			l.lintExpr(st.Initializer, s)
		}
		s.declare(st.Name, st.Position())

	case *ast.Assignment:
		l.lintExpr(st.Value, s)
		l.checkDefined(st.Name, st.Position(), s)

	case *ast.ArrayAssignment:
		l.lintExpr(st.Index, s)
		l.lintExpr(st.Value, s)
		l.checkDefined(st.Name, st.Position(), s)

	case *ast.PointerAssignment:
		l.lintExpr(st.Addr, s)
		l.lintExpr(st.Value, s)

	case *ast.Increment:
		l.checkDefined(st.Name, st.Position(), s)
	case *ast.Decrement:
		l.checkDefined(st.Name, st.Position(), s)

	case *ast.IfStmt:
		l.lintExpr(st.Condition, s)
		l.lintBody(st.Then, s, inLoop)
		if st.Else != nil {
			l.lintBody(st.Else, s, inLoop)
		}

	case *ast.WhileStmt:
		l.lintExpr(st.Condition, s)
		l.lintBody(st.Body, s, true)

	case *ast.DoWhileStmt:
		l.lintBody(st.Body, s, true)
		l.lintExpr(st.Condition, s)

	case *ast.ForStmt:
		loopScope := newScope(s)
		if st.Init != nil {
			l.lintStmt(st.Init, loopScope, inLoop)
		}
		if st.Condition != nil {
			l.lintExpr(st.Condition, loopScope)
		}
		l.lintBody(st.Body, loopScope, true)
		if st.Step != nil {
			l.lintStmt(st.Step, loopScope, true)
		}

	case *ast.Return:
		if st.Value != nil {
			l.lintExpr(st.Value, s)
		}

	case *ast.Break:
		if !inLoop {
			l.report(LintError, st.Position(), "BREAK_OUTSIDE_LOOP", "break used outside a loop")
		}
	case *ast.Continue:
		if !inLoop {
			l.report(LintError, st.Position(), "CONTINUE_OUTSIDE_LOOP", "continue used outside a loop")
		}

	case *ast.Block:
		l.lintBlock(st, newScope(s), inLoop)

	case *ast.FunctionCallStmt:
		l.lintExpr(st.Call, s)
	}
}

func (l *Linter) lintBody(stmt ast.Stmt, s *scope, inLoop bool) {
	if b, ok := stmt.(*ast.Block); ok {
		l.lintBlock(b, newScope(s), inLoop)
		return
	}
	l.lintStmt(stmt, s, inLoop)
}

func (l *Linter) checkDefined(name string, pos lexer.Position, s *scope) {
	if !s.isDeclared(name) {
		l.report(LintError, pos, "UNDEF_VAR", "undefined variable %q", name)
		return
	}
	s.markUsed(name)
}

func (l *Linter) lintExpr(e ast.Expr, s *scope) {
	switch v := e.(type) {
	case *ast.Identifier:
		l.checkDefined(v.Name, v.Position(), s)
	case *ast.BinaryOp:
		l.lintExpr(v.Left, s)
		l.lintExpr(v.Right, s)
		if lit, ok := v.Right.(*ast.Literal); ok && lit.Value == 0 && (v.Op == "/" || v.Op == "%") {
			l.report(LintWarning, v.Position(), "DIV_BY_ZERO_LITERAL", "division or modulo by literal zero")
		}
	case *ast.UnaryOp:
		l.lintExpr(v.Operand, s)
	case *ast.FunctionCall:
		if _, ok := l.funcs[v.Name]; !ok && !isBuiltinCall(v.Name) {
			l.report(LintError, v.Position(), "UNDEF_FUNC", "call to undefined function %q", v.Name)
		}
		for _, a := range v.Args {
			l.lintExpr(a, s)
		}
	case *ast.ArrayAccess:
		l.checkDefined(v.Name, v.Position(), s)
		l.lintExpr(v.Index, s)
	case *ast.AddressOf:
		l.lintExpr(v.Operand, s)
	case *ast.Dereference:
		l.lintExpr(v.Operand, s)
	}
}

// isBuiltinCall reports whether name is one of the built-ins from
// spec.md §6's call surface table, which have no ast.FunctionDef.
func isBuiltinCall(name string) bool {
	switch name {
	case "uart_read", "uart_write", "uart_set_baud",
		"gpio_set", "gpio_read", "gpio_write",
		"timer_set_mode", "timer_set_period", "timer_start", "timer_stop",
		"timer_reset", "timer_get_value", "timer_expired",
		"delay_ms", "delay_us", "delay_cycles",
		"enable_interrupts", "disable_interrupts",
		"set_bit", "clear_bit", "toggle_bit", "get_bit":
		return true
	default:
		return false
	}
}
