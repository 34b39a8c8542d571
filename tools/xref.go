package tools

import (
	"fmt"
	"sort"

	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/lexer"
)

// ReferenceType classifies how a symbol is used at one site.
type ReferenceType int

const (
	RefDefinition ReferenceType = iota
	RefCall
	RefRead
	RefWrite
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefCall:
		return "call"
	case RefRead:
		return "read"
	case RefWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Reference is one use of a symbol.
type Reference struct {
	Type ReferenceType
	Pos  lexer.Position
}

// Symbol is a function or variable name and every site that uses it.
// Symbols are keyed by name alone: globals, locals, and parameters that
// share a name share one Symbol, and each declaration replaces the
// recorded Definition. Parameters get no Definition.
type Symbol struct {
	Name       string
	IsFunction bool
	Definition *Reference
	References []*Reference
}

// Generator builds a cross-reference table over a parsed program.
type Generator struct {
	symbols map[string]*Symbol
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{symbols: make(map[string]*Symbol)}
}

// Xref builds the cross-reference table for prog: every function and
// every variable name (global or local), and every call/read/write site
// that references it.
func Xref(prog *ast.Program) map[string]*Symbol {
	g := NewGenerator()
	return g.Generate(prog)
}

func (g *Generator) Generate(prog *ast.Program) map[string]*Symbol {
	for _, decl := range prog.Globals {
		g.defineGlobal(decl)
	}
	for _, fn := range prog.Functions {
		g.define(fn.Name, true, fn.Position())
	}
	for _, fn := range prog.Functions {
		g.walkBlock(fn.Body)
	}
	return g.symbols
}

func (g *Generator) defineGlobal(decl ast.Stmt) {
	switch d := decl.(type) {
	case *ast.VarDecl:
		g.define(d.Name, false, d.Position())
		if d.Initializer != nil {
			g.walkExpr(d.Initializer)
		}
	case *ast.ArrayDecl:
		g.define(d.Name, false, d.Position())
		for _, e := range d.Initializer {
			g.walkExpr(e)
		}
	case *ast.PointerDecl:
		g.define(d.Name, false, d.Position())
		if d.Initializer != nil {
			g.walkExpr(d.Initializer)
		}
	}
}

func (g *Generator) define(name string, isFunction bool, pos lexer.Position) {
	sym, ok := g.symbols[name]
	if !ok {
		sym = &Symbol{Name: name, IsFunction: isFunction}
		g.symbols[name] = sym
	}
	sym.Definition = &Reference{Type: RefDefinition, Pos: pos}
}

func (g *Generator) reference(name string, typ ReferenceType, pos lexer.Position) {
	sym, ok := g.symbols[name]
	if !ok {
		sym = &Symbol{Name: name, IsFunction: typ == RefCall}
		g.symbols[name] = sym
	}
	sym.References = append(sym.References, &Reference{Type: typ, Pos: pos})
}

func (g *Generator) walkBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		g.walkStmt(stmt)
	}
}

func (g *Generator) walkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		g.define(s.Name, false, s.Position())
		if s.Initializer != nil {
			g.walkExpr(s.Initializer)
		}
	case *ast.ArrayDecl:
		g.define(s.Name, false, s.Position())
		for _, e := range s.Initializer {
			g.walkExpr(e)
		}
	case *ast.PointerDecl:
		g.define(s.Name, false, s.Position())
		if s.Initializer != nil {
			g.walkExpr(s.Initializer)
		}
	case *ast.Assignment:
		g.reference(s.Name, RefWrite, s.Position())
		g.walkExpr(s.Value)
	case *ast.ArrayAssignment:
		g.reference(s.Name, RefWrite, s.Position())
		g.walkExpr(s.Index)
		g.walkExpr(s.Value)
	case *ast.PointerAssignment:
		g.walkExpr(s.Addr)
		g.walkExpr(s.Value)
	case *ast.Increment:
		g.reference(s.Name, RefWrite, s.Position())
	case *ast.Decrement:
		g.reference(s.Name, RefWrite, s.Position())
	case *ast.IfStmt:
		g.walkExpr(s.Condition)
		g.walkBody(s.Then)
		if s.Else != nil {
			g.walkBody(s.Else)
		}
	case *ast.WhileStmt:
		g.walkExpr(s.Condition)
		g.walkBody(s.Body)
	case *ast.DoWhileStmt:
		g.walkBody(s.Body)
		g.walkExpr(s.Condition)
	case *ast.ForStmt:
		if s.Init != nil {
			g.walkStmt(s.Init)
		}
		if s.Condition != nil {
			g.walkExpr(s.Condition)
		}
		g.walkBody(s.Body)
		if s.Step != nil {
			g.walkStmt(s.Step)
		}
	case *ast.Return:
		if s.Value != nil {
			g.walkExpr(s.Value)
		}
	case *ast.Block:
		g.walkBlock(s)
	case *ast.FunctionCallStmt:
		g.walkExpr(s.Call)
	}
}

func (g *Generator) walkBody(stmt ast.Stmt) {
	if b, ok := stmt.(*ast.Block); ok {
		g.walkBlock(b)
		return
	}
	g.walkStmt(stmt)
}

func (g *Generator) walkExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.Identifier:
		g.reference(v.Name, RefRead, v.Position())
	case *ast.BinaryOp:
		g.walkExpr(v.Left)
		g.walkExpr(v.Right)
	case *ast.UnaryOp:
		g.walkExpr(v.Operand)
	case *ast.FunctionCall:
		g.reference(v.Name, RefCall, v.Position())
		for _, a := range v.Args {
			g.walkExpr(a)
		}
	case *ast.ArrayAccess:
		g.reference(v.Name, RefRead, v.Position())
		g.walkExpr(v.Index)
	case *ast.AddressOf:
		g.walkExpr(v.Operand)
	case *ast.Dereference:
		g.walkExpr(v.Operand)
	}
}

// SortedNames returns symbols' names sorted, for stable report output.
func SortedNames(symbols map[string]*Symbol) []string {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report renders a deterministic, sorted cross-reference listing.
func Report(symbols map[string]*Symbol) string {
	var out string
	for _, name := range SortedNames(symbols) {
		sym := symbols[name]
		kind := "variable"
		if sym.IsFunction {
			kind = "function"
		}
		out += fmt.Sprintf("%s %s: %d reference(s)\n", kind, name, len(sym.References))
	}
	return out
}
