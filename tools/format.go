// Package tools implements the format/lint/xref developer utilities,
// operating on a parsed ast.Program rather than assembly text.
package tools

import (
	"fmt"
	"strings"

	"github.com/scc-lang/scvm/ast"
)

// FormatOptions controls the canonical source printer.
type FormatOptions struct {
	IndentSize int // spaces per nesting level
}

// DefaultFormatOptions returns the toolchain's canonical style: tab-free,
// brace-on-same-line, 4-space indentation.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{IndentSize: 4}
}

// Formatter reprints a parsed program in the toolchain's canonical style.
type Formatter struct {
	options *FormatOptions
	out     strings.Builder
}

// NewFormatter creates a Formatter with the given options, or
// DefaultFormatOptions when nil.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format reprints prog as canonical SC source text.
func Format(prog *ast.Program, options *FormatOptions) string {
	f := NewFormatter(options)
	return f.Format(prog)
}

func (f *Formatter) Format(prog *ast.Program) string {
	f.out.Reset()
	for _, decl := range prog.Globals {
		f.writeStmt(decl, 0)
	}
	if len(prog.Globals) > 0 {
		f.out.WriteString("\n")
	}
	for i, fn := range prog.Functions {
		if i > 0 {
			f.out.WriteString("\n")
		}
		f.writeFunction(fn)
	}
	return f.out.String()
}

func (f *Formatter) indent(level int) string {
	return strings.Repeat(" ", level*f.options.IndentSize)
}

func (f *Formatter) writeFunction(fn *ast.FunctionDef) {
	if fn.IsInterrupt {
		f.out.WriteString("interrupt ")
	}
	fmt.Fprintf(&f.out, "function %s(%s) {\n", fn.Name, strings.Join(fn.Params, ", "))
	for _, stmt := range fn.Body.Statements {
		f.writeStmt(stmt, 1)
	}
	f.out.WriteString("}\n")
}

func (f *Formatter) writeStmt(stmt ast.Stmt, level int) {
	ind := f.indent(level)
	switch s := stmt.(type) {
	case *ast.VarDecl:
		prefix := ""
		if s.IsRegister {
			prefix += "register "
		}
		if s.IsVolatile {
			prefix += "volatile "
		}
		line := fmt.Sprintf("%s%s%s %s", ind, prefix, s.Type, s.Name)
		if s.Initializer != nil {
			line += " = " + f.expr(s.Initializer)
		}
		f.out.WriteString(line + ";\n")

	case *ast.ArrayDecl:
		line := fmt.Sprintf("%suint32 %s[%d]", ind, s.Name, s.Size.Value)
		if len(s.Initializer) > 0 {
			parts := make([]string, len(s.Initializer))
			for i, e := range s.Initializer {
				parts[i] = f.expr(e)
			}
			line += " = {" + strings.Join(parts, ", ") + "}"
		}
		f.out.WriteString(line + ";\n")

	case *ast.PointerDecl:
		line := fmt.Sprintf("%suint32* %s", ind, s.Name)
		if s.Initializer != nil {
			line += " = " + f.expr(s.Initializer)
		}
		f.out.WriteString(line + ";\n")

	case *ast.Assignment:
		fmt.Fprintf(&f.out, "%s%s = %s;\n", ind, s.Name, f.expr(s.Value))

	case *ast.ArrayAssignment:
		fmt.Fprintf(&f.out, "%s%s[%s] = %s;\n", ind, s.Name, f.expr(s.Index), f.expr(s.Value))

	case *ast.PointerAssignment:
		fmt.Fprintf(&f.out, "%s*%s = %s;\n", ind, f.expr(s.Addr), f.expr(s.Value))

	case *ast.Increment:
		fmt.Fprintf(&f.out, "%s%s++;\n", ind, s.Name)

	case *ast.Decrement:
		fmt.Fprintf(&f.out, "%s%s--;\n", ind, s.Name)

	case *ast.IfStmt:
		fmt.Fprintf(&f.out, "%sif (%s) {\n", ind, f.expr(s.Condition))
		f.writeBody(s.Then, level+1)
		if s.Else != nil {
			f.out.WriteString(ind + "} else {\n")
			f.writeBody(s.Else, level+1)
		}
		f.out.WriteString(ind + "}\n")

	case *ast.WhileStmt:
		fmt.Fprintf(&f.out, "%swhile (%s) {\n", ind, f.expr(s.Condition))
		f.writeBody(s.Body, level+1)
		f.out.WriteString(ind + "}\n")

	case *ast.DoWhileStmt:
		f.out.WriteString(ind + "do {\n")
		f.writeBody(s.Body, level+1)
		fmt.Fprintf(&f.out, "%s} while (%s);\n", ind, f.expr(s.Condition))

	case *ast.ForStmt:
		fmt.Fprintf(&f.out, "%sfor (%s; %s; %s) {\n", ind,
			f.inlineStmt(s.Init), f.condOrEmpty(s.Condition), f.inlineStmt(s.Step))
		f.writeBody(s.Body, level+1)
		f.out.WriteString(ind + "}\n")

	case *ast.Return:
		if s.Value == nil {
			f.out.WriteString(ind + "return;\n")
		} else {
			fmt.Fprintf(&f.out, "%sreturn %s;\n", ind, f.expr(s.Value))
		}

	case *ast.Break:
		f.out.WriteString(ind + "break;\n")

	case *ast.Continue:
		f.out.WriteString(ind + "continue;\n")

	case *ast.Block:
		f.writeBody(s, level)

	case *ast.FunctionCallStmt:
		fmt.Fprintf(&f.out, "%s%s;\n", ind, f.expr(s.Call))

	default:
		fmt.Fprintf(&f.out, "%s/* unsupported statement %T */\n", ind, stmt)
	}
}

func (f *Formatter) writeBody(stmt ast.Stmt, level int) {
	if b, ok := stmt.(*ast.Block); ok {
		for _, s := range b.Statements {
			f.writeStmt(s, level)
		}
		return
	}
	f.writeStmt(stmt, level)
}

func (f *Formatter) condOrEmpty(e ast.Expr) string {
	if e == nil {
		return "1"
	}
	return f.expr(e)
}

// inlineStmt renders a for-loop's init/step clause without a trailing
// semicolon or newline.
func (f *Formatter) inlineStmt(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case nil:
		return ""
	case *ast.VarDecl:
		if s.Initializer != nil {
			return fmt.Sprintf("%s %s = %s", s.Type, s.Name, f.expr(s.Initializer))
		}
		return fmt.Sprintf("%s %s", s.Type, s.Name)
	case *ast.Assignment:
		return fmt.Sprintf("%s = %s", s.Name, f.expr(s.Value))
	case *ast.Increment:
		return s.Name + "++"
	case *ast.Decrement:
		return s.Name + "--"
	default:
		return fmt.Sprintf("/* unsupported for-clause %T */", stmt)
	}
}

func (f *Formatter) expr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Literal:
		return fmt.Sprintf("%d", v.Value)
	case *ast.Identifier:
		return v.Name
	case *ast.BinaryOp:
		return fmt.Sprintf("(%s %s %s)", f.expr(v.Left), v.Op, f.expr(v.Right))
	case *ast.UnaryOp:
		return fmt.Sprintf("%s%s", v.Op, f.expr(v.Operand))
	case *ast.FunctionCall:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = f.expr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(parts, ", "))
	case *ast.ArrayAccess:
		return fmt.Sprintf("%s[%s]", v.Name, f.expr(v.Index))
	case *ast.AddressOf:
		return "&" + f.expr(v.Operand)
	case *ast.Dereference:
		return "*" + f.expr(v.Operand)
	default:
		return fmt.Sprintf("/* unsupported expr %T */", e)
	}
}
