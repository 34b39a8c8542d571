package interp

import (
	"fmt"

	"github.com/scc-lang/scvm/lexer"
)

// Error is a semantic/runtime failure: missing main, wrong argument
// count, undefined variable or function, division or modulo by zero,
// a write to r31, an out-of-bounds array access, an invalid pointer
// dereference, an unconfigured GPIO access, or a call-depth overrun.
// It is always fatal to the interpreter.
type Error struct {
	Pos     lexer.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func errf(pos lexer.Position, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
