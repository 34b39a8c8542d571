package codegen

import (
	"fmt"

	"github.com/scc-lang/scvm/ast"
)

// Error reports an emission failure with the AST node's source position,
// following the teacher encoder's EncodingError{Instruction, Message,
// Wrapped}/Error()/Unwrap() shape almost verbatim, adapted from an
// already-parsed-instruction context to an AST-node context.
type Error struct {
	Node    ast.Node
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Node == nil {
		if e.Wrapped != nil {
			return fmt.Sprintf("emission error: %s: %v", e.Message, e.Wrapped)
		}
		return fmt.Sprintf("emission error: %s", e.Message)
	}
	pos := e.Node.Position()
	location := fmt.Sprintf("%s:%d:%d: ", pos.Filename, pos.Line, pos.Column)
	if e.Wrapped != nil {
		return fmt.Sprintf("%s%s: %v", location, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s%s", location, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newError(node ast.Node, format string, args ...interface{}) *Error {
	return &Error{Node: node, Message: fmt.Sprintf(format, args...)}
}

func wrapError(node ast.Node, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return &Error{Node: node, Message: "failed to emit", Wrapped: err}
}
