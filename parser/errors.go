package parser

import (
	"fmt"
	"strings"

	"github.com/scc-lang/scvm/lexer"
)

// Error is a syntactic parse failure: an unexpected token, naming the
// expected kind, the observed kind, and the source position.
type Error struct {
	Pos      lexer.Position
	Expected string
	Observed string
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Pos, e.Expected, e.Observed)
}

// ErrorList collects every parse error found in one pass.
type ErrorList struct {
	Errors []*Error
}

func (el *ErrorList) add(err *Error) {
	el.Errors = append(el.Errors, err)
}

func (el *ErrorList) HasErrors() bool { return len(el.Errors) > 0 }

func (el *ErrorList) Error() string {
	lines := make([]string, len(el.Errors))
	for i, e := range el.Errors {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}
