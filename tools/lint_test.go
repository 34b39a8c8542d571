package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-lang/scvm/parser"
	"github.com/scc-lang/scvm/tools"
)

func lintSource(t *testing.T, src string) []*tools.LintIssue {
	t.Helper()
	prog, err := parser.New(src, "test.sc").Parse()
	require.NoError(t, err)
	return tools.Lint(prog)
}

func findCode(issues []*tools.LintIssue, code string) *tools.LintIssue {
	for _, i := range issues {
		if i.Code == code {
			return i
		}
	}
	return nil
}

func TestLintCleanProgramHasNoIssues(t *testing.T) {
	issues := lintSource(t, "function main() { uint32 x = 1; return x; }")
	assert.Empty(t, issues)
}

func TestLintFlagsUndefinedVariable(t *testing.T) {
	issues := lintSource(t, "function main() { return missing; }")
	issue := findCode(issues, "UNDEF_VAR")
	require.NotNil(t, issue)
	assert.Equal(t, tools.LintError, issue.Level)
}

func TestLintFlagsUnusedLocal(t *testing.T) {
	issues := lintSource(t, "function main() { uint32 unused = 1; return 0; }")
	issue := findCode(issues, "UNUSED_VAR")
	require.NotNil(t, issue)
	assert.Equal(t, tools.LintWarning, issue.Level)
}

func TestLintDoesNotFlagUnusedParams(t *testing.T) {
	issues := lintSource(t, "function f(a) { return 0; } function main() { return 0; }")
	assert.Nil(t, findCode(issues, "UNUSED_VAR"))
}

func TestLintFlagsUnreachableCode(t *testing.T) {
	issues := lintSource(t, `function main() {
		return 1;
		uint32 x = 2;
	}`)
	issue := findCode(issues, "UNREACHABLE_CODE")
	require.NotNil(t, issue)
}

func TestLintFlagsBreakOutsideLoop(t *testing.T) {
	issues := lintSource(t, "function main() { break; return 0; }")
	issue := findCode(issues, "BREAK_OUTSIDE_LOOP")
	require.NotNil(t, issue)
}

func TestLintFlagsContinueOutsideLoop(t *testing.T) {
	issues := lintSource(t, "function main() { continue; return 0; }")
	issue := findCode(issues, "CONTINUE_OUTSIDE_LOOP")
	require.NotNil(t, issue)
}

func TestLintAllowsBreakInsideLoop(t *testing.T) {
	issues := lintSource(t, `function main() {
		while (1) {
			break;
		}
		return 0;
	}`)
	assert.Nil(t, findCode(issues, "BREAK_OUTSIDE_LOOP"))
}

func TestLintAllowsContinueInsideForLoop(t *testing.T) {
	issues := lintSource(t, `function main() {
		for (uint32 i = 0; i < 10; i++) {
			continue;
		}
		return 0;
	}`)
	assert.Nil(t, findCode(issues, "CONTINUE_OUTSIDE_LOOP"))
}

func TestLintFlagsDivisionByLiteralZero(t *testing.T) {
	issues := lintSource(t, "function main() { uint32 x = 1 / 0; return x; }")
	issue := findCode(issues, "DIV_BY_ZERO_LITERAL")
	require.NotNil(t, issue)
	assert.Equal(t, tools.LintWarning, issue.Level)
}

func TestLintFlagsModuloByLiteralZero(t *testing.T) {
	issues := lintSource(t, "function main() { uint32 x = 1 % 0; return x; }")
	issue := findCode(issues, "DIV_BY_ZERO_LITERAL")
	require.NotNil(t, issue)
}

func TestLintFlagsCallToUndefinedFunction(t *testing.T) {
	issues := lintSource(t, "function main() { return mystery(1); }")
	issue := findCode(issues, "UNDEF_FUNC")
	require.NotNil(t, issue)
}

func TestLintAllowsBuiltinCalls(t *testing.T) {
	issues := lintSource(t, "function main() { uart_write(65); return 0; }")
	assert.Nil(t, findCode(issues, "UNDEF_FUNC"))
}

func TestLintAllowsCallToUserFunction(t *testing.T) {
	issues := lintSource(t, `function helper() { return 1; }
		function main() { return helper(); }`)
	assert.Nil(t, findCode(issues, "UNDEF_FUNC"))
}

func TestLintGlobalsAreVisibleToAllFunctions(t *testing.T) {
	issues := lintSource(t, "uint32 counter = 0; function main() { return counter; }")
	assert.Nil(t, findCode(issues, "UNDEF_VAR"))
}

func TestLintIssuesAreSortedByPosition(t *testing.T) {
	issues := lintSource(t, `function main() {
		return missing_a;
	}
	function other() {
		return missing_b;
	}`)
	require.Len(t, issues, 2)
	assert.LessOrEqual(t, issues[0].Line, issues[1].Line)
}
