package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-lang/scvm/parser"
	"github.com/scc-lang/scvm/tools"
)

func TestFormatReprintsFunctionSignature(t *testing.T) {
	prog, err := parser.New("function main() { return 0; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "function main() {")
	assert.Contains(t, out, "return 0;")
}

func TestFormatReprintsInterruptKeyword(t *testing.T) {
	prog, err := parser.New("interrupt function isr() { return; } function main() { return 0; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "interrupt function isr() {")
}

func TestFormatReprintsGlobalArrayDecl(t *testing.T) {
	prog, err := parser.New("uint32 table[3] = {1, 2, 3}; function main() { return table[0]; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "uint32 table[3] = {1, 2, 3};")
}

func TestFormatReprintsIfElse(t *testing.T) {
	prog, err := parser.New(`function main() { return 0; }
	function f(a) {
		if (a) {
			return 1;
		} else {
			return 2;
		}
	}`, "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "if (a) {")
	assert.Contains(t, out, "} else {")
}

func TestFormatReprintsForLoopClauses(t *testing.T) {
	prog, err := parser.New(`function main() {
		uint32 total = 0;
		for (uint32 i = 0; i < 10; i++) {
			total = total + i;
		}
		return total;
	}`, "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "for (uint32 i = 0; (i < 10); i++) {")
}

func TestFormatReprintsDoWhile(t *testing.T) {
	prog, err := parser.New(`function main() {
		uint32 i = 0;
		do {
			i++;
		} while (i < 3);
		return i;
	}`, "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "do {")
	assert.Contains(t, out, "} while ((i < 3));")
}

func TestFormatHonorsCustomIndentSize(t *testing.T) {
	prog, err := parser.New("function main() { return 0; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, &tools.FormatOptions{IndentSize: 2})
	assert.Contains(t, out, "  return 0;")
}

func TestFormatReprintsRegisterAndVolatileQualifiers(t *testing.T) {
	prog, err := parser.New("function main() { register uint32 r5 = 1; volatile uint32 flag = 0; return r5; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "register uint32 r5 = 1;")
	assert.Contains(t, out, "volatile uint32 flag = 0;")
}

func TestFormatReprintsPointerDeclAndDereference(t *testing.T) {
	prog, err := parser.New("uint32 x = 1; function main() { uint32* p = &x; return *p; }", "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "uint32* p = &x;")
	assert.Contains(t, out, "return *p;")
}

func TestFormatReprintsFunctionCall(t *testing.T) {
	prog, err := parser.New(`function helper(a) { return a; }
		function main() { return helper(5); }`, "test.sc").Parse()
	require.NoError(t, err)

	out := tools.Format(prog, nil)
	assert.Contains(t, out, "helper(5)")
}
