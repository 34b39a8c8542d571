package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-lang/scvm/parser"
	"github.com/scc-lang/scvm/tools"
)

func xrefSource(t *testing.T, src string) map[string]*tools.Symbol {
	t.Helper()
	prog, err := parser.New(src, "test.sc").Parse()
	require.NoError(t, err)
	return tools.Xref(prog)
}

func TestXrefRecordsFunctionDefinition(t *testing.T) {
	symbols := xrefSource(t, "function main() { return 0; }")
	sym, ok := symbols["main"]
	require.True(t, ok)
	assert.True(t, sym.IsFunction)
	require.NotNil(t, sym.Definition)
	assert.Equal(t, tools.RefDefinition, sym.Definition.Type)
}

func TestXrefRecordsGlobalDefinition(t *testing.T) {
	symbols := xrefSource(t, "uint32 counter = 0; function main() { return counter; }")
	sym, ok := symbols["counter"]
	require.True(t, ok)
	assert.False(t, sym.IsFunction)
	require.NotNil(t, sym.Definition)
}

func TestXrefRecordsReadReference(t *testing.T) {
	symbols := xrefSource(t, "uint32 counter = 0; function main() { return counter; }")
	sym := symbols["counter"]
	require.Len(t, sym.References, 1)
	assert.Equal(t, tools.RefRead, sym.References[0].Type)
}

func TestXrefRecordsWriteReference(t *testing.T) {
	symbols := xrefSource(t, "uint32 counter = 0; function main() { counter = 5; return counter; }")
	sym := symbols["counter"]
	require.Len(t, sym.References, 2)
	assert.Equal(t, tools.RefWrite, sym.References[0].Type)
	assert.Equal(t, tools.RefRead, sym.References[1].Type)
}

func TestXrefRecordsCallReference(t *testing.T) {
	symbols := xrefSource(t, `function helper() { return 1; }
		function main() { return helper(); }`)
	sym := symbols["helper"]
	require.NotNil(t, sym.Definition)
	require.Len(t, sym.References, 1)
	assert.Equal(t, tools.RefCall, sym.References[0].Type)
}

func TestXrefRecordsArrayAccessAsRead(t *testing.T) {
	symbols := xrefSource(t, "uint32 table[2] = {1, 2}; function main() { return table[0]; }")
	sym := symbols["table"]
	require.Len(t, sym.References, 1)
	assert.Equal(t, tools.RefRead, sym.References[0].Type)
}

func TestXrefRecordsArrayAssignmentAsWrite(t *testing.T) {
	symbols := xrefSource(t, "uint32 table[2] = {1, 2}; function main() { table[0] = 9; return table[0]; }")
	sym := symbols["table"]
	require.Len(t, sym.References, 2)
	assert.Equal(t, tools.RefWrite, sym.References[0].Type)
}

func TestXrefReportListsEveryFunctionAndGlobal(t *testing.T) {
	symbols := xrefSource(t, "uint32 counter = 0; function main() { return counter; }")
	report := tools.Report(symbols)
	assert.Contains(t, report, "function main")
	assert.Contains(t, report, "variable counter")
}

func TestXrefSortedNamesAreAlphabetical(t *testing.T) {
	symbols := xrefSource(t, `function zeta() { return 0; }
		function alpha() { return 0; }
		function main() { return 0; }`)
	names := tools.SortedNames(symbols)
	assert.Equal(t, []string{"alpha", "main", "zeta"}, names)
}
