package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-lang/scvm/config"
	"github.com/scc-lang/scvm/pipeline"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.sc")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestInterpretReturnsMainResult(t *testing.T) {
	path := writeSource(t, "function main(){ return 42; }")
	v, err := pipeline.Interpret(path, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
}

func TestInterpretSurfacesParseErrors(t *testing.T) {
	path := writeSource(t, "function main() { return ; }")
	_, err := pipeline.Interpret(path, config.DefaultConfig())
	assert.Error(t, err)
}

func TestInterpretTracedCollectsTraceAndStats(t *testing.T) {
	path := writeSource(t, `function main() {
		uint32 total = 0;
		for (uint32 i = 0; i < 3; i++) {
			total = total + i;
		}
		return total;
	}`)
	v, rt, err := pipeline.InterpretTraced(path, config.DefaultConfig(), true, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
	require.NotNil(t, rt.Trace)
	assert.NotEmpty(t, rt.Trace.Entries)
	require.NotNil(t, rt.Stats)
	assert.Equal(t, uint64(3), rt.Stats.LoopIterations)
}

func TestInterpretTracedLeavesTraceNilWhenNotRequested(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	_, rt, err := pipeline.InterpretTraced(path, config.DefaultConfig(), false, false)
	require.NoError(t, err)
	assert.Nil(t, rt.Trace)
	assert.Nil(t, rt.Stats)
}

func TestGenerateAssemblyIncludesEntryDirective(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	listing, err := pipeline.GenerateAssembly(path, config.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, listing, "entry main")
}

func TestCompileWritesAssemblyFile(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	outPath := filepath.Join(t.TempDir(), "prog.asm")

	result, err := pipeline.Compile(path, outPath, false, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, outPath, result.AssemblyPath)

	contents, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "entry main")
}

// fakeTool writes a tiny shell script standing in for the external
// assembler/emulator, so Compile's subprocess plumbing can be exercised
// without a real toolchain on PATH.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tool.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestCompileWithRunInvokesToolchain(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	outPath := filepath.Join(t.TempDir(), "prog.asm")

	cfg := config.DefaultConfig()
	cfg.Toolchain.AssemblerPath = fakeTool(t, "touch \"$3\"")
	cfg.Toolchain.EmulatorPath = fakeTool(t, "echo ok")
	cfg.Toolchain.Timeout = 5 * time.Second

	result, err := pipeline.Compile(path, outPath, true, cfg)
	require.NoError(t, err)
	assert.FileExists(t, result.BinaryPath)
	assert.Contains(t, result.RunOutput, "ok")
}

func TestCompileWithFailingAssemblerIsWrapped(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	outPath := filepath.Join(t.TempDir(), "prog.asm")

	cfg := config.DefaultConfig()
	cfg.Toolchain.AssemblerPath = fakeTool(t, "echo boom 1>&2; exit 1")
	cfg.Toolchain.Timeout = 5 * time.Second

	_, err := pipeline.Compile(path, outPath, true, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCompileWithTimeoutReturnsErrToolTimeout(t *testing.T) {
	path := writeSource(t, "function main(){ return 0; }")
	outPath := filepath.Join(t.TempDir(), "prog.asm")

	cfg := config.DefaultConfig()
	cfg.Toolchain.AssemblerPath = fakeTool(t, "touch \"$3\"")
	cfg.Toolchain.EmulatorPath = fakeTool(t, "sleep 5")
	cfg.Toolchain.Timeout = 50 * time.Millisecond

	_, err := pipeline.Compile(path, outPath, true, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrToolTimeout)
}
