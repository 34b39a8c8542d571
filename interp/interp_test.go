package interp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-lang/scvm/interp"
	"github.com/scc-lang/scvm/parser"
)

func run(t *testing.T, src string, opts ...interp.Option) (uint32, error) {
	t.Helper()
	p := parser.New(src, "test.sc")
	prog, err := p.Parse()
	require.NoError(t, err)
	rt, err := interp.NewRuntime(prog, opts...)
	require.NoError(t, err)
	return rt.Run()
}

func TestWrapAround(t *testing.T) {
	v, err := run(t, "function main(){ uint32 x = 4294967295; x = x + 1; return x; }")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}

func TestSignedComparison(t *testing.T) {
	v, err := run(t, "function main(){ int32 a = -1; if (a < 0) return 7; return 9; }")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
}

func TestRecursion(t *testing.T) {
	src := `function f(n){ if (n==0||n==1) return 1; return n * f(n-1); }
	function main(){ return f(5); }`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), v)
}

func TestForLoopSum(t *testing.T) {
	src := `function main(){ uint32 s=0; uint32 i; for (i=0;i<5;i++) s=s+i; return s; }`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)
}

func TestHexAndBitwise(t *testing.T) {
	v, err := run(t, "function main(){ return 0xFF & 0x0F; }")
	require.NoError(t, err)
	assert.Equal(t, uint32(15), v)
}

func TestUARTEcho(t *testing.T) {
	var out bytes.Buffer
	src := `function main(){ uart_write(72); uart_write(105); return 0; }`
	_, err := run(t, src, interp.WithStdout(&out))
	require.NoError(t, err)
	assert.Equal(t, "Hi", out.String())
}

func TestShiftMasksCount(t *testing.T) {
	v, err := run(t, "function main(){ uint32 a = 1; return (a << 33) == (a << 1); }")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

func TestLogicalAndShortCircuits(t *testing.T) {
	// the right side would divide by zero if evaluated; short-circuit
	// must prevent that from ever happening.
	src := `function main(){ uint32 x = 0; if (x != 0 && (1/x) == 1) return 1; return 0; }`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, "function main(){ uint32 x = 0; return 1 / x; }")
	require.Error(t, err)
}

func TestArrayOutOfBoundsIsRuntimeError(t *testing.T) {
	_, err := run(t, "function main(){ uint32 a[3] = {1,2,3}; return a[5]; }")
	require.Error(t, err)
}

func TestRegisterVariableAliasesRegisterFile(t *testing.T) {
	src := `function main(){ register uint32 r5 = 42; return r5; }`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
}

func TestWriteToR31IsRejected(t *testing.T) {
	_, err := run(t, "function main(){ register uint32 r31 = 1; return r31; }")
	require.Error(t, err)
}

func TestAddressOfAndDereferenceRoundTrip(t *testing.T) {
	src := `function main(){
		uint32 x = 5;
		uint32* p = &x;
		*p = 99;
		return x;
	}`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), v)
}

func TestGPIOReadWithoutConfigureIsRuntimeError(t *testing.T) {
	_, err := run(t, "function main(){ return gpio_read(0); }")
	require.Error(t, err)
}

func TestGPIOSetThenReadWrite(t *testing.T) {
	src := `function main(){
		gpio_set(0, 1, 0);
		gpio_write(0, 1);
		return gpio_read(0);
	}`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

func TestBitHelpers(t *testing.T) {
	src := `function main(){
		uint32 v = 0;
		v = set_bit(v, 3);
		v = toggle_bit(v, 1);
		return get_bit(v, 3) + get_bit(v, 1) * 2;
	}`
	v, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
}

func TestCallDepthGuardRejectsInfiniteRecursion(t *testing.T) {
	src := `function loop(n){ return loop(n+1); } function main(){ return loop(0); }`
	_, err := run(t, src, interp.WithMaxCallDepth(50))
	require.Error(t, err)
}
