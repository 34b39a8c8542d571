// Package interp is the tree-walking back end: it evaluates an
// ast.Program directly against a simulated register file and
// peripheral set instead of emitting assembly (see package codegen for
// the other back end).
package interp

import (
	"io"
	"os"

	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/lexer"
)

const memoryBase = 0x1000

// defaultMaxCallDepth bounds recursion depth. The original Python
// interpreter relies on the host's recursion limit; Go has no
// equivalent safety net, so unbounded recursion would crash the process
// with a stack-overflow panic instead of a diagnosable error (see
// SPEC_FULL.md §4.4).
const defaultMaxCallDepth = 1000

// Runtime owns everything global to one interpretation run: the
// register file, peripheral state, the flat memory space backing
// address-of'd scalars and arrays, and the function table. It is
// reset to zero on construction and discarded on teardown, per
// spec.md §9's "global source-side state" note.
type Runtime struct {
	Registers   RegisterFile
	Peripherals *Peripherals
	Functions   map[string]*ast.FunctionDef
	Globals     *Environment
	Stdout      io.Writer

	MaxCallDepth int
	callDepth    int

	Trace *ExecutionTrace
	Stats *Statistics

	memory   map[uint32]uint32
	nextAddr uint32
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithMaxCallDepth overrides the default recursion guard.
func WithMaxCallDepth(n int) Option { return func(rt *Runtime) { rt.MaxCallDepth = n } }

// WithGPIOCount and WithTimerCount size the simulated peripheral banks;
// defaults are applied by the config package when loading scvm.toml.
func WithGPIOCount(n int) Option {
	return func(rt *Runtime) { rt.Peripherals.GPIO = make([]GPIOPin, n) }
}

func WithTimerCount(n int) Option {
	return func(rt *Runtime) { rt.Peripherals.Timers = make([]Timer, n) }
}

// WithStdout redirects uart_write's standard-output echo (default os.Stdout).
func WithStdout(w io.Writer) Option { return func(rt *Runtime) { rt.Stdout = w } }

// WithTrace and WithStatistics attach optional observability, off by
// default, mirroring the teacher's ExecutionTrace/PerformanceStatistics
// being nil until a CLI flag requests them (vm/trace.go, vm/statistics.go).
func WithTrace(t *ExecutionTrace) Option { return func(rt *Runtime) { rt.Trace = t } }
func WithStatistics(s *Statistics) Option { return func(rt *Runtime) { rt.Stats = s } }

// NewRuntime builds a Runtime for prog with zeroed registers and
// peripherals, ready to Run.
func NewRuntime(prog *ast.Program, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		Functions:    make(map[string]*ast.FunctionDef),
		Stdout:       os.Stdout,
		MaxCallDepth: defaultMaxCallDepth,
		Peripherals:  NewPeripherals(32, 3),
		memory:       make(map[uint32]uint32),
		nextAddr:     memoryBase,
	}
	for _, fn := range prog.Functions {
		rt.Functions[fn.Name] = fn
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.Globals = newEnvironment(nil, rt)
	for _, decl := range prog.Globals {
		if _, err := rt.execStmt(rt.Globals, decl); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (rt *Runtime) allocMemory(n uint32) uint32 {
	base := rt.nextAddr
	rt.nextAddr += n
	return base
}

// Run locates the single `main` function (validated by the parser to
// exist and take zero parameters) and executes it, returning its
// return value as the program's result.
func (rt *Runtime) Run() (uint32, error) {
	main, ok := rt.Functions["main"]
	if !ok {
		return 0, errf(lexer.Position{}, "no main function defined")
	}
	v, err := rt.callFunction(main, nil)
	if err != nil {
		return 0, err
	}
	return v.Bits, nil
}
