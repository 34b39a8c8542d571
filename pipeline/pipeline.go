// Package pipeline orchestrates the front end (preprocessor, lexer,
// parser) and dispatches the resulting ast.Program to either back end:
// the tree-walking interpreter or the assembly code generator followed
// by the external toolchain.
package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/codegen"
	"github.com/scc-lang/scvm/config"
	"github.com/scc-lang/scvm/interp"
	"github.com/scc-lang/scvm/parser"
	"github.com/scc-lang/scvm/preprocessor"
)

// Build runs the front end over the source file at path: preprocess,
// parse, and return the resulting AST. Preprocessing and parse errors
// are both fatal, per spec.md §7.
func Build(path string) (*ast.Program, error) {
	pp := preprocessor.New(filepath.Dir(path))
	src, err := pp.ProcessFile(path)
	if err != nil {
		return nil, fmt.Errorf("preprocessing %s: %w", path, err)
	}

	p := parser.New(src, path)
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return prog, nil
}

// Interpret builds path and runs it directly against the tree-walking
// interpreter, returning main's return value.
func Interpret(path string, cfg *config.Config) (uint32, error) {
	v, _, err := InterpretTraced(path, cfg, false, false)
	return v, err
}

// InterpretTraced is Interpret plus optional execution tracing and
// statistics collection, mirroring the teacher's -trace/-stats flags
// (SPEC_FULL.md §4.4). The returned *interp.Runtime carries whichever
// of Trace/Stats was requested (nil otherwise) for the caller to report.
func InterpretTraced(path string, cfg *config.Config, trace, stats bool) (uint32, *interp.Runtime, error) {
	prog, err := Build(path)
	if err != nil {
		return 0, nil, err
	}

	opts := []interp.Option{
		interp.WithMaxCallDepth(cfg.Execution.MaxCallDepth),
		interp.WithGPIOCount(int(cfg.Peripherals.GPIOPins)),
		interp.WithTimerCount(int(cfg.Peripherals.TimerCount)),
	}
	if trace {
		opts = append(opts, interp.WithTrace(interp.NewExecutionTrace()))
	}
	if stats {
		opts = append(opts, interp.WithStatistics(interp.NewStatistics()))
	}

	rt, err := interp.NewRuntime(prog, opts...)
	if err != nil {
		return 0, nil, fmt.Errorf("building runtime for %s: %w", path, err)
	}

	v, err := rt.Run()
	if err != nil {
		return 0, rt, fmt.Errorf("running %s: %w", path, err)
	}
	return v, rt, nil
}

// GenerateAssembly builds path and lowers it to an assembly listing.
func GenerateAssembly(path string, cfg *config.Config) (string, error) {
	prog, err := Build(path)
	if err != nil {
		return "", err
	}

	gen := codegen.New(codegen.WithFormatBanner(cfg.Output.FormatBanner))
	listing, err := gen.Generate(prog)
	if err != nil {
		return "", fmt.Errorf("generating assembly for %s: %w", path, err)
	}
	return listing, nil
}
