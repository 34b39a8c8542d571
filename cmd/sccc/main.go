// Command sccc compiles an SC source file to assembly text and,
// optionally, hands the result to the external assembler and emulator.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scc-lang/scvm/config"
	"github.com/scc-lang/scvm/pipeline"
	"github.com/scc-lang/scvm/tools"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Path to scvm.toml (default: built-in defaults)")
		outputPath  = flag.String("o", "", "Assembly output path (default: <source>.asm)")
		run         = flag.Bool("run", false, "Assemble and run the generated assembly via the external toolchain")
		lint        = flag.Bool("lint", false, "Lint the source and report issues instead of compiling")
		format      = flag.Bool("format", false, "Print the source reformatted in canonical style instead of compiling")
		xref        = flag.Bool("xref", false, "Print a function/variable cross-reference report instead of compiling")
	)
	flag.BoolVar(showVersion, "V", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sccc %s (commit %s, built %s)\n", Version, Commit, Date)
		os.Exit(0)
	}
	if *showHelp || flag.NArg() == 0 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	sourcePath := flag.Arg(0)
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "sccc: file not found: %s\n", sourcePath)
		os.Exit(1)
	}

	if *lint || *format || *xref {
		runDevTool(sourcePath, *lint, *format, *xref)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sccc: %v\n", err)
		os.Exit(1)
	}

	asmPath := *outputPath
	if asmPath == "" {
		asmPath = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".asm"
	}

	result, err := pipeline.Compile(sourcePath, asmPath, *run, cfg)
	if err != nil {
		if errors.Is(err, pipeline.ErrToolTimeout) {
			fmt.Fprintf(os.Stderr, "sccc: %v\n", err)
			os.Exit(124)
		}
		fmt.Fprintf(os.Stderr, "sccc: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s\n", result.AssemblyPath)
	if *run {
		fmt.Printf("wrote %s\n", result.BinaryPath)
		fmt.Print(result.RunOutput)
	}
}

func runDevTool(sourcePath string, lint, format, xref bool) {
	prog, err := pipeline.Build(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sccc: %v\n", err)
		os.Exit(1)
	}

	if format {
		fmt.Print(tools.Format(prog, nil))
	}
	if xref {
		fmt.Print(tools.Report(tools.Xref(prog)))
	}
	if lint {
		issues := tools.Lint(prog)
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue.String())
		}
		for _, issue := range issues {
			if issue.Level == tools.LintError {
				os.Exit(1)
			}
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func printHelp() {
	fmt.Printf(`sccc %s

Usage: sccc [options] <source-file>

Options:
  -help            Show this help message
  -V, -version     Show version information
  -config FILE     Load toolchain configuration from FILE
  -o FILE          Assembly output path (default: <source>.asm)
  -run             Assemble and run the generated assembly
  -lint            Lint the source and report issues (exit 1 on any error)
  -format          Print the source reformatted in canonical style
  -xref            Print a function/variable cross-reference report

Exit codes:
  0    success
  1    parse/compile/lint error, or a run-time error from the toolchain
  124  an external assembler or emulator invocation timed out

Examples:
  sccc examples/blink.sc
  sccc -o build/blink.asm -run examples/blink.sc
  sccc -lint examples/blink.sc
`, Version)
}
