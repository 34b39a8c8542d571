// Command scrun interprets an SC source file directly with the
// tree-walking runtime, without invoking the external assembler or
// emulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scc-lang/scvm/config"
	"github.com/scc-lang/scvm/pipeline"
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
		verbose     = flag.Bool("verbose", false, "Print the program's exit value to stderr")
		enableTrace = flag.Bool("trace", false, "Record a line-by-line execution trace and print it on exit")
		enableStats = flag.Bool("stats", false, "Collect call/loop/peripheral counters and print them on exit")
	)
	flag.BoolVar(showVersion, "V", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scrun %s (commit %s, built %s)\n", Version, Commit, Date)
		os.Exit(0)
	}
	if *showHelp || flag.NArg() == 0 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scrun: %v\n", err)
		os.Exit(1)
	}

	sourcePath := flag.Arg(0)
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "scrun: file not found: %s\n", sourcePath)
		os.Exit(1)
	}

	result, rt, err := pipeline.InterpretTraced(sourcePath, cfg, *enableTrace, *enableStats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scrun: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "scrun: %s returned %d\n", sourcePath, result)
	}
	if rt != nil && rt.Trace != nil {
		for _, entry := range rt.Trace.Entries {
			fmt.Fprintf(os.Stderr, "trace: %s:%d:%d %s\n", entry.Pos.Filename, entry.Pos.Line, entry.Pos.Column, entry.Kind)
		}
	}
	if rt != nil && rt.Stats != nil {
		fmt.Fprintf(os.Stderr, "stats: calls=%d iterations=%d peripheral_accesses=%d\n",
			rt.Stats.FunctionCalls, rt.Stats.LoopIterations, rt.Stats.PeripheralAccesses)
	}
	os.Exit(int(result))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func printHelp() {
	fmt.Printf(`scrun %s

Usage: scrun [options] <source-file>

Options:
  -help            Show this help message
  -V, -version     Show version information
  -config FILE     Load toolchain configuration from FILE
  -verbose         Print the program's exit value to stderr
  -trace           Record a line-by-line execution trace and print it on exit
  -stats           Collect call/loop/peripheral counters and print them on exit

Examples:
  scrun examples/fib.sc
  scrun -config scvm.toml examples/blink.sc
`, Version)
}
