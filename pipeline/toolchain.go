package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/scc-lang/scvm/config"
)

// ErrToolTimeout is returned when an external assembler or emulator
// invocation exceeds its configured timeout; cmd/sccc maps this to exit
// code 124 per spec.md §6.
var ErrToolTimeout = errors.New("external tool timed out")

const tailLines = 150

// CompileResult is the product of Compile: the assembly listing written
// to disk and, if --run was requested, the assembled binary's path and
// the emulator's combined output.
type CompileResult struct {
	AssemblyPath string
	BinaryPath   string
	RunOutput    string
}

// Compile lowers path to assembly, writes it to outputPath, and — when
// run is true — invokes the external assembler and then the external
// emulator on the result. Both subprocess invocations are opaque: on a
// nonzero exit or a timeout the last 150 lines of their combined
// stdout/stderr are wrapped into the returned error (spec.md §7).
func Compile(path, outputPath string, run bool, cfg *config.Config) (*CompileResult, error) {
	listing, err := GenerateAssembly(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, []byte(listing), 0644); err != nil {
		return nil, fmt.Errorf("writing assembly to %s: %w", outputPath, err)
	}

	result := &CompileResult{AssemblyPath: outputPath}
	if !run {
		return result, nil
	}

	binaryPath := strings.TrimSuffix(outputPath, ".asm") + ".bin"
	if err := runTool(cfg, cfg.Toolchain.AssemblerPath, []string{outputPath, "-o", binaryPath}); err != nil {
		return nil, fmt.Errorf("assembling %s: %w", outputPath, err)
	}
	result.BinaryPath = binaryPath

	out, err := runToolCaptured(cfg, cfg.Toolchain.EmulatorPath, []string{binaryPath})
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", binaryPath, err)
	}
	result.RunOutput = out
	return result, nil
}

// runTool invokes name with args under cfg's configured timeout,
// discarding its output on success and wrapping it (tailed) on failure.
func runTool(cfg *config.Config, name string, args []string) error {
	_, err := runToolCaptured(cfg, name, args)
	return err
}

// runToolCaptured invokes name with args under cfg's configured timeout
// and returns its combined stdout/stderr on success.
func runToolCaptured(cfg *config.Config, name string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Toolchain.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w after %s: %s", ErrToolTimeout, cfg.Toolchain.Timeout, tail(buf.String(), tailLines))
	}
	if err != nil {
		return "", fmt.Errorf("%s: %s", err, tail(buf.String(), tailLines))
	}
	return buf.String(), nil
}

// tail returns the last n lines of s, or s unchanged if it has fewer.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
