package preprocessor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestIdempotentOnFilesWithNoDirectives(t *testing.T) {
	dir := t.TempDir()
	content := "function main() {\n\treturn 0;\n}"
	path := writeFile(t, dir, "plain.sc", content)

	out, err := New(dir).ProcessFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != content {
		t.Errorf("expected idempotent passthrough, got %q", out)
	}
}

func TestDefineChainResolvesAtExpansionTime(t *testing.T) {
	dir := t.TempDir()
	content := "#define A B\n#define B 100\nuint32 x = A;"
	path := writeFile(t, dir, "chain.sc", content)

	out, err := New(dir).ProcessFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "uint32 x = 100;") {
		t.Errorf("expected A to resolve to 100, got %q", out)
	}
}

func TestUndefOfUnknownSymbolIsNoop(t *testing.T) {
	dir := t.TempDir()
	content := "#undef X\nuint32 X = 1;"
	path := writeFile(t, dir, "undef.sc", content)

	out, err := New(dir).ProcessFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "uint32 X = 1;") {
		t.Errorf("expected X to remain a plain identifier, got %q", out)
	}
}

func TestCircularIncludeDetected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sc", `#include "b.sc"`)
	pathB := writeFile(t, dir, "b.sc", `#include "a.sc"`)
	_ = pathB

	_, err := New(dir).ProcessFile(filepath.Join(dir, "a.sc"))
	if err == nil {
		t.Fatal("expected circular include error")
	}
	if !strings.Contains(err.Error(), "circular include") {
		t.Errorf("expected circular include error, got %v", err)
	}
}

func TestIncludeResolutionOrder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "inc.sc", "uint32 from_sub = 1;")
	writeFile(t, dir, "inc.sc", "uint32 from_root = 1;")
	writeFile(t, sub, "main.sc", `#include "inc.sc"`)

	out, err := New(dir).ProcessFile(filepath.Join(sub, "main.sc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "from_sub") {
		t.Errorf("expected include relative to including file's directory to win, got %q", out)
	}
}

func TestMacroWholeWordBoundary(t *testing.T) {
	dir := t.TempDir()
	content := "#define N 5\nuint32 NAME = N;\nuint32 n2 = N;"
	path := writeFile(t, dir, "bound.sc", content)

	out, err := New(dir).ProcessFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "5AME") {
		t.Errorf("macro must not substitute inside a longer identifier: %q", out)
	}
	if !strings.Contains(out, "NAME = 5;") {
		t.Errorf("expected whole-word N to expand, got %q", out)
	}
}

func TestMissingIncludeFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "missing.sc", `#include "nope.sc"`)

	_, err := New(dir).ProcessFile(path)
	if err == nil {
		t.Fatal("expected not-found error")
	}
}
