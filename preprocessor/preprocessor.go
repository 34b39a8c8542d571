// Package preprocessor expands #include, #define, and #undef directives
// over a single root source file, producing one flat character stream.
package preprocessor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Error is a preprocessing failure: a missing include, a cycle, or a
// malformed directive. It is always fatal to the pipeline.
type Error struct {
	File    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	if e.File == "" {
		return e.Message
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Preprocessor resolves #include/#define/#undef over a tree of source
// files rooted at one entry file.
type Preprocessor struct {
	baseDir  string
	macros   map[string]string
	visiting map[string]bool // canonicalized paths currently being expanded
}

// New creates a Preprocessor. baseDir is tried as a fallback include
// search directory after the including file's own directory; an empty
// baseDir defaults to the current working directory.
func New(baseDir string) *Preprocessor {
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = wd
		} else {
			baseDir = "."
		}
	}
	return &Preprocessor{
		baseDir:  baseDir,
		macros:   make(map[string]string),
		visiting: make(map[string]bool),
	}
}

// ProcessFile reads path, expands its directives (recursively following
// #include), and returns the flattened source text.
func (p *Preprocessor) ProcessFile(path string) (string, error) {
	content, resolved, err := p.readFile(path, "")
	if err != nil {
		return "", err
	}
	return p.processContent(content, resolved)
}

// resolveInclude finds an include target relative to the including file's
// directory, then the preprocessor's base directory, then the current
// working directory, in that order; the first hit wins.
func (p *Preprocessor) resolveInclude(name, includingDir string) (string, error) {
	candidates := make([]string, 0, 3)
	if includingDir != "" {
		candidates = append(candidates, filepath.Join(includingDir, name))
	}
	candidates = append(candidates, filepath.Join(p.baseDir, name))
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, name))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, err := filepath.Abs(c)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", &Error{File: name, Message: fmt.Sprintf("include %q not found", name)}
}

func (p *Preprocessor) readFile(path, includingDir string) (string, string, error) {
	resolved := path
	if !filepath.IsAbs(path) {
		r, err := p.resolveInclude(path, includingDir)
		if err != nil {
			return "", "", err
		}
		resolved = r
	}

	data, err := os.ReadFile(resolved) // #nosec G304 -- user-provided source/include path
	if err != nil {
		return "", "", &Error{File: path, Message: fmt.Sprintf("not found: %v", err)}
	}
	return string(data), resolved, nil
}

// processContent expands directives in content, whose canonical path is
// filename (used for cycle detection and diagnostics).
func (p *Preprocessor) processContent(content, filename string) (string, error) {
	if p.visiting[filename] {
		return "", &Error{File: filename, Message: "circular include"}
	}
	p.visiting[filename] = true
	defer delete(p.visiting, filename)

	dir := filepath.Dir(filename)
	lines := strings.Split(content, "\n")
	var out []string

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "#include"):
			name, err := parseIncludeArg(trimmed)
			if err != nil {
				return "", &Error{File: filename, Line: lineNo, Message: err.Error()}
			}
			childContent, childPath, err := p.readFile(name, dir)
			if err != nil {
				return "", err
			}
			expanded, err := p.processContent(childContent, childPath)
			if err != nil {
				return "", err
			}
			out = append(out, fmt.Sprintf("// Included from: %s", name))
			out = append(out, expanded)
			out = append(out, fmt.Sprintf("// End include: %s", name))

		case strings.HasPrefix(trimmed, "#define"):
			name, value, err := parseDefineArg(trimmed)
			if err != nil {
				return "", &Error{File: filename, Line: lineNo, Message: err.Error()}
			}
			p.macros[name] = value

		case strings.HasPrefix(trimmed, "#undef"):
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return "", &Error{File: filename, Line: lineNo, Message: "#undef missing name"}
			}
			delete(p.macros, fields[1])

		default:
			out = append(out, p.expandMacros(line))
		}
	}

	return strings.Join(out, "\n"), nil
}

func parseIncludeArg(line string) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#include"))
	if len(rest) < 2 {
		return "", fmt.Errorf("invalid #include syntax")
	}
	open, close := rest[0], rest[len(rest)-1]
	if (open == '"' && close == '"') || (open == '<' && close == '>') {
		return rest[1 : len(rest)-1], nil
	}
	return "", fmt.Errorf("invalid #include syntax")
}

func parseDefineArg(line string) (name, value string, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#define"))
	if rest == "" {
		return "", "", fmt.Errorf("#define missing name")
	}
	fields := strings.SplitN(rest, " ", 2)
	name = fields[0]
	if !isIdentifier(name) {
		return "", "", fmt.Errorf("#define missing name")
	}
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	return name, value, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// expandMacros substitutes whole-word macro occurrences in line, re-scanning
// to a fixed point so that `#define A B` / `#define B 100` resolves A to
// 100. On each pass, candidate names are tried longest-first so that a
// longer macro name is never shadowed by a shorter one that happens to be
// a prefix of it. Resolution always uses whichever macro table is live at
// expansion time (see the Open Question in SPEC_FULL.md §9): a name
// #undef'd after definition but before use does not expand.
func (p *Preprocessor) expandMacros(line string) string {
	for {
		names := make([]string, 0, len(p.macros))
		for name := range p.macros {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

		replaced := false
		for _, name := range names {
			newLine, did := substituteWholeWord(line, name, p.macros[name])
			if did {
				line = newLine
				replaced = true
			}
		}
		if !replaced {
			return line
		}
	}
}

// substituteWholeWord replaces every whole-word occurrence of name in line
// with value, where a boundary requires the adjacent characters (if any)
// to not be identifier-continuation characters.
func substituteWholeWord(line, name, value string) (string, bool) {
	var b strings.Builder
	changed := false
	i := 0
	for i < len(line) {
		idx := strings.Index(line[i:], name)
		if idx < 0 {
			b.WriteString(line[i:])
			break
		}
		start := i + idx
		end := start + len(name)

		leftOK := start == 0 || !isIdentByte(line[start-1])
		rightOK := end == len(line) || !isIdentByte(line[end])

		b.WriteString(line[i:start])
		if leftOK && rightOK {
			b.WriteString(value)
			changed = true
		} else {
			b.WriteString(name)
		}
		i = end
	}
	return b.String(), changed
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
