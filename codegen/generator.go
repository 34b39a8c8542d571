// Package codegen is the second back end: a one-pass AST-to-assembly-text
// emitter targeting the project's word-addressed ISA, grounded in shape on
// the teacher's encoder package (Encoder struct, per-pool monotonic
// counters, EncodingError) but retargeted from "ARM instructions to
// machine words" to "SC AST to assembly listing text".
package codegen

import (
	"fmt"
	"strings"

	"github.com/scc-lang/scvm/ast"
)

// varKind classifies how one name resolves to storage in the generated
// code.
type varKind int

const (
	varReg      varKind = iota // register-resident local (r11-r25)
	varStack                   // address-taken local, spilled to a frame-relative stack slot
	varGlobal                  // data-section scalar or pointer, referenced by label
	varArray                   // data-section array, referenced by label
	varAliasReg                // `register` qualified variable, bound to a fixed physical register
)

type varLoc struct {
	kind   varKind
	reg    int      // varReg, varAliasReg
	offset uint32   // varStack: word offset from the frame base (r30 at function entry)
	label  string   // varGlobal, varArray
	size   uint32   // varArray only
	typ    ast.Type // declared signedness; ast.Uint32 for pointers and arrays
}

// loopCtx carries the label targets break/continue resolve to, mirroring
// spec.md §9's "loop frame pushed on an explicit stack" design note, and
// structurally identical to the teacher encoder's pool-location stack.
type loopCtx struct {
	startLabel string
	stepLabel  string // for `for`; equals startLabel for while/do-while
	endLabel   string
}

// funcScope holds everything local to one function body being emitted:
// its register pool allocation, frame-relative stack slots (for
// address-taken locals), and loop-context stack.
type funcScope struct {
	vars         map[string]*varLoc
	nextLocalReg int
	frameDepth   uint32
	loops        []loopCtx
}

// Generator emits one assembly listing for an entire ast.Program in a
// single pass. Construct with New and call Generate once.
type Generator struct {
	out          strings.Builder
	data         strings.Builder
	labelCount   int
	temps        tempPool
	globals      map[string]*varLoc
	formatBanner bool
	cur          *funcScope
	curFunc      *ast.FunctionDef

	// regTypes tracks the signedness of whatever value currently occupies
	// a register, so emitCompare and the shift lowering in emitSimpleOp
	// can branch the way interp/eval.go's evalComparison/evalArithmetic
	// do. Persistent registers (varReg/varAliasReg) are set once at
	// declaration and never move; temp registers are set at every
	// value-producing emission and read back before the temp is freed.
	// A register with no entry defaults to ast.Uint32.
	regTypes map[int]ast.Type
}

// Option configures a Generator at construction.
type Option func(*Generator)

// WithFormatBanner controls whether the commented-out format directive
// banner precedes the listing (SPEC_FULL.md §6 [output] toggle).
func WithFormatBanner(on bool) Option {
	return func(g *Generator) { g.formatBanner = on }
}

// New creates a Generator ready to emit one program.
func New(opts ...Option) *Generator {
	g := &Generator{
		globals:      make(map[string]*varLoc),
		formatBanner: true,
		regTypes:     make(map[int]ast.Type),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// setRegType records the signedness of the value now held in reg.
func (g *Generator) setRegType(reg int, t ast.Type) {
	g.regTypes[reg] = t
}

// regType returns the signedness last recorded for reg, defaulting to
// ast.Uint32 for registers no emission point has tagged yet.
func (g *Generator) regType(reg int) ast.Type {
	if t, ok := g.regTypes[reg]; ok {
		return t
	}
	return ast.Uint32
}

// arithResultType mirrors interp's arithResultType: an int32 operand
// makes the whole expression signed, otherwise it's unsigned.
func arithResultType(l, r ast.Type) ast.Type {
	if l == ast.Int32 || r == ast.Int32 {
		return ast.Int32
	}
	return ast.Uint32
}

func (g *Generator) newLabel(prefix string) string {
	g.labelCount++
	return fmt.Sprintf("%s_%d", prefix, g.labelCount)
}

func (g *Generator) allocTemp(node ast.Node) (int, error) {
	reg, ok := g.temps.alloc()
	if !ok {
		return 0, newError(node, "expression exhausted the %d-register temporary pool", tempLast-tempFirst+1)
	}
	return reg, nil
}

func (g *Generator) freeTemp(reg int) {
	g.temps.free(reg)
}

// Generate emits the full assembly listing for prog: header framing,
// function bodies, then the data section.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	if err := g.emitGlobals(prog.Globals); err != nil {
		return "", err
	}

	hasMain := false
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			hasMain = true
		}
	}

	var listing strings.Builder
	if g.formatBanner {
		listing.WriteString("; format sc-asm-v1\n")
	}
	listing.WriteString("include \"isa.inc\"\n")
	if hasMain {
		listing.WriteString("include \"entry.inc\"\n")
		listing.WriteString("entry main\n")
	}
	listing.WriteString("\n")

	for _, fn := range prog.Functions {
		if err := g.emitFunction(fn); err != nil {
			return "", err
		}
	}
	listing.WriteString(g.out.String())

	listing.WriteString("\n; data section\n")
	listing.WriteString(g.data.String())

	return listing.String(), nil
}

// emitGlobals reserves a data-section label for every top-level
// declaration. Scalars and pointers get a single-word entry; arrays get
// one entry per element, per SPEC_FULL.md §4.5's note that a
// partially-initialized array pads the remaining elements with one
// literal-zero directive per missing element rather than a compact fill.
func (g *Generator) emitGlobals(decls []ast.Stmt) error {
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			label := g.newLabel("g_" + d.Name)
			var initial uint32
			if lit, ok := d.Initializer.(*ast.Literal); ok {
				initial = lit.Value
			} else if d.Initializer != nil {
				return newError(d, "global %q initializer must be a constant literal", d.Name)
			}
			fmt.Fprintf(&g.data, "%s: dd %d\n", label, initial)
			g.globals[d.Name] = &varLoc{kind: varGlobal, label: label, typ: d.Type}

		case *ast.PointerDecl:
			label := g.newLabel("g_" + d.Name)
			fmt.Fprintf(&g.data, "%s: dd 0\n", label)
			g.globals[d.Name] = &varLoc{kind: varGlobal, label: label, typ: ast.Uint32}

		case *ast.ArrayDecl:
			if err := g.emitArrayDecl(d, g.globals, "arr_"); err != nil {
				return err
			}

		default:
			return newError(decl, "unsupported global declaration %T", decl)
		}
	}
	return nil
}

// resolve finds name's storage location, preferring the current
// function's locals over globals (lexical shadowing).
func (g *Generator) resolve(name string) (*varLoc, bool) {
	if g.cur != nil {
		if v, ok := g.cur.vars[name]; ok {
			return v, true
		}
	}
	v, ok := g.globals[name]
	return v, ok
}
