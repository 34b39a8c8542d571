package parser

import (
	"testing"

	"github.com/scc-lang/scvm/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src, "test.sc")
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func TestMinimalMainParses(t *testing.T) {
	prog := mustParse(t, "function main() { return 0; }")
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "main" {
		t.Fatalf("expected single main function, got %+v", prog.Functions)
	}
}

func TestMissingMainIsError(t *testing.T) {
	p := New("function helper() { return 0; }", "test.sc")
	_, err := p.Parse()
	if err == nil {
		t.Fatal("expected error for program without main")
	}
}

func TestPrecedenceClimbingBindsMultiplyTighterThanAdd(t *testing.T) {
	prog := mustParse(t, "function main() { return 1 + 2 * 3; }")
	ret := prog.Functions[0].Body.Statements[0].(*ast.Return)
	bin := ret.Value.(*ast.BinaryOp)
	if bin.Op != "+" {
		t.Fatalf("expected top-level +, got %s", bin.Op)
	}
	rhs := bin.Right.(*ast.BinaryOp)
	if rhs.Op != "*" {
		t.Fatalf("expected right operand to be *, got %s", rhs.Op)
	}
}

func TestLogicalOrIsLowestPrecedence(t *testing.T) {
	prog := mustParse(t, "function main() { return 1 && 2 || 3 & 4; }")
	ret := prog.Functions[0].Body.Statements[0].(*ast.Return)
	top := ret.Value.(*ast.BinaryOp)
	if top.Op != "||" {
		t.Fatalf("expected top-level ||, got %s", top.Op)
	}
}

func TestBitwiseAndHexLiteral(t *testing.T) {
	prog := mustParse(t, "function main() { uint32 x = 0xFF & 0x0F; return x; }")
	decl := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	bin := decl.Initializer.(*ast.BinaryOp)
	if bin.Op != "&" {
		t.Fatalf("expected &, got %s", bin.Op)
	}
	lit := bin.Left.(*ast.Literal)
	if lit.Value != 0xFF {
		t.Fatalf("expected 0xFF, got %#x", lit.Value)
	}
}

func TestUnaryPrefixRightAssociative(t *testing.T) {
	prog := mustParse(t, "function main() { return -!x; }")
	ret := prog.Functions[0].Body.Statements[0].(*ast.Return)
	outer := ret.Value.(*ast.UnaryOp)
	if outer.Op != "-" {
		t.Fatalf("expected outer -, got %s", outer.Op)
	}
	inner := outer.Operand.(*ast.UnaryOp)
	if inner.Op != "!" {
		t.Fatalf("expected inner !, got %s", inner.Op)
	}
}

func TestForLoopSumGrammar(t *testing.T) {
	src := `function main() {
		uint32 sum = 0;
		for (uint32 i = 0; i < 10; i++) {
			sum = sum + i;
		}
		return sum;
	}`
	prog := mustParse(t, src)
	forStmt := prog.Functions[0].Body.Statements[1].(*ast.ForStmt)
	if _, ok := forStmt.Init.(*ast.VarDecl); !ok {
		t.Fatalf("expected VarDecl init, got %T", forStmt.Init)
	}
	if _, ok := forStmt.Step.(*ast.Increment); !ok {
		t.Fatalf("expected Increment step, got %T", forStmt.Step)
	}
}

func TestRecursiveCallParses(t *testing.T) {
	src := `function fact(n) {
		if (n < 2) { return 1; }
		return n * fact(n - 1);
	}
	function main() { return fact(5); }`
	prog := mustParse(t, src)
	if len(prog.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(prog.Functions))
	}
}

func TestRegisterVariableNameValidatesRange(t *testing.T) {
	p := New("function main() { register uint32 r5 = 1; return r5; }", "test.sc")
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decl := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	if decl.RegisterNum != 5 {
		t.Fatalf("expected register number 5, got %d", decl.RegisterNum)
	}

	bad := New("function main() { register uint32 total = 1; return total; }", "test.sc")
	if _, err := bad.Parse(); err == nil {
		t.Fatal("expected error for non-rN register variable name")
	}
}

func TestArrayDeclAndAccess(t *testing.T) {
	src := `function main() {
		uint32 arr[3] = { 1, 2, 3 };
		return arr[1];
	}`
	prog := mustParse(t, src)
	decl := prog.Functions[0].Body.Statements[0].(*ast.ArrayDecl)
	if decl.Size.Value != 3 || len(decl.Initializer) != 3 {
		t.Fatalf("unexpected array decl: %+v", decl)
	}
	ret := prog.Functions[0].Body.Statements[1].(*ast.Return)
	access := ret.Value.(*ast.ArrayAccess)
	if access.Name != "arr" {
		t.Fatalf("expected array access on arr, got %s", access.Name)
	}
}

func TestPointerDeclAndDereferenceAssignment(t *testing.T) {
	src := `function main() {
		uint32 x = 5;
		uint32* p = &x;
		*p = 10;
		return x;
	}`
	prog := mustParse(t, src)
	if _, ok := prog.Functions[0].Body.Statements[1].(*ast.PointerDecl); !ok {
		t.Fatalf("expected PointerDecl, got %T", prog.Functions[0].Body.Statements[1])
	}
	if _, ok := prog.Functions[0].Body.Statements[2].(*ast.PointerAssignment); !ok {
		t.Fatalf("expected PointerAssignment, got %T", prog.Functions[0].Body.Statements[2])
	}
}

func TestIdenticalInputProducesIdenticalAST(t *testing.T) {
	src := "function main() { return 1 + 2 * (3 - 4) / 5; }"
	a := mustParse(t, src)
	b := mustParse(t, src)
	aRet := a.Functions[0].Body.Statements[0].(*ast.Return).Value.(*ast.BinaryOp)
	bRet := b.Functions[0].Body.Statements[0].(*ast.Return).Value.(*ast.BinaryOp)
	if aRet.Op != bRet.Op {
		t.Fatalf("expected deterministic parse, got %s vs %s", aRet.Op, bRet.Op)
	}
}

func TestDoWhileAndInterruptFunction(t *testing.T) {
	src := `interrupt function isr() {
		register uint32 r1 = 0;
		do {
			r1 = r1 + 1;
		} while (r1 < 3);
	}
	function main() { return 0; }`
	prog := mustParse(t, src)
	var isr *ast.FunctionDef
	for _, fn := range prog.Functions {
		if fn.Name == "isr" {
			isr = fn
		}
	}
	if isr == nil || !isr.IsInterrupt {
		t.Fatal("expected isr to be parsed as an interrupt function")
	}
	if _, ok := isr.Body.Statements[1].(*ast.DoWhileStmt); !ok {
		t.Fatalf("expected DoWhileStmt, got %T", isr.Body.Statements[1])
	}
}

func TestInterruptFunctionWithParamsIsError(t *testing.T) {
	p := New("interrupt function isr(x) { return 0; } function main() { return 0; }", "test.sc")
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected error for interrupt function with parameters")
	}
}
