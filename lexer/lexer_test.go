package lexer

import "testing"

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestNextTokenBasics(t *testing.T) {
	src := `function main() {
	uint32 x = 0xFF & 0x0F;
	return x;
}`
	l := New(src, "t.sc")
	toks := l.TokenizeAll()

	want := []Kind{
		KwFunction, Identifier, LParen, RParen, LBrace,
		KwUint32, Identifier, OpAssign, Integer, OpAmp, Integer, Semicolon,
		KwReturn, Identifier, Semicolon,
		RBrace, EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMultiCharOperatorsMatchBeforeSingle(t *testing.T) {
	l := New("a == b != c <= d >= e && f || g << h >> i", "")
	toks := l.TokenizeAll()
	want := []Kind{
		Identifier, OpEq, Identifier, OpNe, Identifier, OpLe, Identifier, OpGe,
		Identifier, OpAnd, Identifier, OpOr, Identifier, OpShl, Identifier, OpShr, Identifier, EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAmpAndPipeDistinctFromAndAndOr(t *testing.T) {
	l := New("& | && ||", "")
	toks := l.TokenizeAll()
	want := []Kind{OpAmp, OpPipe, OpAnd, OpOr, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHexAndDecimalLiterals(t *testing.T) {
	l := New("0xFF 0X1a 1234 0", "")
	toks := l.TokenizeAll()
	lits := []string{"0xFF", "0X1a", "1234", "0"}
	for i, want := range lits {
		if toks[i].Kind != Integer {
			t.Fatalf("token %d: got kind %s, want Integer", i, toks[i].Kind)
		}
		if toks[i].Literal != want {
			t.Errorf("token %d: got literal %q, want %q", i, toks[i].Literal, want)
		}
	}
}

func TestLineAndBlockComments(t *testing.T) {
	src := "x // trailing comment\n/* block\ncomment */y"
	l := New(src, "")
	toks := l.TokenizeAll()
	if toks[0].Kind != Identifier || toks[0].Literal != "x" {
		t.Fatalf("expected identifier x, got %v", toks[0])
	}
	if toks[1].Kind != Identifier || toks[1].Literal != "y" {
		t.Fatalf("expected identifier y after comments, got %v", toks[1])
	}
	// y is on line 3 since the block comment spans a newline.
	if toks[1].Pos.Line != 3 {
		t.Errorf("expected y on line 3, got line %d", toks[1].Pos.Line)
	}
}

func TestUnterminatedBlockCommentIsErrorToken(t *testing.T) {
	l := New("/* never closed", "")
	toks := l.TokenizeAll()
	if toks[0].Kind != Error {
		t.Fatalf("expected error token, got %v", toks[0])
	}
}

func TestUnknownCharacterProducesErrorTokenAndContinues(t *testing.T) {
	l := New("a $ b", "")
	toks := l.TokenizeAll()
	want := []Kind{Identifier, Error, Identifier, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRelexingConcatenatedLiteralsIsStable(t *testing.T) {
	// Property from spec §8: lexing then re-lexing the concatenation of
	// token literals (joined by single spaces) yields the same kind
	// sequence, modulo position.
	src := "uint32 r5 = 5 + foo(1, 2) * bar[3];"
	toks1 := New(src, "").TokenizeAll()

	var text string
	for i, tok := range toks1 {
		if tok.Kind == EOF {
			break
		}
		if i > 0 {
			text += " "
		}
		text += tok.Literal
	}

	toks2 := New(text, "").TokenizeAll()
	if len(toks1) != len(toks2) {
		t.Fatalf("re-lexed token count mismatch: %d vs %d", len(toks1), len(toks2))
	}
	for i := range toks1 {
		if toks1[i].Kind != toks2[i].Kind {
			t.Errorf("token %d kind mismatch: %s vs %s", i, toks1[i].Kind, toks2[i].Kind)
		}
	}
}
