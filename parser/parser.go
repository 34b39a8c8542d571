// Package parser implements a hand-written recursive-descent parser with
// precedence climbing for SC expressions, producing an ast.Program.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scc-lang/scvm/ast"
	"github.com/scc-lang/scvm/lexer"
)

// Parser consumes a token stream and builds an ast.Program.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errs   ErrorList
}

// New tokenizes input and returns a Parser ready to call Parse.
func New(input, filename string) *Parser {
	l := lexer.New(input, filename)
	return &Parser{tokens: l.TokenizeAll()}
}

// Errors returns every syntactic error accumulated during Parse.
func (p *Parser) Errors() *ErrorList { return &p.errs }

func (p *Parser) cur() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

// expect consumes the current token if it has kind k, else records a
// syntax error and returns the (unconsumed) current token.
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errs.add(&Error{Pos: p.cur().Pos, Expected: k.String(), Observed: p.cur().Kind.String()})
	return p.cur()
}

func (p *Parser) errorf(pos lexer.Position, format string, args ...interface{}) {
	p.errs.add(&Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Parse runs the full program grammar and returns the AST. A non-nil
// error means the pipeline should not proceed with the (possibly
// partial) result; Errors() holds the full diagnostic list either way.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}

	// Lexical errors are fatal: report every error token and stop before
	// parsing.
	if lexErrs := lexer.Errors(p.tokens); len(lexErrs) > 0 {
		for _, t := range lexErrs {
			p.errorf(t.Pos, "%s", t.Literal)
		}
		return prog, &p.errs
	}

	for !p.at(lexer.EOF) {
		if len(p.errs.Errors) > 20 {
			break // stop runaway error cascades
		}
		isInterrupt := false
		if p.at(lexer.KwInterrupt) {
			isInterrupt = true
			p.advance()
		}
		if p.at(lexer.KwFunction) {
			fn := p.parseFunction(isInterrupt)
			if fn != nil {
				prog.Functions = append(prog.Functions, fn)
			}
			continue
		}
		if isInterrupt {
			p.errorf(p.cur().Pos, "expected 'function' after 'interrupt'")
		}
		decl := p.parseDecl()
		if decl != nil {
			prog.Globals = append(prog.Globals, decl)
		} else {
			p.advance() // avoid infinite loop on unrecoverable garbage
		}
	}

	p.validateProgram(prog)
	if p.errs.HasErrors() {
		return prog, &p.errs
	}
	return prog, nil
}

func (p *Parser) validateProgram(prog *ast.Program) {
	mains := 0
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			mains++
			if len(fn.Params) != 0 {
				p.errorf(fn.Position(), "main must take zero parameters")
			}
		}
		if fn.IsInterrupt && len(fn.Params) != 0 {
			p.errorf(fn.Position(), "interrupt function %q must take zero parameters", fn.Name)
		}
	}
	if mains != 1 {
		p.errorf(lexer.Position{}, "program must define exactly one function named main, found %d", mains)
	}
}

func (p *Parser) parseFunction(isInterrupt bool) *ast.FunctionDef {
	pos := p.cur().Pos
	p.expect(lexer.KwFunction)
	name := p.expect(lexer.Identifier).Literal
	p.expect(lexer.LParen)

	var params []string
	if !p.at(lexer.RParen) {
		params = append(params, p.expect(lexer.Identifier).Literal)
		for p.at(lexer.Comma) {
			p.advance()
			params = append(params, p.expect(lexer.Identifier).Literal)
		}
	}
	p.expect(lexer.RParen)

	body := p.parseBlock()
	return ast.NewFunctionDef(pos, name, params, body, isInterrupt)
}

func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur().Pos
	p.expect(lexer.LBrace)
	var stmts []ast.Stmt
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		} else {
			p.advance()
		}
	}
	p.expect(lexer.RBrace)
	return ast.NewBlock(pos, stmts)
}

// ---- Declarations ----

// isDeclStart reports whether the current token begins a declaration:
// an optional 'register'/'volatile' in any order, then 'uint32' or
// 'int32'.
func (p *Parser) isDeclStart() bool {
	i := p.pos
	for i < len(p.tokens) && (p.tokens[i].Kind == lexer.KwRegister || p.tokens[i].Kind == lexer.KwVolatile) {
		i++
	}
	return i < len(p.tokens) && (p.tokens[i].Kind == lexer.KwUint32 || p.tokens[i].Kind == lexer.KwInt32)
}

func (p *Parser) parseDecl() ast.Stmt {
	pos := p.cur().Pos
	isRegister, isVolatile := false, false
	for p.at(lexer.KwRegister) || p.at(lexer.KwVolatile) {
		if p.at(lexer.KwRegister) {
			isRegister = true
		} else {
			isVolatile = true
		}
		p.advance()
	}

	var baseType ast.Type
	switch {
	case p.at(lexer.KwUint32):
		baseType = ast.Uint32
		p.advance()
	case p.at(lexer.KwInt32):
		baseType = ast.Int32
		p.advance()
	default:
		p.errorf(p.cur().Pos, "expected a declaration, got %s", p.cur().Kind)
		return nil
	}

	isPointer := false
	if p.at(lexer.OpStar) {
		isPointer = true
		p.advance()
	}

	name := p.expect(lexer.Identifier).Literal

	if p.at(lexer.LBracket) {
		if isPointer {
			p.errorf(pos, "array of pointers is not supported")
		}
		p.advance()
		sizeTok := p.expect(lexer.Integer)
		p.expect(lexer.RBracket)
		size := parseLiteral(sizeTok)
		if size.Value == 0 {
			p.errorf(pos, "array size must be positive")
		}

		var init []ast.Expr
		if p.at(lexer.OpAssign) {
			p.advance()
			p.expect(lexer.LBrace)
			if !p.at(lexer.RBrace) {
				init = append(init, p.parseExpr())
				for p.at(lexer.Comma) {
					p.advance()
					init = append(init, p.parseExpr())
				}
			}
			p.expect(lexer.RBrace)
		}
		p.expect(lexer.Semicolon)
		return ast.NewArrayDecl(pos, name, size, init)
	}

	if isPointer {
		var initExpr ast.Expr
		if p.at(lexer.OpAssign) {
			p.advance()
			initExpr = p.parseExpr()
		}
		p.expect(lexer.Semicolon)
		return ast.NewPointerDecl(pos, name, initExpr)
	}

	regNum := -1
	if isRegister {
		n, err := registerNumber(name)
		if err != nil {
			p.errorf(pos, "%s", err)
		}
		regNum = n
	}

	var initExpr ast.Expr
	if p.at(lexer.OpAssign) {
		p.advance()
		initExpr = p.parseExpr()
	}
	p.expect(lexer.Semicolon)
	return ast.NewVarDecl(pos, name, baseType, isRegister, isVolatile, regNum, initExpr)
}

func registerNumber(name string) (int, error) {
	if len(name) < 2 || name[0] != 'r' {
		return 0, fmt.Errorf("register variable must be named r0-r31, got %q", name)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, fmt.Errorf("register variable must be named r0-r31, got %q", name)
	}
	return n, nil
}

func parseLiteral(tok lexer.Token) *ast.Literal {
	return ast.NewLiteral(tok.Pos, parseIntLiteral(tok.Literal))
}

func parseIntLiteral(lit string) uint32 {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, _ := strconv.ParseUint(lit[2:], 16, 64)
		return uint32(v)
	}
	v, _ := strconv.ParseUint(lit, 10, 64)
	return uint32(v)
}

// ---- Statements ----

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Kind {
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwDo:
		return p.parseDoWhile()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwBreak:
		pos := p.advance().Pos
		p.expect(lexer.Semicolon)
		return ast.NewBreak(pos)
	case lexer.KwContinue:
		pos := p.advance().Pos
		p.expect(lexer.Semicolon)
		return ast.NewContinue(pos)
	case lexer.KwRegister, lexer.KwVolatile, lexer.KwUint32, lexer.KwInt32:
		return p.parseDecl()
	case lexer.Identifier, lexer.OpInc, lexer.OpDec:
		return p.parseSimpleStatement()
	case lexer.OpStar:
		return p.parsePointerAssignment()
	default:
		p.errorf(p.cur().Pos, "unexpected token %s in statement", p.cur().Kind)
		return nil
	}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	then := p.parseStatement()
	var els ast.Stmt
	if p.at(lexer.KwElse) {
		p.advance()
		els = p.parseStatement()
	}
	return ast.NewIfStmt(pos, cond, then, els)
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	body := p.parseStatement()
	return ast.NewWhileStmt(pos, cond, body)
}

func (p *Parser) parseDoWhile() ast.Stmt {
	pos := p.advance().Pos
	body := p.parseStatement()
	p.expect(lexer.KwWhile)
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	p.expect(lexer.Semicolon)
	return ast.NewDoWhileStmt(pos, body, cond)
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LParen)

	var init ast.Stmt
	if !p.at(lexer.Semicolon) {
		if p.isDeclStart() {
			init = p.parseDecl() // consumes trailing ';'
		} else {
			init = p.parseSimpleStatementNoSemi()
			p.expect(lexer.Semicolon)
		}
	} else {
		p.advance()
	}

	var cond ast.Expr
	if !p.at(lexer.Semicolon) {
		cond = p.parseExpr()
	}
	p.expect(lexer.Semicolon)

	var step ast.Stmt
	if !p.at(lexer.RParen) {
		step = p.parseSimpleStatementNoSemi()
	}
	p.expect(lexer.RParen)

	body := p.parseStatement()
	return ast.NewForStmt(pos, init, cond, step, body)
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.advance().Pos
	var val ast.Expr
	if !p.at(lexer.Semicolon) {
		val = p.parseExpr()
	}
	p.expect(lexer.Semicolon)
	return ast.NewReturn(pos, val)
}

// parseSimpleStatement parses an identifier-led statement terminated by a
// semicolon: assignment, array assignment, call statement, or in/decrement.
func (p *Parser) parseSimpleStatement() ast.Stmt {
	s := p.parseSimpleStatementNoSemi()
	p.expect(lexer.Semicolon)
	return s
}

func (p *Parser) parseSimpleStatementNoSemi() ast.Stmt {
	pos := p.cur().Pos

	if p.at(lexer.OpInc) || p.at(lexer.OpDec) {
		isInc := p.at(lexer.OpInc)
		p.advance()
		name := p.expect(lexer.Identifier).Literal
		if isInc {
			return ast.NewIncrement(pos, name, true)
		}
		return ast.NewDecrement(pos, name, true)
	}

	if p.at(lexer.OpStar) {
		return p.parsePointerAssignmentNoSemi()
	}

	name := p.expect(lexer.Identifier).Literal

	switch p.cur().Kind {
	case lexer.LParen:
		call := p.parseCallArgs(name, pos)
		return ast.NewFunctionCallStmt(pos, call)

	case lexer.OpAssign:
		p.advance()
		val := p.parseExpr()
		return ast.NewAssignment(pos, name, val)

	case lexer.LBracket:
		p.advance()
		idx := p.parseExpr()
		p.expect(lexer.RBracket)
		p.expect(lexer.OpAssign)
		val := p.parseExpr()
		return ast.NewArrayAssignment(pos, name, idx, val)

	case lexer.OpInc:
		p.advance()
		return ast.NewIncrement(pos, name, false)

	case lexer.OpDec:
		p.advance()
		return ast.NewDecrement(pos, name, false)

	default:
		p.errorf(pos, "expected assignment, call, or in/decrement after identifier %q", name)
		return nil
	}
}

func (p *Parser) parsePointerAssignment() ast.Stmt {
	s := p.parsePointerAssignmentNoSemi()
	p.expect(lexer.Semicolon)
	return s
}

func (p *Parser) parsePointerAssignmentNoSemi() ast.Stmt {
	pos := p.cur().Pos
	p.expect(lexer.OpStar)
	addr := p.parseUnary()
	p.expect(lexer.OpAssign)
	val := p.parseExpr()
	return ast.NewPointerAssignment(pos, addr, val)
}

func (p *Parser) parseCallArgs(name string, pos lexer.Position) *ast.FunctionCall {
	p.expect(lexer.LParen)
	var args []ast.Expr
	if !p.at(lexer.RParen) {
		args = append(args, p.parseExpr())
		for p.at(lexer.Comma) {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expect(lexer.RParen)
	return ast.NewFunctionCall(pos, name, args)
}

// ---- Expressions: precedence climbing ----

// binaryPrecedence implements the 12-level table: || lowest, then &&,
// |, ^, &, equality, relational, shift, additive, and multiplicative
// highest among binary operators. Unary and postfix bind tighter still
// and are handled outside this table.
var binaryPrecedence = map[lexer.Kind]int{
	lexer.OpOr:      1,
	lexer.OpAnd:     2,
	lexer.OpPipe:    3,
	lexer.OpCaret:   4,
	lexer.OpAmp:     5,
	lexer.OpEq:      6,
	lexer.OpNe:      6,
	lexer.OpLt:      7,
	lexer.OpLe:      7,
	lexer.OpGt:      7,
	lexer.OpGe:      7,
	lexer.OpShl:     8,
	lexer.OpShr:     8,
	lexer.OpPlus:    9,
	lexer.OpMinus:   9,
	lexer.OpStar:    10,
	lexer.OpSlash:   10,
	lexer.OpPercent: 10,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrecedence[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		left = ast.NewBinaryOp(opTok.Pos, opTok.Kind.String(), left, right)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.cur().Pos
	switch p.cur().Kind {
	case lexer.OpMinus:
		p.advance()
		return ast.NewUnaryOp(pos, "-", p.parseUnary())
	case lexer.OpNot:
		p.advance()
		return ast.NewUnaryOp(pos, "!", p.parseUnary())
	case lexer.OpTilde:
		p.advance()
		return ast.NewUnaryOp(pos, "~", p.parseUnary())
	case lexer.OpAmp:
		p.advance()
		return ast.NewAddressOf(pos, p.parseUnary())
	case lexer.OpStar:
		p.advance()
		return ast.NewDereference(pos, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	pos := p.cur().Pos
	prim := p.parsePrimary()

	for {
		switch p.cur().Kind {
		case lexer.LBracket:
			ident, ok := prim.(*ast.Identifier)
			if !ok {
				p.errorf(p.cur().Pos, "array index applied to non-identifier")
				return prim
			}
			p.advance()
			idx := p.parseExpr()
			p.expect(lexer.RBracket)
			prim = ast.NewArrayAccess(pos, ident.Name, idx)
		case lexer.LParen:
			ident, ok := prim.(*ast.Identifier)
			if !ok {
				p.errorf(p.cur().Pos, "call applied to non-identifier")
				return prim
			}
			prim = p.parseCallArgs(ident.Name, pos)
		default:
			return prim
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Integer:
		p.advance()
		return parseLiteral(tok)
	case lexer.Identifier:
		p.advance()
		return ast.NewIdentifier(tok.Pos, tok.Literal)
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen)
		return e
	default:
		p.errorf(tok.Pos, "expected an expression, got %s", tok.Kind)
		p.advance()
		return ast.NewLiteral(tok.Pos, 0)
	}
}
