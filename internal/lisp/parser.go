package lisp

import (
	"fmt"
	"strconv"
)

type Parser struct {
	cur *Cursor
}

var numOps = map[Kind]NumOp{
	PLUS:    OpAdd,
	MINUS:   OpSub,
	STAR:    OpMul,
	SLASH:   OpDiv,
	PERCENT: OpMod,
}

var boolOps = map[Kind]BoolOp{
	AMP:  OpAnd,
	PIPE: OpOr,
}

var unaryOps = map[Kind]UnaryOp{
	BANG: OpNot,
}

var cmpOps = map[Kind]CmpOp{
	LT: OpLt,
	EQ: OpEq,
	GT: OpGt,
}

// NewParserFrom parses from an existing cursor, so several top-level
// forms can be read from one token stream.
func NewParserFrom(cur *Cursor) *Parser {
	return &Parser{cur: cur}
}

// Parse parses exactly one expression from src.
func Parse(path string, src string) (Expr, error) {
	toks, err := Tokenize(path, []byte(src))
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses exactly one expression from an already lexed stream.
func ParseTokens(toks []Tok) (Expr, error) {
	p := NewParserFrom(NewCursor(toks))
	ex, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if !p.Done() {
		t := p.cur.Peek()
		return nil, &ParseError{
			Kind: KindParse,
			Pos:  t.P,
			Tok:  t.Lit,
			Msg:  fmt.Sprintf("malformed program, unexpected %s after complete expression", t.K),
		}
	}
	return ex, nil
}

// ParseForms parses every top-level form in src without interpreting
// them.
func ParseForms(path string, src string) ([]Expr, error) {
	toks, err := Tokenize(path, []byte(src))
	if err != nil {
		return nil, err
	}
	p := NewParserFrom(NewCursor(toks))
	var out []Expr
	for !p.Done() {
		ex, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// ParseExpr parses the next expression and leaves the cursor after it.
func (p *Parser) ParseExpr() (ex Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				ex = nil
				return
			}
			panic(r)
		}
	}()
	ex = p.parseExpr()
	return ex, err
}

func (p *Parser) Done() bool {
	return p.cur.Done()
}

func (p *Parser) parseExpr() Expr {
	t := p.cur.Peek()
	switch t.K {
	case NUMBER, MINUS:
		return &NumExpr{X: p.parseNumLit()}
	case BOOLEAN:
		return &BoolExpr{X: p.parseBoolLit()}
	case IDENT:
		p.cur.Next()
		return &Variable{P: t.P, Name: t.Lit}
	case LPAREN:
		nt := p.cur.PeekN(1)
		switch nt.K {
		case KW_COND:
			return p.parseCond()
		case PLUS, MINUS, SLASH, STAR, PERCENT:
			return &NumExpr{X: p.parseNumBinary()}
		case AMP, PIPE:
			return &BoolExpr{X: p.parseBoolBinary()}
		case BANG:
			return &BoolExpr{X: p.parseBoolUnary()}
		case LT, EQ, GT:
			return &BoolExpr{X: p.parseBoolCmp()}
		case KW_DEFINE:
			return p.parseDefine()
		case IDENT:
			return p.parseCall()
		case EOF:
			p.incomplete(nt.P)
		}
		p.failOpen(nt)
	case EOF:
		p.incomplete(t.P)
	}
	p.fail(t, fmt.Sprintf("unexpected %s at start of expression", t.K))
	return nil
}

func (p *Parser) parseNum() Num {
	t := p.cur.Peek()
	switch t.K {
	case NUMBER, MINUS:
		return p.parseNumLit()
	case IDENT:
		p.cur.Next()
		return &NumRef{X: &Variable{P: t.P, Name: t.Lit}}
	case LPAREN:
		nt := p.cur.PeekN(1)
		switch nt.K {
		case PLUS, MINUS, SLASH, STAR, PERCENT:
			return p.parseNumBinary()
		case IDENT:
			return &NumRef{X: p.parseCall()}
		case KW_COND:
			return &NumRef{X: p.parseCond()}
		case EOF:
			p.incomplete(nt.P)
		}
		p.fail(nt, fmt.Sprintf("expected numeric expression, got (%s", nt.K))
	case EOF:
		p.incomplete(t.P)
	}
	p.fail(t, fmt.Sprintf("expected numeric expression, got %s", t.K))
	return nil
}

func (p *Parser) parseBool() Bool {
	t := p.cur.Peek()
	switch t.K {
	case BOOLEAN:
		return p.parseBoolLit()
	case IDENT:
		p.cur.Next()
		return &BoolRef{X: &Variable{P: t.P, Name: t.Lit}}
	case LPAREN:
		nt := p.cur.PeekN(1)
		switch nt.K {
		case AMP, PIPE:
			return p.parseBoolBinary()
		case BANG:
			return p.parseBoolUnary()
		case LT, EQ, GT:
			return p.parseBoolCmp()
		case IDENT:
			return &BoolRef{X: p.parseCall()}
		case KW_COND:
			return &BoolRef{X: p.parseCond()}
		case EOF:
			p.incomplete(nt.P)
		}
		p.fail(nt, fmt.Sprintf("expected boolean expression, got (%s", nt.K))
	case EOF:
		p.incomplete(t.P)
	}
	p.fail(t, fmt.Sprintf("expected boolean expression, got %s", t.K))
	return nil
}

// parseNumLit reads a literal, folding a leading '-' into its value.
func (p *Parser) parseNumLit() Num {
	t := p.cur.Next()
	pos := t.P
	neg := false
	if t.K == MINUS {
		neg = true
		t = p.expect(NUMBER)
	} else if t.K != NUMBER {
		p.fail(t, fmt.Sprintf("expected number, got %s", t.K))
	}

	text := t.Lit
	if neg {
		text = "-" + text
	}
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		p.fail(t, fmt.Sprintf("integer literal out of range: %s", text))
	}
	return &NumLit{P: pos, N: int32(n)}
}

func (p *Parser) parseBoolLit() Bool {
	t := p.cur.Next()
	switch t.Lit {
	case "true":
		return &BoolLit{P: t.P, B: true}
	case "false":
		return &BoolLit{P: t.P, B: false}
	}
	p.fail(t, fmt.Sprintf("expected boolean, got %s", t.K))
	return nil
}

func (p *Parser) parseNumBinary() Num {
	pos := p.expect(LPAREN).P
	opTok := p.cur.Next()
	op, ok := numOps[opTok.K]
	if !ok {
		p.fail(opTok, fmt.Sprintf("unknown numeric operator %s", opTok.K))
	}
	left := p.parseNum()
	right := p.parseNum()
	p.expect(RPAREN)
	return &NumBinary{P: pos, Op: op, Left: left, Right: right}
}

func (p *Parser) parseBoolBinary() Bool {
	pos := p.expect(LPAREN).P
	opTok := p.cur.Next()
	op, ok := boolOps[opTok.K]
	if !ok {
		p.fail(opTok, fmt.Sprintf("unknown boolean operator %s", opTok.K))
	}
	left := p.parseBool()
	right := p.parseBool()
	p.expect(RPAREN)
	return &BoolBinary{P: pos, Op: op, Left: left, Right: right}
}

func (p *Parser) parseBoolUnary() Bool {
	pos := p.expect(LPAREN).P
	opTok := p.cur.Next()
	op, ok := unaryOps[opTok.K]
	if !ok {
		p.fail(opTok, fmt.Sprintf("unknown unary operator %s", opTok.K))
	}
	x := p.parseBool()
	p.expect(RPAREN)
	return &BoolUnary{P: pos, Op: op, X: x}
}

func (p *Parser) parseBoolCmp() Bool {
	pos := p.expect(LPAREN).P
	opTok := p.cur.Next()
	op, ok := cmpOps[opTok.K]
	if !ok {
		p.fail(opTok, fmt.Sprintf("unknown comparison operator %s", opTok.K))
	}
	left := p.parseNum()
	right := p.parseNum()
	p.expect(RPAREN)
	return &BoolCmp{P: pos, Op: op, Left: left, Right: right}
}

func (p *Parser) parseCond() Expr {
	pos := p.expect(LPAREN).P
	p.expect(KW_COND)
	if t := p.cur.Peek(); t.K == RPAREN {
		p.fail(t, "cond requires at least one case")
	}

	var cases []CondCase
	for p.cur.Peek().K != RPAREN {
		if t := p.cur.Peek(); t.K == EOF {
			p.incomplete(t.P)
		}
		cases = append(cases, p.parseCondCase())
	}
	p.expect(RPAREN)
	return &CondExpr{P: pos, Cases: cases}
}

func (p *Parser) parseCondCase() CondCase {
	p.expect(LPAREN)
	cond := p.parseBool()
	res := p.parseExpr()
	p.expect(RPAREN)
	return CondCase{Cond: cond, Result: res}
}

func (p *Parser) parseDefine() Expr {
	pos := p.expect(LPAREN).P
	p.expect(KW_DEFINE)
	p.expect(LPAREN)
	name := p.expect(IDENT).Lit

	var params []string
	seen := map[string]bool{}
	for p.cur.Peek().K == IDENT {
		t := p.cur.Next()
		if seen[t.Lit] {
			p.fail(t, fmt.Sprintf("duplicate parameter %q in %s", t.Lit, name))
		}
		seen[t.Lit] = true
		params = append(params, t.Lit)
	}
	p.expect(RPAREN)
	body := p.parseExpr()
	p.expect(RPAREN)
	return &FunctionDef{P: pos, Name: name, Params: params, Body: body}
}

func (p *Parser) parseCall() Expr {
	pos := p.expect(LPAREN).P
	name := p.expect(IDENT).Lit

	var args []Expr
	for p.cur.Peek().K != RPAREN {
		if t := p.cur.Peek(); t.K == EOF {
			p.incomplete(t.P)
		}
		args = append(args, p.parseExpr())
	}
	p.expect(RPAREN)
	return &FunctionCall{P: pos, Name: name, Args: args}
}

func (p *Parser) expect(k Kind) Tok {
	t := p.cur.Peek()
	if t.K != k {
		if t.K == EOF {
			p.incomplete(t.P)
		}
		p.fail(t, fmt.Sprintf("expected %s, got %s", k, t.K))
	}
	return p.cur.Next()
}

func (p *Parser) failOpen(t Tok) {
	if isListKeyword(t.K) {
		p.fail(t, fmt.Sprintf("list form %q is not supported", t.Lit))
	}
	p.fail(t, fmt.Sprintf("invalid expression starting with '(' followed by %s", t.K))
}

func (p *Parser) fail(t Tok, msg string) {
	panic(&ParseError{Kind: KindParse, Pos: t.P, Msg: msg, Tok: t.Lit})
}

func (p *Parser) incomplete(pos Pos) {
	panic(&ParseError{Kind: KindParse, Pos: pos, Msg: "unexpected end of input", Incomplete: true})
}
