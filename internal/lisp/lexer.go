package lisp

import (
	"fmt"
	"unicode/utf8"
)

type Lexer struct {
	src  []byte
	path string
	i    int
	line int
	col  int
}

func NewLexer(path string, src []byte) *Lexer {
	return &Lexer{src: src, path: path, line: 1, col: 1}
}

// Tokenize lexes src completely. The parser needs two tokens of
// lookahead, so the result is materialised up front.
func Tokenize(path string, src []byte) ([]Tok, error) {
	lx := NewLexer(path, src)
	var out []Tok
	for {
		t := lx.Next()
		switch t.K {
		case EOF:
			return out, nil
		case ILLEGAL:
			return nil, &ParseError{Kind: KindLex, Pos: t.P, Msg: t.Lit, Tok: t.Lit}
		}
		out = append(out, t)
	}
}

func (l *Lexer) Next() Tok {
	for isSpace(l.peek()) {
		l.read()
	}
	if l.i >= len(l.src) {
		return Tok{K: EOF, P: l.pos()}
	}

	ch := l.peek()
	p := l.pos()

	if isDigit(ch) {
		return Tok{K: NUMBER, Lit: l.scanWhile(isDigit), P: p}
	}

	if isIdentStart(ch) {
		name := l.scanWhile(isIdent)
		if k, ok := kw[name]; ok {
			return Tok{K: k, Lit: name, P: p}
		}
		return Tok{K: IDENT, Lit: name, P: p}
	}

	switch ch {
	case '(', '[':
		l.read()
		return Tok{K: LPAREN, Lit: "(", P: p}
	case ')', ']':
		l.read()
		return Tok{K: RPAREN, Lit: ")", P: p}
	case '+':
		l.read()
		return Tok{K: PLUS, Lit: "+", P: p}
	case '-':
		l.read()
		return Tok{K: MINUS, Lit: "-", P: p}
	case '/':
		l.read()
		return Tok{K: SLASH, Lit: "/", P: p}
	case '*':
		l.read()
		return Tok{K: STAR, Lit: "*", P: p}
	case '%':
		l.read()
		return Tok{K: PERCENT, Lit: "%", P: p}
	case '&':
		l.read()
		return Tok{K: AMP, Lit: "&", P: p}
	case '|':
		l.read()
		return Tok{K: PIPE, Lit: "|", P: p}
	case '!':
		l.read()
		return Tok{K: BANG, Lit: "!", P: p}
	case '<':
		l.read()
		return Tok{K: LT, Lit: "<", P: p}
	case '=':
		l.read()
		return Tok{K: EQ, Lit: "=", P: p}
	case '>':
		l.read()
		return Tok{K: GT, Lit: ">", P: p}
	}

	r, size := utf8.DecodeRune(l.src[l.i:])
	for n := 0; n < size; n++ {
		l.read()
	}
	return Tok{K: ILLEGAL, Lit: fmt.Sprintf("unexpected character %q", r), P: p}
}

func (l *Lexer) pos() Pos {
	return Pos{Path: l.path, Line: l.line, Col: l.col}
}

func (l *Lexer) peek() byte {
	if l.i >= len(l.src) {
		return 0
	}
	return l.src[l.i]
}

func (l *Lexer) read() byte {
	if l.i >= len(l.src) {
		return 0
	}
	b := l.src[l.i]
	l.i++
	if b == '\n' {
		l.line++
		l.col = 1
		return b
	}
	// continuation bytes do not advance the column
	if b&0xC0 != 0x80 {
		l.col++
	}
	return b
}

func (l *Lexer) scanWhile(ok func(byte) bool) string {
	start := l.i
	l.read()
	for ok(l.peek()) {
		l.read()
	}
	return string(l.src[start:l.i])
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdent(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '?' || ch == '!' || ch == '-' || ch == ':'
}
