package lisp

import "testing"

func lexKinds(t *testing.T, src string) []Kind {
	t.Helper()
	toks, err := Tokenize("test", []byte(src))
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	out := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.K)
	}
	return out
}

func sameKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLexerKinds(t *testing.T) {
	cases := []struct {
		src  string
		want []Kind
	}{
		{
			src: "(define (f x) [+ x -12])",
			want: []Kind{
				LPAREN, KW_DEFINE, LPAREN, IDENT, IDENT, RPAREN,
				LPAREN, PLUS, IDENT, MINUS, NUMBER, RPAREN, RPAREN,
			},
		},
		{
			src: "cond define list cons empty car cdr empty? list? true false",
			want: []Kind{
				KW_COND, KW_DEFINE, KW_LIST, KW_CONS, KW_EMPTY,
				KW_CAR, KW_CDR, KW_EMPTYP, KW_LISTP, BOOLEAN, BOOLEAN,
			},
		},
		{
			src:  "foo-bar? x:y _z set!",
			want: []Kind{IDENT, IDENT, IDENT, IDENT},
		},
		{
			src:  "& | ! < = > % * / + -",
			want: []Kind{AMP, PIPE, BANG, LT, EQ, GT, PERCENT, STAR, SLASH, PLUS, MINUS},
		},
		{
			src:  "12abc",
			want: []Kind{NUMBER, IDENT},
		},
		{
			src:  " \t\r\n ",
			want: []Kind{},
		},
	}
	for _, tc := range cases {
		got := lexKinds(t, tc.src)
		if !sameKinds(got, tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.src, tc.want, got)
		}
	}
}

func TestLexerBracketsNormalised(t *testing.T) {
	toks, err := Tokenize("test", []byte("[x]"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Lit != "(" || toks[2].Lit != ")" {
		t.Fatalf("expected brackets to lex as parens, got %v", toks)
	}
}

func TestLexerPositions(t *testing.T) {
	toks, err := Tokenize("prog.lisp", []byte("(+\n  1 2)"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	one := toks[2]
	if one.K != NUMBER || one.P.Line != 2 || one.P.Col != 3 {
		t.Fatalf("unexpected token %v at %s", one, one.P)
	}
	if one.P.String() != "prog.lisp:2:3" {
		t.Fatalf("unexpected pos string %q", one.P.String())
	}
}

func TestLexerIllegalCharacter(t *testing.T) {
	_, err := Tokenize("test", []byte("(+ 1 $)"))
	if err == nil {
		t.Fatalf("expected lex error")
	}
	if KindOf(err) != KindLex {
		t.Fatalf("expected lex kind, got %v", KindOf(err))
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Pos.Col != 6 {
		t.Fatalf("expected error at column 6, got %v", err)
	}
}

func TestTokString(t *testing.T) {
	tok := Tok{K: NUMBER, Lit: "5"}
	if tok.String() != "NUMBER(5)" {
		t.Fatalf("unexpected token string %q", tok.String())
	}
	if !IsKeyword("empty?") || IsKeyword("square") {
		t.Fatalf("unexpected keyword classification")
	}
}
