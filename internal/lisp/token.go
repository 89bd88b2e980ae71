package lisp

import "fmt"

type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	NUMBER
	BOOLEAN

	KW_COND
	KW_DEFINE
	KW_LIST
	KW_CONS
	KW_EMPTY
	KW_CAR
	KW_CDR
	KW_EMPTYP
	KW_LISTP

	IDENT

	LPAREN
	RPAREN

	PLUS
	MINUS
	SLASH
	STAR
	PERCENT

	AMP
	PIPE
	BANG

	LT
	EQ
	GT
)

type Tok struct {
	K   Kind
	Lit string
	P   Pos
}

func (t Tok) String() string {
	return fmt.Sprintf("%s(%s)", t.K, t.Lit)
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case NUMBER:
		return "NUMBER"
	case BOOLEAN:
		return "BOOLEAN"
	case KW_COND:
		return "cond"
	case KW_DEFINE:
		return "define"
	case KW_LIST:
		return "list"
	case KW_CONS:
		return "cons"
	case KW_EMPTY:
		return "empty"
	case KW_CAR:
		return "car"
	case KW_CDR:
		return "cdr"
	case KW_EMPTYP:
		return "empty?"
	case KW_LISTP:
		return "list?"
	case IDENT:
		return "IDENT"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case SLASH:
		return "/"
	case STAR:
		return "*"
	case PERCENT:
		return "%"
	case AMP:
		return "&"
	case PIPE:
		return "|"
	case BANG:
		return "!"
	case LT:
		return "<"
	case EQ:
		return "="
	case GT:
		return ">"
	default:
		return "?"
	}
}

var kw = map[string]Kind{
	"true":   BOOLEAN,
	"false":  BOOLEAN,
	"cond":   KW_COND,
	"define": KW_DEFINE,
	"list":   KW_LIST,
	"cons":   KW_CONS,
	"empty":  KW_EMPTY,
	"car":    KW_CAR,
	"cdr":    KW_CDR,
	"empty?": KW_EMPTYP,
	"list?":  KW_LISTP,
}

// IsKeyword reports whether name lexes as something other than an identifier.
func IsKeyword(name string) bool {
	_, ok := kw[name]
	return ok
}

// list forms are recognised by the lexer only; nothing evaluates them.
func isListKeyword(k Kind) bool {
	switch k {
	case KW_LIST, KW_CONS, KW_EMPTY, KW_CAR, KW_CDR, KW_EMPTYP, KW_LISTP:
		return true
	default:
		return false
	}
}
