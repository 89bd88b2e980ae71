package lisp

import (
	"errors"
	"fmt"
)

type Pos struct {
	Path string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

// ErrKind classifies every failure the language can produce.
type ErrKind int

const (
	KindUnknown ErrKind = iota
	KindLex
	KindParse
	KindArity
	KindUnbound
	KindArithmetic
	KindNoMatch
	KindType
	KindInternal
	KindLimit
)

func (k ErrKind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindArity:
		return "arity error"
	case KindUnbound:
		return "unbound name"
	case KindArithmetic:
		return "arithmetic error"
	case KindNoMatch:
		return "no matching cond case"
	case KindType:
		return "type error"
	case KindInternal:
		return "internal error"
	case KindLimit:
		return "limit exceeded"
	default:
		return "error"
	}
}

type ParseError struct {
	Kind ErrKind
	Pos  Pos
	Msg  string
	Tok  string
	// Incomplete is set when input ended inside a form.
	Incomplete bool
}

func (e *ParseError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

type RuntimeError struct {
	Kind ErrKind
	Pos  Pos
	Msg  string
	Name string
}

func (e *RuntimeError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

// KindOf returns the kind of the first language error in err's chain.
func KindOf(err error) ErrKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsIncomplete reports whether err came from input that stopped mid-form.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}
