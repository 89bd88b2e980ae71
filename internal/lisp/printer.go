package lisp

import (
	"strconv"
	"strings"
)

var numOpText = map[NumOp]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
}

var boolOpText = map[BoolOp]string{
	OpAnd: "&",
	OpOr:  "|",
}

var cmpOpText = map[CmpOp]string{
	OpLt: "<",
	OpEq: "=",
	OpGt: ">",
}

// Format renders ex as canonical source. Parsing the result yields a
// tree equal to ex apart from positions.
func Format(ex Expr) string {
	var b strings.Builder
	writeExpr(&b, ex)
	return b.String()
}

// FormatProgram renders each definition on its own line.
func FormatProgram(p *Program) string {
	forms := make([]Expr, 0, len(p.Defs))
	for _, def := range p.Defs {
		forms = append(forms, def)
	}
	return FormatForms(forms)
}

// FormatForms renders each form on its own line, newline terminated.
func FormatForms(forms []Expr) string {
	var b strings.Builder
	for _, ex := range forms {
		writeExpr(&b, ex)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeExpr(b *strings.Builder, ex Expr) {
	switch e := ex.(type) {
	case *NumExpr:
		writeNum(b, e.X)
	case *BoolExpr:
		writeBool(b, e.X)
	case *CondExpr:
		b.WriteString("(cond")
		for _, cs := range e.Cases {
			b.WriteString(" (")
			writeBool(b, cs.Cond)
			b.WriteByte(' ')
			writeExpr(b, cs.Result)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *FunctionDef:
		b.WriteString("(define (")
		b.WriteString(e.Name)
		for _, p := range e.Params {
			b.WriteByte(' ')
			b.WriteString(p)
		}
		b.WriteString(") ")
		writeExpr(b, e.Body)
		b.WriteByte(')')
	case *Variable:
		b.WriteString(e.Name)
	case *FunctionCall:
		b.WriteByte('(')
		b.WriteString(e.Name)
		for _, a := range e.Args {
			b.WriteByte(' ')
			writeExpr(b, a)
		}
		b.WriteByte(')')
	}
}

func writeNum(b *strings.Builder, n Num) {
	switch e := n.(type) {
	case *NumLit:
		b.WriteString(strconv.FormatInt(int64(e.N), 10))
	case *NumBinary:
		writeForm(b, numOpText[e.Op], func() { writeNum(b, e.Left) }, func() { writeNum(b, e.Right) })
	case *NumRef:
		writeExpr(b, e.X)
	}
}

func writeBool(b *strings.Builder, x Bool) {
	switch e := x.(type) {
	case *BoolLit:
		b.WriteString(strconv.FormatBool(e.B))
	case *BoolBinary:
		writeForm(b, boolOpText[e.Op], func() { writeBool(b, e.Left) }, func() { writeBool(b, e.Right) })
	case *BoolUnary:
		writeForm(b, "!", func() { writeBool(b, e.X) })
	case *BoolCmp:
		writeForm(b, cmpOpText[e.Op], func() { writeNum(b, e.Left) }, func() { writeNum(b, e.Right) })
	case *BoolRef:
		writeExpr(b, e.X)
	}
}

func writeForm(b *strings.Builder, op string, operands ...func()) {
	b.WriteByte('(')
	b.WriteString(op)
	for _, w := range operands {
		b.WriteByte(' ')
		w()
	}
	b.WriteByte(')')
}
