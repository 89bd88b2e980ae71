package lisp

type Expr interface {
	exprNode()
	Pos() Pos
}

// Num is a numeric sub-tree: an operand of arithmetic or comparison.
type Num interface {
	numNode()
	Pos() Pos
}

// Bool is a boolean sub-tree: an operand of a logical form or a cond test.
type Bool interface {
	boolNode()
	Pos() Pos
}

type NumExpr struct {
	X Num
}

func (*NumExpr) exprNode()  {}
func (e *NumExpr) Pos() Pos { return e.X.Pos() }

type BoolExpr struct {
	X Bool
}

func (*BoolExpr) exprNode()  {}
func (e *BoolExpr) Pos() Pos { return e.X.Pos() }

type CondCase struct {
	Cond   Bool
	Result Expr
}

type CondExpr struct {
	P     Pos
	Cases []CondCase
}

func (*CondExpr) exprNode()  {}
func (e *CondExpr) Pos() Pos { return e.P }

type FunctionDef struct {
	P      Pos
	Name   string
	Params []string
	Body   Expr
}

func (*FunctionDef) exprNode()  {}
func (e *FunctionDef) Pos() Pos { return e.P }

type Variable struct {
	P    Pos
	Name string
}

func (*Variable) exprNode()  {}
func (e *Variable) Pos() Pos { return e.P }

type FunctionCall struct {
	P    Pos
	Name string
	Args []Expr
}

func (*FunctionCall) exprNode()  {}
func (e *FunctionCall) Pos() Pos { return e.P }

type NumOp int

const (
	OpAdd NumOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

type NumLit struct {
	P Pos
	N int32
}

func (*NumLit) numNode()   {}
func (e *NumLit) Pos() Pos { return e.P }

type NumBinary struct {
	P     Pos
	Op    NumOp
	Left  Num
	Right Num
}

func (*NumBinary) numNode()   {}
func (e *NumBinary) Pos() Pos { return e.P }

// NumRef is a numeric operand whose value is only known at run time:
// a variable, a call, or a cond.
type NumRef struct {
	X Expr
}

func (*NumRef) numNode()   {}
func (e *NumRef) Pos() Pos { return e.X.Pos() }

type BoolOp int

const (
	OpAnd BoolOp = iota
	OpOr
)

type UnaryOp int

const (
	OpNot UnaryOp = iota
)

type CmpOp int

const (
	OpLt CmpOp = iota
	OpEq
	OpGt
)

type BoolLit struct {
	P Pos
	B bool
}

func (*BoolLit) boolNode()  {}
func (e *BoolLit) Pos() Pos { return e.P }

type BoolBinary struct {
	P     Pos
	Op    BoolOp
	Left  Bool
	Right Bool
}

func (*BoolBinary) boolNode()  {}
func (e *BoolBinary) Pos() Pos { return e.P }

type BoolUnary struct {
	P  Pos
	Op UnaryOp
	X  Bool
}

func (*BoolUnary) boolNode()  {}
func (e *BoolUnary) Pos() Pos { return e.P }

type BoolCmp struct {
	P     Pos
	Op    CmpOp
	Left  Num
	Right Num
}

func (*BoolCmp) boolNode()  {}
func (e *BoolCmp) Pos() Pos { return e.P }

// BoolRef is the boolean counterpart of NumRef.
type BoolRef struct {
	X Expr
}

func (*BoolRef) boolNode()  {}
func (e *BoolRef) Pos() Pos { return e.X.Pos() }
