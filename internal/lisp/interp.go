package lisp

import "context"

type Interp struct {
	ctx *Ctx
}

func NewInterp(ctx *Ctx) *Interp {
	if ctx == nil {
		ctx = NewCtx(context.Background(), Limits{})
	}
	return &Interp{ctx: ctx}
}

// Eval evaluates ex against env. env's variable stacks are mutated during
// calls and restored before Eval returns, including on error.
func Eval(ctx *Ctx, ex Expr, env *Env) (Value, error) {
	return NewInterp(ctx).Eval(env, ex)
}

func (in *Interp) Eval(env *Env, ex Expr) (Value, error) {
	if env == nil {
		env = NewEnv(nil)
	}
	return in.eval(env, ex)
}

func (in *Interp) eval(env *Env, ex Expr) (Value, error) {
	if err := in.ctx.tick(ex.Pos()); err != nil {
		return Value{}, err
	}
	switch e := ex.(type) {
	case *NumExpr:
		n, err := in.evalNum(env, e.X)
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case *BoolExpr:
		b, err := in.evalBool(env, e.X)
		if err != nil {
			return Value{}, err
		}
		return Boolean(b), nil
	case *CondExpr:
		return in.evalCond(env, e)
	case *Variable:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return Value{}, in.ctx.errf(KindUnbound, e.P, e.Name, "undefined variable %q", e.Name)
		}
		return v, nil
	case *FunctionCall:
		return in.evalCall(env, e)
	case *FunctionDef:
		return Value{}, in.ctx.errf(
			KindInternal,
			e.P,
			e.Name,
			"function definition %q is only allowed at top level",
			e.Name,
		)
	default:
		return Value{}, in.ctx.errf(KindInternal, ex.Pos(), "", "unknown expression")
	}
}

func (in *Interp) evalNum(env *Env, n Num) (int32, error) {
	switch e := n.(type) {
	case *NumLit:
		return e.N, nil
	case *NumBinary:
		l, err := in.evalNum(env, e.Left)
		if err != nil {
			return 0, err
		}
		r, err := in.evalNum(env, e.Right)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case OpAdd:
			return l + r, nil
		case OpSub:
			return l - r, nil
		case OpMul:
			return l * r, nil
		case OpDiv:
			if r == 0 {
				return 0, in.ctx.errf(KindArithmetic, e.P, "", "division by zero")
			}
			return l / r, nil
		case OpMod:
			if r == 0 {
				return 0, in.ctx.errf(KindArithmetic, e.P, "", "modulo by zero")
			}
			return l % r, nil
		}
		return 0, in.ctx.errf(KindInternal, e.P, "", "bad numeric op")
	case *NumRef:
		v, err := in.eval(env, e.X)
		if err != nil {
			return 0, err
		}
		if v.K != VNum {
			return 0, in.ctx.errf(KindType, e.Pos(), refName(e.X), "expected number, got %s", v.K)
		}
		return v.N, nil
	default:
		return 0, in.ctx.errf(KindInternal, n.Pos(), "", "unknown numeric expression")
	}
}

func (in *Interp) evalBool(env *Env, b Bool) (bool, error) {
	switch e := b.(type) {
	case *BoolLit:
		return e.B, nil
	case *BoolBinary:
		// both sides are always evaluated
		l, err := in.evalBool(env, e.Left)
		if err != nil {
			return false, err
		}
		r, err := in.evalBool(env, e.Right)
		if err != nil {
			return false, err
		}
		switch e.Op {
		case OpAnd:
			return l && r, nil
		case OpOr:
			return l || r, nil
		}
		return false, in.ctx.errf(KindInternal, e.P, "", "bad boolean op")
	case *BoolUnary:
		x, err := in.evalBool(env, e.X)
		if err != nil {
			return false, err
		}
		if e.Op == OpNot {
			return !x, nil
		}
		return false, in.ctx.errf(KindInternal, e.P, "", "bad unary op")
	case *BoolCmp:
		l, err := in.evalNum(env, e.Left)
		if err != nil {
			return false, err
		}
		r, err := in.evalNum(env, e.Right)
		if err != nil {
			return false, err
		}
		switch e.Op {
		case OpLt:
			return l < r, nil
		case OpEq:
			return l == r, nil
		case OpGt:
			return l > r, nil
		}
		return false, in.ctx.errf(KindInternal, e.P, "", "bad comparison op")
	case *BoolRef:
		v, err := in.eval(env, e.X)
		if err != nil {
			return false, err
		}
		if v.K != VBool {
			return false, in.ctx.errf(KindType, e.Pos(), refName(e.X), "expected boolean, got %s", v.K)
		}
		return v.B, nil
	default:
		return false, in.ctx.errf(KindInternal, b.Pos(), "", "unknown boolean expression")
	}
}

func (in *Interp) evalCond(env *Env, c *CondExpr) (Value, error) {
	for _, cs := range c.Cases {
		ok, err := in.evalBool(env, cs.Cond)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return in.eval(env, cs.Result)
		}
	}
	return Value{}, in.ctx.errf(KindNoMatch, c.P, "", "no matching cond case")
}

func (in *Interp) evalCall(env *Env, c *FunctionCall) (Value, error) {
	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := in.eval(env, a)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}

	fn, ok := env.Func(c.Name)
	if !ok {
		return Value{}, in.ctx.errf(KindUnbound, c.P, c.Name, "undefined function %q", c.Name)
	}
	if len(args) != len(fn.Params) {
		return Value{}, in.ctx.errf(
			KindArity,
			c.P,
			c.Name,
			"%s expects %d argument(s), got %d",
			c.Name,
			len(fn.Params),
			len(args),
		)
	}

	if err := in.ctx.push(c.P, fn.Name); err != nil {
		return Value{}, err
	}
	defer in.ctx.pop()

	for i, name := range fn.Params {
		env.Push(name, args[i])
	}
	defer func() {
		for i := len(fn.Params) - 1; i >= 0; i-- {
			env.Pop(fn.Params[i])
		}
	}()
	return in.eval(env, fn.Body)
}

func refName(ex Expr) string {
	switch e := ex.(type) {
	case *Variable:
		return e.Name
	case *FunctionCall:
		return e.Name
	default:
		return ""
	}
}
