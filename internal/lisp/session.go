package lisp

import "context"

// Session accumulates definitions across inputs, for interactive use.
type Session struct {
	Lim   Limits
	funcs map[string]*FuncInfo
}

func NewSession() *Session {
	return &Session{funcs: map[string]*FuncInfo{}}
}

// Feed parses one form. A definition is added to the session and reports
// false; any other expression is evaluated and its value returned.
func (s *Session) Feed(ctx context.Context, src string) (Value, bool, error) {
	ex, err := Parse("<repl>", src)
	if err != nil {
		return Value{}, false, err
	}
	if def, ok := ex.(*FunctionDef); ok {
		return Value{}, false, defineFunc(s.funcs, def)
	}
	v, err := Eval(NewCtx(ctx, s.Lim), ex, NewEnv(s.funcs))
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

func (s *Session) Funcs() []string {
	return NewEnv(s.funcs).FuncNames()
}
