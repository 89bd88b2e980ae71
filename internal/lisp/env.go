package lisp

import "sort"

type FuncInfo struct {
	Name   string
	Params []string
	Body   Expr
	Pos    Pos
}

// Env holds one value stack per variable name plus the function table.
// Lookups see the most recent push for a name regardless of where the
// reading function was defined: scoping is dynamic.
type Env struct {
	vars  map[string][]Value
	funcs map[string]*FuncInfo
}

func NewEnv(funcs map[string]*FuncInfo) *Env {
	if funcs == nil {
		funcs = map[string]*FuncInfo{}
	}
	return &Env{vars: map[string][]Value{}, funcs: funcs}
}

func (e *Env) Push(name string, v Value) {
	e.vars[name] = append(e.vars[name], v)
}

func (e *Env) Pop(name string) {
	st := e.vars[name]
	switch len(st) {
	case 0:
		return
	case 1:
		delete(e.vars, name)
	default:
		e.vars[name] = st[:len(st)-1]
	}
}

func (e *Env) Lookup(name string) (Value, bool) {
	st := e.vars[name]
	if len(st) == 0 {
		return Value{}, false
	}
	return st[len(st)-1], true
}

// Depth reports how many bindings are stacked for name.
func (e *Env) Depth(name string) int {
	return len(e.vars[name])
}

func (e *Env) Func(name string) (*FuncInfo, bool) {
	fn, ok := e.funcs[name]
	return fn, ok
}

// FuncNames returns the defined function names in sorted order.
func (e *Env) FuncNames() []string {
	out := make([]string, 0, len(e.funcs))
	for k := range e.funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
