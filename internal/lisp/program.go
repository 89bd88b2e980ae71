package lisp

import (
	"context"
	"fmt"
)

const (
	entryName  = "main"
	entrySrc   = "(main)"
	entryPath  = "<entry>"
	snippetSrc = "<snippet>"
)

// Program is a parsed source unit: a set of top-level function
// definitions, one of which is a zero-argument main.
type Program struct {
	Path  string
	Defs  []*FunctionDef
	funcs map[string]*FuncInfo
}

// LoadProgram builds the function table from src. Every top-level form
// must be a definition and main must exist; nothing is evaluated.
func LoadProgram(path string, src string) (*Program, error) {
	toks, err := Tokenize(path, []byte(src))
	if err != nil {
		return nil, err
	}
	return LoadTokens(path, toks)
}

// LoadTokens is LoadProgram for an already lexed stream.
func LoadTokens(path string, toks []Tok) (*Program, error) {
	p := NewParserFrom(NewCursor(toks))
	prog := &Program{Path: path, funcs: map[string]*FuncInfo{}}
	for !p.Done() {
		ex, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		def, ok := ex.(*FunctionDef)
		if !ok {
			return nil, &ParseError{
				Kind: KindParse,
				Pos:  ex.Pos(),
				Msg:  "cannot parse functions: top-level form is not a definition",
			}
		}
		if err := defineFunc(prog.funcs, def); err != nil {
			return nil, err
		}
		prog.Defs = append(prog.Defs, def)
	}

	fn, ok := prog.funcs[entryName]
	if !ok {
		return nil, &ParseError{
			Kind: KindParse,
			Pos:  Pos{Path: path, Line: 1, Col: 1},
			Msg:  "program has no main function",
			Tok:  entryName,
		}
	}
	if len(fn.Params) != 0 {
		return nil, &ParseError{
			Kind: KindParse,
			Pos:  fn.Pos,
			Msg:  fmt.Sprintf("main must take no arguments, has %d", len(fn.Params)),
			Tok:  entryName,
		}
	}
	return prog, nil
}

// Env returns a fresh environment over the program's function table.
func (p *Program) Env() *Env {
	return NewEnv(p.funcs)
}

// Run parses and evaluates the entry call "(main)".
func (p *Program) Run(ctx context.Context, lim Limits) (Value, error) {
	return p.RunCtx(NewCtx(ctx, lim))
}

// RunCtx is Run with a caller-owned evaluation context, so step counts
// stay readable afterwards.
func (p *Program) RunCtx(c *Ctx) (Value, error) {
	entry, err := Parse(entryPath, entrySrc)
	if err != nil {
		return Value{}, err
	}
	return Eval(c, entry, p.Env())
}

// RunProgram loads and runs src without limits.
func RunProgram(path string, src string) (Value, error) {
	prog, err := LoadProgram(path, src)
	if err != nil {
		return Value{}, err
	}
	return prog.Run(context.Background(), Limits{})
}

// EvalSnippet evaluates one free-standing expression in an empty
// environment.
func EvalSnippet(src string) (Value, error) {
	ex, err := Parse(snippetSrc, src)
	if err != nil {
		return Value{}, err
	}
	return Eval(nil, ex, NewEnv(nil))
}

func defineFunc(funcs map[string]*FuncInfo, def *FunctionDef) error {
	if prev, ok := funcs[def.Name]; ok {
		return &ParseError{
			Kind: KindParse,
			Pos:  def.P,
			Msg:  fmt.Sprintf("function %q already defined at %s", def.Name, prev.Pos),
			Tok:  def.Name,
		}
	}
	funcs[def.Name] = &FuncInfo{
		Name:   def.Name,
		Params: append([]string(nil), def.Params...),
		Body:   def.Body,
		Pos:    def.P,
	}
	return nil
}
