package runner

import (
	"context"
	"os"
	"time"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/history"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/telemetry"
)

// Runner evaluates programs and snippets with the configured limits,
// tracing each phase and recording the outcome in history.
// Instr and History are optional.
type Runner struct {
	Settings config.Settings
	Instr    telemetry.Instrumenter
	History  *history.Store
	Now      func() time.Time
}

// Outcome is the result of one run. HistoryErr is set when the run could
// not be recorded; it never changes Value or Err.
type Outcome struct {
	ID         string
	Value      lisp.Value
	Err        error
	Duration   time.Duration
	Steps      int
	HistoryErr error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

func (r *Runner) Limits() lisp.Limits {
	l := r.Settings.Limits
	return lisp.Limits{MaxSteps: l.MaxSteps, MaxDepth: l.MaxDepth, Timeout: l.Timeout()}
}

// RunFile reads path and runs it as a program. A read failure is returned
// as a filesystem error and is not recorded.
func (r *Runner) RunFile(ctx context.Context, path string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{Err: errdef.Wrap(errdef.CodeFilesystem, err, "read %s", path)}
	}
	return r.RunSource(ctx, path, string(data))
}

func (r *Runner) RunSource(ctx context.Context, path string, src string) Outcome {
	return r.exec(ctx, history.ModeProgram, path, src, func(span telemetry.RunSpan, begin func() *lisp.Ctx) (lisp.Value, error) {
		var toks []lisp.Tok
		if err := span.Phase("lex", func() (err error) {
			toks, err = lisp.Tokenize(path, []byte(src))
			return err
		}); err != nil {
			return lisp.Value{}, err
		}
		var prog *lisp.Program
		if err := span.Phase("parse", func() (err error) {
			prog, err = lisp.LoadTokens(path, toks)
			return err
		}); err != nil {
			return lisp.Value{}, err
		}
		var v lisp.Value
		err := span.Phase("eval", func() (err error) {
			v, err = prog.RunCtx(begin())
			return err
		})
		return v, err
	})
}

// EvalSnippet evaluates one expression with no functions defined.
func (r *Runner) EvalSnippet(ctx context.Context, src string) Outcome {
	return r.exec(ctx, history.ModeSnippet, "", src, func(span telemetry.RunSpan, begin func() *lisp.Ctx) (lisp.Value, error) {
		var toks []lisp.Tok
		if err := span.Phase("lex", func() (err error) {
			toks, err = lisp.Tokenize("<snippet>", []byte(src))
			return err
		}); err != nil {
			return lisp.Value{}, err
		}
		var ex lisp.Expr
		if err := span.Phase("parse", func() (err error) {
			ex, err = lisp.ParseTokens(toks)
			return err
		}); err != nil {
			return lisp.Value{}, err
		}
		var v lisp.Value
		err := span.Phase("eval", func() (err error) {
			v, err = lisp.Eval(begin(), ex, lisp.NewEnv(nil))
			return err
		})
		return v, err
	})
}

// evalFunc runs the phases of one input. begin creates the evaluation
// context, so limits and the timeout clock cover evaluation only.
type evalFunc func(span telemetry.RunSpan, begin func() *lisp.Ctx) (lisp.Value, error)

func (r *Runner) exec(ctx context.Context, mode, path, src string, fn evalFunc) Outcome {
	instr := r.Instr
	if instr == nil {
		instr = telemetry.Noop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	ctx, span := instr.Start(ctx, telemetry.RunStart{Path: path, Mode: mode, Source: src})
	var c *lisp.Ctx
	begin := func() *lisp.Ctx {
		c = lisp.NewCtx(ctx, r.Limits())
		return c
	}
	started := now()
	v, err := fn(span, begin)
	out := Outcome{
		ID:       history.NewID(),
		Value:    v,
		Err:      wrapLangErr(err),
		Duration: now().Sub(started),
	}
	if c != nil {
		out.Steps = c.Steps()
	}

	res := telemetry.RunResult{Err: err, Steps: out.Steps}
	if err != nil {
		res.ErrorKind = lisp.KindOf(err).String()
	} else {
		res.Value = v.String()
	}
	span.End(res)

	out.HistoryErr = r.record(out, mode, path, src, started)
	return out
}

func (r *Runner) record(out Outcome, mode, path, src string, at time.Time) error {
	if r.History == nil || !r.Settings.History.Enabled {
		return nil
	}
	entry := history.Entry{
		ID:         out.ID,
		ExecutedAt: at,
		FilePath:   path,
		Mode:       mode,
		Duration:   out.Duration,
		Steps:      out.Steps,
	}
	if mode == history.ModeSnippet {
		entry.Source = src
	}
	if out.Err != nil {
		entry.ErrorKind = lisp.KindOf(out.Err).String()
		entry.Error = errdef.Message(out.Err)
	} else {
		entry.Result = out.Value.String()
	}
	return r.History.Append(entry)
}

func wrapLangErr(err error) error {
	if err == nil {
		return nil
	}
	switch lisp.KindOf(err) {
	case lisp.KindLex, lisp.KindParse:
		return errdef.Wrap(errdef.CodeParse, err, "")
	default:
		return errdef.Wrap(errdef.CodeScript, err, "")
	}
}
