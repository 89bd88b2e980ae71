package lisp

import (
	"context"
	"fmt"
	"time"
)

// Limits bounds an evaluation. Zero values disable a limit, in which case
// recursion is bounded only by the Go stack.
type Limits struct {
	MaxSteps int
	MaxDepth int
	Timeout  time.Duration
}

type Frame struct {
	Pos  Pos
	Name string
}

type StackError struct {
	Err    error
	Frames []Frame
}

func (e *StackError) Error() string {
	return e.Err.Error()
}

func (e *StackError) Unwrap() error {
	return e.Err
}

type Ctx struct {
	Ctx context.Context
	Lim Limits
	Now func() time.Time

	steps int
	start time.Time
	stack []Frame
}

func NewCtx(ctx context.Context, lim Limits) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Ctx{Ctx: ctx, Lim: lim, Now: time.Now}
	c.start = c.Now()
	return c
}

// Steps reports how many nodes have been evaluated so far.
func (c *Ctx) Steps() int {
	return c.steps
}

func (c *Ctx) tick(pos Pos) error {
	c.steps++
	if c.Lim.MaxSteps > 0 && c.steps > c.Lim.MaxSteps {
		return c.errf(KindLimit, pos, "", "step limit exceeded")
	}
	if c.Lim.Timeout > 0 && c.Now().Sub(c.start) > c.Lim.Timeout {
		return c.errf(KindLimit, pos, "", "timeout exceeded")
	}
	select {
	case <-c.Ctx.Done():
		return c.errf(KindLimit, pos, "", "canceled: %v", c.Ctx.Err())
	default:
		return nil
	}
}

func (c *Ctx) push(pos Pos, name string) error {
	if c.Lim.MaxDepth > 0 && len(c.stack) >= c.Lim.MaxDepth {
		return c.errf(KindLimit, pos, name, "call depth exceeded")
	}
	c.stack = append(c.stack, Frame{Pos: pos, Name: name})
	return nil
}

func (c *Ctx) pop() {
	if len(c.stack) == 0 {
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Ctx) errf(kind ErrKind, pos Pos, name string, format string, args ...any) error {
	base := &RuntimeError{Kind: kind, Pos: pos, Name: name, Msg: fmt.Sprintf(format, args...)}
	frames := append([]Frame(nil), c.stack...)
	return &StackError{Err: base, Frames: frames}
}
