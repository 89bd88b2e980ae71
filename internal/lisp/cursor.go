package lisp

// Cursor walks a materialised token slice. Peeking never consumes, so the
// parser can decide on up to two tokens before committing.
type Cursor struct {
	toks []Tok
	i    int
	end  Pos
}

func NewCursor(toks []Tok) *Cursor {
	c := &Cursor{toks: toks}
	if n := len(toks); n > 0 {
		last := toks[n-1].P
		last.Col += len(toks[n-1].Lit)
		c.end = last
	}
	return c
}

// Peek returns the current token, or an EOF token past the end.
func (c *Cursor) Peek() Tok {
	return c.PeekN(0)
}

// PeekN returns the token n positions ahead of the current one.
func (c *Cursor) PeekN(n int) Tok {
	if c.i+n < len(c.toks) {
		return c.toks[c.i+n]
	}
	return Tok{K: EOF, P: c.end}
}

func (c *Cursor) Next() Tok {
	t := c.Peek()
	if c.i < len(c.toks) {
		c.i++
	}
	return t
}

func (c *Cursor) Done() bool {
	return c.i >= len(c.toks)
}
