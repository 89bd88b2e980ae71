package render

import (
	"io"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

const sourceLexer = "scheme"

// Source writes src, highlighted with the named chroma style when color
// is on. Unknown styles fall back to chroma's default.
func Source(w io.Writer, src string, color bool, style string) error {
	if !color {
		_, err := io.WriteString(w, src)
		return err
	}

	lexer := lexers.Get(sourceLexer)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	st := styles.Get(style)
	if st == nil {
		st = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	return formatter.Format(w, st, it)
}
