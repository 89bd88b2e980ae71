package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
)

// Error writes a one-line diagnostic for err, tagged with its kind, and
// the call frames when the error came from evaluation.
func Error(w io.Writer, err error, st Styles) {
	if err == nil {
		return
	}
	label := errorLabel(err)
	fmt.Fprintf(w, "%s %s\n", st.Kind.Render(label+":"), st.Error.Render(diagnostic(err)))

	var se *lisp.StackError
	if !errors.As(err, &se) {
		return
	}
	for i := len(se.Frames) - 1; i >= 0; i-- {
		f := se.Frames[i]
		fmt.Fprintln(w, st.Frame.Render(fmt.Sprintf("at %s in %s", f.Pos, f.Name)))
	}
}

func errorLabel(err error) string {
	if kind := lisp.KindOf(err); kind != lisp.KindUnknown {
		return kind.String()
	}
	if code := errdef.CodeOf(err); code != errdef.CodeUnknown {
		return string(code) + " error"
	}
	return "error"
}

// diagnostic prefers the language error's own text over any wrapping
// added on the way out.
func diagnostic(err error) string {
	var pe *lisp.ParseError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var re *lisp.RuntimeError
	if errors.As(err, &re) {
		return re.Error()
	}
	return strings.TrimSpace(errdef.Message(err))
}
