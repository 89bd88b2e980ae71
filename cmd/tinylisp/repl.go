package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/render"
)

const (
	promptMain  = "tl> "
	promptCont  = "... "
	replHistory = "repl_history"
)

type lineReader interface {
	Prompt(prompt string) (string, error)
}

func (a *app) cmdRepl(args []string) int {
	fs := a.newFlagSet("repl")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := filepath.Join(config.Dir(), replHistory)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(a.stdout, "tinylisp %s, :help for commands\n", version)
	sess := lisp.NewSession()
	sess.Lim = a.runner.Limits()
	r := &repl{app: a, sess: sess}
	for {
		src, ok := readForm(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(a.stdout)
			return exitOK
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.Join(strings.Fields(src), " "))
		if r.handle(context.Background(), src) {
			return exitOK
		}
	}
}

type repl struct {
	app  *app
	sess *lisp.Session
	last string
}

// handle processes one complete input and reports whether to quit.
func (r *repl) handle(ctx context.Context, src string) bool {
	a := r.app
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, ":") {
		return r.command(a.stdout, trimmed)
	}

	v, ok, err := r.sess.Feed(ctx, src)
	switch {
	case err != nil:
		render.Error(a.stderr, err, a.styles)
	case ok:
		r.last = v.String()
		fmt.Fprintln(a.stdout, a.styles.Value.Render(r.last))
	default:
		fmt.Fprintln(a.stdout, a.styles.Dim.Render("defined"))
	}
	return false
}

func (r *repl) command(w io.Writer, cmd string) bool {
	st := r.app.styles
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":defs":
		names := r.sess.Funcs()
		if len(names) == 0 {
			fmt.Fprintln(w, st.Dim.Render("no functions defined"))
			break
		}
		fmt.Fprintln(w, strings.Join(names, " "))
	case ":copy":
		if r.last == "" {
			fmt.Fprintln(w, st.Dim.Render("nothing to copy yet"))
			break
		}
		if err := clipboard.WriteAll(r.last); err != nil {
			fmt.Fprintln(w, st.Error.Render("clipboard: "+err.Error()))
			break
		}
		fmt.Fprintln(w, st.Dim.Render("copied "+r.last))
	case ":help":
		fmt.Fprintln(w, ":defs   list defined functions")
		fmt.Fprintln(w, ":copy   copy the last value to the clipboard")
		fmt.Fprintln(w, ":quit   leave the session")
	default:
		fmt.Fprintln(w, "unknown command. Type :help for a list.")
	}
	return false
}

// readForm keeps prompting while the buffered input parses as
// incomplete. Ctrl-C discards the buffer; EOF ends the session.
func readForm(ln lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := lisp.Parse("<repl>", src); lisp.IsIncomplete(err) && strings.TrimSpace(src) != "" {
			continue
		}
		return src, true
	}
}
