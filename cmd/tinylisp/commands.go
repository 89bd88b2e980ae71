package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aymanbagabas/go-udiff"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/filesvc"
	"github.com/unkn0wn-root/tinylisp/internal/history"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/render"
	"github.com/unkn0wn-root/tinylisp/internal/runner"
	"github.com/unkn0wn-root/tinylisp/internal/watcher"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) outputFormat(raw string) (config.OutputFormat, bool) {
	f := config.ParseOutputFormat(raw, "")
	if f == "" {
		fmt.Fprintf(a.stderr, "tinylisp: unknown output format %q\n", raw)
		return "", false
	}
	return f, true
}

func (a *app) cmdRun(args []string) int {
	lim := a.settings.Limits
	fs := a.newFlagSet("run")
	watch := fs.Bool("watch", false, "re-run the program whenever the file changes")
	timeout := fs.Duration("timeout", lim.Timeout(), "abort evaluation after this long, not counting parsing (0 disables)")
	maxSteps := fs.Int("max-steps", lim.MaxSteps, "abort after this many evaluation steps (0 disables)")
	maxDepth := fs.Int("max-depth", lim.MaxDepth, "abort beyond this call depth (0 disables)")
	out := fs.String("o", string(a.settings.Output.Format), "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "usage: tinylisp run [flags] FILE")
		return exitUsage
	}
	format, ok := a.outputFormat(*out)
	if !ok {
		return exitUsage
	}
	a.runner.Settings.Limits = config.NormaliseLimitSettings(config.LimitSettings{
		MaxSteps:  *maxSteps,
		MaxDepth:  *maxDepth,
		TimeoutMS: int(*timeout / time.Millisecond),
	})

	path := fs.Arg(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*watch {
		return a.report(a.runner.RunFile(ctx, path), format)
	}
	return a.watch(ctx, path, format)
}

func (a *app) watch(ctx context.Context, path string, format config.OutputFormat) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "read %s", path))
	}

	w := watcher.New(watcher.Options{Interval: a.watchInterval})
	w.Track(path, data)
	w.Start()
	defer w.Stop()

	code := a.report(a.runner.RunSource(ctx, path, string(data)), format)
	fmt.Fprintln(a.stderr, a.styles.Dim.Render("watching "+path+" (ctrl-c to stop)"))
	for {
		select {
		case <-ctx.Done():
			return code
		case evt, ok := <-w.Events():
			if !ok {
				return code
			}
			switch evt.Kind {
			case watcher.EventChanged:
				code = a.report(a.runner.RunSource(ctx, path, string(evt.Data)), format)
			case watcher.EventRemoved:
				fmt.Fprintln(a.stderr, a.styles.Dim.Render(path+" was removed, waiting for it to return"))
			}
		}
	}
}

func (a *app) report(out runner.Outcome, format config.OutputFormat) int {
	if out.HistoryErr != nil {
		fmt.Fprintln(a.stderr, a.styles.Dim.Render("history not recorded: "+errdef.Message(out.HistoryErr)))
	}
	if !out.OK() {
		return a.fail(out.Err)
	}
	if err := render.Value(a.stdout, out.Value, format, a.styles); err != nil {
		return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "write result"))
	}
	return exitOK
}

func (a *app) cmdEval(args []string) int {
	fs := a.newFlagSet("eval")
	out := fs.String("o", string(a.settings.Output.Format), "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "usage: tinylisp eval [-o FORMAT] EXPR")
		return exitUsage
	}
	format, ok := a.outputFormat(*out)
	if !ok {
		return exitUsage
	}
	src := strings.Join(fs.Args(), " ")
	return a.report(a.runner.EvalSnippet(context.Background(), src), format)
}

func (a *app) cmdFmt(args []string) int {
	fs := a.newFlagSet("fmt")
	color := fs.Bool("color", false, "highlight the formatted source")
	check := fs.Bool("check", false, "list files that are not canonically formatted and exit 1")
	diff := fs.Bool("d", false, "print a unified diff instead of the formatted source")
	write := fs.Bool("w", false, "write the result back to each file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "usage: tinylisp fmt [flags] FILE|DIR ...")
		return exitUsage
	}

	files, err := filesvc.Expand(fs.Args())
	if err != nil {
		return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "list sources"))
	}

	unformatted := 0
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "read %s", f.Path))
		}
		forms, err := lisp.ParseForms(f.Path, string(data))
		if err != nil {
			return a.fail(errdef.Wrap(errdef.CodeParse, err, ""))
		}
		orig := string(data)
		formatted := lisp.FormatForms(forms)

		switch {
		case *check:
			if formatted != orig {
				fmt.Fprintln(a.stdout, f.Path)
				unformatted++
			}
		case *diff:
			if formatted != orig {
				fmt.Fprint(a.stdout, udiff.Unified(f.Path, f.Path+" (formatted)", orig, formatted))
			}
		case *write:
			if formatted == orig {
				continue
			}
			if err := config.WriteFileAtomic(f.Path, []byte(formatted), 0o644); err != nil {
				return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "write %s", f.Path))
			}
		default:
			if err := render.Source(a.stdout, formatted, *color, a.settings.Output.Style); err != nil {
				return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "write source"))
			}
		}
	}
	if unformatted > 0 {
		return exitLang
	}
	return exitOK
}

func (a *app) cmdHistory(args []string) int {
	fs := a.newFlagSet("history")
	file := fs.String("file", "", "only show runs of this file")
	limit := fs.Int("n", 20, "show at most this many entries (0 for all)")
	out := fs.String("o", string(config.OutputText), "output format: text, json or yaml")
	wipe := fs.Bool("clear", false, "delete all recorded runs")
	drop := fs.String("delete", "", "delete the run with this ID")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	format, ok := a.outputFormat(*out)
	if !ok {
		return exitUsage
	}

	store := a.runner.History
	if store == nil {
		fmt.Fprintln(a.stderr, a.styles.Dim.Render("history is disabled in settings"))
		return exitOK
	}
	if *wipe {
		if err := store.Clear(); err != nil {
			return a.fail(err)
		}
		return exitOK
	}
	if id := strings.TrimSpace(*drop); id != "" {
		found, err := store.Delete(id)
		if err != nil {
			return a.fail(err)
		}
		if !found {
			return a.fail(errdef.New(errdef.CodeHistory, "no run with ID %s", id))
		}
		return exitOK
	}

	var entries []history.Entry
	if strings.TrimSpace(*file) != "" {
		entries = store.ByFile(*file)
	} else {
		entries = store.Entries()
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}
	if err := render.History(a.stdout, entries, format, a.styles); err != nil {
		return a.fail(errdef.Wrap(errdef.CodeFilesystem, err, "write history"))
	}
	return exitOK
}
