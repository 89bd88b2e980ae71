package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/history"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/render"
	"github.com/unkn0wn-root/tinylisp/internal/runner"
	"github.com/unkn0wn-root/tinylisp/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitOK    = 0
	exitLang  = 1
	exitUsage = 2
	exitIO    = 3
)

type app struct {
	stdout   io.Writer
	stderr   io.Writer
	settings config.Settings
	runner   *runner.Runner
	styles   render.Styles
	color    bool

	// watchInterval overrides the watcher's poll interval when non-zero.
	watchInterval time.Duration
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tinylisp: ")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		showVersion     bool
		noColor         bool
		traceOTEndpoint string
		traceOTInsecure bool
		traceOTService  string
	)

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)
	traceOTEndpoint = telemetryCfg.Endpoint
	traceOTInsecure = telemetryCfg.Insecure
	traceOTService = telemetryCfg.ServiceName

	fs := flag.NewFlagSet("tinylisp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	fs.BoolVar(&showVersion, "version", false, "Show tinylisp version")
	fs.BoolVar(&noColor, "no-color", false, "Disable styled output")
	fs.StringVar(
		&traceOTEndpoint,
		"trace-otel-endpoint",
		traceOTEndpoint,
		"OTLP collector endpoint for run traces",
	)
	fs.BoolVar(
		&traceOTInsecure,
		"trace-otel-insecure",
		traceOTInsecure,
		"Disable TLS for OTLP trace export",
	)
	fs.StringVar(
		&traceOTService,
		"trace-otel-service",
		traceOTService,
		"Override service.name resource attribute for exported spans",
	)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	if showVersion {
		fmt.Fprintf(stdout, "tinylisp %s\n", version)
		fmt.Fprintf(stdout, "  commit: %s\n", commit)
		fmt.Fprintf(stdout, "  built:  %s\n", date)
		if sum, err := executableChecksum(); err == nil {
			fmt.Fprintf(stdout, "  sha256: %s\n", sum)
		} else {
			fmt.Fprintf(stdout, "  sha256: unavailable (%v)\n", err)
		}
		return exitOK
	}

	if fs.NArg() == 0 {
		usage(stderr)
		return exitUsage
	}

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		return exitIO
	}

	telemetryCfg.Endpoint = strings.TrimSpace(traceOTEndpoint)
	telemetryCfg.Insecure = traceOTInsecure
	telemetryCfg.ServiceName = strings.TrimSpace(traceOTService)
	telemetryCfg.Version = version

	instr, err := telemetry.New(telemetryCfg)
	if err != nil {
		log.Printf("telemetry init error: %v", err)
		instr = telemetry.Noop()
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := instr.Shutdown(ctx); shutdownErr != nil {
			log.Printf("telemetry shutdown: %v", shutdownErr)
		}
	}()

	var store *history.Store
	if settings.History.Enabled {
		store = history.NewStore(config.HistoryPath(settings.History), settings.History.MaxEntries)
		if err := store.Load(); err != nil {
			log.Printf("history load error: %v", err)
		}
	}

	color := settings.Output.Color && !noColor && colorSupported(stdout)
	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		settings: settings,
		runner: &runner.Runner{
			Settings: settings,
			Instr:    instr,
			History:  store,
		},
		styles: render.NewStyles(color),
		color:  color,
	}
	return a.dispatch(fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(cmd string, args []string) int {
	switch cmd {
	case "run":
		return a.cmdRun(args)
	case "eval":
		return a.cmdEval(args)
	case "fmt":
		return a.cmdFmt(args)
	case "repl":
		return a.cmdRepl(args)
	case "history":
		return a.cmdHistory(args)
	case "help":
		usage(a.stdout)
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "tinylisp: unknown command %q\n", cmd)
		usage(a.stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `tinylisp %s

Usage:
  tinylisp [global flags] <command> [flags]

Commands:
  run [-watch] [-timeout D] [-max-steps N] [-max-depth N] [-o FORMAT] FILE
                                 Run a program by evaluating (main).
  eval [-o FORMAT] EXPR          Evaluate one expression.
  fmt [-color] [-check] [-d] [-w] FILE|DIR ...
                                 Print the canonical form of a file.
  repl                           Start an interactive session.
  history [-file F] [-n N] [-o FORMAT] [-clear] [-delete ID]
                                 Show past runs, newest first.

Global flags:
  -version, -no-color, -trace-otel-endpoint, -trace-otel-insecure,
  -trace-otel-service
`, version)
}

// exitCode maps an outcome error to the process status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if lisp.KindOf(err) != lisp.KindUnknown {
		return exitLang
	}
	switch errdef.CodeOf(err) {
	case errdef.CodeParse, errdef.CodeScript:
		return exitLang
	default:
		return exitIO
	}
}

func (a *app) fail(err error) int {
	render.Error(a.stderr, err, a.styles)
	return exitCode(err)
}

func colorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).Profile != termenv.Ascii
}

func executableChecksum() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	f, err := os.Open(exe)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
