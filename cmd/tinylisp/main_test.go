package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"

	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/history"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/render"
	"github.com/unkn0wn-root/tinylisp/internal/runner"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TINYLISP_CONFIG_DIR", dir)
	t.Setenv("TINYLISP_OTEL_ENDPOINT", "")
	return dir
}

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunProgram(t *testing.T) {
	dir := isolate(t)
	path := writeProgram(t, dir, "square.lisp", heredoc.Doc(`
		(define (square x) (* x x))
		(define (main) (square 4))
	`))

	code, stdout, stderr := runCLI(t, "run", path)
	if code != exitOK {
		t.Fatalf("expected success, got %d: %s", code, stderr)
	}
	if stdout != "16\n" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestRunExitCodes(t *testing.T) {
	dir := isolate(t)
	arity := writeProgram(t, dir, "arity.lisp", "(define (f x) x) (define (main) (f))")
	deep := writeProgram(t, dir, "deep.lisp", "(define (f n) (f n)) (define (main) (f 0))")

	cases := []struct {
		name string
		args []string
		want int
		errs string
	}{
		{"arity", []string{"run", arity}, exitLang, "arity error"},
		{"depth limit", []string{"run", "-max-depth", "20", deep}, exitLang, "call depth exceeded"},
		{"missing file", []string{"run", filepath.Join(dir, "none.lisp")}, exitIO, "filesystem error"},
		{"no file", []string{"run"}, exitUsage, "usage"},
		{"fmt parse error", []string{"fmt", writeProgram(t, dir, "bad.lisp", "(define")}, exitLang, "parse error"},
		{"bad format", []string{"eval", "-o", "xml", "1"}, exitUsage, "unknown output format"},
		{"no command", nil, exitUsage, "Usage"},
		{"unknown command", []string{"compile"}, exitUsage, "unknown command"},
		{"parse error", []string{"eval", "(+ 1"}, exitLang, "parse error"},
	}
	for _, tc := range cases {
		code, _, stderr := runCLI(t, tc.args...)
		if code != tc.want {
			t.Fatalf("%s: expected exit %d, got %d (%s)", tc.name, tc.want, code, stderr)
		}
		if !strings.Contains(stderr, tc.errs) {
			t.Fatalf("%s: expected %q in stderr, got %q", tc.name, tc.errs, stderr)
		}
	}
}

func TestEvalFormats(t *testing.T) {
	isolate(t)

	code, stdout, _ := runCLI(t, "eval", "-o", "json", "(+", "2", "3)")
	if code != exitOK {
		t.Fatalf("expected success, got %d", code)
	}
	var got render.Result
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if got.Type != "number" || got.Value != float64(5) {
		t.Fatalf("unexpected result %+v", got)
	}

	code, stdout, _ = runCLI(t, "eval", "-o", "yaml", "(< 1 2)")
	if code != exitOK || stdout != "type: boolean\nvalue: true\n" {
		t.Fatalf("unexpected yaml output %q (exit %d)", stdout, code)
	}
}

func TestFmtCommand(t *testing.T) {
	dir := isolate(t)
	path := writeProgram(t, dir, "messy.lisp", "[define [main]   [sq 3]]\n(define (sq x)\n  (* x x))")
	canonical := "(define (main) (sq 3))\n(define (sq x) (* x x))\n"

	code, stdout, _ := runCLI(t, "fmt", path)
	if code != exitOK || stdout != canonical {
		t.Fatalf("unexpected fmt output %q (exit %d)", stdout, code)
	}

	code, stdout, _ = runCLI(t, "fmt", "-check", path)
	if code != exitLang || strings.TrimSpace(stdout) != path {
		t.Fatalf("expected check to flag the file, got %q (exit %d)", stdout, code)
	}

	code, stdout, _ = runCLI(t, "fmt", "-d", path)
	if code != exitOK || !strings.Contains(stdout, "@@") || !strings.Contains(stdout, "+(define (main) (sq 3))") {
		t.Fatalf("expected unified diff, got %q", stdout)
	}

	if code, _, stderr := runCLI(t, "fmt", "-w", path); code != exitOK {
		t.Fatalf("write failed: %s", stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != canonical {
		t.Fatalf("expected canonical file, got %q (%v)", data, err)
	}
	if code, _, _ := runCLI(t, "fmt", "-check", path); code != exitOK {
		t.Fatalf("expected formatted file to pass check, got %d", code)
	}
}

func TestFmtCheckDirectory(t *testing.T) {
	dir := isolate(t)
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeProgram(t, src, "ok.lisp", "(define (main) 1)\n")
	bad := writeProgram(t, src, "bad.lisp", "(define (main)   1)")
	writeProgram(t, src, "broken.txt", "(((")

	code, stdout, _ := runCLI(t, "fmt", "-check", src)
	if code != exitLang || strings.TrimSpace(stdout) != bad {
		t.Fatalf("expected only bad.lisp to be listed, got %q (exit %d)", stdout, code)
	}
}

func TestHistoryCommand(t *testing.T) {
	isolate(t)

	if code, _, _ := runCLI(t, "eval", "(* 6 7)"); code != exitOK {
		t.Fatalf("eval failed")
	}
	if code, _, _ := runCLI(t, "eval", "(/ 1 0)"); code != exitLang {
		t.Fatalf("expected eval failure")
	}

	code, stdout, _ := runCLI(t, "history", "-o", "json")
	if code != exitOK {
		t.Fatalf("history failed with %d", code)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Failed() || entries[1].Result != "42" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if code, _, stderr := runCLI(t, "history", "-delete", entries[0].ID); code != exitOK {
		t.Fatalf("delete failed with %d: %s", code, stderr)
	}
	code, _, stderr := runCLI(t, "history", "-delete", entries[0].ID)
	if code != exitIO || !strings.Contains(stderr, "no run with ID") {
		t.Fatalf("expected unknown ID to fail, got %d: %q", code, stderr)
	}
	_, stdout, _ = runCLI(t, "history", "-o", "json")
	entries = nil
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if len(entries) != 1 || entries[0].Result != "42" {
		t.Fatalf("expected only the successful run to remain, got %+v", entries)
	}

	code, stdout, _ = runCLI(t, "history", "-n", "1")
	if code != exitOK || strings.Count(stdout, "\n") != 1 {
		t.Fatalf("expected a single text line, got %q", stdout)
	}

	if code, _, _ := runCLI(t, "history", "-clear"); code != exitOK {
		t.Fatalf("clear failed")
	}
	_, stdout, _ = runCLI(t, "history")
	if stdout != "no runs recorded\n" {
		t.Fatalf("expected empty history, got %q", stdout)
	}
}

func TestHistoryWriteFailureIsReported(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "history.json", "taken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	code, stdout, stderr := runCLI(t, "eval", "(+ 1 2)")
	if code != exitOK || stdout != "3\n" {
		t.Fatalf("expected the result despite history failure, got %q (exit %d)", stdout, code)
	}
	if !strings.Contains(stderr, "history not recorded") {
		t.Fatalf("expected a history warning, got %q", stderr)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b.String() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected output %q, got %q", want, b.String())
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := isolate(t)
	path := writeProgram(t, dir, "main.lisp", "(define (main) 1)")

	stdout, stderr := &lockedBuffer{}, &lockedBuffer{}
	a := &app{
		stdout:        stdout,
		stderr:        stderr,
		runner:        &runner.Runner{},
		watchInterval: 5 * time.Millisecond,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() {
		done <- a.watch(ctx, path, "text")
	}()

	waitFor(t, stdout, "1\n")
	writeProgram(t, dir, "main.lisp", "(define (main) (+ 1 1))")
	waitFor(t, stdout, "1\n2\n")

	cancel()
	select {
	case code := <-done:
		if code != exitOK {
			t.Fatalf("expected exit %d after the last successful run, got %d", exitOK, code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop after cancellation")
	}
	if !strings.Contains(stderr.String(), "watching "+path) {
		t.Fatalf("expected watch banner, got %q", stderr.String())
	}
}

type scriptedLines struct {
	lines []string
	errs  []error
}

func (s *scriptedLines) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line, err := s.lines[0], s.errs[0]
	s.lines, s.errs = s.lines[1:], s.errs[1:]
	return line, err
}

func TestReadFormContinuesIncompleteInput(t *testing.T) {
	in := &scriptedLines{
		lines: []string{"(define (sq x)", "  (* x x))"},
		errs:  []error{nil, nil},
	}
	src, ok := readForm(in, promptMain, promptCont)
	if !ok || src != "(define (sq x)\n  (* x x))" {
		t.Fatalf("unexpected form %q (ok=%v)", src, ok)
	}
	if _, ok := readForm(in, promptMain, promptCont); ok {
		t.Fatalf("expected EOF to end the session")
	}
}

func TestReadFormReturnsMalformedInput(t *testing.T) {
	in := &scriptedLines{lines: []string{"(+ 1 2))"}, errs: []error{nil}}
	src, ok := readForm(in, promptMain, promptCont)
	if !ok || src != "(+ 1 2))" {
		t.Fatalf("expected malformed input to be returned for reporting, got %q", src)
	}
}

func TestReplHandle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, runner: &runner.Runner{}}
	r := &repl{app: a, sess: lisp.NewSession()}
	ctx := context.Background()

	for _, src := range []string{"(define (sq x) (* x x))", "(sq 9)", "(sq)", ":defs"} {
		if r.handle(ctx, src) {
			t.Fatalf("%q: unexpected quit", src)
		}
	}
	if stdout.String() != "defined\n81\nsq\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "arity error") {
		t.Fatalf("expected arity error, got %q", stderr.String())
	}
	if r.last != "81" {
		t.Fatalf("expected last value 81, got %q", r.last)
	}
	if !r.handle(ctx, ":quit") {
		t.Fatalf("expected :quit to end the session")
	}
}

func TestExitCode(t *testing.T) {
	_, langErr := lisp.EvalSnippet("(/ 1 0)")
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{langErr, exitLang},
		{errdef.Wrap(errdef.CodeScript, errors.New("x"), ""), exitLang},
		{errdef.New(errdef.CodeHistory, "broken"), exitIO},
		{errors.New("plain"), exitIO},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}
