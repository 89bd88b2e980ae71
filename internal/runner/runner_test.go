package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/errdef"
	"github.com/unkn0wn-root/tinylisp/internal/history"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
	"github.com/unkn0wn-root/tinylisp/internal/telemetry"
)

type fixture struct {
	runner   *Runner
	store    *history.Store
	recorder *tracetest.SpanRecorder
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	recorder := tracetest.NewSpanRecorder()
	inst, err := telemetry.New(telemetry.Config{}, telemetry.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})
	store := history.NewStore(filepath.Join(dir, "history.json"), 50)

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return &fixture{
		runner: &Runner{
			Settings: config.Normalise(config.DefaultSettings()),
			Instr:    inst,
			History:  store,
			Now: func() time.Time {
				clock = clock.Add(time.Millisecond)
				return clock
			},
		},
		store:    store,
		recorder: recorder,
		dir:      dir,
	}
}

func (f *fixture) write(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunFileRecordsSuccess(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "square.lisp", heredoc.Doc(`
		(define (square x) (* x x))
		(define (main) (square 4))
	`))

	out := f.runner.RunFile(context.Background(), path)
	if !out.OK() {
		t.Fatalf("run: %v", out.Err)
	}
	if out.Value != lisp.Number(16) {
		t.Fatalf("expected 16, got %s", out.Value)
	}
	if out.Duration != time.Millisecond {
		t.Fatalf("expected one clock tick, got %v", out.Duration)
	}
	if out.Steps == 0 {
		t.Fatalf("expected steps to be counted")
	}

	entries := f.store.ByFile(path)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != out.ID || e.Result != "16" || e.Mode != history.ModeProgram || e.Failed() {
		t.Fatalf("unexpected entry %+v", e)
	}

	var names []string
	for _, s := range f.recorder.Ended() {
		names = append(names, s.Name())
	}
	want := "tinylisp.lex,tinylisp.parse,tinylisp.eval,tinylisp.program"
	if strings.Join(names, ",") != want {
		t.Fatalf("unexpected spans %v", names)
	}
}

func TestRunSourceParseFailureSkipsEval(t *testing.T) {
	f := newFixture(t)
	out := f.runner.RunSource(context.Background(), "bad.lisp", "(define (f) 1)")
	if errdef.CodeOf(out.Err) != errdef.CodeParse {
		t.Fatalf("expected parse code, got %v", out.Err)
	}
	if lisp.KindOf(out.Err) != lisp.KindParse {
		t.Fatalf("expected language kind to survive wrapping, got %v", lisp.KindOf(out.Err))
	}
	for _, s := range f.recorder.Ended() {
		if s.Name() == "tinylisp.eval" {
			t.Fatalf("eval phase must not run after a parse failure")
		}
	}
	entries := f.store.Entries()
	if len(entries) != 1 || !entries[0].Failed() || entries[0].ErrorKind != "parse error" {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestRunFileMissing(t *testing.T) {
	f := newFixture(t)
	out := f.runner.RunFile(context.Background(), filepath.Join(f.dir, "nope.lisp"))
	if errdef.CodeOf(out.Err) != errdef.CodeFilesystem {
		t.Fatalf("expected filesystem error, got %v", out.Err)
	}
	if len(f.store.Entries()) != 0 {
		t.Fatalf("read failures must not be recorded")
	}
}

func TestEvalSnippetAppliesLimits(t *testing.T) {
	f := newFixture(t)
	f.runner.Settings.Limits = config.LimitSettings{MaxSteps: 3}

	// every nested cond is one evaluation step
	out := f.runner.EvalSnippet(context.Background(), "(cond (true (cond (true (cond (true 1))))))")
	if errdef.CodeOf(out.Err) != errdef.CodeScript || lisp.KindOf(out.Err) != lisp.KindLimit {
		t.Fatalf("expected script limit error, got %v", out.Err)
	}

	f.runner.Settings.Limits = config.LimitSettings{}
	out = f.runner.EvalSnippet(context.Background(), "(% 10 3)")
	if !out.OK() || out.Value != lisp.Number(1) {
		t.Fatalf("expected 1, got %s (%v)", out.Value, out.Err)
	}
	entries := f.store.Entries()
	if len(entries) != 2 || entries[0].Source != "(% 10 3)" {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t)
	f.runner.Settings.History.Enabled = false
	f.runner.EvalSnippet(context.Background(), "(+ 2 3)")
	if len(f.store.Entries()) != 0 {
		t.Fatalf("expected no history when disabled")
	}
}

func TestRunnerZeroValue(t *testing.T) {
	var r Runner
	out := r.EvalSnippet(context.Background(), "(< 1 2)")
	if !out.OK() || out.Value != lisp.Boolean(true) {
		t.Fatalf("expected true, got %s (%v)", out.Value, out.Err)
	}
}

func TestHistoryFailureKeepsResult(t *testing.T) {
	f := newFixture(t)
	blocker := f.write(t, "blocker", "not a directory")
	f.runner.History = history.NewStore(filepath.Join(blocker, "history.json"), 10)

	out := f.runner.EvalSnippet(context.Background(), "(* 6 7)")
	if !out.OK() || out.Value != lisp.Number(42) {
		t.Fatalf("expected 42, got %s (%v)", out.Value, out.Err)
	}
	if out.HistoryErr == nil {
		t.Fatalf("expected history failure to be reported")
	}
	// the store cannot even be read with a file where its directory should be
	if errdef.CodeOf(out.HistoryErr) != errdef.CodeHistory {
		t.Fatalf("expected history code, got %v", out.HistoryErr)
	}
}

// slowPhases delays the lex and parse phases so their time would exhaust
// a short timeout if it were counted.
type slowPhases struct {
	delay time.Duration
}

func (s slowPhases) Start(ctx context.Context, _ telemetry.RunStart) (context.Context, telemetry.RunSpan) {
	return ctx, s
}

func (s slowPhases) Shutdown(context.Context) error { return nil }

func (s slowPhases) Phase(name string, fn func() error) error {
	if name != "eval" {
		time.Sleep(s.delay)
	}
	return fn()
}

func (s slowPhases) End(telemetry.RunResult) {}

func TestTimeoutCoversEvaluationOnly(t *testing.T) {
	f := newFixture(t)
	f.runner.Instr = slowPhases{delay: 50 * time.Millisecond}
	f.runner.Settings.Limits = config.LimitSettings{TimeoutMS: 20}

	out := f.runner.EvalSnippet(context.Background(), "(+ 2 3)")
	if !out.OK() || out.Value != lisp.Number(5) {
		t.Fatalf("expected 5 within the timeout, got %s (%v)", out.Value, out.Err)
	}
	path := f.write(t, "main.lisp", "(define (main) (< 1 2))")
	out = f.runner.RunFile(context.Background(), path)
	if !out.OK() || out.Value != lisp.Boolean(true) {
		t.Fatalf("expected true within the timeout, got %s (%v)", out.Value, out.Err)
	}
}
