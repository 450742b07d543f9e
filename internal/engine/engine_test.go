package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lintflow/internal/buffer"
	"lintflow/internal/config"
	"lintflow/internal/diag"
)

const gccStyle = `(.+?):(\d+):(\d+): error: (.+)`

func testConfig(command string) *config.Config {
	return &config.Config{
		Linters: map[string]config.Linter{
			"fake": {
				Patterns: []string{"*.doc"},
				Command:  command,
				Error:    gccStyle,
			},
		},
	}
}

func openDoc(t *testing.T, e *Engine, lines int) *Session {
	t.Helper()
	content := strings.TrimSuffix(strings.Repeat("text\n", lines), "\n")
	buf := buffer.New(filepath.Join(t.TempDir(), "x.doc"), content)
	session, err := e.Open(buf)
	if err != nil {
		t.Fatal(err)
	}
	return session
}

func newEngine(t *testing.T, cfg *config.Config, opts Options) *Engine {
	t.Helper()
	e, warnings := New(cfg, opts)
	for _, w := range warnings {
		t.Fatalf("unexpected linter warning: %v", w)
	}
	t.Cleanup(e.Shutdown)
	return e
}

func TestCheckWaitRecordsDiagnostics(t *testing.T) {
	e := newEngine(t, testConfig(`echo $filename:2:4: error: broken thing`), Options{})
	session := openDoc(t, e, 10)

	if err := e.CheckWait(context.Background(), session.Buffer().Path()); err != nil {
		t.Fatal(err)
	}
	d, ok := session.Store().OnLine(2)
	if !ok {
		t.Fatalf("no diagnostic on line 2: %v", session.Store().Items())
	}
	if d.Severity != diag.SevError || d.Column != 4 || d.Message != "broken thing" {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestCheckNoLinterResolves(t *testing.T) {
	e := newEngine(t, testConfig(`true`), Options{})
	buf := buffer.New(filepath.Join(t.TempDir(), "x.unknown"), "line")
	if _, err := e.Open(buf); err != nil {
		t.Fatal(err)
	}
	err := e.CheckWait(context.Background(), buf.Path())
	if !errors.Is(err, ErrNoLinter) {
		t.Errorf("err = %v, want ErrNoLinter", err)
	}
}

func TestCheckUnopenedDocument(t *testing.T) {
	e := newEngine(t, testConfig(`true`), Options{})
	err := e.CheckWait(context.Background(), "/never/opened.doc")
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
}

func TestForeignFileFindingsDropped(t *testing.T) {
	e := newEngine(t, testConfig(`echo /some/other/file.doc:1:1: error: not ours`), Options{})
	session := openDoc(t, e, 5)

	if err := e.CheckWait(context.Background(), session.Buffer().Path()); err != nil {
		t.Fatal(err)
	}
	if session.Store().Len() != 0 {
		t.Errorf("foreign finding stored: %v", session.Store().Items())
	}
}

func TestUnmatchedOutputIgnored(t *testing.T) {
	e := newEngine(t, testConfig(`echo checking stuff...; echo $filename:3:1: error: real`), Options{})
	session := openDoc(t, e, 5)

	if err := e.CheckWait(context.Background(), session.Buffer().Path()); err != nil {
		t.Fatal(err)
	}
	if session.Store().Len() != 1 {
		t.Errorf("Len = %d, want just the real finding", session.Store().Len())
	}
}

func TestRunTimeout(t *testing.T) {
	cfg := testConfig(`sleep 10`)
	cfg.Engine.Timeout = config.Duration{Duration: 100 * time.Millisecond}
	e := newEngine(t, cfg, Options{})
	session := openDoc(t, e, 5)

	err := e.CheckWait(context.Background(), session.Buffer().Path())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestAsyncCheckReportsErrors(t *testing.T) {
	cfg := testConfig(`sleep 10`)
	cfg.Engine.Timeout = config.Duration{Duration: 100 * time.Millisecond}

	got := make(chan error, 1)
	e := newEngine(t, cfg, Options{
		OnRunError: func(path string, err error) { got <- err },
	})
	session := openDoc(t, e, 5)

	if err := e.Check(context.Background(), session.Buffer().Path()); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("async err = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnRunError never fired")
	}
}

func TestChangeSignalFires(t *testing.T) {
	changed := make(chan string, 8)
	e := newEngine(t, testConfig(`echo $filename:1:1: error: x`), Options{
		OnChange: func(path string) {
			select {
			case changed <- path:
			default:
			}
		},
	})
	session := openDoc(t, e, 3)

	if err := e.CheckWait(context.Background(), session.Buffer().Path()); err != nil {
		t.Fatal(err)
	}
	select {
	case path := <-changed:
		if path != session.Buffer().Path() {
			t.Errorf("change for %q, want %q", path, session.Buffer().Path())
		}
	default:
		t.Error("no change signal after a successful write")
	}
}

func TestCheckAllIndependentFailures(t *testing.T) {
	e := newEngine(t, testConfig(`echo $filename:1:1: error: x`), Options{})
	good := openDoc(t, e, 3)
	bad := buffer.New(filepath.Join(t.TempDir(), "y.unknown"), "line")
	if _, err := e.Open(bad); err != nil {
		t.Fatal(err)
	}

	err := e.CheckAll(context.Background(),
		[]string{good.Buffer().Path(), bad.Path()}, 2)
	if err == nil {
		t.Fatal("expected the unknown document to fail")
	}
	if !strings.Contains(err.Error(), "y.unknown") {
		t.Errorf("error should name the failing file: %v", err)
	}
	// The good document was still checked.
	if good.Store().Len() != 1 {
		t.Errorf("good doc has %d findings, want 1", good.Store().Len())
	}
}

func TestEditDuringRunKeepsAnchors(t *testing.T) {
	cmd := `echo $filename:10:1: error: early; sleep 0.3; echo $filename:20:1: error: late`
	e := newEngine(t, testConfig(cmd), Options{})
	session := openDoc(t, e, 30)
	path := session.Buffer().Path()

	if err := e.Check(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	// Concurrent edit while the run sleeps: 5 lines inserted at the top.
	session.Buffer().Insert(1, 1, "a\nb\nc\nd\ne\n")
	e.Shutdown()

	if d, ok := session.Store().OnLine(15); !ok || d.Message != "early" {
		t.Errorf("early finding should have shifted 10 -> 15: %v", session.Store().Items())
	}
	if d, ok := session.Store().OnLine(20); !ok || d.Message != "late" {
		t.Errorf("late finding lands at its reported line: %v", session.Store().Items())
	}
}

func TestNewCheckSupersedesInFlight(t *testing.T) {
	cmd := `sleep 0.3; echo $filename:5:1: error: stale`
	e := newEngine(t, testConfig(cmd), Options{})
	session := openDoc(t, e, 10)
	path := session.Buffer().Path()

	if err := e.Check(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	// Supersede immediately with a fast run.
	e.SetConfig(testConfig(`echo $filename:7:1: error: fresh`))
	if err := e.CheckWait(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	e.Shutdown()

	if _, ok := session.Store().OnLine(5); ok {
		t.Error("stale run's write survived a newer generation")
	}
	if d, ok := session.Store().OnLine(7); !ok || d.Message != "fresh" {
		t.Errorf("fresh finding missing: %v", session.Store().Items())
	}
}

func TestBadLinterPatternIsWarningOnly(t *testing.T) {
	cfg := &config.Config{
		Linters: map[string]config.Linter{
			"broken": {Patterns: []string{"*.x"}, Command: "x", Error: `(`},
			"fine":   {Patterns: []string{"*.doc"}, Command: "true", Error: gccStyle},
		},
	}
	e, warnings := New(cfg, Options{})
	defer e.Shutdown()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if _, ok := e.Registry().Lookup("fine"); !ok {
		t.Error("the valid linter should still be registered")
	}
	if _, ok := e.Registry().Lookup("broken"); ok {
		t.Error("the broken linter should be skipped")
	}
}
