package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"lintflow/internal/diag"
	"lintflow/internal/registry"
	"lintflow/internal/stream"
	"lintflow/internal/toolcache"
	"lintflow/internal/trace"
)

// Check starts one lint run for an open document and returns immediately.
// Resolution and spawn preconditions are validated synchronously; the run
// itself happens on a worker goroutine whose failures go to OnRunError.
// A check superseding an in-flight run cancels it best-effort; even without
// the cancel, the old run's writes die on its stale generation stamp.
func (e *Engine) Check(ctx context.Context, path string) error {
	session, spec, cmdline, gen, err := e.prepare(ctx, path)
	if err != nil {
		return err
	}

	runCtx, cancel := e.runContext(ctx)
	e.mu.Lock()
	if session.cancel != nil {
		session.cancel()
	}
	session.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		if err := e.run(runCtx, session, spec, cmdline, gen); err != nil {
			if e.opts.OnRunError != nil {
				e.opts.OnRunError(path, err)
				return
			}
			trace.Errorf(e.opts.Tracer, "engine", "check %s: %v", path, err)
		}
	}()
	return nil
}

// CheckWait runs one check synchronously. Used by batch (CLI) consumers and
// anywhere the caller wants the run's error directly.
func (e *Engine) CheckWait(ctx context.Context, path string) error {
	session, spec, cmdline, gen, err := e.prepare(ctx, path)
	if err != nil {
		return err
	}
	runCtx, cancel := e.runContext(ctx)
	defer cancel()
	return e.run(runCtx, session, spec, cmdline, gen)
}

// CheckAll checks many open documents concurrently, at most jobs at a time.
// Each document's failure is reported independently; one bad file does not
// stop the rest.
func (e *Engine) CheckAll(ctx context.Context, paths []string, jobs int) error {
	if jobs <= 0 {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)

	errs := make([]error, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			errs[i] = e.CheckWait(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", paths[i], err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%s", strings.Join(failed, "\n"))
	}
	return nil
}

func (e *Engine) prepare(ctx context.Context, path string) (*Session, *registry.Spec, string, uint64, error) {
	e.mu.Lock()
	session, ok := e.sessions[path]
	reg, cfg, tools := e.reg, e.cfg, e.opts.Tools
	e.mu.Unlock()
	if !ok {
		return nil, nil, "", 0, fmt.Errorf("%s: %w", path, ErrNotOpen)
	}

	spec, ok := reg.Resolve(session.buf.Path())
	if !ok {
		return nil, nil, "", 0, fmt.Errorf("%s: %w", path, ErrNoLinter)
	}

	if tools != nil {
		if tool := toolcache.CommandTool(spec.Command); tool != "" {
			if _, err := tools.Resolve(ctx, tool); err != nil {
				return nil, nil, "", 0, fmt.Errorf("%q: %w: %v", tool, ErrToolMissing, err)
			}
		}
	}

	// $args is resolved from the live configuration here, at invocation
	// time, not from whatever the spec carried at registration.
	args := spec.Args
	if lc, ok := cfg.Linters[spec.Name]; ok && lc.Args != nil {
		args = lc.Args
	}
	cmdline := expandCommand(spec.Command, session.buf.Path(), args)

	gen, err := session.store.BeginRun(session.buf.LineCount())
	if err != nil {
		return nil, nil, "", 0, err
	}
	return session, spec, cmdline, gen, nil
}

func (e *Engine) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.Config().Engine.Timeout.Duration
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) run(ctx context.Context, session *Session, spec *registry.Spec, cmdline string, gen uint64) error {
	docPath := session.buf.Path()
	tracer := e.opts.Tracer
	trace.Infof(tracer, "engine", "run %q on %s", spec.Name, docPath)

	runner := stream.Runner{Stderr: spec.Stderr, Tracer: tracer}
	accepted := 0
	sink := func(line string) bool {
		candidate, ok := spec.Interp.Interpret(line)
		if !ok {
			return false
		}
		if !sameFile(candidate.File, docPath) {
			trace.Debugf(tracer, "engine", "dropped finding for foreign file %q", candidate.File)
			return false
		}
		wrote := session.store.Record(gen, candidate.Line, diag.Diagnostic{
			Severity: candidate.Severity,
			Column:   candidate.Column,
			Message:  candidate.Message,
		})
		if wrote {
			accepted++
		}
		// Acceptance for the streamer's restrained state means "this line
		// was a diagnostic for our document", even if the store kept an
		// earlier, more severe finding for that line.
		return true
	}

	err := runner.Run(ctx, cmdline, sink)
	trace.Infof(tracer, "engine", "run %q on %s done: %d recorded, err=%v",
		spec.Name, docPath, accepted, err)
	return err
}

// sameFile reports whether a path printed by the tool refers to the
// document being linted. Relative reports are resolved both against the
// working directory and against the document's directory, since tools
// differ in which one they print.
func sameFile(reported, docPath string) bool {
	if reported == "" {
		return false
	}
	if filepath.Clean(reported) == docPath {
		return true
	}
	if abs, err := filepath.Abs(reported); err == nil && abs == docPath {
		return true
	}
	if !filepath.IsAbs(reported) {
		if filepath.Join(filepath.Dir(docPath), reported) == docPath {
			return true
		}
	}
	return false
}

// expandCommand substitutes $args and $filename in a command template.
// The filename is shell-quoted; a document path with spaces or quotes must
// not split the command.
func expandCommand(command, absPath string, args []string) string {
	out := strings.ReplaceAll(command, "$args", strings.Join(args, " "))
	return strings.ReplaceAll(out, "$filename", shellQuote(absPath))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
