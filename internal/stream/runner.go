// Package stream spawns an external lint command and feeds its output,
// line by line, into a caller-provided sink under a cooperative yield
// budget.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"lintflow/internal/trace"
)

// Sink consumes one assembled output line and reports whether it was
// accepted as a diagnostic. The first acceptance ends the run's restrained
// state.
type Sink func(line string) (accepted bool)

// YieldFunc is called at every cooperative yield point. Returning a non-nil
// error aborts the run; the spawned process is killed.
type YieldFunc func(ctx context.Context) error

// Runner executes one external lint command per Run call.
// The zero value is usable; fields customize behavior.
type Runner struct {
	// Shell runs the command line. Defaults to /bin/sh.
	Shell string

	// Stderr merges the child's stderr into the parsed stream.
	Stderr bool

	// Yield is invoked at yield points. Defaults to a context check plus
	// a scheduler handoff.
	Yield YieldFunc

	// Tracer logs run boundaries and failures. Nil disables logging.
	Tracer trace.Tracer
}

func (r *Runner) shell() string {
	if r.Shell != "" {
		return r.Shell
	}
	return "/bin/sh"
}

func (r *Runner) yield(ctx context.Context) error {
	if r.Yield != nil {
		return r.Yield(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// Run spawns cmdline through the shell and streams its output into sink.
//
// The read loop assembles lines byte by byte ('\r' dropped, '\n' completes)
// and observes the cooperative budget described in policy.go. On EOF any
// trailing unterminated line is flushed to the sink and the process is
// reaped. A non-zero exit status is not an error, since linters exit
// non-zero when they find problems; only spawn and I/O failures are reported.
//
// Known limitation: the read blocks while the child produces no output.
// Cancellation via ctx still kills the process, but the goroutine running
// Run wakes up only once the pipe closes.
func (r *Runner) Run(ctx context.Context, cmdline string, sink Sink) error {
	cmd := exec.CommandContext(ctx, r.shell(), "-c", cmdline)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("lint pipe: %w", err)
	}
	cmd.Stdout = pw
	if r.Stderr {
		cmd.Stderr = pw
	}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		trace.Errorf(r.Tracer, "stream", "spawn failed: %v", err)
		return fmt.Errorf("spawn %q: %w", cmdline, err)
	}
	// The child holds its own copy of the write end; ours would keep the
	// pipe open past the child's exit.
	pw.Close()
	trace.Debugf(r.Tracer, "stream", "spawned %q", cmdline)

	runErr := r.consume(ctx, pr, sink)

	pr.Close()
	if runErr != nil {
		// The child may still be streaming; reap it so Wait cannot hang.
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	if runErr != nil {
		return runErr
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return fmt.Errorf("wait %q: %w", cmdline, waitErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (r *Runner) consume(ctx context.Context, pr *os.File, sink Sink) error {
	var (
		asm    Assembler
		policy yieldPolicy
		chunk  [256]byte
	)
	for {
		n, readErr := pr.Read(chunk[:])
		for _, b := range chunk[:n] {
			line, complete := asm.Feed(b)
			if policy.consumedByte() {
				if err := r.yield(ctx); err != nil {
					return err
				}
			}
			if !complete {
				continue
			}
			if sink(line) {
				policy.markFound()
			}
			if policy.completedLine() {
				if err := r.yield(ctx); err != nil {
					return err
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("read lint output: %w", readErr)
		}
	}
	if line, ok := asm.Flush(); ok {
		sink(line)
	}
	return nil
}
