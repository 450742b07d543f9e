package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"lintflow/internal/buffer"
	"lintflow/internal/engine"
	"lintflow/internal/status"
	"lintflow/internal/toolcache"
	"lintflow/internal/trace"
	"lintflow/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <file>",
	Short: "Re-lint a file on every save",
	Long:  `Watch a file for changes, re-run its linter on every save, and keep a live diagnostic view on screen.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("ui", "auto", "interactive diagnostic view (auto|on|off)")
	watchCmd.Flags().Duration("debounce", 100*time.Millisecond, "settle time after a file event before re-linting")
}

func runWatch(cmd *cobra.Command, args []string) error {
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	useTUI, err := watchUIEnabled(uiFlag, isTerminal(os.Stdout))
	if err != nil {
		return err
	}
	debounceDur, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tools, err := toolcache.Open("lintflow")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: tool cache unavailable: %v\n", err)
		tools = nil
	}

	buf, err := buffer.Load(args[0])
	if err != nil {
		return err
	}
	path := buf.Path()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events := make(chan ui.Event, 64)
	push := func(ev ui.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	eng, warnings := engine.New(cfg, engine.Options{
		Tracer:   tracer,
		Tools:    tools,
		OnChange: func(string) { push(ui.Event{Kind: ui.EventDiagnostics}) },
	})
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
	defer eng.Shutdown()

	session, err := eng.Open(buf)
	if err != nil {
		return err
	}
	// Fail fast when nothing can lint this file at all.
	if _, ok := eng.Registry().Resolve(path); !ok {
		return fmt.Errorf("%s: %w", path, engine.ErrNoLinter)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: most editors replace the file on save, which
	// drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	go watchLoop(ctx, eng, buf, watcher, tracer, push, events, debounceDur)

	if useTUI {
		model := ui.NewWatchModel(path, session.Store(), events)
		program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
		_, uiErr := program.Run()
		cancel()
		return uiErr
	}
	return plainWatch(cmd, session, events)
}

// watchUIEnabled resolves the --ui flag into a yes/no for the live view.
// In auto mode the view follows whether stdout is a terminal, so piping
// watch output degrades to the plain status lines.
func watchUIEnabled(value string, stdoutTTY bool) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return stdoutTTY, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// watchLoop owns the events channel: it runs an initial check, then one more
// after each save (debounced), and closes the channel when the context ends.
func watchLoop(ctx context.Context, eng *engine.Engine, buf *buffer.Buffer, watcher *fsnotify.Watcher, tracer trace.Tracer, push func(ui.Event), events chan ui.Event, debounceDur time.Duration) {
	defer close(events)
	path := buf.Path()

	runOnce := func() {
		push(ui.Event{Kind: ui.EventRunStarted})
		err := eng.CheckWait(ctx, path)
		if err != nil && ctx.Err() != nil {
			return
		}
		push(ui.Event{Kind: ui.EventRunFinished, Err: err})
	}

	runOnce()

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending && !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDur)
			pending = true
		case <-debounce.C:
			pending = false
			data, err := os.ReadFile(path)
			if err != nil {
				trace.Errorf(tracer, "watch", "reload %s: %v", path, err)
				continue
			}
			buf.ReplaceAll(string(data))
			runOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			trace.Errorf(tracer, "watch", "watcher: %v", err)
		}
	}
}

// plainWatch renders without the TUI: one status line per completed run.
func plainWatch(cmd *cobra.Command, session *engine.Session, events <-chan ui.Event) error {
	out := cmd.OutOrStdout()
	for ev := range events {
		if ev.Kind != ui.EventRunFinished {
			continue
		}
		if ev.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "run failed: %v\n", ev.Err)
			continue
		}
		fmt.Fprintln(out, status.Line(session.Store(), 0, 100))
	}
	return nil
}
