// Package engine wires the registry, the process streamer, the interpreter
// and the per-document diagnostic stores into the check workflow an editor
// host drives.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"lintflow/internal/buffer"
	"lintflow/internal/config"
	"lintflow/internal/diag"
	"lintflow/internal/interp"
	"lintflow/internal/registry"
	"lintflow/internal/toolcache"
	"lintflow/internal/trace"
	"lintflow/internal/track"
)

var (
	// ErrNoLinter means no registered spec accepts the document's path.
	ErrNoLinter = errors.New("no linter registered for document")

	// ErrNotOpen means the document has no session; Open it first.
	ErrNotOpen = errors.New("document not open")

	// ErrToolMissing means the linter's executable could not be resolved
	// on PATH during pre-flight.
	ErrToolMissing = errors.New("linter executable not found")
)

// Options configures an Engine beyond its configuration file.
type Options struct {
	// Tracer receives engine logging. Nil disables it.
	Tracer trace.Tracer

	// Tools, when set, pre-flights each check by resolving the linter
	// executable through the cache.
	Tools *toolcache.Cache

	// OnChange fires after every successful diagnostic write or re-key,
	// with the document's absolute path. Serves as the redraw signal.
	OnChange func(path string)

	// OnRunError receives failures of asynchronously started runs
	// (Check). Synchronous runs return their errors directly. Nil routes
	// them to the tracer.
	OnRunError func(path string, err error)
}

// Engine owns the linter registry and one session per open document.
type Engine struct {
	mu       sync.Mutex
	cfg      *config.Config
	reg      *registry.Registry
	opts     Options
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// Session binds one open document to its diagnostic store and edit tracker.
type Session struct {
	buf    *buffer.Buffer
	store  *diag.Store
	cancel context.CancelFunc // cancels the in-flight run, if any
}

// Buffer returns the session's document buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// Store returns the session's diagnostic store for consumer queries.
func (s *Session) Store() *diag.Store { return s.store }

// New builds an engine from configuration. Linter definitions that fail to
// compile are skipped (fatal to that one spec, not to the engine) and
// reported in the returned warning list.
func New(cfg *config.Config, opts Options) (*Engine, []error) {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	reg, warnings := buildRegistry(cfg, opts.Tracer)
	return &Engine{
		cfg:      cfg,
		reg:      reg,
		opts:     opts,
		sessions: make(map[string]*Session),
	}, warnings
}

func buildRegistry(cfg *config.Config, tracer trace.Tracer) (*registry.Registry, []error) {
	reg := registry.New(tracer)
	var warnings []error

	names := make([]string, 0, len(cfg.Linters))
	for name := range cfg.Linters {
		names = append(names, name)
	}
	// The TOML table is a map; sort so resolution order is deterministic.
	sort.Strings(names)

	for _, name := range names {
		lc := cfg.Linters[name]
		it, err := interp.New(interp.Rules{
			Hint:    lc.Hint,
			Warning: lc.Warning,
			Error:   lc.Error,
			Strip:   lc.Strip,
		})
		if err != nil {
			warnings = append(warnings, fmt.Errorf("linter %q: %w", name, err))
			trace.Errorf(tracer, "engine", "linter %q disabled: %v", name, err)
			continue
		}
		spec := &registry.Spec{
			Name:     name,
			Patterns: lc.Patterns,
			Command:  lc.Command,
			Args:     lc.Args,
			Stderr:   lc.Stderr,
			Interp:   it,
		}
		if err := reg.Register(spec); err != nil {
			warnings = append(warnings, err)
			trace.Errorf(tracer, "engine", "linter %q disabled: %v", name, err)
		}
	}
	return reg, warnings
}

// Registry exposes the engine's linter registry.
func (e *Engine) Registry() *registry.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetConfig swaps the live configuration and rebuilds the registry; $args
// and timeouts of subsequent checks see the new values. Returns the same
// per-linter warnings as New.
func (e *Engine) SetConfig(cfg *config.Config) []error {
	reg, warnings := buildRegistry(cfg, e.opts.Tracer)
	e.mu.Lock()
	e.cfg = cfg
	e.reg = reg
	e.mu.Unlock()
	return warnings
}

// Open creates a session for the buffer: a fresh store plus an edit tracker
// subscribed to the buffer's events. Opening an already-open path returns
// the existing session.
func (e *Engine) Open(buf *buffer.Buffer) (*Session, error) {
	path := buf.Path()
	e.mu.Lock()
	defer e.mu.Unlock()
	if session, ok := e.sessions[path]; ok {
		return session, nil
	}

	store, err := diag.NewStore(buf.LineCount())
	if err != nil {
		return nil, err
	}
	if e.opts.OnChange != nil {
		onChange := e.opts.OnChange
		store.SetOnChange(func() { onChange(path) })
	}
	buf.Subscribe(track.New(store, e.opts.Tracer))

	session := &Session{buf: buf, store: store}
	e.sessions[path] = session
	trace.Debugf(e.opts.Tracer, "engine", "opened %s (%d lines)", path, buf.LineCount())
	return session, nil
}

// Session returns the session for an open document.
func (e *Engine) Session(path string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[path]
	return session, ok
}

// Close tears the document's session down: the in-flight run (if any) is
// cancelled and the store is released with the session.
func (e *Engine) Close(path string) {
	e.mu.Lock()
	session, ok := e.sessions[path]
	delete(e.sessions, path)
	e.mu.Unlock()
	if ok && session.cancel != nil {
		session.cancel()
	}
	if ok {
		trace.Debugf(e.opts.Tracer, "engine", "closed %s", path)
	}
}

// Shutdown cancels all in-flight runs and waits for their workers.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	for _, session := range e.sessions {
		if session.cancel != nil {
			session.cancel()
		}
	}
	e.mu.Unlock()
	e.wg.Wait()
}
