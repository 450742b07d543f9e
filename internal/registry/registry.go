// Package registry maps document paths to registered linter specs.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"lintflow/internal/interp"
	"lintflow/internal/trace"
)

// Spec is one registered linter: which files it applies to, how to invoke
// the external tool, and how to read its output. Immutable after Register.
type Spec struct {
	// Name identifies the spec in the registry and in user configuration.
	Name string

	// Patterns are doublestar globs tested against the document's absolute
	// slash path. A pattern without a path separator matches the basename,
	// so "*.c" works without spelling "**/*.c".
	Patterns []string

	// Command is the command-line template. $filename expands to the
	// document's absolute path, $args to the live per-linter arguments.
	Command string

	// Args is the default $args expansion; configuration overrides it
	// per invocation.
	Args []string

	// Stderr merges the tool's stderr into the parsed stream. Off by
	// default: most linters report findings on stdout.
	Stderr bool

	// Interp classifies the tool's output lines.
	Interp *interp.Interpreter
}

// Matches reports whether the spec applies to the given absolute path.
func (s *Spec) Matches(absPath string) bool {
	slashPath := filepath.ToSlash(absPath)
	base := filepath.Base(slashPath)
	for _, pattern := range s.Patterns {
		target := slashPath
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// Registry holds linter specs in deterministic registration order.
// Resolve walks that order, so the earliest matching spec wins.
type Registry struct {
	mu     sync.RWMutex
	order  []*Spec
	byName map[string]int
	tracer trace.Tracer
}

// New creates an empty registry. A nil tracer disables logging.
func New(tracer trace.Tracer) *Registry {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Registry{
		byName: make(map[string]int),
		tracer: tracer,
	}
}

// Register adds a spec. Re-registering a name is an intentional override:
// the new spec replaces the old one in place, keeping its position in the
// resolution order, and the override is logged.
func (r *Registry) Register(spec *Spec) error {
	if spec == nil {
		return fmt.Errorf("nil spec")
	}
	if spec.Name == "" {
		return fmt.Errorf("linter spec has no name")
	}
	if len(spec.Patterns) == 0 {
		return fmt.Errorf("linter %q: no filename patterns", spec.Name)
	}
	if strings.TrimSpace(spec.Command) == "" {
		return fmt.Errorf("linter %q: empty command", spec.Name)
	}
	if spec.Interp == nil {
		return fmt.Errorf("linter %q: no interpreter", spec.Name)
	}
	for _, pattern := range spec.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("linter %q: invalid pattern %q", spec.Name, pattern)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byName[spec.Name]; ok {
		r.order[idx] = spec
		trace.Infof(r.tracer, "registry", "linter %q re-registered (override)", spec.Name)
		return nil
	}
	r.byName[spec.Name] = len(r.order)
	r.order = append(r.order, spec)
	trace.Debugf(r.tracer, "registry", "linter %q registered for %v", spec.Name, spec.Patterns)
	return nil
}

// Resolve returns the first spec, in registration order, whose patterns
// accept the absolute path.
func (r *Registry) Resolve(absPath string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, spec := range r.order {
		if spec.Matches(absPath) {
			return spec, true
		}
	}
	return nil, false
}

// Lookup returns a spec by name.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.order[idx], true
}

// Specs returns all registered specs in registration order.
func (r *Registry) Specs() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Spec, len(r.order))
	copy(out, r.order)
	return out
}
