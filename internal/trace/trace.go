// Package trace provides leveled event logging for the lint engine.
// Tracing is strictly best-effort: a failing or slow sink must never
// disturb a lint run.
package trace

import (
	"fmt"
	"time"
)

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// Event represents a single trace event.
type Event struct {
	Time      time.Time // wall-clock timestamp
	Level     Level     // severity of the event
	Component string    // e.g. "engine", "stream", "registry"
	Message   string
}

// Emitf formats and emits a point event at the given level.
func Emitf(t Tracer, level Level, component, format string, args ...any) {
	if t == nil || !t.Enabled() {
		return
	}
	t.Emit(Event{
		Time:      time.Now(),
		Level:     level,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Errorf emits an error-level event.
func Errorf(t Tracer, component, format string, args ...any) {
	Emitf(t, LevelError, component, format, args...)
}

// Infof emits an info-level event.
func Infof(t Tracer, component, format string, args ...any) {
	Emitf(t, LevelInfo, component, format, args...)
}

// Debugf emits a debug-level event.
func Debugf(t Tracer, component, format string, args ...any) {
	Emitf(t, LevelDebug, component, format, args...)
}
