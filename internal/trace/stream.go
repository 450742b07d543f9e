package trace

import (
	"fmt"
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer, one line each.
type StreamTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level) *StreamTracer {
	return &StreamTracer{w: w, level: level}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev Event) {
	if !t.level.ShouldEmit(ev.Level) {
		return
	}
	line := fmt.Sprintf("%s %-5s [%s] %s\n",
		ev.Time.Format("15:04:05.000"), ev.Level, ev.Component, ev.Message)

	t.mu.Lock()
	defer t.mu.Unlock()
	// Best-effort write; a broken trace sink must not disrupt linting.
	_, _ = io.WriteString(t.w, line)
}

// Flush ensures all buffered data is written.
// For StreamTracer this is a no-op unless the writer itself buffers.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Level returns the configured level.
func (t *StreamTracer) Level() Level { return t.level }

// Enabled reports whether any events can be emitted.
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
