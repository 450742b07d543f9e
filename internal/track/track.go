// Package track keeps a diagnostic store's line keys valid while the
// owning buffer is edited, possibly concurrently with a running lint task.
package track

import (
	"lintflow/internal/buffer"
	"lintflow/internal/diag"
	"lintflow/internal/trace"
)

// Tracker subscribes to a buffer's edit events and rewrites the store's
// keys so every diagnostic stays anchored to the text it was reported
// against. The store's own mutex serializes these re-keys against the lint
// task's writes.
type Tracker struct {
	store  *diag.Store
	tracer trace.Tracer
}

// New creates a tracker bound to one store.
func New(store *diag.Store, tracer trace.Tracer) *Tracker {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Tracker{store: store, tracer: tracer}
}

// OnInsert shifts diagnostics at or below the insertion line down by however
// many lines the buffer grew. Untracked (bulk) edits are ignored.
func (t *Tracker) OnInsert(ev buffer.InsertEvent, newLineCount int) {
	if ev.Untracked {
		return
	}
	if err := t.store.ApplyInsert(ev.Line, newLineCount); err != nil {
		trace.Errorf(t.tracer, "track", "insert at %d: %v", ev.Line, err)
	}
}

// OnRemove drops diagnostics anchored in the removed line span and shifts
// the ones below it back up. Untracked (bulk) edits are ignored.
func (t *Tracker) OnRemove(ev buffer.RemoveEvent, newLineCount int) {
	if ev.Untracked {
		return
	}
	if err := t.store.ApplyRemove(ev.Line1, ev.Line2, newLineCount); err != nil {
		trace.Errorf(t.tracer, "track", "remove %d-%d: %v", ev.Line1, ev.Line2, err)
	}
}

var _ buffer.Listener = (*Tracker)(nil)
