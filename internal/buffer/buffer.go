// Package buffer implements a line-oriented editable document.
//
// Mutations go through Insert, Remove and ReplaceAll, which emit events to
// subscribed listeners after the buffer has changed. The diagnostic edit
// tracker is one such listener; nothing wraps or overrides the mutators.
package buffer

import (
	"os"
	"path/filepath"
	"strings"
)

// InsertEvent describes text inserted at a 1-based (line, column) position.
// Untracked marks bulk edits (full reloads) that position tracking must not
// try to follow.
type InsertEvent struct {
	Line      uint32
	Col       uint32
	Text      string
	Untracked bool
}

// RemoveEvent describes text removed between two 1-based positions,
// from (Line1, Col1) up to but not including (Line2, Col2).
type RemoveEvent struct {
	Line1     uint32
	Col1      uint32
	Line2     uint32
	Col2      uint32
	Untracked bool
}

// Listener receives edit notifications. newLineCount is the buffer's line
// count after the edit, so listeners never have to re-derive it.
type Listener interface {
	OnInsert(ev InsertEvent, newLineCount int)
	OnRemove(ev RemoveEvent, newLineCount int)
}

// Buffer is a document held as lines. A buffer always has at least one
// (possibly empty) line, matching how editors count lines.
type Buffer struct {
	path      string
	lines     []string
	listeners []Listener
}

// New creates a buffer from content. absPath should be absolute; it is the
// identity linters report against.
func New(absPath, content string) *Buffer {
	return &Buffer{
		path:  absPath,
		lines: splitLines(content),
	}
}

// Load reads a file into a buffer, resolving the path to absolute.
func Load(path string) (*Buffer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return New(abs, string(content)), nil
}

// Path returns the absolute document path.
func (b *Buffer) Path() string { return b.path }

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the 1-based line, if it exists.
func (b *Buffer) Line(line uint32) (string, bool) {
	if line < 1 || int(line) > len(b.lines) {
		return "", false
	}
	return b.lines[line-1], true
}

// Text reassembles the whole document.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Subscribe registers a listener for subsequent edits.
func (b *Buffer) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Insert places text at the 1-based (line, col) byte position. Out-of-range
// positions are clamped. Text may span multiple lines.
func (b *Buffer) Insert(line, col uint32, text string) {
	b.insert(line, col, text, false)
}

// Remove deletes the span from (line1, col1) up to but not including
// (line2, col2). Reversed spans are normalized.
func (b *Buffer) Remove(line1, col1, line2, col2 uint32) {
	b.remove(line1, col1, line2, col2, false)
}

// ReplaceAll swaps the entire content in one bulk edit. Listeners see it as
// an untracked remove followed by an untracked insert; position tracking
// ignores both, and callers are expected to request a fresh lint check.
func (b *Buffer) ReplaceAll(content string) {
	lastLine := uint32(len(b.lines))
	lastCol := uint32(len(b.lines[lastLine-1]) + 1)
	b.remove(1, 1, lastLine, lastCol, true)
	b.insert(1, 1, content, true)
}

func (b *Buffer) insert(line, col uint32, text string, untracked bool) {
	lineIdx, colIdx := b.clamp(line, col)
	cur := b.lines[lineIdx]
	head, tail := cur[:colIdx], cur[colIdx:]

	parts := splitLines(text)
	parts[0] = head + parts[0]
	parts[len(parts)-1] += tail

	b.lines = append(b.lines[:lineIdx], append(parts, b.lines[lineIdx+1:]...)...)

	ev := InsertEvent{Line: line, Col: col, Text: text, Untracked: untracked}
	for _, l := range b.listeners {
		l.OnInsert(ev, len(b.lines))
	}
}

func (b *Buffer) remove(line1, col1, line2, col2 uint32, untracked bool) {
	l1, c1 := b.clamp(line1, col1)
	l2, c2 := b.clamp(line2, col2)
	if l1 > l2 || (l1 == l2 && c1 > c2) {
		l1, c1, l2, c2 = l2, c2, l1, c1
	}

	joined := b.lines[l1][:c1] + b.lines[l2][c2:]
	b.lines = append(b.lines[:l1], append([]string{joined}, b.lines[l2+1:]...)...)

	ev := RemoveEvent{Line1: line1, Col1: col1, Line2: line2, Col2: col2, Untracked: untracked}
	for _, l := range b.listeners {
		l.OnRemove(ev, len(b.lines))
	}
}

// clamp converts 1-based (line, col) into valid 0-based indices.
func (b *Buffer) clamp(line, col uint32) (lineIdx, colIdx int) {
	lineIdx = int(line) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	if lineIdx >= len(b.lines) {
		lineIdx = len(b.lines) - 1
	}
	colIdx = int(col) - 1
	if colIdx < 0 {
		colIdx = 0
	}
	if colIdx > len(b.lines[lineIdx]) {
		colIdx = len(b.lines[lineIdx])
	}
	return lineIdx, colIdx
}

// splitLines always returns at least one element; a trailing newline yields
// a final empty line, the way editors display it.
func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
