package diag

import (
	"sort"
	"sync"

	"fortio.org/safecast"
)

// Store holds the diagnostics of a single document, keyed by 1-based line
// number. At most one diagnostic lives on a line; conflicting writes are
// resolved by severity (higher wins, first-at-highest is kept).
//
// A Store has exactly two writer roles: the lint run feeding it through
// Record, and the edit tracker re-keying it through ApplyInsert/ApplyRemove.
// Both serialize on the same internal mutex. Readers (status line,
// rendering) go through the query methods.
//
// Overlapping lint runs are disarmed with a generation stamp: BeginRun bumps
// the generation and Record discards writes carrying a stale one.
type Store struct {
	mu        sync.Mutex
	lineCount uint32
	gen       uint64
	byLine    map[uint32]Diagnostic
	onChange  func()
}

// NewStore creates an empty store mirroring a buffer with lineCount lines.
func NewStore(lineCount int) (*Store, error) {
	count, err := safecast.Conv[uint32](lineCount)
	if err != nil {
		return nil, err
	}
	return &Store{
		lineCount: count,
		byLine:    make(map[uint32]Diagnostic),
	}, nil
}

// SetOnChange registers the redraw signal fired after every successful write.
// The callback runs without the store lock held; it may query the store.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// BeginRun prepares the store for a fresh lint run: previous findings are
// dropped, the line count is re-synced to the buffer, and a new generation
// stamp is returned. Writes from any still-running older task carry the old
// stamp and are silently discarded by Record.
func (s *Store) BeginRun(lineCount int) (uint64, error) {
	count, err := safecast.Conv[uint32](lineCount)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.lineCount = count
	clear(s.byLine)
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return gen, nil
}

// Record merges one diagnostic into the store. It reports whether the store
// changed. A candidate is discarded when:
//   - gen does not match the store's current generation (stale run),
//   - line is outside [1, lineCount],
//   - the line already holds a diagnostic of equal or higher severity.
//
// The last rule keeps the first diagnostic seen at the highest severity
// observed so far, not the latest one.
func (s *Store) Record(gen uint64, line uint32, d Diagnostic) bool {
	s.mu.Lock()
	if gen != s.gen || line < 1 || line > s.lineCount {
		s.mu.Unlock()
		return false
	}
	if existing, ok := s.byLine[line]; ok && existing.Severity >= d.Severity {
		s.mu.Unlock()
		return false
	}
	s.byLine[line] = d
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return true
}

// OnLine returns the diagnostic stored at line, if any.
func (s *Store) OnLine(line uint32) (Diagnostic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byLine[line]
	return d, ok
}

// FirstErrorLine returns the lowest line holding an error diagnostic.
func (s *Store) FirstErrorLine() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best uint32
	for line, d := range s.byLine {
		if d.Severity != SevError {
			continue
		}
		if best == 0 || line < best {
			best = line
		}
	}
	return best, best != 0
}

// Len returns the number of stored diagnostics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byLine)
}

// LineCount returns the buffer line count as of the last reconciliation.
func (s *Store) LineCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineCount
}

// Generation returns the current run generation stamp.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Items returns all diagnostics sorted by line.
func (s *Store) Items() []LineDiagnostic {
	s.mu.Lock()
	items := make([]LineDiagnostic, 0, len(s.byLine))
	for line, d := range s.byLine {
		items = append(items, LineDiagnostic{Line: line, Diag: d})
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Line < items[j].Line })
	return items
}

// Counts returns how many stored diagnostics exist per severity.
func (s *Store) Counts() (hints, warnings, errors int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.byLine {
		switch d.Severity {
		case SevHint:
			hints++
		case SevWarning:
			warnings++
		case SevError:
			errors++
		}
	}
	return hints, warnings, errors
}

// ApplyInsert re-keys diagnostics after lines were inserted at line. The
// shift is derived from the buffer's new line count, not from the inserted
// text, so the store stays honest even if it was already out of sync.
// Keys are processed from the highest downward so a shifted key never lands
// on one that has not moved yet.
func (s *Store) ApplyInsert(line uint32, newLineCount int) error {
	count, err := safecast.Conv[uint32](newLineCount)
	if err != nil {
		return err
	}
	s.mu.Lock()
	shift := int64(count) - int64(s.lineCount)
	if shift <= 0 {
		s.lineCount = count
		s.mu.Unlock()
		return nil
	}
	keys := s.sortedKeysLocked()
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		if k < line {
			break
		}
		d := s.byLine[k]
		delete(s.byLine, k)
		s.byLine[k+uint32(shift)] = d
	}
	s.lineCount = count
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// ApplyRemove drops diagnostics anchored in the removed span [line1, line2]
// (their anchor text no longer exists) and re-keys the survivors below it.
// The shift again comes from the buffer's new line count: removing lines 4-9
// by joining line 4 onto line 9 shrinks the buffer by 5 lines, not 6.
func (s *Store) ApplyRemove(line1, line2 uint32, newLineCount int) error {
	count, err := safecast.Conv[uint32](newLineCount)
	if err != nil {
		return err
	}
	minLine, maxLine := line1, line2
	if minLine > maxLine {
		minLine, maxLine = maxLine, minLine
	}
	s.mu.Lock()
	for k := range s.byLine {
		if k >= minLine && k <= maxLine {
			delete(s.byLine, k)
		}
	}
	shift := int64(s.lineCount) - int64(count)
	if shift > 0 {
		for _, k := range s.sortedKeysLocked() {
			if k < minLine {
				continue
			}
			d := s.byLine[k]
			delete(s.byLine, k)
			s.byLine[k-uint32(shift)] = d
		}
	}
	s.lineCount = count
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (s *Store) sortedKeysLocked() []uint32 {
	keys := make([]uint32, 0, len(s.byLine))
	for k := range s.byLine {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
