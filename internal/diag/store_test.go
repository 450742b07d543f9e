package diag

import (
	"testing"
)

func mustStore(t *testing.T, lines int) *Store {
	t.Helper()
	s, err := NewStore(lines)
	if err != nil {
		t.Fatalf("NewStore(%d): %v", lines, err)
	}
	return s
}

func beginRun(t *testing.T, s *Store, lines int) uint64 {
	t.Helper()
	gen, err := s.BeginRun(lines)
	if err != nil {
		t.Fatalf("BeginRun(%d): %v", lines, err)
	}
	return gen
}

func TestRecordMergePriority(t *testing.T) {
	tests := []struct {
		name  string
		first Severity
		then  Severity
		want  Severity
	}{
		{"hint then error", SevHint, SevError, SevError},
		{"error then hint", SevError, SevHint, SevError},
		{"warning then error", SevWarning, SevError, SevError},
		{"error then warning", SevError, SevWarning, SevError},
		{"warning then hint", SevWarning, SevHint, SevWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustStore(t, 10)
			gen := beginRun(t, s, 10)
			s.Record(gen, 3, Diagnostic{Severity: tt.first, Column: 1, Message: "first"})
			s.Record(gen, 3, Diagnostic{Severity: tt.then, Column: 2, Message: "second"})
			d, ok := s.OnLine(3)
			if !ok {
				t.Fatal("expected a diagnostic on line 3")
			}
			if d.Severity != tt.want {
				t.Errorf("severity = %v, want %v", d.Severity, tt.want)
			}
		})
	}
}

func TestRecordKeepsFirstAtEqualSeverity(t *testing.T) {
	s := mustStore(t, 10)
	gen := beginRun(t, s, 10)
	if !s.Record(gen, 5, Diagnostic{Severity: SevError, Message: "first"}) {
		t.Fatal("first write should succeed")
	}
	if s.Record(gen, 5, Diagnostic{Severity: SevError, Message: "second"}) {
		t.Error("equal-severity write should be discarded")
	}
	d, _ := s.OnLine(5)
	if d.Message != "first" {
		t.Errorf("message = %q, want %q", d.Message, "first")
	}
}

func TestRecordRejectsOutOfRange(t *testing.T) {
	s := mustStore(t, 5)
	gen := beginRun(t, s, 5)
	if s.Record(gen, 0, Diagnostic{Severity: SevError}) {
		t.Error("line 0 should be rejected")
	}
	if s.Record(gen, 6, Diagnostic{Severity: SevError}) {
		t.Error("line beyond the buffer should be rejected")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	s := mustStore(t, 10)
	old := beginRun(t, s, 10)
	s.Record(old, 2, Diagnostic{Severity: SevWarning, Message: "old run"})

	fresh := beginRun(t, s, 10)
	if s.Record(old, 4, Diagnostic{Severity: SevError, Message: "late straggler"}) {
		t.Error("write with stale generation should be discarded")
	}
	if _, ok := s.OnLine(2); ok {
		t.Error("BeginRun should clear previous findings")
	}
	if !s.Record(fresh, 4, Diagnostic{Severity: SevError, Message: "current"}) {
		t.Error("current-generation write should succeed")
	}
}

func TestApplyInsertShiftsDownstreamKeys(t *testing.T) {
	s := mustStore(t, 30)
	gen := beginRun(t, s, 30)
	s.Record(gen, 3, Diagnostic{Severity: SevHint, Message: "above"})
	s.Record(gen, 5, Diagnostic{Severity: SevWarning, Message: "at"})
	s.Record(gen, 20, Diagnostic{Severity: SevError, Message: "below"})

	// Insert 3 new lines at line 5.
	if err := s.ApplyInsert(5, 33); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.OnLine(3); !ok {
		t.Error("diagnostic above the insertion should not move")
	}
	if d, ok := s.OnLine(8); !ok || d.Message != "at" {
		t.Errorf("diagnostic at the insertion line should shift to 8, got %v", s.Items())
	}
	if d, ok := s.OnLine(23); !ok || d.Message != "below" {
		t.Errorf("diagnostic below the insertion should shift to 23, got %v", s.Items())
	}
	if s.LineCount() != 33 {
		t.Errorf("LineCount = %d, want 33", s.LineCount())
	}
}

func TestApplyInsertSameLineNoShift(t *testing.T) {
	s := mustStore(t, 10)
	gen := beginRun(t, s, 10)
	s.Record(gen, 7, Diagnostic{Severity: SevError, Message: "stay"})

	// Intra-line insertion: line count unchanged.
	if err := s.ApplyInsert(7, 10); err != nil {
		t.Fatal(err)
	}
	if d, ok := s.OnLine(7); !ok || d.Message != "stay" {
		t.Error("intra-line insert must not move diagnostics")
	}
}

func TestApplyRemoveDeletesRangeAndShifts(t *testing.T) {
	s := mustStore(t, 20)
	gen := beginRun(t, s, 20)
	s.Record(gen, 2, Diagnostic{Severity: SevHint, Message: "above"})
	for line := uint32(4); line <= 9; line++ {
		s.Record(gen, line, Diagnostic{Severity: SevWarning, Message: "doomed"})
	}
	s.Record(gen, 12, Diagnostic{Severity: SevError, Message: "survivor"})

	// Remove lines 4-9 by joining line 4 onto line 9: 5 lines disappear.
	if err := s.ApplyRemove(4, 9, 15); err != nil {
		t.Fatal(err)
	}

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (items: %v)", s.Len(), s.Items())
	}
	if _, ok := s.OnLine(2); !ok {
		t.Error("diagnostic above the removal should stay")
	}
	if d, ok := s.OnLine(7); !ok || d.Message != "survivor" {
		t.Errorf("diagnostic at 12 should land on 7, got %v", s.Items())
	}
	if s.LineCount() != 15 {
		t.Errorf("LineCount = %d, want 15", s.LineCount())
	}
}

func TestApplyRemoveReversedArguments(t *testing.T) {
	s := mustStore(t, 20)
	gen := beginRun(t, s, 20)
	s.Record(gen, 5, Diagnostic{Severity: SevError, Message: "doomed"})
	if err := s.ApplyRemove(9, 4, 15); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Error("removal range should be normalized regardless of argument order")
	}
}

func TestKeysStayInRangeUnderEditSequences(t *testing.T) {
	s := mustStore(t, 50)
	gen := beginRun(t, s, 50)
	for line := uint32(1); line <= 50; line += 7 {
		s.Record(gen, line, Diagnostic{Severity: SevWarning, Message: "x"})
	}

	lineCount := 50
	steps := []func() error{
		func() error { lineCount += 4; return s.ApplyInsert(10, lineCount) },
		func() error { lineCount -= 6; return s.ApplyRemove(3, 9, lineCount) },
		func() error { lineCount += 1; return s.ApplyInsert(1, lineCount) },
		func() error { lineCount -= 2; return s.ApplyRemove(20, 22, lineCount) },
		func() error { lineCount += 10; return s.ApplyInsert(uint32(lineCount) - 3, lineCount) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := s.LineCount(); got != uint32(lineCount) {
			t.Fatalf("step %d: LineCount = %d, want %d", i, got, lineCount)
		}
		for _, item := range s.Items() {
			if item.Line < 1 || item.Line > uint32(lineCount) {
				t.Fatalf("step %d: key %d outside [1, %d]", i, item.Line, lineCount)
			}
		}
	}
}

func TestFirstErrorLine(t *testing.T) {
	s := mustStore(t, 30)
	gen := beginRun(t, s, 30)
	if _, ok := s.FirstErrorLine(); ok {
		t.Error("empty store has no error line")
	}
	s.Record(gen, 12, Diagnostic{Severity: SevWarning})
	s.Record(gen, 25, Diagnostic{Severity: SevError})
	s.Record(gen, 8, Diagnostic{Severity: SevError})
	line, ok := s.FirstErrorLine()
	if !ok || line != 8 {
		t.Errorf("FirstErrorLine = %d,%v, want 8,true", line, ok)
	}
}

func TestChangeSignal(t *testing.T) {
	s := mustStore(t, 10)
	var fired int
	s.SetOnChange(func() { fired++ })

	gen := beginRun(t, s, 10)
	base := fired
	s.Record(gen, 1, Diagnostic{Severity: SevHint})
	if fired != base+1 {
		t.Error("successful write must fire the change signal")
	}
	s.Record(gen, 1, Diagnostic{Severity: SevHint, Message: "dup"})
	if fired != base+1 {
		t.Error("discarded write must not fire the change signal")
	}
}
