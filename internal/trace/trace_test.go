package trace

import (
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		tracer Level
		event  Level
		want   bool
	}{
		{LevelOff, LevelError, false},
		{LevelError, LevelError, true},
		{LevelError, LevelInfo, false},
		{LevelInfo, LevelError, true},
		{LevelInfo, LevelDebug, false},
		{LevelDebug, LevelDebug, true},
		{LevelDebug, LevelOff, false},
	}
	for _, tt := range tests {
		if got := tt.tracer.ShouldEmit(tt.event); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.tracer, tt.event, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "info", "debug"} {
		level, err := ParseLevel(s)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
		if level.String() != s {
			t.Errorf("round trip %q -> %q", s, level.String())
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var sb strings.Builder
	tr := NewStreamTracer(&sb, LevelInfo)

	Infof(tr, "engine", "run started for %s", "main.c")
	Debugf(tr, "stream", "this should be filtered")

	out := sb.String()
	if !strings.Contains(out, "run started for main.c") {
		t.Errorf("info event missing from output: %q", out)
	}
	if strings.Contains(out, "filtered") {
		t.Errorf("debug event leaked through at info level: %q", out)
	}
	if !strings.Contains(out, "[engine]") {
		t.Errorf("component tag missing: %q", out)
	}
}

func TestNopTracer(t *testing.T) {
	if Nop.Enabled() {
		t.Error("nop tracer must report disabled")
	}
	// Must be safe to use everywhere unconditionally.
	Errorf(Nop, "engine", "ignored")
	if err := Nop.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
