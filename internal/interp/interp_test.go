package interp

import (
	"testing"

	"lintflow/internal/diag"
)

const compilerRules = `(.+?):(\d+):(\d+) Error: (.+)`

func TestInterpretCompilerError(t *testing.T) {
	it, err := New(Rules{Error: compilerRules})
	if err != nil {
		t.Fatal(err)
	}
	c, ok := it.Interpret("main.c:10:5 Error: missing semicolon")
	if !ok {
		t.Fatal("expected a match")
	}
	if c.File != "main.c" || c.Line != 10 || c.Column != 5 {
		t.Errorf("position = %s:%d:%d, want main.c:10:5", c.File, c.Line, c.Column)
	}
	if c.Severity != diag.SevError {
		t.Errorf("severity = %v, want error", c.Severity)
	}
	if c.Message != "missing semicolon" {
		t.Errorf("message = %q, want %q", c.Message, "missing semicolon")
	}
}

func TestStripPattern(t *testing.T) {
	it, err := New(Rules{
		Warning: `(.+?):(\d+):(\d+): (.+)`,
		Strip:   ` \[W\d+\]$`,
	})
	if err != nil {
		t.Fatal(err)
	}
	c, ok := it.Interpret("foo.py:3:1: variable unused [W501]")
	if !ok {
		t.Fatal("expected a match")
	}
	if c.Message != "variable unused" {
		t.Errorf("message = %q, want %q", c.Message, "variable unused")
	}
}

func TestTryOrderHighestSeverityFirst(t *testing.T) {
	// Both patterns match the same line; the error rule must win.
	it, err := New(Rules{
		Error:   `(.+?):(\d+):(\d+): (.+)`,
		Warning: `(.+?):(\d+):(\d+): (.+)`,
		Hint:    `(.+?):(\d+):(\d+): (.+)`,
	})
	if err != nil {
		t.Fatal(err)
	}
	c, ok := it.Interpret("a.go:1:1: something")
	if !ok {
		t.Fatal("expected a match")
	}
	if c.Severity != diag.SevError {
		t.Errorf("severity = %v, want error (fixed try order)", c.Severity)
	}
}

func TestInterpretRejections(t *testing.T) {
	it, err := New(Rules{Error: `(.+?):(\d+|\w+):(\d+):(.+)`})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		line string
	}{
		{"no pattern matches", "checking 14 files..."},
		{"empty line", ""},
		{"non-numeric line capture", "a.c:abc:5:oops"},
		{"zero line number", "a.c:0:5:oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := it.Interpret(tt.line); ok {
				t.Errorf("Interpret(%q) matched, want reject", tt.line)
			}
		})
	}
}

func TestNewRejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"invalid regexp", Rules{Error: `(.+?):(\d+`}},
		{"too few captures", Rules{Error: `(.+?):(\d+):(\d+) .+`}},
		{"too many captures", Rules{Warning: `(.+?):(\d+):(\d+):(\d+):(.+)`}},
		{"no patterns at all", Rules{}},
		{"invalid strip", Rules{Error: compilerRules, Strip: `[`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.rules); err == nil {
				t.Error("expected a compile error")
			}
		})
	}
}

func TestStripRemovesAllOccurrences(t *testing.T) {
	it, err := New(Rules{
		Hint:  `(.+?):(\d+):(\d+): (.+)`,
		Strip: `<[^>]*>`,
	})
	if err != nil {
		t.Fatal(err)
	}
	c, ok := it.Interpret("x.rs:2:8: <lint> shadowed name <lint>")
	if !ok {
		t.Fatal("expected a match")
	}
	if c.Message != " shadowed name " {
		t.Errorf("message = %q, want all strip matches removed", c.Message)
	}
}
