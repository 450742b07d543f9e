package registry

import (
	"testing"

	"lintflow/internal/interp"
)

func testInterp(t *testing.T) *interp.Interpreter {
	t.Helper()
	it, err := interp.New(interp.Rules{Error: `(.+?):(\d+):(\d+): (.+)`})
	if err != nil {
		t.Fatal(err)
	}
	return it
}

func spec(t *testing.T, name string, patterns ...string) *Spec {
	t.Helper()
	return &Spec{
		Name:     name,
		Patterns: patterns,
		Command:  name + " $filename",
		Interp:   testInterp(t),
	}
}

func TestResolveRegistrationOrder(t *testing.T) {
	r := New(nil)
	if err := r.Register(spec(t, "generic", "*.c", "*.h")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(spec(t, "strict", "*.c")); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Resolve("/src/main.c")
	if !ok {
		t.Fatal("expected a match for /src/main.c")
	}
	if got.Name != "generic" {
		t.Errorf("resolved %q, want the earliest registered match %q", got.Name, "generic")
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := New(nil)
	if err := r.Register(spec(t, "pylint", "*.py")); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Resolve("/src/main.c"); ok {
		t.Error("expected no match for an unregistered extension")
	}
}

func TestDuplicateNameOverridesInPlace(t *testing.T) {
	r := New(nil)
	if err := r.Register(spec(t, "clint", "*.c")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(spec(t, "other", "*.c")); err != nil {
		t.Fatal(err)
	}

	replacement := spec(t, "clint", "*.c")
	replacement.Command = "clint --strict $filename"
	if err := r.Register(replacement); err != nil {
		t.Fatal(err)
	}

	// The override keeps its original position, so it still wins over "other".
	got, ok := r.Resolve("/src/x.c")
	if !ok {
		t.Fatal("expected a match for /src/x.c")
	}
	if got.Command != "clint --strict $filename" {
		t.Errorf("resolved command %q, want the overridden spec first", got.Command)
	}
	if len(r.Specs()) != 2 {
		t.Errorf("Specs() = %d entries, want 2", len(r.Specs()))
	}
}

func TestMatchPatternForms(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"basename glob", "*.c", "/deep/nested/main.c", true},
		{"basename glob miss", "*.c", "/deep/nested/main.go", false},
		{"doublestar path", "/src/**/*.py", "/src/pkg/util/x.py", true},
		{"doublestar path miss", "/src/**/*.py", "/other/x.py", false},
		{"exact basename", "Makefile", "/proj/Makefile", true},
		{"alternation", "*.{cc,cpp}", "/a/b.cpp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec(t, "x", tt.pattern)
			if got := s.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	r := New(nil)
	tests := []struct {
		name string
		spec *Spec
	}{
		{"nil spec", nil},
		{"no name", &Spec{Patterns: []string{"*.c"}, Command: "x", Interp: testInterp(t)}},
		{"no patterns", &Spec{Name: "x", Command: "x", Interp: testInterp(t)}},
		{"empty command", &Spec{Name: "x", Patterns: []string{"*.c"}, Command: "  ", Interp: testInterp(t)}},
		{"no interpreter", &Spec{Name: "x", Patterns: []string{"*.c"}, Command: "x"}},
		{"bad pattern", &Spec{Name: "x", Patterns: []string{"["}, Command: "x", Interp: testInterp(t)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.spec); err == nil {
				t.Error("expected a registration error")
			}
		})
	}
}
