package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
// The ordering is meaningful: higher values win merge conflicts.
type Severity uint8

const (
	// SevHint is for stylistic or informational findings.
	SevHint Severity = iota
	// SevWarning is for findings that are probably wrong but not fatal.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevHint:
		return "hint"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "hint":
		return SevHint, nil
	case "warning":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevHint, fmt.Errorf("unknown severity %q", s)
}
