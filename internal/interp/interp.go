// Package interp turns raw linter output lines into diagnostic candidates.
//
// An Interpreter is built from up to three severity patterns plus an optional
// strip pattern. Each severity pattern must capture exactly four groups:
// source-file path, 1-based line, 1-based column, message text. Patterns are
// tried in a fixed order, highest severity first, so a line that both the
// error and the warning rule would match is always classified as an error.
package interp

import (
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"lintflow/internal/diag"
)

// Rules carries the uncompiled pattern set of one linter, as written in its
// registration (regular expression source text). Empty severity entries are
// allowed as long as at least one is set; Strip is optional.
type Rules struct {
	Hint    string
	Warning string
	Error   string
	Strip   string
}

// Candidate is a successfully interpreted output line. It still has to pass
// the store's merge rules (and the engine's same-file check) before it
// becomes a stored diagnostic.
type Candidate struct {
	File     string
	Line     uint32
	Column   uint32
	Severity diag.Severity
	Message  string
}

type severityRule struct {
	sev diag.Severity
	re  *regexp.Regexp
}

// Interpreter classifies raw output lines. Safe for concurrent use.
type Interpreter struct {
	rules []severityRule
	strip *regexp.Regexp
}

// captureCount is the contract every severity pattern must satisfy:
// (file, line, column, message).
const captureCount = 4

// New compiles a rule set. A malformed or mis-capturing pattern is an error
// here, at registration, rather than later in the middle of a stream; the
// error is fatal to the one linter spec being registered, nothing else.
func New(r Rules) (*Interpreter, error) {
	it := &Interpreter{}
	// Try order: highest severity first.
	for _, entry := range []struct {
		name string
		sev  diag.Severity
		src  string
	}{
		{"error", diag.SevError, r.Error},
		{"warning", diag.SevWarning, r.Warning},
		{"hint", diag.SevHint, r.Hint},
	} {
		if entry.src == "" {
			continue
		}
		re, err := regexp.Compile(entry.src)
		if err != nil {
			return nil, fmt.Errorf("%s pattern: %w", entry.name, err)
		}
		if re.NumSubexp() != captureCount {
			return nil, fmt.Errorf("%s pattern: has %d capture groups, need %d (file, line, column, message)",
				entry.name, re.NumSubexp(), captureCount)
		}
		it.rules = append(it.rules, severityRule{sev: entry.sev, re: re})
	}
	if len(it.rules) == 0 {
		return nil, fmt.Errorf("no severity patterns configured")
	}
	if r.Strip != "" {
		strip, err := regexp.Compile(r.Strip)
		if err != nil {
			return nil, fmt.Errorf("strip pattern: %w", err)
		}
		it.strip = strip
	}
	return it, nil
}

// Interpret matches rawLine against the severity patterns in order. It
// reports false for lines that are not diagnostics (banners, progress noise)
// and for lines whose numeric captures do not parse; neither case is an
// error condition for the stream.
func (it *Interpreter) Interpret(rawLine string) (Candidate, bool) {
	for _, rule := range it.rules {
		m := rule.re.FindStringSubmatch(rawLine)
		if m == nil {
			continue
		}
		line, ok := parseLineno(m[2])
		if !ok {
			return Candidate{}, false
		}
		col, ok := parseLineno(m[3])
		if !ok {
			return Candidate{}, false
		}
		msg := m[4]
		if it.strip != nil {
			msg = it.strip.ReplaceAllString(msg, "")
		}
		return Candidate{
			File:     m[1],
			Line:     line,
			Column:   col,
			Severity: rule.sev,
			Message:  norm.NFC.String(msg),
		}, true
	}
	return Candidate{}, false
}

func parseLineno(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n < 1 {
		return 0, false
	}
	return uint32(n), true
}
