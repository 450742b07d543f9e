// Package status renders one-line diagnostic summaries for a status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lintflow/internal/diag"
)

var (
	hintColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
)

// SeverityColor returns the color used for a severity everywhere the CLI
// prints diagnostics.
func SeverityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return hintColor
	}
}

// Line renders the status line for a document: per-severity counts, then
// either the diagnostic under the cursor or a pointer to the first error.
// The result is truncated to width terminal cells (ANSI coloring applied
// after truncation, so escape codes do not count against the width).
func Line(store *diag.Store, curLine uint32, width int) string {
	hints, warnings, errors := store.Counts()
	if hints+warnings+errors == 0 {
		return truncate(okColor.Sprint("no issues"), "no issues", width)
	}

	var counts []string
	var plainCounts []string
	if errors > 0 {
		counts = append(counts, errorColor.Sprintf("%dE", errors))
		plainCounts = append(plainCounts, fmt.Sprintf("%dE", errors))
	}
	if warnings > 0 {
		counts = append(counts, warningColor.Sprintf("%dW", warnings))
		plainCounts = append(plainCounts, fmt.Sprintf("%dW", warnings))
	}
	if hints > 0 {
		counts = append(counts, hintColor.Sprintf("%dH", hints))
		plainCounts = append(plainCounts, fmt.Sprintf("%dH", hints))
	}

	detail, plainDetail := pointer(store, curLine)
	colored := strings.Join(counts, " ")
	plain := strings.Join(plainCounts, " ")
	if detail != "" {
		colored += "  " + detail
		plain += "  " + plainDetail
	}
	return truncate(colored, plain, width)
}

// pointer picks what the right-hand side of the status line shows: the
// diagnostic under the cursor if there is one, the first error otherwise.
func pointer(store *diag.Store, curLine uint32) (colored, plain string) {
	if d, ok := store.OnLine(curLine); ok {
		plain = fmt.Sprintf("%s: %s", d.Severity, d.Message)
		colored = fmt.Sprintf("%s: %s", SeverityColor(d.Severity).Sprint(d.Severity.String()), d.Message)
		return colored, plain
	}
	if line, ok := store.FirstErrorLine(); ok {
		plain = fmt.Sprintf("first error at line %d", line)
		colored = errorColor.Sprint(plain)
		return colored, plain
	}
	return "", ""
}

// truncate cuts to width cells using the plain (uncolored) text to measure.
// When nothing is cut the colored form is returned untouched.
func truncate(colored, plain string, width int) string {
	if width <= 0 || runewidth.StringWidth(plain) <= width {
		return colored
	}
	return runewidth.Truncate(plain, width, "…")
}
