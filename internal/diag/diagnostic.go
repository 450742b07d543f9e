package diag

// Diagnostic is a single finding anchored to one line of a document.
// It is a value type; its identity is the line key that maps to it.
type Diagnostic struct {
	Severity Severity
	Column   uint32 // 1-based
	Message  string
}

// LineDiagnostic pairs a diagnostic with its line key, for sorted listings.
type LineDiagnostic struct {
	Line uint32
	Diag Diagnostic
}
