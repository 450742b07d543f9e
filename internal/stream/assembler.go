package stream

// Assembler builds output lines from a raw byte stream.
// '\r' is dropped, '\n' completes the pending line and resets the buffer.
type Assembler struct {
	buf []byte
}

// Feed consumes one byte and returns the completed line, if this byte
// finished one.
func (a *Assembler) Feed(b byte) (string, bool) {
	switch b {
	case '\r':
		return "", false
	case '\n':
		line := string(a.buf)
		a.buf = a.buf[:0]
		return line, true
	default:
		a.buf = append(a.buf, b)
		return "", false
	}
}

// Flush returns the trailing unterminated line at EOF, if any.
func (a *Assembler) Flush() (string, bool) {
	if len(a.buf) == 0 {
		return "", false
	}
	line := string(a.buf)
	a.buf = a.buf[:0]
	return line, true
}
