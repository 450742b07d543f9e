package stream

// Cooperative budget of a run. While no diagnostic has been accepted yet
// (the "restrained" state) the run yields after every restrainedByteBudget
// bytes consumed and after every completed line, so a quiet or chatty tool
// cannot monopolize a scheduler turn while the user is still waiting for
// the first finding. Once at least one diagnostic has been accepted the
// run yields only every foundLineBudget completed lines.
const (
	restrainedByteBudget = 32
	foundLineBudget      = 32
)

// yieldPolicy decides where the read loop hands control back.
// It is pure bookkeeping, separated out so the budget rules are testable
// without spawning processes.
type yieldPolicy struct {
	found bool
	bytes int
	lines int
}

// markFound flips the run out of the restrained state.
func (p *yieldPolicy) markFound() {
	p.found = true
}

// consumedByte records one consumed byte and reports whether this is a
// yield point.
func (p *yieldPolicy) consumedByte() bool {
	if p.found {
		return false
	}
	p.bytes++
	if p.bytes >= restrainedByteBudget {
		p.bytes = 0
		return true
	}
	return false
}

// completedLine records one assembled line and reports whether this is a
// yield point.
func (p *yieldPolicy) completedLine() bool {
	if !p.found {
		p.bytes = 0
		return true
	}
	p.lines++
	if p.lines >= foundLineBudget {
		p.lines = 0
		return true
	}
	return false
}
