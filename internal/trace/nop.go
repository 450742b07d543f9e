package trace

// nopTracer drops every event. It backs the Nop singleton handed out
// wherever a caller configures no trace sink, so the rest of the module
// never nil-checks its tracer.
type nopTracer struct{}

func (nopTracer) Emit(Event) {}

func (nopTracer) Flush() error { return nil }

func (nopTracer) Close() error { return nil }

func (nopTracer) Level() Level { return LevelOff }

func (nopTracer) Enabled() bool { return false }

// Nop is the shared tracer for disabled tracing.
var Nop Tracer = nopTracer{}
