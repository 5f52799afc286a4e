// Package tracelog captures a byte-level trace of the infrared link.
//
// Every frame written to the pager, every response read back, every session
// state transition and every failed exchange can be recorded as an Event.
// Tracing is separate from operational logging (slog): a trace is a complete,
// machine-readable record of what went over the wire.
//
// # Basic Usage
//
//	// Print frames to the console
//	tracer := tracelog.NewSlogAdapter(slog.Default())
//
//	// Record to a CBOR file that `pmeeprom trace` can replay
//	fileTracer, err := tracelog.NewFileLogger("session.ptrace")
//
//	// Both
//	tracer := tracelog.Tee(fileTracer, tracelog.NewSlogAdapter(logger))
//
//	sess := transport.NewSession(dialer, ep, transport.WithTracer(tracer))
//
// # File Format
//
// Trace files are a plain concatenation of CBOR-encoded events using integer
// map keys. FileLogger stamps every event with the endpoint of its session.
// Use NewReader to iterate over them.
package tracelog
