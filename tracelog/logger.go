package tracelog

// Logger receives trace events. Log is called while the transport holds the
// link, so implementations must be safe for concurrent use and must not block.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// Tee returns a Logger that hands each event to every non-nil logger in
// order. It returns NoopLogger when none are left and the logger itself when
// only one is.
func Tee(loggers ...Logger) Logger {
	var tee teeLogger
	for _, l := range loggers {
		switch l.(type) {
		case nil, NoopLogger:
			continue
		}
		tee = append(tee, l)
	}

	switch len(tee) {
	case 0:
		return NoopLogger{}
	case 1:
		return tee[0]
	}
	return tee
}

type teeLogger []Logger

func (t teeLogger) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}
