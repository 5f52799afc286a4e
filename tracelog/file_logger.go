package tracelog

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends trace events to a CBOR file.
//
// The transport only names the endpoint on state events. FileLogger copies
// the endpoint of each session's latest state event onto its frame and error
// events, so every record in the file says which pager it belongs to.
type FileLogger struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *cbor.Encoder
	endpoints map[string]string // session ID -> endpoint
	summary   Summary
	closed    bool
}

// Summary counts what a FileLogger recorded.
type Summary struct {
	Sessions  int
	Requests  int
	Responses int
	Resends   int
	Errors    int
	Dropped   int // events that failed to encode
}

func (s Summary) String() string {
	return fmt.Sprintf("%d requests (%d resends), %d responses, %d errors",
		s.Requests, s.Resends, s.Responses, s.Errors)
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileLogger{
		file:      f,
		encoder:   NewEncoder(f),
		endpoints: make(map[string]string),
	}, nil
}

// Log records event. Events logged after Close are ignored.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	if event.Category == CategoryState {
		if _, seen := l.endpoints[event.SessionID]; !seen {
			l.summary.Sessions++
			l.endpoints[event.SessionID] = event.Endpoint
		} else if event.Endpoint != "" {
			l.endpoints[event.SessionID] = event.Endpoint
		}
	} else if event.Endpoint == "" {
		event.Endpoint = l.endpoints[event.SessionID]
	}

	// Encoding errors are counted, never reported to the link.
	if err := l.encoder.Encode(event); err != nil {
		l.summary.Dropped++
		return
	}
	l.count(event)
}

func (l *FileLogger) count(event Event) {
	switch event.Category {
	case CategoryFrame:
		if event.Direction == DirectionIn {
			l.summary.Responses++
			return
		}
		l.summary.Requests++
		if event.Attempt > 0 {
			l.summary.Resends++
		}
	case CategoryError:
		l.summary.Errors++
	}
}

// Summary returns the counts so far.
func (l *FileLogger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Close closes the trace file. Close is idempotent.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
