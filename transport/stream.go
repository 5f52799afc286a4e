package transport

import (
	"context"
	"io"
	"time"
)

// Endpoint identifies the device a session talks to. Address is dialer
// specific: a serial device path for SerialDialer, host:port for TCPDialer.
type Endpoint struct {
	Address string
	Name    string
}

// String returns the endpoint for display.
func (e Endpoint) String() string {
	if e.Name == "" {
		return e.Address
	}
	return e.Name + " (" + e.Address + ")"
}

// Stream is a connected byte link to the device.
//
// Read must honour the timeout set by SetReadTimeout and return 0, nil when
// no byte arrived in time. go.bug.st/serial ports behave exactly like this.
type Stream interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// LivenessChecker is implemented by streams that can tell whether the
// underlying handle is still usable without doing I/O.
type LivenessChecker interface {
	Alive() bool
}

// Dialer opens a Stream to an endpoint. A Dialer that also implements
// io.Closer is closed when the owning session is closed.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Stream, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, ep Endpoint) (Stream, error)

// Dial calls f(ctx, ep).
func (f DialerFunc) Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	return f(ctx, ep)
}
