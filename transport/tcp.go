package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// TCPDialer connects to an IrDA-to-TCP bridge at ep.Address (host:port).
type TCPDialer struct {
	Dialer net.Dialer
}

// Dial connects to the bridge.
func (d *TCPDialer) Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	conn, err := d.Dialer.DialContext(ctx, "tcp", ep.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ep.Address, err)
	}
	return NewConnStream(conn), nil
}

// NewConnStream adapts a net.Conn to a Stream. Read deadlines emulate the
// serial read timeout: a Read that hits the deadline returns 0, nil.
func NewConnStream(conn net.Conn) Stream {
	return &connStream{Conn: conn}
}

type connStream struct {
	net.Conn
	timeout atomic.Int64
	dead    atomic.Bool
}

func (c *connStream) SetReadTimeout(t time.Duration) error {
	c.timeout.Store(int64(t))
	return nil
}

func (c *connStream) Read(p []byte) (int, error) {
	n, err := c.read(p)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, nil
		}
		c.dead.Store(true)
	}
	return n, err
}

// read fails when the deadline cannot be set, which happens once either end
// has closed the connection.
func (c *connStream) read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(time.Duration(c.timeout.Load()))); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *connStream) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		c.dead.Store(true)
	}
	return n, err
}

func (c *connStream) Alive() bool {
	return !c.dead.Load()
}
