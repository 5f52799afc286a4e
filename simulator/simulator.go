// Package simulator emulates a Polimaster pager on the far side of an
// infrared link. It implements transport.Dialer, so a transport.Session can
// run against it unchanged.
package simulator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-pmeeprom/protocol"
	"github.com/moffa90/go-pmeeprom/transport"
)

// MemorySize is the simulated EEPROM size.
const MemorySize = 1 << 16

// DefaultLatency is the typical delay between request and response.
const DefaultLatency = 130 * time.Millisecond

// ErrOutOfRange is returned by Dial while the device is unplugged.
var ErrOutOfRange = errors.New("device out of range")

// Device is a simulated pager.
//
// Device is safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	mem       [MemorySize]byte
	addr      uint16
	latency   time.Duration
	drop      int
	garble    func([]byte) []byte
	unplugged bool
	requests  int
	dials     int
	stream    *stream
}

// Option configures a Device.
type Option func(*Device)

// WithLatency sets the response delay.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) {
		if d >= 0 {
			dev.latency = d
		}
	}
}

// WithImage loads data into the EEPROM starting at address 0.
func WithImage(data []byte) Option {
	return func(dev *Device) {
		copy(dev.mem[:], data)
	}
}

// WithGarble installs a hook that rewrites every response before it is sent.
func WithGarble(fn func(resp []byte) []byte) Option {
	return func(dev *Device) {
		dev.garble = fn
	}
}

// New creates a simulated pager with an erased (0xFF) EEPROM.
func New(opts ...Option) *Device {
	d := &Device{latency: DefaultLatency}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DropFirst makes the device ignore the next n requests.
func (d *Device) DropFirst(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop = n
}

// Unplug takes the device out of range: the open stream dies and dialing
// fails until Plug is called.
func (d *Device) Unplug() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unplugged = true
}

// Plug brings the device back in range.
func (d *Device) Plug() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unplugged = false
}

// Load writes data into the EEPROM at addr.
func (d *Device) Load(addr uint16, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.mem[addr:], data)
}

// Memory returns a copy of n bytes of EEPROM starting at addr.
func (d *Device) Memory(addr uint16, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	end := int(addr) + n
	if end > MemorySize {
		end = MemorySize
	}
	return append([]byte(nil), d.mem[addr:end]...)
}

// Requests returns the number of requests received, dropped ones included.
func (d *Device) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// Dials returns the number of successful Dial calls.
func (d *Device) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Dial opens a link to the device. A previous link is closed.
func (d *Device) Dial(ctx context.Context, ep transport.Endpoint) (transport.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unplugged {
		return nil, ErrOutOfRange
	}
	if d.stream != nil {
		d.stream.closeLocked()
	}
	d.dials++
	d.stream = &stream{dev: d}
	return d.stream, nil
}

// handle runs one request and returns the response, or nil when the device
// stays silent. Called with d.mu held.
func (d *Device) handle(req []byte) []byte {
	d.requests++
	if d.drop > 0 {
		d.drop--
		return nil
	}

	var resp []byte
	switch {
	case len(req) == protocol.SetAddressFrameSize && bytes.Equal(req[:protocol.PayloadOffset], protocol.BuildSetAddressCmd(0)[:protocol.PayloadOffset]):
		d.addr = uint16(req[protocol.PayloadOffset]) | uint16(req[protocol.PayloadOffset+1])<<8
		resp = protocol.AckPattern()

	case len(req) == protocol.WriteBytesFrameSize && bytes.Equal(req[:protocol.PayloadOffset], protocol.BuildWriteBytesCmd(0, 0)[:protocol.PayloadOffset]):
		d.mem[d.addr] = req[protocol.PayloadOffset]
		d.mem[d.addr+1] = req[protocol.PayloadOffset+1]
		resp = protocol.AckPattern()

	case bytes.Equal(req, protocol.BuildReadBytesCmd()):
		resp = append(protocol.DataAckPattern(), d.mem[d.addr], d.mem[d.addr+1])

	default:
		return nil
	}

	if d.garble != nil {
		resp = d.garble(resp)
	}
	return resp
}

// stream is the host end of the simulated link.
type stream struct {
	dev *Device

	// guarded by dev.mu
	pending []byte
	readyAt time.Time
	timeout time.Duration
	closed  bool
}

var _ transport.Stream = (*stream)(nil)

func (s *stream) Write(p []byte) (int, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.closed || s.dev.unplugged {
		return 0, io.ErrClosedPipe
	}
	if resp := s.dev.handle(p); resp != nil {
		if len(s.pending) == 0 {
			s.readyAt = time.Now().Add(s.dev.latency)
		}
		s.pending = append(s.pending, resp...)
	}
	return len(p), nil
}

// Read returns buffered response bytes once the latency has passed, or 0, nil
// after the read timeout.
func (s *stream) Read(p []byte) (int, error) {
	s.dev.mu.Lock()
	deadline := time.Now().Add(s.timeout)
	s.dev.mu.Unlock()

	for {
		s.dev.mu.Lock()
		if s.closed || s.dev.unplugged {
			s.dev.mu.Unlock()
			return 0, io.ErrClosedPipe
		}
		now := time.Now()
		if len(s.pending) > 0 && !now.Before(s.readyAt) {
			n := copy(p, s.pending)
			s.pending = s.pending[n:]
			s.dev.mu.Unlock()
			return n, nil
		}
		wait := deadline.Sub(now)
		if len(s.pending) > 0 {
			if untilReady := s.readyAt.Sub(now); untilReady < wait {
				wait = untilReady
			}
		}
		s.dev.mu.Unlock()

		if wait <= 0 {
			return 0, nil
		}
		time.Sleep(wait)
	}
}

func (s *stream) SetReadTimeout(t time.Duration) error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.timeout = t
	return nil
}

func (s *stream) Close() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *stream) closeLocked() {
	s.closed = true
	s.pending = nil
	if s.dev.stream == s {
		s.dev.stream = nil
	}
}

// Alive reports false once the device is unplugged.
func (s *stream) Alive() bool {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	return !s.closed && !s.dev.unplugged
}
