package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// fakeStream is an in-memory half-duplex link. respond decides, per write,
// what the device answers; nil means it stays silent. With hangUp set, the
// read that drains the answer also reports io.EOF.
type fakeStream struct {
	mu       sync.Mutex
	pending  []byte
	writes   [][]byte
	timeout  time.Duration
	closed   int
	alive    bool
	readErr  error
	writeErr error
	hangUp   bool
	respond  func(req []byte, index int) []byte
}

func newFakeStream(respond func(req []byte, index int) []byte) *fakeStream {
	return &fakeStream{respond: respond, alive: true}
}

func (f *fakeStream) Read(p []byte) (int, error) {
	f.mu.Lock()
	if f.closed > 0 {
		f.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if f.readErr != nil {
		err := f.readErr
		f.mu.Unlock()
		return 0, err
	}
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		var err error
		if f.hangUp && len(f.pending) == 0 {
			f.readErr = io.EOF
			f.alive = false
			err = io.EOF
		}
		f.mu.Unlock()
		return n, err
	}
	timeout := f.timeout
	f.mu.Unlock()

	time.Sleep(timeout)
	return 0, nil
}

func (f *fakeStream) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed > 0 {
		return 0, io.ErrClosedPipe
	}
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	if f.respond != nil {
		if resp := f.respond(p, len(f.writes)-1); resp != nil {
			f.pending = append(f.pending, resp...)
		}
	}
	return len(p), nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeStream) SetReadTimeout(t time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = t
	return nil
}

func (f *fakeStream) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeStream) setAlive(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = v
}

func (f *fakeStream) inject(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, b...)
}

func (f *fakeStream) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeStream) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDialer hands out streams from next, counting dials. failFirst dials fail.
type fakeDialer struct {
	dials     atomic.Int32
	closes    atomic.Int32
	failFirst int32
	failAll   atomic.Bool
	next      func() *fakeStream
}

func (d *fakeDialer) Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	n := d.dials.Add(1)
	if d.failAll.Load() || n <= d.failFirst {
		return nil, errors.New("device out of range")
	}
	return d.next(), nil
}

func (d *fakeDialer) Close() error {
	d.closes.Add(1)
	return nil
}

// echoAck answers every request with an ack carrying the request's first byte.
func echoAck(req []byte, _ int) []byte {
	return []byte{0xA0, 0x00, 0x03, req[0]}
}

func fastOptions() []Option {
	return []Option{
		WithResponseTimeout(30 * time.Millisecond),
		WithResendAttempts(2),
		WithPollInterval(time.Millisecond),
		WithQuietPeriod(3 * time.Millisecond),
		WithMaintenanceInterval(5 * time.Millisecond),
	}
}
