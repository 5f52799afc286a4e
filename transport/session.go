package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/moffa90/go-pmeeprom/tracelog"
)

const (
	// readChunkSize is the buffer used to drain responses.
	readChunkSize = 64

	// maxResponseSize caps a single response; anything beyond it is left on the
	// stream and flushed by the next exchange.
	maxResponseSize = 512

	// maxFlushBytes caps how much stale data one flush discards.
	maxFlushBytes = 4096
)

var errLivenessLost = errors.New("liveness check failed")

// Session owns the connection to one device and serializes all exchanges on it.
//
// Session is safe for concurrent use. Exchanges from several goroutines are
// executed one at a time in no particular order.
type Session struct {
	id       string
	endpoint Endpoint
	dialer   Dialer
	config   Config

	// token is the exclusive-access token: one exchange at a time, and the
	// stream is only detached by the maintenance loop while holding it.
	token *semaphore.Weighted

	mu     sync.Mutex
	state  State
	stream Stream

	disposed  atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a session bound to ep and starts its maintenance loop.
// The session connects in the background; Exchange waits for the link.
// Callers must Close the session to release the link.
//
// Example:
//
//	sess := transport.NewSession(transport.NewSerialDialer(9600),
//	    transport.Endpoint{Address: "/dev/ircomm0"},
//	    transport.WithResendAttempts(3),
//	)
//	defer sess.Close()
func NewSession(dialer Dialer, ep Endpoint, opts ...Option) *Session {
	if dialer == nil {
		panic("dialer cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		endpoint: ep,
		dialer:   dialer,
		config:   cfg,
		token:    semaphore.NewWeighted(1),
		state:    StateDisconnected,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.maintain()

	return s
}

// ID returns the session identifier used in trace events.
func (s *Session) ID() string {
	return s.id
}

// Endpoint returns the device endpoint the session is bound to.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Exchange writes send and returns the device's response.
//
// It waits for exclusive use of the link and for the link to be connected,
// discards any stale input, writes the request, and resends it up to
// ResendAttempts times when no response starts within ResponseTimeout.
// The response is everything received until the stream goes quiet.
//
// Cancelling ctx aborts the exchange at its next suspension point.
func (s *Session) Exchange(ctx context.Context, send []byte) ([]byte, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}

	if err := s.token.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire link: %w", err)
	}
	defer s.token.Release(1)

	stream, err := s.awaitConnected(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.exchange(ctx, stream, send)
	if err != nil && resp != nil {
		// The link failed after the response arrived; keep the answer
		// and let the next exchange wait for a fresh stream.
		s.detach(stream, err)
		return resp, nil
	}
	if err != nil {
		if errors.Is(err, ErrLinkLost) {
			s.detach(stream, err)
		}
		if !IsCancelled(err) {
			s.traceError(err, nil)
		}
		return nil, err
	}

	return resp, nil
}

// ExchangeAndCheck performs Exchange and validates that the response starts
// with pattern. On mismatch it returns a *ValidationError and no bytes.
func (s *Session) ExchangeAndCheck(ctx context.Context, send, pattern []byte) ([]byte, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}

	resp, err := s.Exchange(ctx, send)
	if err != nil {
		return nil, err
	}

	if err := CheckPrefix(resp, pattern); err != nil {
		s.traceError(err, resp)
		return nil, err
	}

	return resp, nil
}

// Close stops the maintenance loop and releases the stream and the dialer
// exactly once. Close is idempotent; every call returns the result of the first.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.disposed.Store(true)
		s.cancel()
		s.wg.Wait()

		s.mu.Lock()
		old := s.state
		stream := s.stream
		s.stream = nil
		s.state = StateDisposed
		s.mu.Unlock()

		s.traceState(old, StateDisposed)

		var errs []error
		if stream != nil {
			if err := stream.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close stream: %w", err))
			}
		}
		if c, ok := s.dialer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close dialer: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)

		s.logDebug("session closed", "session", s.id, "endpoint", s.endpoint.String())
	})
	return s.closeErr
}

// maintain keeps the link connected until the session is closed.
func (s *Session) maintain() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.MaintenanceInterval)
	defer ticker.Stop()

	for {
		s.connectIfNotConnected()

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// connectIfNotConnected runs one maintenance step. Errors are logged and
// retried on the next tick.
func (s *Session) connectIfNotConnected() {
	s.mu.Lock()
	state, stream := s.state, s.stream
	s.mu.Unlock()

	switch state {
	case StateDisposed, StateConnecting:
		return
	case StateConnected:
		if lc, ok := stream.(LivenessChecker); !ok || lc.Alive() {
			return
		}
		// Never pull the stream from under an exchange; the exchange
		// detaches it itself when its I/O fails.
		if !s.token.TryAcquire(1) {
			return
		}
		s.detach(stream, errLivenessLost)
		s.token.Release(1)
	}

	s.dial()
}

func (s *Session) dial() {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.mu.Unlock()
	s.traceState(StateDisconnected, StateConnecting)

	ctx, cancel := context.WithTimeout(s.ctx, s.config.DialTimeout)
	stream, err := s.dialer.Dial(ctx, s.endpoint)
	cancel()

	s.mu.Lock()
	if s.state != StateConnecting {
		// Closed while dialing.
		s.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	if err != nil {
		s.state = StateDisconnected
		s.mu.Unlock()
		s.traceState(StateConnecting, StateDisconnected)
		s.logDebug("connect failed", "endpoint", s.endpoint.String(), "error", err)
		return
	}
	s.stream = stream
	s.state = StateConnected
	s.mu.Unlock()

	s.traceState(StateConnecting, StateConnected)
	s.logInfo("connected", "endpoint", s.endpoint.String(), "session", s.id)
}

// detach drops stream if it is still the attached one.
func (s *Session) detach(stream Stream, reason error) {
	s.mu.Lock()
	if s.state != StateConnected || s.stream != stream {
		s.mu.Unlock()
		return
	}
	s.stream = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	_ = stream.Close()
	s.traceState(StateConnected, StateDisconnected)
	s.logInfo("link dropped", "endpoint", s.endpoint.String(), "reason", reason)
}

// awaitConnected polls until a stream is attached.
func (s *Session) awaitConnected(ctx context.Context) (Stream, error) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait for link: %w", err)
		}

		s.mu.Lock()
		state, stream := s.state, s.stream
		s.mu.Unlock()

		switch state {
		case StateConnected:
			return stream, nil
		case StateDisposed:
			return nil, ErrDisposed
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for link: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// exchange runs one request/response cycle on stream. The caller holds the token.
func (s *Session) exchange(ctx context.Context, stream Stream, send []byte) ([]byte, error) {
	if err := s.flush(ctx, stream); err != nil {
		return nil, err
	}

	if err := s.write(stream, send, 0); err != nil {
		return nil, err
	}

	if err := stream.SetReadTimeout(s.config.PollInterval); err != nil {
		return nil, &LinkError{Op: "configure", Err: err}
	}

	buf := make([]byte, readChunkSize)
	started := time.Now()
	sentAt := started
	resends := 0

	var n int
	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait for response: %w", err)
		}

		n, readErr = stream.Read(buf)
		if n > 0 {
			break
		}
		if readErr != nil {
			return nil, &LinkError{Op: "read", Err: readErr}
		}

		if time.Since(sentAt) < s.config.ResponseTimeout {
			continue
		}
		if resends == s.config.ResendAttempts {
			return nil, &TimeoutError{Resends: resends, Elapsed: time.Since(started)}
		}
		resends++
		s.logDebug("no response, resending", "attempt", resends, "endpoint", s.endpoint.String())
		if err := s.write(stream, send, resends); err != nil {
			return nil, err
		}
		sentAt = time.Now()
	}

	resp := append(make([]byte, 0, readChunkSize), buf[:n]...)

	if readErr == nil {
		if err := stream.SetReadTimeout(s.config.QuietPeriod); err != nil {
			return nil, &LinkError{Op: "configure", Err: err}
		}
	}
	for readErr == nil && len(resp) < maxResponseSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		n, readErr = stream.Read(buf)
		if n == 0 && readErr == nil {
			break
		}
		resp = append(resp, buf[:n]...)
	}

	s.traceFrame(tracelog.DirectionIn, resp, 0)
	if readErr != nil {
		return resp, &LinkError{Op: "read", Err: readErr}
	}
	return resp, nil
}

// flush discards whatever is already buffered on the stream, typically the
// late answer to an abandoned exchange.
func (s *Session) flush(ctx context.Context, stream Stream) error {
	if err := stream.SetReadTimeout(s.config.PollInterval); err != nil {
		return &LinkError{Op: "configure", Err: err}
	}

	buf := make([]byte, readChunkSize)
	discarded := 0
	for discarded < maxFlushBytes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		n, err := stream.Read(buf)
		if err != nil {
			return &LinkError{Op: "flush", Err: err}
		}
		if n == 0 {
			break
		}
		discarded += n
	}

	if discarded > 0 {
		s.logDebug("discarded stale input", "bytes", discarded)
	}
	return nil
}

func (s *Session) write(stream Stream, data []byte, attempt int) error {
	s.traceFrame(tracelog.DirectionOut, data, attempt)
	if _, err := stream.Write(data); err != nil {
		return &LinkError{Op: "write", Err: err}
	}
	return nil
}

func (s *Session) traceFrame(dir tracelog.Direction, data []byte, attempt int) {
	s.config.Tracer.Log(tracelog.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Category:  tracelog.CategoryFrame,
		Direction: dir,
		Attempt:   attempt,
		Data:      append([]byte(nil), data...),
	})
}

func (s *Session) traceState(from, to State) {
	s.config.Tracer.Log(tracelog.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Category:  tracelog.CategoryState,
		Endpoint:  s.endpoint.Address,
		OldState:  from.String(),
		NewState:  to.String(),
	})
}

func (s *Session) traceError(err error, data []byte) {
	s.config.Tracer.Log(tracelog.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Category:  tracelog.CategoryError,
		Message:   err.Error(),
		Data:      append([]byte(nil), data...),
	})
}

func (s *Session) logDebug(msg string, keysAndValues ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (s *Session) logInfo(msg string, keysAndValues ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}
