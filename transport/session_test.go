package transport

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-pmeeprom/tracelog"
)

type recordingTracer struct {
	mu     sync.Mutex
	events []tracelog.Event
}

func (r *recordingTracer) Log(e tracelog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingTracer) frames(dir tracelog.Direction) []tracelog.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tracelog.Event
	for _, e := range r.events {
		if e.Category == tracelog.CategoryFrame && e.Direction == dir {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingTracer) count(cat tracelog.Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Category == cat {
			n++
		}
	}
	return n
}

// newTestSession returns a connected session over a single fake stream.
func newTestSession(t *testing.T, stream *fakeStream, opts ...Option) (*Session, *fakeDialer) {
	t.Helper()

	d := &fakeDialer{next: func() *fakeStream { return stream }}
	s := NewSession(d, Endpoint{Address: "fake0"}, append(fastOptions(), opts...)...)
	t.Cleanup(func() { _ = s.Close() })

	require.Eventually(t, func() bool { return s.State() == StateConnected },
		time.Second, time.Millisecond)
	return s, d
}

func TestNewSession_NilDialerPanics(t *testing.T) {
	assert.Panics(t, func() { NewSession(nil, Endpoint{}) })
}

func TestSession_Exchange(t *testing.T) {
	stream := newFakeStream(echoAck)
	s, _ := newTestSession(t, stream)

	resp, err := s.Exchange(context.Background(), []byte{0x83, 0x00, 0x05, 0xB1, 0x9C})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x83}, resp)
	assert.Equal(t, 1, stream.writeCount())
}

func TestSession_ExchangeTimeout(t *testing.T) {
	stream := newFakeStream(nil)
	s, _ := newTestSession(t, stream)

	start := time.Now()
	resp, err := s.Exchange(context.Background(), []byte{0x01})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTimeout)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Resends)

	// One send plus two resends, each given the full response timeout.
	assert.Equal(t, 3, stream.writeCount())
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestSession_ExchangeZeroResends(t *testing.T) {
	stream := newFakeStream(nil)
	s, _ := newTestSession(t, stream, WithResendAttempts(0))

	_, err := s.Exchange(context.Background(), []byte{0x01})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, stream.writeCount())
}

func TestSession_ExchangeRecoversOnResend(t *testing.T) {
	tests := []struct {
		name        string
		answerOn    int
		wantWrites  int
		wantResends int
	}{
		{"first attempt", 0, 1, 0},
		{"after first resend", 1, 2, 1},
		{"after second resend", 2, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := newFakeStream(func(req []byte, index int) []byte {
				if index < tt.answerOn {
					return nil
				}
				return echoAck(req, index)
			})
			tracer := &recordingTracer{}
			s, _ := newTestSession(t, stream, WithTracer(tracer))

			resp, err := s.Exchange(context.Background(), []byte{0x82})
			require.NoError(t, err)
			assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x82}, resp)
			assert.Equal(t, tt.wantWrites, stream.writeCount())

			out := tracer.frames(tracelog.DirectionOut)
			require.Len(t, out, tt.wantWrites)
			for i, e := range out {
				assert.Equal(t, i, e.Attempt)
			}
			assert.Len(t, tracer.frames(tracelog.DirectionIn), 1)
		})
	}
}

func TestSession_ExchangeFlushesStaleInput(t *testing.T) {
	stream := newFakeStream(echoAck)
	s, _ := newTestSession(t, stream)

	// Late answer of an abandoned exchange.
	stream.inject([]byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05, 0xDE, 0xAD})

	resp, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x83}, resp)
}

func TestSession_ExchangeAndCheck(t *testing.T) {
	tests := []struct {
		name    string
		reply   []byte
		pattern []byte
		wantErr bool
	}{
		{"exact match", []byte{0xA0, 0x00, 0x03}, []byte{0xA0, 0x00, 0x03}, false},
		{"prefix match", []byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05, 0x12, 0x34}, []byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05}, false},
		{"wrong byte", []byte{0xA0, 0x00, 0x04}, []byte{0xA0, 0x00, 0x03}, true},
		{"too short", []byte{0xA0, 0x00}, []byte{0xA0, 0x00, 0x03}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.reply
			stream := newFakeStream(func([]byte, int) []byte { return reply })
			s, _ := newTestSession(t, stream)

			resp, err := s.ExchangeAndCheck(context.Background(), []byte{0x83}, tt.pattern)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, KindValidation, Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.reply, resp)
		})
	}
}

func TestSession_ClosedSession(t *testing.T) {
	stream := newFakeStream(echoAck)
	s, d := newTestSession(t, stream)

	require.NoError(t, s.Close())
	dials := d.dials.Load()

	_, err := s.Exchange(context.Background(), []byte{0x01})
	assert.ErrorIs(t, err, ErrDisposed)
	_, err = s.ExchangeAndCheck(context.Background(), []byte{0x01}, []byte{0xA0})
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Equal(t, KindDisposed, Classify(err))

	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, 0, stream.writeCount())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, dials, d.dials.Load(), "no dial after close")
}

func TestSession_CloseIdempotent(t *testing.T) {
	stream := newFakeStream(echoAck)
	s, d := newTestSession(t, stream)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, stream.closeCount())
	assert.Equal(t, int32(1), d.closes.Load())
}

func TestSession_CloseWhileDisconnected(t *testing.T) {
	d := &fakeDialer{}
	d.failAll.Store(true)
	s := NewSession(d, Endpoint{Address: "nowhere"}, fastOptions()...)

	require.Eventually(t, func() bool { return d.dials.Load() >= 2 }, time.Second, time.Millisecond)
	assert.NotPanics(t, func() { _ = s.Close() })
	assert.Equal(t, StateDisposed, s.State())
}

func TestSession_CancelWhileWaitingForLink(t *testing.T) {
	d := &fakeDialer{}
	d.failAll.Store(true)
	s := NewSession(d, Endpoint{Address: "nowhere"}, fastOptions()...)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Exchange(ctx, []byte{0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsCancelled(err))

	// The token was released.
	require.True(t, s.token.TryAcquire(1))
	s.token.Release(1)
}

func TestSession_CancelWhileWaitingForResponse(t *testing.T) {
	stream := newFakeStream(nil)
	s, _ := newTestSession(t, stream, WithResponseTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := s.Exchange(ctx, []byte{0x01})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, stream.writeCount())

	// The session stays usable.
	require.True(t, s.token.TryAcquire(1))
	s.token.Release(1)
	assert.Equal(t, StateConnected, s.State())
}

func TestSession_ConcurrentExchanges(t *testing.T) {
	stream := newFakeStream(echoAck)
	s, _ := newTestSession(t, stream)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	resps := make([][]byte, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resps[i], errs[i] = s.Exchange(context.Background(), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte{0xA0, 0x00, 0x03, byte(i)}, resps[i], "exchange %d got another caller's response", i)
	}
	assert.Equal(t, n, stream.writeCount())
}

func TestSession_ReconnectsAfterLivenessLoss(t *testing.T) {
	first := newFakeStream(echoAck)
	second := newFakeStream(echoAck)
	streams := []*fakeStream{first, second}

	var mu sync.Mutex
	d := &fakeDialer{next: func() *fakeStream {
		mu.Lock()
		defer mu.Unlock()
		s := streams[0]
		if len(streams) > 1 {
			streams = streams[1:]
		}
		return s
	}}
	s := NewSession(d, Endpoint{Address: "fake0"}, fastOptions()...)
	defer s.Close()

	require.Eventually(t, func() bool { return s.State() == StateConnected }, time.Second, time.Millisecond)

	first.setAlive(false)

	require.Eventually(t, func() bool {
		return d.dials.Load() >= 2 && s.State() == StateConnected
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, first.closeCount())

	_, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Equal(t, 0, first.writeCount())
	assert.Equal(t, 1, second.writeCount())
}

func TestSession_RetriesFailedDials(t *testing.T) {
	stream := newFakeStream(echoAck)
	d := &fakeDialer{failFirst: 3, next: func() *fakeStream { return stream }}
	s := NewSession(d, Endpoint{Address: "fake0"}, fastOptions()...)
	defer s.Close()

	// Exchange waits for the link instead of failing.
	resp, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x83}, resp)
	assert.GreaterOrEqual(t, d.dials.Load(), int32(4))
}

func TestSession_LinkLostDuringExchange(t *testing.T) {
	broken := newFakeStream(echoAck)
	broken.writeErr = errors.New("device unplugged")
	healthy := newFakeStream(echoAck)

	var mu sync.Mutex
	dialed := 0
	d := &fakeDialer{next: func() *fakeStream {
		mu.Lock()
		defer mu.Unlock()
		dialed++
		if dialed == 1 {
			return broken
		}
		return healthy
	}}
	tracer := &recordingTracer{}
	s := NewSession(d, Endpoint{Address: "fake0"}, append(fastOptions(), WithTracer(tracer))...)
	defer s.Close()

	_, err := s.Exchange(context.Background(), []byte{0x83})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkLost)
	assert.Equal(t, KindLink, Classify(err))
	assert.Equal(t, 1, broken.closeCount())
	assert.GreaterOrEqual(t, tracer.count(tracelog.CategoryError), 1)

	resp, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x83}, resp)
}

func TestSession_KeepsResponseReadWithHangUp(t *testing.T) {
	first := newFakeStream(echoAck)
	first.hangUp = true
	second := newFakeStream(echoAck)

	var mu sync.Mutex
	dialed := 0
	d := &fakeDialer{next: func() *fakeStream {
		mu.Lock()
		defer mu.Unlock()
		dialed++
		if dialed == 1 {
			return first
		}
		return second
	}}
	s := NewSession(d, Endpoint{Address: "fake0"}, fastOptions()...)
	defer s.Close()

	resp, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x83}, resp)
	assert.Equal(t, 1, first.closeCount(), "hung-up stream is detached")

	resp, err = s.Exchange(context.Background(), []byte{0x84})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0x00, 0x03, 0x84}, resp)
	assert.Equal(t, 1, second.writeCount())
}

func TestSession_TracesStateTransitions(t *testing.T) {
	stream := newFakeStream(echoAck)
	tracer := &recordingTracer{}
	s, _ := newTestSession(t, stream, WithTracer(tracer))
	require.NoError(t, s.Close())

	tracer.mu.Lock()
	defer tracer.mu.Unlock()

	var transitions []string
	for _, e := range tracer.events {
		if e.Category == tracelog.CategoryState {
			assert.Equal(t, s.ID(), e.SessionID)
			assert.Equal(t, "fake0", e.Endpoint)
			transitions = append(transitions, e.OldState+">"+e.NewState)
		}
	}
	assert.Equal(t, []string{
		"DISCONNECTED>CONNECTING",
		"CONNECTING>CONNECTED",
		"CONNECTED>DISPOSED",
	}, transitions)
}

func TestSession_ResponseEndsOnQuiet(t *testing.T) {
	stream := newFakeStream(func([]byte, int) []byte {
		return bytes.Repeat([]byte{0x55}, 200)
	})
	s, _ := newTestSession(t, stream)

	resp, err := s.Exchange(context.Background(), []byte{0x83})
	require.NoError(t, err)
	assert.Len(t, resp, 200)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateDisposed, "DISPOSED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestEndpoint_String(t *testing.T) {
	assert.Equal(t, "/dev/ircomm0", Endpoint{Address: "/dev/ircomm0"}.String())
	assert.Equal(t, "PM1703 (/dev/ircomm0)", Endpoint{Address: "/dev/ircomm0", Name: "PM1703"}.String())
}
