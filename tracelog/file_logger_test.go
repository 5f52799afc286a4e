package tracelog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.ptrace")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "trace file was not created")
}

func TestFileLoggerRoundTripThroughReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.ptrace")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	now := time.Now()
	logger.Log(Event{
		Timestamp: now,
		SessionID: "sess-1",
		Category:  CategoryFrame,
		Direction: DirectionOut,
		Data:      []byte{0x83, 0x00, 0x05, 0xB1, 0x9C},
	})
	logger.Log(Event{
		Timestamp: now.Add(130 * time.Millisecond),
		SessionID: "sess-1",
		Category:  CategoryFrame,
		Direction: DirectionIn,
		Data:      []byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05, 0x12, 0x34},
	})
	logger.Log(Event{
		Timestamp: now,
		SessionID: "sess-1",
		Category:  CategoryState,
		OldState:  "CONNECTING",
		NewState:  "CONNECTED",
	})
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, DirectionOut, first.Direction)
	assert.Equal(t, "83 00 05 B1 9C", first.HexData())
	assert.True(t, first.Timestamp.Equal(now), "timestamp precision lost")

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, DirectionIn, second.Direction)
	assert.Equal(t, []byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05, 0x12, 0x34}, second.Data)

	third, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, CategoryState, third.Category)
	assert.Equal(t, "CONNECTED", third.NewState)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.ptrace")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		require.NoError(t, err)
		logger.Log(Event{Timestamp: time.Now(), SessionID: "s", Attempt: i})
		require.NoError(t, logger.Close())
	}

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "x.ptrace"))
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Logging after close is silently ignored.
	logger.Log(Event{SessionID: "late"})
}

func TestFileLoggerConcurrentUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.ptrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), SessionID: "c", Attempt: n})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 200, count)
}

func TestFileLoggerStampsEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.ptrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(Event{SessionID: "a", Category: CategoryState, OldState: "CONNECTING", NewState: "CONNECTED", Endpoint: "/dev/ircomm0"})
	logger.Log(Event{SessionID: "b", Category: CategoryState, OldState: "CONNECTING", NewState: "CONNECTED", Endpoint: "10.0.0.7:4000"})
	logger.Log(Event{SessionID: "a", Category: CategoryFrame, Direction: DirectionOut, Data: []byte{0x83}})
	logger.Log(Event{SessionID: "b", Category: CategoryError, Message: "no response"})
	logger.Log(Event{SessionID: "c", Category: CategoryFrame, Direction: DirectionIn})
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var got []string
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e.SessionID+"@"+e.Endpoint)
	}
	assert.Equal(t, []string{"a@/dev/ircomm0", "b@10.0.0.7:4000", "a@/dev/ircomm0", "b@10.0.0.7:4000", "c@"}, got)
}

func TestFileLoggerSummary(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "x.ptrace"))
	require.NoError(t, err)
	defer logger.Close()

	logger.Log(Event{SessionID: "s", Category: CategoryState, NewState: "CONNECTING", Endpoint: "sim"})
	logger.Log(Event{SessionID: "s", Category: CategoryState, NewState: "CONNECTED", Endpoint: "sim"})
	logger.Log(Event{SessionID: "s", Category: CategoryFrame, Direction: DirectionOut})
	logger.Log(Event{SessionID: "s", Category: CategoryFrame, Direction: DirectionOut, Attempt: 1})
	logger.Log(Event{SessionID: "s", Category: CategoryFrame, Direction: DirectionIn})
	logger.Log(Event{SessionID: "s", Category: CategoryError, Message: "bad ack"})

	sum := logger.Summary()
	assert.Equal(t, Summary{Sessions: 1, Requests: 2, Responses: 1, Resends: 1, Errors: 1}, sum)
	assert.Equal(t, "2 requests (1 resends), 1 responses, 1 errors", sum.String())
}
