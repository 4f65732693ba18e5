package chat

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory ConnLike. Frames written to in are read by the
// gateway; frames the gateway writes land on out.
type fakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.in:
		return websocket.TextMessage, b, nil
	case <-f.closed:
		return 0, nil, io.EOF
	}
}

func (f *fakeConn) WriteMessage(_ int, b []byte) error {
	select {
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case f.out <- b:
		return nil
	case <-f.closed:
		return io.ErrClosedPipe
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) emit(t *testing.T, event string, data interface{}) {
	t.Helper()
	b, err := encode(event, data)
	require.NoError(t, err)
	f.in <- b
}

func (f *fakeConn) raw(b string) {
	f.in <- []byte(b)
}

// next waits for the first frame carrying event, skipping any others.
func (f *fakeConn) next(t *testing.T, event string) Envelope {
	t.Helper()
	return f.until(t, event, func(Envelope) bool { return true })
}

// until waits for a frame carrying event that also satisfies match.
func (f *fakeConn) until(t *testing.T, event string, match func(Envelope) bool) Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b := <-f.out:
			var env Envelope
			require.NoError(t, json.Unmarshal(b, &env))
			if env.Event == event && match(env) {
				return env
			}
		case <-deadline:
			t.Fatalf("no %s frame within deadline", event)
			return Envelope{}
		}
	}
}

// none asserts that no frame carrying event arrives within wait.
func (f *fakeConn) none(t *testing.T, event string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case b := <-f.out:
			var env Envelope
			require.NoError(t, json.Unmarshal(b, &env))
			require.NotEqual(t, event, env.Event, "unexpected frame %s", b)
		case <-deadline:
			return
		}
	}
}
