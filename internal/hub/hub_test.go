package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) SetReadLimit(int64) {}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetPongHandler(func(appData string) error) {}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.written))
	for _, w := range c.written {
		out = append(out, string(w))
	}
	return out
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	h := New("status", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func TestHubBroadcast(t *testing.T) {
	h, _ := startHub(t)

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		c := NewClient(h, conn)
		require.NotNil(t, c)
		go c.Run()
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]any{"connected": true}))

	for _, conn := range conns {
		require.Eventually(t, func() bool {
			msgs := conn.messages()
			return len(msgs) == 1 && msgs[0] == `{"connected":true}`
		}, time.Second, time.Millisecond)
	}
}

func TestHubUnregistersClosedClient(t *testing.T) {
	h, _ := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	// broadcasting with no clients is fine
	h.Broadcast([]byte(`{}`))
}

func TestHubStop(t *testing.T) {
	h, cancel := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-conn.closed:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	require.Equal(t, 0, h.ClientCount())

	require.Nil(t, NewClient(h, newFakeConn()))
}

func TestClientRunWaitsForWriter(t *testing.T) {
	h, _ := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	require.NotNil(t, c)

	returned := make(chan struct{})
	go func() {
		c.Run()
		close(returned)
	}()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	// the writer is gone before Run hands the conn back
	select {
	case <-c.done:
	default:
		t.Fatal("writer still running after Run returned")
	}
}
