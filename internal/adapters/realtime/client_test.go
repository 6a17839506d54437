package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wsServer upgrades every request and hands the connection to fn.
func wsServer(t *testing.T, fn func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectDialsUserPath(t *testing.T) {
	connected := make(chan *http.Request, 1)
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		connected <- r
		conn.ReadMessage()
	})

	client := NewClient(wsURL(srv), Options{Logger: testLogger()})
	defer client.Close()

	require.NoError(t, client.Connect(context.Background(), "user-1", "token-0"))
	assert.Equal(t, domain.ConnectionConnected, client.State())

	select {
	case r := <-connected:
		assert.Equal(t, "/ws/chat/user-1", r.URL.Path)
		assert.Equal(t, "token-0", r.URL.Query().Get("token"))
	case <-time.After(time.Second):
		t.Fatal("server never saw the dial")
	}
}

func TestConnectRequiresUserID(t *testing.T) {
	client := NewClient("ws://localhost:0", Options{Logger: testLogger()})
	defer client.Close()

	err := client.Connect(context.Background(), "", "token-0")
	require.Error(t, err)
	assert.Equal(t, domain.ConnectionDisconnected, client.State())
}

func TestConnectFailureLeavesDisconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(wsURL(srv), Options{Logger: testLogger()})
	defer client.Close()

	err := client.Connect(context.Background(), "user-1", "bad-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, domain.ConnectionDisconnected, client.State())
}

func TestEventsArriveInOrder(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		for i := 0; i < 3; i++ {
			ev := domain.RealtimeEvent{
				Type:    domain.EventTypeNewMessage,
				ChatID:  "chat-1",
				Content: fmt.Sprintf("message %d", i),
			}
			require.NoError(t, conn.WriteJSON(ev))
		}
		conn.ReadMessage()
	})

	client := NewClient(wsURL(srv), Options{Logger: testLogger()})
	defer client.Close()
	require.NoError(t, client.Connect(context.Background(), "user-1", "token-0"))

	for i := 0; i < 3; i++ {
		select {
		case ev := <-client.Events():
			assert.Equal(t, fmt.Sprintf("message %d", i), ev.Content)
		case <-time.After(time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestServerDropWithoutReconnect(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.Close()
	})

	client := NewClient(wsURL(srv), Options{Logger: testLogger()})
	defer client.Close()
	require.NoError(t, client.Connect(context.Background(), "user-1", "token-0"))

	require.Eventually(t, func() bool {
		return client.State() == domain.ConnectionDisconnected
	}, time.Second, 5*time.Millisecond, "a dropped connection stays down by default")
}

func TestReconnectAfterDrop(t *testing.T) {
	var dials atomic.Int32
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		n := dials.Add(1)
		if n == 1 {
			// First connection dies immediately; the client must come back.
			return
		}
		conn.WriteJSON(domain.RealtimeEvent{
			Type:    domain.EventTypeNewMessage,
			ChatID:  "chat-1",
			Content: "after reconnect",
		})
		conn.ReadMessage()
	})

	client := NewClient(wsURL(srv), Options{
		Reconnect:        true,
		ReconnectMinWait: 10 * time.Millisecond,
		ReconnectMaxWait: 50 * time.Millisecond,
		Logger:           testLogger(),
	})
	defer client.Close()
	require.NoError(t, client.Connect(context.Background(), "user-1", "token-0"))

	select {
	case ev := <-client.Events():
		assert.Equal(t, "after reconnect", ev.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after reconnect")
	}
	assert.GreaterOrEqual(t, dials.Load(), int32(2))
}

func TestCloseIsIdempotentAndClosesEvents(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
	})

	client := NewClient(wsURL(srv), Options{Logger: testLogger()})
	require.NoError(t, client.Connect(context.Background(), "user-1", "token-0"))

	client.Close()
	client.Close()

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok, "events channel closes on shutdown")
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}
	assert.Equal(t, domain.ConnectionDisconnected, client.State())
}

func TestConnectAfterClose(t *testing.T) {
	client := NewClient("ws://localhost:0", Options{Logger: testLogger()})
	client.Close()

	err := client.Connect(context.Background(), "user-1", "token-0")
	require.Error(t, err)
}
