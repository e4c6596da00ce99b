package participant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestJoin_AlwaysCarriesBotFlag(t *testing.T) {
	b, err := json.Marshal(Join("lobby", "Alice", false))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"join","room":"lobby","bot":false,"name":"Alice"}`, string(b))
}

func TestOpError_Unwraps(t *testing.T) {
	err := NewError("join", ErrRoomFull)
	require.ErrorIs(t, err, ErrRoomFull)
	require.Contains(t, err.Error(), "join")
}

func TestClient_SendBeforeConnect(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws", nil)
	require.ErrorIs(t, c.Send(Leave()), ErrNotStarted)
}

// echoServer answers every frame with a waiting notice.
func echoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"waiting"}`)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_RoundTrip(t *testing.T) {
	c := NewClient(echoServer(t), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	require.NoError(t, c.Send(Join("lobby", "Alice", false)))

	select {
	case msg := <-c.Incoming():
		// The undecodable frame was skipped.
		require.Equal(t, TypeWaiting, msg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}

	c.Close()
	c.Close()
	require.True(t, errors.Is(c.Send(Leave()), ErrClosed))
}

func TestClient_SendFailsOnceConnectionDrops(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	select {
	case _, ok := <-c.Incoming():
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("incoming never closed")
	}

	// Sending more than the queue holds must not block.
	for range 32 {
		require.ErrorIs(t, c.Send(Chat("hi", "Alice", false, "")), ErrClosed)
	}
}
