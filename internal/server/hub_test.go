package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cardview/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func runHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	return hub, func() {
		cancel()
		wg.Wait()
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func eventBoard(t *testing.T, msg Message) string {
	t.Helper()
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	board, _ := data["boardId"].(string)
	return board
}

func TestHub_NotifyScopesByBoard(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := runHub(t)

	all := &Client{hub: hub, send: make(chan []byte, 4)}
	b1 := &Client{hub: hub, send: make(chan []byte, 4), boardID: "b1"}
	hub.Register(all)
	hub.Register(b1)

	ctx := context.Background()
	require.NoError(t, hub.Notify(ctx, notify.Event{Kind: notify.CardsCreated, BoardID: "b2"}))
	require.NoError(t, hub.Notify(ctx, notify.Event{Kind: notify.CardsUpdated, BoardID: "b1"}))

	msg := receive(t, all)
	assert.Equal(t, "refresh", msg.Type)
	assert.Equal(t, "b2", eventBoard(t, msg))
	assert.Equal(t, "b1", eventBoard(t, receive(t, all)))

	// the b2 event was never queued for b1
	assert.Equal(t, "b1", eventBoard(t, receive(t, b1)))

	stop()
	_, ok := <-all.send
	assert.False(t, ok, "stopping the hub closes client channels")
}

func TestHub_Unregister(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := runHub(t)
	defer stop()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)
	hub.Unregister(c)

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_DropsSlowClient(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := runHub(t)
	defer stop()

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	slow.send <- []byte("{}")
	hub.Register(slow)
	require.NoError(t, hub.Notify(context.Background(), notify.Event{Kind: notify.Reloaded}))

	<-slow.send
	select {
	case _, ok := <-slow.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("slow client was not dropped")
	}
}

func TestHub_NotifyAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := runHub(t)
	stop()

	assert.NoError(t, hub.Notify(context.Background(), notify.Event{Kind: notify.Reloaded}))
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestClient_PingAfterHubStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := runHub(t)

	clients := make(chan *Client, 1)
	readDone := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn, "")
		hub.Register(c)
		clients <- c
		go func() {
			defer close(readDone)
			c.ReadPump()
		}()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	c := <-clients

	stop()
	_, ok := <-c.send
	require.False(t, ok, "stopping the hub closes the send channel")

	ping, err := json.Marshal(Message{Type: "ping"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ping))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ping))

	select {
	case payload := <-c.pong:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "pong", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("no pong queued")
	}

	conn.Close()
	select {
	case <-readDone:
	case <-time.After(time.Second):
		t.Fatal("read pump did not exit")
	}
}
