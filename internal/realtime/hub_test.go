package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/service"
)

type countingSource struct{ calls atomic.Int64 }

func (s *countingSource) Snapshot(context.Context) (*service.Snapshot, error) {
	n := s.calls.Add(1)
	return &service.Snapshot{Backend: "test", TodayReservations: int(n)}, nil
}

func startHub(t *testing.T) (*Hub, *countingSource, string) {
	t.Helper()
	src := &countingSource{}
	hub := NewHub(src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, src, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestSnapshotOnConnectAndPushOnEvent(t *testing.T) {
	hub, _, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, "test", first.Snapshot.Backend)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), queue.ReservationEvent{Type: queue.EventReservationCreated, ReservationID: 7}))
	pushed := readMessage(t, conn)
	assert.Equal(t, TypeReservationEvent, pushed.Type)
	require.NotNil(t, pushed.Event)
	assert.Equal(t, uint64(7), pushed.Event.ReservationID)

	require.NoError(t, hub.Refresh(context.Background()))
	refreshed := readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, refreshed.Type)
	assert.Nil(t, refreshed.Event)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, _, url := startHub(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(&countingSource{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{send: make(chan []byte, 1)}
	hub.register <- slow
	hub.Broadcast([]byte("a"))
	hub.Broadcast([]byte("b"))

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	msg, ok := <-slow.send
	assert.True(t, ok)
	assert.Equal(t, "a", string(msg))
	_, ok = <-slow.send
	assert.False(t, ok)
}
