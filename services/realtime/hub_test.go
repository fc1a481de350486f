package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/internal/testutil"
)

func newTestHub() *Hub {
	return NewHub(core.NewTestConfig().Realtime, testutil.NewLogger())
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	return payload
}

func TestHub_PublishMark_allClients(t *testing.T) {
	hub := newTestHub()
	url := startServer(t, hub)

	c1 := dial(t, url)
	c2 := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.PublishMark(school.MarkEvent{StudentID: "s1", Marks: 87.5})

	p1 := readEvent(t, c1)
	p2 := readEvent(t, c2)
	assert.Equal(t, p1, p2)
	assert.JSONEq(t, `{"event":"newMark","data":{"studentId":"s1","marks":87.5}}`, string(p1))

	var evt struct {
		Event string           `json:"event"`
		Data  school.MarkEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(p1, &evt))
	assert.Equal(t, EventNewMark, evt.Event)
	assert.Equal(t, "s1", evt.Data.StudentID)
}

func TestHub_disconnect(t *testing.T) {
	hub := newTestHub()
	url := startServer(t, hub)

	c1 := dial(t, url)
	c2 := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c1.Close())
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// the remaining client still receives events
	hub.PublishMark(school.MarkEvent{StudentID: "s2", Marks: 10})
	assert.JSONEq(t, `{"event":"newMark","data":{"studentId":"s2","marks":10}}`, string(readEvent(t, c2)))
}

func TestHub_Close(t *testing.T) {
	hub := newTestHub()
	url := startServer(t, hub)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "unexpected error: %v", err)
}

func TestHub_Broadcast_fullQueueDrops(t *testing.T) {
	hub := newTestHub()
	slow := &client{hub: hub, send: make(chan []byte, 1)}
	fast := &client{hub: hub, send: make(chan []byte, 4)}
	hub.register(slow)
	hub.register(fast)

	require.NoError(t, hub.Broadcast(Event{Name: "a"}))
	require.NoError(t, hub.Broadcast(Event{Name: "b"}))

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
	assert.EqualValues(t, 1, hub.Dropped())

	// unregister is idempotent
	hub.unregister(slow)
	hub.unregister(slow)
	assert.Equal(t, 1, hub.Count())
}

func TestHub_noClients(t *testing.T) {
	hub := newTestHub()
	assert.NotPanics(t, func() { hub.PublishMark(school.MarkEvent{StudentID: "s", Marks: 1}) })
	assert.Equal(t, 0, hub.Count())
}
