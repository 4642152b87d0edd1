package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
	"newspulse/internal/core/services"
	"newspulse/internal/infrastructure/repositories/memory"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type roomFixture struct {
	hub      *RoomHub
	registry ports.StreamRegistry
	ts       *httptest.Server
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	registry := services.NewStreamRegistry(memory.NewMemoryStreamRepository(), logger)
	hub := NewRoomHub(registry, logger)
	ts := httptest.NewServer(http.HandlerFunc(hub.HandleRoomSocket))
	t.Cleanup(ts.Close)
	return &roomFixture{hub: hub, registry: registry, ts: ts}
}

func (f *roomFixture) createStream(t *testing.T, contentID string) {
	t.Helper()
	stream := f.registry.CreateStream(context.Background(), domain.CreateStreamParams{
		ContentID: domain.ContentID(contentID),
		UserID:    "broadcaster",
		Title:     "test stream",
	})
	require.NotNil(t, stream)
}

func dialRoom(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + ts.URL[4:] + "/rooms" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func sendRoomEvent(t *testing.T, conn *websocket.Conn, event string, data map[string]interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": event, "data": data}))
}

func readRoomEvent(t *testing.T, conn *websocket.Conn) (string, map[string]interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Event, msg.Data
}

func TestRoomHub_JoinStream(t *testing.T) {
	f := newRoomFixture(t)
	f.createStream(t, "news-7")

	conn := dialRoom(t, f.ts, "?userId=alice")
	defer conn.Close()

	sendRoomEvent(t, conn, "join-stream", map[string]interface{}{"contentId": "news-7"})

	event, data := readRoomEvent(t, conn)
	assert.Equal(t, "viewer-joined", event)
	assert.Equal(t, "alice", data["viewerId"])

	event, data = readRoomEvent(t, conn)
	assert.Equal(t, "viewer-count", event)
	assert.Equal(t, float64(1), data["count"])

	assert.Equal(t, 1, f.hub.RoomSize("news-7"))
	assert.Equal(t, 1, f.registry.ViewerCount(context.Background(), "news-7"))
}

func TestRoomHub_LeaveStream(t *testing.T) {
	f := newRoomFixture(t)
	f.createStream(t, "news-7")

	alice := dialRoom(t, f.ts, "?userId=alice")
	defer alice.Close()
	bob := dialRoom(t, f.ts, "?userId=bob")
	defer bob.Close()

	sendRoomEvent(t, alice, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, alice) // viewer-joined
	readRoomEvent(t, alice) // viewer-count 1

	sendRoomEvent(t, bob, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, alice) // bob's viewer-joined
	_, data := readRoomEvent(t, alice)
	assert.Equal(t, float64(2), data["count"])
	readRoomEvent(t, bob)
	readRoomEvent(t, bob)

	sendRoomEvent(t, bob, "leave-stream", map[string]interface{}{"contentId": "news-7"})
	event, data := readRoomEvent(t, alice)
	assert.Equal(t, "viewer-count", event)
	assert.Equal(t, float64(1), data["count"])

	assert.Equal(t, 1, f.hub.RoomSize("news-7"))
}

func TestRoomHub_CommentAppendsThenBroadcasts(t *testing.T) {
	f := newRoomFixture(t)
	f.createStream(t, "news-7")

	conn := dialRoom(t, f.ts, "?userId=alice")
	defer conn.Close()

	sendRoomEvent(t, conn, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, conn)
	readRoomEvent(t, conn)

	sendRoomEvent(t, conn, "comment", map[string]interface{}{
		"contentId": "news-7",
		"username":  "Alice",
		"text":      "great stream",
	})

	event, data := readRoomEvent(t, conn)
	assert.Equal(t, "new-comment", event)
	comment, ok := data["comment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "great stream", comment["text"])
	assert.NotEmpty(t, comment["id"])

	// The registry holds the same comment: one source of truth for both
	// transports and the REST surface.
	public := f.registry.PublicStream(context.Background(), "news-7")
	require.NotNil(t, public)
	assert.Equal(t, 1, public.CommentCount)
}

func TestRoomHub_CommentForUnknownStreamDropped(t *testing.T) {
	f := newRoomFixture(t)

	conn := dialRoom(t, f.ts, "?userId=alice")
	defer conn.Close()

	sendRoomEvent(t, conn, "comment", map[string]interface{}{
		"contentId": "missing",
		"text":      "hello?",
	})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg map[string]interface{}
	assert.Error(t, conn.ReadJSON(&msg))
}

func TestRoomHub_Reaction(t *testing.T) {
	f := newRoomFixture(t)
	f.createStream(t, "news-7")

	conn := dialRoom(t, f.ts, "?userId=alice")
	defer conn.Close()

	sendRoomEvent(t, conn, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, conn)
	readRoomEvent(t, conn)

	sendRoomEvent(t, conn, "reaction", map[string]interface{}{
		"contentId": "news-7",
		"type":      "fire",
	})

	event, data := readRoomEvent(t, conn)
	assert.Equal(t, "new-reaction", event)
	reaction, ok := data["reaction"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fire", reaction["type"])
}

func TestRoomHub_DisconnectLeavesRooms(t *testing.T) {
	f := newRoomFixture(t)
	f.createStream(t, "news-7")

	watcher := dialRoom(t, f.ts, "?userId=watcher")
	defer watcher.Close()
	leaver := dialRoom(t, f.ts, "?userId=leaver")

	sendRoomEvent(t, watcher, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, watcher)
	readRoomEvent(t, watcher)

	sendRoomEvent(t, leaver, "join-stream", map[string]interface{}{"contentId": "news-7"})
	readRoomEvent(t, watcher) // leaver's viewer-joined
	_, data := readRoomEvent(t, watcher)
	assert.Equal(t, float64(2), data["count"])
	readRoomEvent(t, leaver)
	readRoomEvent(t, leaver)

	leaver.Close()

	event, data := readRoomEvent(t, watcher)
	assert.Equal(t, "viewer-count", event)
	assert.Equal(t, float64(1), data["count"])

	assert.Equal(t, 1, f.hub.RoomSize("news-7"))
	assert.Equal(t, 1, f.registry.ViewerCount(context.Background(), "news-7"))
}
