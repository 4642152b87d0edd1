package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"newspulse/internal/core/ports"
	"newspulse/internal/infrastructure/monitoring"
	"newspulse/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const roomPrefix = "stream:"

// roomClient is one member of the room-based event bus.
type roomClient struct {
	id      string
	userID  string
	conn    *websocket.Conn
	rooms   map[string]struct{}
	writeMu sync.Mutex
}

func (c *roomClient) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// roomEvent is the bidirectional wire envelope on the room bus.
type roomEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomEventPayload struct {
	ContentID string                 `json:"contentId"`
	Text      string                 `json:"text,omitempty"`
	Type      string                 `json:"type,omitempty"`
	Username  string                 `json:"username,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RoomHub is the room-based event bus: members explicitly join and
// leave per-stream rooms and receive viewer-count, comment, reaction
// and metadata broadcasts. Comments and reactions are appended through
// the stream registry before broadcast, so registry lists stay the
// single source of truth for both transports.
type RoomHub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*roomClient]struct{}
	members map[*roomClient]struct{}

	registry  ports.StreamRegistry
	logger    *zap.SugaredLogger
	collector *monitoring.PrometheusCollector
	now       func() time.Time
}

func NewRoomHub(registry ports.StreamRegistry, logger *zap.SugaredLogger) *RoomHub {
	return &RoomHub{
		rooms:    make(map[string]map[*roomClient]struct{}),
		members:  make(map[*roomClient]struct{}),
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// SetCollector enables metric reporting. Nil collector means no-op.
func (h *RoomHub) SetCollector(collector *monitoring.PrometheusCollector) {
	h.collector = collector
}

func (h *RoomHub) HandleRoomSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("room socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &roomClient{
		id:     uuid.NewString(),
		userID: r.URL.Query().Get("userId"),
		conn:   conn,
		rooms:  make(map[string]struct{}),
	}

	h.mu.Lock()
	h.members[client] = struct{}{}
	h.mu.Unlock()

	for {
		var event roomEvent
		if err := conn.ReadJSON(&event); err != nil {
			break
		}
		h.handleEvent(r.Context(), client, event)
	}

	h.disconnect(context.Background(), client)
}

func (h *RoomHub) handleEvent(ctx context.Context, client *roomClient, event roomEvent) {
	var payload roomEventPayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			h.logger.Debugw("malformed room event payload", "client_id", client.id, "event", event.Event)
			return
		}
	}
	if payload.ContentID == "" {
		return
	}

	ctx, span := tracing.TraceSocketEvent(ctx, event.Event, client.id)
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.ContentIDKey.String(payload.ContentID),
		tracing.UserIDKey.String(client.userID),
	)

	switch event.Event {
	case "join-stream":
		h.joinStream(ctx, client, payload.ContentID)
	case "leave-stream":
		h.leaveStream(ctx, client, payload.ContentID)
	case "comment":
		h.comment(ctx, client, payload)
	case "reaction":
		h.reaction(ctx, client, payload)
	case "stream-meta":
		h.streamMeta(ctx, payload)
	default:
		h.logger.Debugw("ignoring unknown room event", "event", event.Event)
	}
}

// viewerIdentity is whatever identity the room layer has for a member:
// the user id when supplied, otherwise the socket id. The registry does
// not deduplicate across reconnects beyond set semantics.
func (c *roomClient) viewerIdentity() string {
	if c.userID != "" {
		return c.userID
	}
	return c.id
}

func (h *RoomHub) joinStream(ctx context.Context, client *roomClient, contentID string) {
	room := roomPrefix + contentID

	h.mu.Lock()
	clients, exists := h.rooms[room]
	if !exists {
		clients = make(map[*roomClient]struct{})
		h.rooms[room] = clients
	}
	clients[client] = struct{}{}
	client.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.registry.AddViewer(ctx, contentID, client.viewerIdentity())

	h.broadcast(room, "viewer-joined", map[string]interface{}{
		"contentId": contentID,
		"viewerId":  client.viewerIdentity(),
	})
	h.broadcastViewerCount(ctx, room, contentID)
}

func (h *RoomHub) leaveStream(ctx context.Context, client *roomClient, contentID string) {
	room := roomPrefix + contentID

	h.mu.Lock()
	if clients, exists := h.rooms[room]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
	h.mu.Unlock()

	h.registry.RemoveViewer(ctx, contentID, client.viewerIdentity())
	h.broadcastViewerCount(ctx, room, contentID)
}

func (h *RoomHub) comment(ctx context.Context, client *roomClient, payload roomEventPayload) {
	comment := h.registry.AddComment(ctx, payload.ContentID, ports.CommentInput{
		UserID:   client.userID,
		Username: payload.Username,
		Text:     payload.Text,
	})
	if comment == nil {
		h.logger.Debugw("dropped comment for unknown stream", "content_id", payload.ContentID)
		return
	}

	h.broadcast(roomPrefix+payload.ContentID, "new-comment", map[string]interface{}{
		"contentId": payload.ContentID,
		"comment":   comment,
	})
}

func (h *RoomHub) reaction(ctx context.Context, client *roomClient, payload roomEventPayload) {
	reaction := h.registry.AddReaction(ctx, payload.ContentID, ports.ReactionInput{
		UserID:   client.userID,
		Username: payload.Username,
		Type:     payload.Type,
	})
	if reaction == nil {
		h.logger.Debugw("dropped reaction for unknown stream", "content_id", payload.ContentID)
		return
	}

	h.broadcast(roomPrefix+payload.ContentID, "new-reaction", map[string]interface{}{
		"contentId": payload.ContentID,
		"reaction":  reaction,
	})
}

func (h *RoomHub) streamMeta(ctx context.Context, payload roomEventPayload) {
	h.registry.UpdateMetadata(ctx, payload.ContentID, payload.Metadata)

	h.broadcast(roomPrefix+payload.ContentID, "stream-meta-update", map[string]interface{}{
		"contentId": payload.ContentID,
		"metadata":  payload.Metadata,
	})
}

func (h *RoomHub) disconnect(ctx context.Context, client *roomClient) {
	h.mu.Lock()
	roomNames := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		roomNames = append(roomNames, room)
		if clients, exists := h.rooms[room]; exists {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.members, client)
	h.mu.Unlock()

	for _, room := range roomNames {
		contentID := room[len(roomPrefix):]
		h.registry.RemoveViewer(ctx, contentID, client.viewerIdentity())
		h.broadcastViewerCount(ctx, room, contentID)
	}
}

func (h *RoomHub) broadcastViewerCount(ctx context.Context, room, contentID string) {
	count := h.registry.ViewerCount(ctx, contentID)
	if h.collector != nil {
		h.collector.SetStreamViewers(contentID, count)
	}
	h.broadcast(room, "viewer-count", map[string]interface{}{
		"contentId": contentID,
		"count":     count,
	})
}

// broadcast sends an event to every room member, sender included.
func (h *RoomHub) broadcast(room, event string, data interface{}) {
	h.mu.RLock()
	var targets []*roomClient
	for client := range h.rooms[room] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	if h.collector != nil {
		h.collector.RecordRoomBroadcast(event)
	}

	msg := map[string]interface{}{
		"event": event,
		"data":  data,
		"time":  h.now().UnixMilli(),
	}
	for _, client := range targets {
		if err := client.send(msg); err != nil {
			h.logger.Debugw("room broadcast write failed", "client_id", client.id, "error", err)
		}
	}
}

// RoomSize reports the current membership of a stream room.
func (h *RoomHub) RoomSize(contentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomPrefix+contentID])
}
