package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/infrastructure/monitoring"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientConn pairs a websocket connection with its registry entry.
// Writes are serialized per connection; gorilla allows one writer only.
type clientConn struct {
	info    *domain.ConnectionInfo
	conn    *websocket.Conn
	limiter *rate.Limiter
	writeMu sync.Mutex
}

func (c *clientConn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *clientConn) writeRaw(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// SocketServer is the raw per-connection channel: one websocket per
// client, distinguished by query string or in-band auth into a
// notifications subscriber or a content-id subscriber (binary relay).
type SocketServer struct {
	connections map[string]*clientConn
	mu          sync.RWMutex

	sweepInterval time.Duration
	idleTimeout   time.Duration
	msgRate       rate.Limit
	msgBurst      int

	logger    *zap.SugaredLogger
	collector *monitoring.PrometheusCollector
	now       func() time.Time
}

// socketMessage is the inbound JSON envelope. Payloads that fail to
// parse as JSON are treated as binary relay data; the protocol has no
// framing to tell broken JSON from intentional binary.
type socketMessage struct {
	Type       string `json:"type"`
	Time       int64  `json:"time,omitempty"`
	UserID     string `json:"userId,omitempty"`
	ClientType string `json:"clientType,omitempty"`
	ContentID  string `json:"contentId,omitempty"`
}

func NewSocketServer(sweepInterval, idleTimeout time.Duration, logger *zap.SugaredLogger) *SocketServer {
	return &SocketServer{
		connections:   make(map[string]*clientConn),
		sweepInterval: sweepInterval,
		idleTimeout:   idleTimeout,
		msgRate:       rate.Inf,
		msgBurst:      1,
		logger:        logger,
		now:           time.Now,
	}
}

// SetMessageRate caps inbound messages per connection. Excess messages
// are dropped, not fatal.
func (s *SocketServer) SetMessageRate(perSecond float64, burst int) {
	if perSecond > 0 {
		s.msgRate = rate.Limit(perSecond)
		s.msgBurst = burst
	}
}

func (s *SocketServer) SetNowFunc(now func() time.Time) {
	s.now = now
}

// SetCollector enables metric reporting. Nil collector means no-op.
func (s *SocketServer) SetCollector(collector *monitoring.PrometheusCollector) {
	s.collector = collector
}

func (s *SocketServer) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &clientConn{
		info: &domain.ConnectionInfo{
			ID:       uuid.NewString(),
			Type:     domain.ClientGeneral,
			LastPing: s.now(),
		},
		conn:    conn,
		limiter: rate.NewLimiter(s.msgRate, s.msgBurst),
	}
	s.applyQueryIdentity(client, r)

	s.mu.Lock()
	s.connections[client.info.ID] = client
	s.mu.Unlock()

	s.logger.Infow("client connected",
		"client_id", client.info.ID,
		"type", client.info.Type,
		"user_id", client.info.UserID,
	)

	client.writeJSON(map[string]interface{}{
		"type":     "connected",
		"message":  "connection established",
		"clientId": client.info.ID,
		"time":     s.now().UnixMilli(),
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("error reading from client", "client_id", client.info.ID, "error", err)
			}
			break
		}

		if !client.limiter.Allow() {
			s.logger.Warnw("client message rate exceeded", "client_id", client.info.ID)
			continue
		}

		s.handlePayload(client, messageType, data)
	}

	s.mu.Lock()
	delete(s.connections, client.info.ID)
	s.mu.Unlock()

	s.logger.Infow("client disconnected", "client_id", client.info.ID)
}

// applyQueryIdentity reads userId/clientType/contentId query parameters
// so clients can skip the in-band auth message.
func (s *SocketServer) applyQueryIdentity(client *clientConn, r *http.Request) {
	q := r.URL.Query()
	if userID := q.Get("userId"); userID != "" {
		client.info.UserID = userID
	}
	clientType := q.Get("clientType")
	contentID := q.Get("contentId")
	switch {
	case clientType == string(domain.ClientNotifications):
		client.info.Type = domain.ClientNotifications
	case contentID != "":
		client.info.Type = domain.ClientStreamViewer
		client.info.ContentID = domain.ContentID(contentID)
	case clientType != "" && clientType != string(domain.ClientGeneral):
		// A non-reserved clientType value is a content id subscription.
		client.info.Type = domain.ClientStreamViewer
		client.info.ContentID = domain.ContentID(clientType)
	}
}

func (s *SocketServer) handlePayload(client *clientConn, messageType int, data []byte) {
	var msg socketMessage
	if messageType == websocket.BinaryMessage || json.Unmarshal(data, &msg) != nil {
		// Not JSON: relay verbatim to peers on the same content id.
		if client.info.ContentID != "" {
			s.relayToContent(client, messageType, data)
		}
		return
	}

	switch msg.Type {
	case "ping":
		s.mu.Lock()
		client.info.LastPing = s.now()
		s.mu.Unlock()
		client.writeJSON(map[string]interface{}{"type": "pong", "time": msg.Time})
	case "auth":
		s.handleAuth(client, msg)
	default:
		// Unknown JSON message types are ignored; this channel is
		// best-effort telemetry, not a command protocol.
		s.logger.Debugw("ignoring unknown message type", "client_id", client.info.ID, "type", msg.Type)
	}
}

func (s *SocketServer) handleAuth(client *clientConn, msg socketMessage) {
	// Identity fields are read under RLock by the fan-out and relay
	// paths, so every mutation here needs the write lock. The welcome
	// write happens after release; writeJSON can block.
	s.mu.Lock()
	if msg.UserID != "" {
		client.info.UserID = msg.UserID
	}
	welcome := false
	switch {
	case msg.ClientType == string(domain.ClientNotifications):
		client.info.Type = domain.ClientNotifications
		welcome = true
	case msg.ContentID != "":
		client.info.Type = domain.ClientStreamViewer
		client.info.ContentID = domain.ContentID(msg.ContentID)
	case msg.ClientType != "" && msg.ClientType != string(domain.ClientGeneral):
		client.info.Type = domain.ClientStreamViewer
		client.info.ContentID = domain.ContentID(msg.ClientType)
	}
	info := *client.info
	s.mu.Unlock()

	if welcome {
		client.writeJSON(map[string]interface{}{
			"type": "notification",
			"notification": domain.Notification{
				ID:      uuid.NewString(),
				Type:    "welcome",
				Message: "notification channel ready",
				At:      s.now(),
			},
			"time": s.now().UnixMilli(),
		})
	}

	s.logger.Infow("client authenticated",
		"client_id", info.ID,
		"type", info.Type,
		"user_id", info.UserID,
	)
}

// relayToContent forwards a payload verbatim to every other connection
// subscribed to the same content id. No ordering or framing guarantees.
func (s *SocketServer) relayToContent(from *clientConn, messageType int, data []byte) {
	s.mu.RLock()
	var targets []*clientConn
	for _, client := range s.connections {
		if client.info.ID != from.info.ID && client.info.ContentID == from.info.ContentID {
			targets = append(targets, client)
		}
	}
	s.mu.RUnlock()

	for _, target := range targets {
		if err := target.writeRaw(messageType, data); err != nil {
			s.logger.Debugw("relay write failed", "client_id", target.info.ID, "error", err)
		}
	}
}

// SendNotificationToUser pushes to every live notifications connection
// matching the user id (multi-device fan-out). False only means the
// user has no live session, never an error.
func (s *SocketServer) SendNotificationToUser(userID string, n domain.Notification) bool {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = s.now()
	}

	s.mu.RLock()
	var matches []*clientConn
	for _, client := range s.connections {
		if client.info.Type == domain.ClientNotifications && client.info.UserID == userID {
			matches = append(matches, client)
		}
	}
	s.mu.RUnlock()

	for _, client := range matches {
		if err := client.writeJSON(map[string]interface{}{
			"type":         "notification",
			"notification": n,
			"time":         s.now().UnixMilli(),
		}); err != nil {
			s.logger.Debugw("notification write failed", "client_id", client.info.ID, "error", err)
		}
	}

	if s.collector != nil {
		s.collector.RecordNotification(len(matches) > 0)
	}
	return len(matches) > 0
}

// StartSweep runs the liveness sweep until the context is cancelled.
func (s *SocketServer) StartSweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepIdle()
			}
		}
	}()
}

// SweepIdle closes connections whose last ping is older than the idle
// timeout, with close code 1001 (going away). Returns the number closed.
func (s *SocketServer) SweepIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	var idle []*clientConn
	for id, client := range s.connections {
		if client.info.LastPing.Before(cutoff) {
			idle = append(idle, client)
			delete(s.connections, id)
		}
	}
	s.mu.Unlock()

	for _, client := range idle {
		deadline := s.now().Add(time.Second)
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "idle timeout"), deadline)
		client.conn.Close()
		s.logger.Infow("closed idle connection", "client_id", client.info.ID)
	}

	if s.collector != nil && len(idle) > 0 {
		s.collector.RecordIdleClosed(len(idle))
	}
	return len(idle)
}

func (s *SocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Connections returns a copy of the current connection registry, for
// the health endpoint and tests.
func (s *SocketServer) Connections() []domain.ConnectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConnectionInfo, 0, len(s.connections))
	for _, client := range s.connections {
		out = append(out, *client.info)
	}
	return out
}
