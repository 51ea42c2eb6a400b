package handler

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/Baaaki/freelance-market/internal/middleware"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second // Time allowed to write a message to the peer
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize     = 4 * 1024            // clients only send control frames
	sendBufferSize     = 32
)

// WSMessage is every frame the server pushes to a client
type WSMessage struct {
	Type  string        `json:"type"` // "event", "session_expired"
	Event *broker.Event `json:"event,omitempty"`
	Error string        `json:"error,omitempty"`
}

// WebSocketHandler pushes workflow events to the users they concern
type WebSocketHandler struct {
	clients  map[*websocket.Conn]*Client
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

type Client struct {
	conn        *websocket.Conn
	userID      uuid.UUID
	username    string
	send        chan broker.Event
	connectedAt time.Time
}

func NewWebSocketHandler(allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		clients: make(map[*websocket.Conn]*Client),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run forwards events from the broker until ctx is cancelled or the
// channel closes
func (h *WebSocketHandler) Run(ctx context.Context, events <-chan broker.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.Dispatch(event)
		}
	}
}

// EventSubscriber is the broker side of the event stream
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan broker.Event, error)
}

// Consume keeps a subscription open and forwards its events until ctx is
// cancelled. A failed or dropped subscription is retried every retry.
func (h *WebSocketHandler) Consume(ctx context.Context, sub EventSubscriber, retry time.Duration) {
	for {
		events, err := sub.Subscribe(ctx)
		if err != nil {
			logger.Log.Warn("Event subscription failed, retrying",
				zap.Duration("retry", retry),
				zap.Error(err),
			)
		} else {
			h.Run(ctx, events)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

// Dispatch queues the event for every connected recipient. A client whose
// buffer is full misses the event rather than stalling the others.
func (h *WebSocketHandler) Dispatch(event broker.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !event.IsFor(client.userID) {
			continue
		}
		select {
		case client.send <- event:
		default:
			logger.Log.Warn("Dropping event for slow client",
				zap.String("username", client.username),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

// ClientCount returns the number of open connections
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Claims are set by AuthMiddleware
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		_ = c.Error(apperror.Unauthorized("Authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		conn:        conn,
		userID:      claims.UserID,
		username:    claims.Username,
		send:        make(chan broker.Event, sendBufferSize),
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	h.clients[conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("Client connected", zap.String("username", client.username), zap.Int("total", total))

	go h.writePump(client)

	defer h.removeClient(conn)
	h.readPump(client)
}

// readPump only keeps the read deadline alive; clients send nothing but
// control frames
func (h *WebSocketHandler) readPump(client *Client) {
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket error", zap.String("username", client.username), zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only goroutine writing to the connection
func (h *WebSocketHandler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sessionTimer := time.NewTimer(maxSessionLifetime)
	defer sessionTimer.Stop()

	for {
		select {
		case event, ok := <-client.send:
			if !ok {
				// removeClient closed the channel
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(WSMessage{Type: "event", Event: &event}); err != nil {
				logger.Log.Warn("Failed to push event", zap.String("username", client.username), zap.Error(err))
				_ = client.conn.Close()
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = client.conn.Close()
				return
			}

		case <-sessionTimer.C:
			h.closeClientGracefully(client, "session expired")
			return
		}
	}
}

func (h *WebSocketHandler) closeClientGracefully(client *Client, reason string) {
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = client.conn.WriteJSON(WSMessage{Type: "session_expired", Error: reason})

	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	)
	// Unblocks readPump, which removes the client
	_ = client.conn.Close()

	logger.Log.Info("Closed connection", zap.String("username", client.username), zap.String("reason", reason))
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[conn]
	if !exists {
		return
	}
	delete(h.clients, conn)
	close(client.send)
	_ = conn.Close()

	logger.Log.Info("Client disconnected",
		zap.String("username", client.username),
		zap.Duration("session", time.Since(client.connectedAt).Round(time.Second)),
		zap.Int("remaining", len(h.clients)),
	)
}
