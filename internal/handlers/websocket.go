package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/events"
	"golang.org/x/time/rate"
)

// WSHandler serves /ws/{connection_id}: clients subscribe to job IDs and
// receive hub events for them
type WSHandler struct {
	hub          *events.Hub
	upgrader     websocket.Upgrader
	throttle     time.Duration
	writeTimeout time.Duration
	logger       arbor.ILogger
}

// NewWSHandler creates the WebSocket handler
func NewWSHandler(hub *events.Hub, cfg *common.WebSocketConfig, logger arbor.ILogger) *WSHandler {
	throttle := 200 * time.Millisecond
	if d, err := time.ParseDuration(cfg.ThrottleInterval); err == nil && d > 0 {
		throttle = d
	}
	writeTimeout := 10 * time.Second
	if d, err := time.ParseDuration(cfg.WriteTimeout); err == nil && d > 0 {
		writeTimeout = d
	}

	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		throttle:     throttle,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// wsConn serializes writes to one connection. Progress forwards go
// through the limiter; control replies bypass it.
type wsConn struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	limiter      *rate.Limiter
	writeTimeout time.Duration
}

func (c *wsConn) writeJSON(msg models.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) writeThrottled(ctx context.Context, msg models.WSMessage) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.writeJSON(msg)
}

// HandleWebSocket upgrades the connection and runs the subscribe/ping
// protocol until the client disconnects
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	connID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws"), "/")
	if connID == "" {
		connID = common.NewConnectionID()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsConn{
		conn:         conn,
		limiter:      rate.NewLimiter(rate.Every(h.throttle), 1),
		writeTimeout: h.writeTimeout,
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	defer func() {
		h.hub.UnsubscribeAll(connID)
		conn.Close()
		h.logger.Debug().Str("connection_id", connID).Msg("WebSocket closed")
	}()

	h.logger.Debug().Str("connection_id", connID).Msg("WebSocket connected")

	for {
		var msg models.WSClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Str("connection_id", connID).Err(err).Msg("WebSocket read failed")
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			if msg.JobID == "" {
				client.writeJSON(models.WSMessage{
					Type:  models.WSTypeCrawlingError,
					Error: "job_id is required to subscribe",
				})
				continue
			}

			ch := h.hub.Subscribe(msg.JobID, connID)
			go h.forward(ctx, client, connID, msg.JobID, ch)

			client.writeJSON(models.WSMessage{
				Type:  models.WSTypeSubscriptionConfirmed,
				JobID: msg.JobID,
			})

		case "ping":
			client.writeJSON(models.WSMessage{Type: models.WSTypePong})

		default:
			h.logger.Debug().
				Str("connection_id", connID).
				Str("type", msg.Type).
				Msg("Ignoring unknown client message")
		}
	}
}

// forward drains one subscription channel into the connection. Exits
// when the hub closes the channel or the connection goes away.
func (h *WSHandler) forward(ctx context.Context, client *wsConn, connID, jobID string, ch <-chan models.WSMessage) {
	for msg := range ch {
		if err := client.writeThrottled(ctx, msg); err != nil {
			h.logger.Debug().
				Str("connection_id", connID).
				Str("job_id", jobID).
				Err(err).
				Msg("Dropping subscription after write failure")
			h.hub.Unsubscribe(jobID, connID)
			return
		}
	}
}
