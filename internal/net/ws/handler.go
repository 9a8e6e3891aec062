// Package ws bridges WebSocket clients into the game pipeline. A ws client
// is a full player: same accept gates, same player ids, same broadcasts.
// Envelopes travel one per text frame; the length prefix is the TCP
// transport's concern.
package ws

import (
	"log"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	server "planetfall/server"
	"planetfall/server/internal/net/proto"
)

const writeWait = 10 * time.Second

// HandlerConfig tunes the gateway.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests and runs the per-client read loop.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a gateway for the given hub.
func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{hub: hub, logger: logger, upgrader: upgrader}
}

// Handle admits one WebSocket client and reads its events until it leaves.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	sess := &wsConn{conn: conn}
	player, id, ok := h.hub.Register(sess)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session not accepting players")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Deregister(id)
			return
		}

		name, fields, err := proto.DecodeEnvelope(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from player %d: %v", player.ID, err)
			continue
		}

		h.hub.EnqueueInbound(player, name, fields)
	}
}

// wsConn adapts a gorilla connection to the hub's Conn interface.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
