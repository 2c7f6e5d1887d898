package websocket

import (
	"time"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/config"
	"github.com/dennisdiepolder/workforce/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	config *config.Config
	logger zerolog.Logger

	// initial is sent by the hub when it registers the client
	initial func() ([]byte, error)
}

func NewClient(hub *Hub, conn *websocket.Conn, cfg *config.Config, logger zerolog.Logger, claims *auth.Claims) *Client {
	clientID := uuid.New().String()
	l := logger.With().Str("client_id", clientID)
	if claims != nil {
		l = l.Str("user", claims.Email)
	}
	return &Client{
		id:     clientID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		config: cfg,
		logger: l.Logger(),
	}
}

// readPump only services control frames; clients never send calls over the socket
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.Get().RecordWebSocketError()
				c.logger.Error().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump sends snapshots to the connection. Every snapshot carries the
// whole collection, so when several are queued only the newest is written.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			message, ok = latest(message, c.send)

			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				metrics.Get().RecordWebSocketError()
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// latest drains whatever is already queued and returns the newest message.
// open is false if the channel was closed while draining.
func latest(message []byte, queue chan []byte) (newest []byte, open bool) {
	for {
		select {
		case next, ok := <-queue:
			if !ok {
				return message, false
			}
			message = next
		default:
			return message, true
		}
	}
}

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
