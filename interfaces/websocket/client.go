package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size
	sendBufferSize = 256
)

// Client represents one WebSocket connection. Its read pump feeds inbound
// frames to the engine; its write pump drains the send buffer the hub and
// engine enqueue into. The current session room membership lives here and is
// only touched from the read pump goroutine.
type Client struct {
	id     string
	engine *Engine
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// Session the connection is currently joined to, empty when none.
	// At most one room per connection; rejoin leaves the previous room.
	sessionID string
	userID    string
	userName  string
}

// NewClient wraps an upgraded connection.
func NewClient(engine *Engine, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:     id,
		engine: engine,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(zap.String("connectionID", id)),
	}
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Enqueue hands a frame to the send buffer without blocking; false means
// the buffer is full.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// CloseSlow force-closes the connection; the pumps shut down and the
// disconnect cleanup runs as usual.
func (c *Client) CloseSlow() {
	c.conn.Close()
}

// Session returns the session the connection is currently joined to.
func (c *Client) Session() string {
	return c.sessionID
}

// SetSession records the connection's current session membership.
func (c *Client) SetSession(sessionID string) {
	c.sessionID = sessionID
}

// User returns the identity announced on the last join.
func (c *Client) User() (string, string) {
	return c.userID, c.userName
}

// SetUser records the identity announced on join.
func (c *Client) SetUser(id, name string) {
	c.userID = id
	c.userName = name
}

// readPump pumps messages from the WebSocket connection into the engine.
func (c *Client) readPump() {
	defer func() {
		c.engine.HandleDisconnect(c)
		c.conn.Close()
		c.logger.Debug("read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", zap.Error(err))
			}
			break
		}
		switch messageType {
		case websocket.TextMessage:
			c.engine.HandleMessage(c, message)
		case websocket.BinaryMessage:
			c.logger.Warn("binary messages not supported")
		}
	}
}

// writePump pumps frames from the send buffer to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Debug("write pump stopped")
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("failed to write message", zap.Error(err))
				return
			}

			// Drain whatever queued up behind the current frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					c.logger.Error("failed to write batched message", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
