package signaling

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Limits are the transport knobs of a single connection.
type Limits struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration

	// Maximum message size allowed from peer.
	MaxMessageSize int64

	// Capacity of the outbound queue.
	SendBuffer int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 64 * 1024, // enough for WebRTC SDP messages
		SendBuffer:     256,
	}
}

// Send pings to peer with this period. Must be less than PongWait.
func (l Limits) pingPeriod() time.Duration {
	return (l.PongWait * 9) / 10
}

// Client is a wrapper for a single websocket connection (a participant).
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	id     string
	limits Limits
	logger *slog.Logger

	// send is the buffered outbound queue drained by WritePump.
	send chan []byte

	// session and closed are owned by the hub goroutine.
	session *Session
	closed  bool
}

// NewClient wraps conn with a freshly generated connection id.
func NewClient(hub *Hub, conn *websocket.Conn, limits Limits) *Client {
	c := &Client{
		hub:    hub,
		conn:   conn,
		id:     uuid.NewString(),
		limits: limits,
		send:   make(chan []byte, limits.SendBuffer),
	}
	c.session = NewSession(c)
	c.logger = hub.logger.With("conn", c.id)
	return c
}

// ID returns the server-generated connection id.
func (c *Client) ID() string {
	return c.id
}

// Deliver queues frame without blocking. A full or closed queue drops it.
func (c *Client) Deliver(frame []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn("outbound queue full, dropping frame")
		return false
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.limits.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.limits.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.limits.PongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read failed", "err", err)
			}
			return
		}

		msg, err := Decode(frame)
		if err != nil {
			c.logger.Warn("dropping message", "err", err)
			continue
		}
		msg.client = c

		if !c.hub.Dispatch(msg) {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.limits.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.limits.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.limits.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
