package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// The stream is server to client. Peers only send control frames.
	maxInboundSize = 512

	// sendBuffer is how many events may queue before the client is dropped
	sendBuffer = 64
)

// Client is one browser connection subscribed to its user's events
type Client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	hub    *Hub

	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewClient wraps an upgraded connection. Call Serve to start it.
func NewClient(conn *websocket.Conn, userID uuid.UUID, hub *Hub) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		outbox: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string        { return c.id }
func (c *Client) UserID() uuid.UUID { return c.userID }

// Send queues data for the writer. It fails fast with ErrClientTooSlow when
// the queue is full instead of waiting.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbox <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrClientTooSlow
	}
}

// Close stops both pumps and closes the socket. Repeated calls are no-ops.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Serve registers the client with its hub and runs until the peer goes
// away or the hub drops it. The writer runs on its own goroutine.
func (c *Client) Serve() {
	c.hub.Register(c)
	defer func() {
		c.hub.Unregister(c)
		_ = c.Close()
	}()

	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID.String()).
					Msg("WebSocket read ended")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return

		case msg := <-c.outbox:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID.String()).
					Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
