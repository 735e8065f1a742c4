package chatws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/roomly-app/MessagingBack/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 32
)

// Client is one live room subscription: a connection plus the user it
// authenticated as. The send channel is the subscriber's bounded outbound
// queue; the hub closes it when the subscription ends.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID string
	userID string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// messageSender is the slice of the chat service the read pump needs.
type messageSender interface {
	SendMessage(ctx context.Context, conversationID, senderID, content, dedupToken string) (*models.Message, error)
}

func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
	}
}

// trySend enqueues without blocking. False means the queue is full or the
// subscription already ended; the caller decides whether to drop the client.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// ReadPump consumes inbound frames until the connection dies, then tears the
// subscription down. Clients may push chat messages over the socket; those go
// through the same delivery path as REST sends, so connected peers still see
// them in commit order.
func (c *Client) ReadPump(service messageSender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type       string `json:"type"`
			Content    string `json:"content"`
			DedupToken string `json:"dedup_token"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}

		switch incoming.Type {
		case "ping":
			if !c.trySend([]byte(`{"type":"pong"}`)) {
				return
			}
		case "message":
			if strings.TrimSpace(incoming.Content) == "" {
				c.writeError("empty message content")
				continue
			}
			if _, err := service.SendMessage(
				context.Background(),
				c.roomID,
				c.userID,
				incoming.Content,
				incoming.DedupToken,
			); err != nil {
				c.writeError("failed to send message")
			}
		default:
			c.writeError("unsupported message type")
		}
	}
}

// WritePump drains the outbound queue onto the wire and keeps the connection
// alive with protocol pings. Exits when the queue closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(map[string]string{
		"type":  "error",
		"error": message,
	})
	if err != nil {
		return
	}
	if !c.trySend(payload) {
		c.hub.Unregister(c)
	}
}
