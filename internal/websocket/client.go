package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/pkg/apperrors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// ClientMessageHandler processes frames the pump does not handle itself.
type ClientMessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *Message) error
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Send   chan []byte

	conn      *websocket.Conn
	hub       *Hub
	rooms     map[string]struct{}
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewClient wraps conn. conn may be nil in tests that only drive the hub.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, sendQueueSize),
		conn:   conn,
		hub:    hub,
		rooms:  make(map[string]struct{}),
	}
}

// ReadPump reads frames until the connection fails. Leaving every room on
// disconnect is guaranteed by the deferred Unregister.
func (c *Client) ReadPump(ctx context.Context, handler ClientMessageHandler) {
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
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("websocket closed unexpectedly",
					zap.String("client_id", c.ID.String()), zap.Error(err))
			}
			return
		}

		msg.UserID = c.UserID
		if msg.Type == TypePong {
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			continue
		}

		if err := handler.HandleMessage(ctx, c, &msg); err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				c.SendError(appErr.Message)
			} else {
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump drains the send queue to the connection and keeps it alive
// with protocol pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, next); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues a frame for this client only.
func (c *Client) SendMessage(msgType MessageType, room string, data interface{}) error {
	frame, err := EncodeFrame(msgType, room, c.UserID, data)
	if err != nil {
		return err
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c.ID]; !ok {
		return ErrClientClosed
	}
	if !c.trySend(frame) {
		return ErrClientQueueFull
	}
	return nil
}

func (c *Client) SendError(errorMsg string) {
	_ = c.SendMessage(TypeError, "", map[string]string{"error": errorMsg})
}

func (c *Client) IsInRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (c *Client) addRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// trySend never blocks; it reports false when the frame was dropped. Callers
// hold the hub lock, which orders it against closeSend.
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}
