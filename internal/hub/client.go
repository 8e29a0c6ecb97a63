package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// ErrReadOnly answers requests on a stream that has no command handler.
var ErrReadOnly = errors.New("hub: monitor is read-only")

// CommandHandler executes requests sent by monitor clients.
type CommandHandler interface {
	DevCommand(name string) error
	ReleaseAll()
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// trySend queues msg without blocking. It returns false only when the
// buffer is full.
func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump sends queued messages until the send channel is closed.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// ReadPump handles client requests until the connection fails.
func (c *Client) ReadPump(handler CommandHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req ClientMessage
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("Hub: bad client message: %v", err)
			continue
		}

		var reply *WSMessage
		switch req.Type {
		case RequestDev, RequestReleaseAll:
			if handler == nil {
				reply = NewReplyMessage(req.Type, ErrReadOnly)
				break
			}
			reply = handle(handler, req)
		default:
			log.Printf("Hub: unknown request type %q", req.Type)
			continue
		}

		data, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		c.trySend(data)
	}
}

func handle(handler CommandHandler, req ClientMessage) *WSMessage {
	if req.Type == RequestDev {
		err := handler.DevCommand(req.Command)
		if err != nil {
			log.Printf("Hub: dev command %q rejected: %v", req.Command, err)
		}
		return NewReplyMessage(req.Type, err)
	}
	handler.ReleaseAll()
	log.Println("Hub: release all requested by client")
	return NewReplyMessage(req.Type, nil)
}
