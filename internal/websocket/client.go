package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	readLimit      = 1024
)

// Client is one open calendar page. It receives refresh messages for the
// calendar it watches, or for every calendar when it watches none.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	mu       sync.RWMutex
	calendar string
}

// NewClient creates a Client watching calendar. An empty name watches all.
func NewClient(hub *Hub, conn *ws.Conn, calendar string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		calendar: calendar,
	}
}

// Calendar returns the name of the watched calendar.
func (c *Client) Calendar() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calendar
}

// Watch switches the client to another calendar.
func (c *Client) Watch(calendar string) {
	c.mu.Lock()
	c.calendar = calendar
	c.mu.Unlock()
}

func (c *Client) wants(msg Message) bool {
	cal := c.Calendar()
	return cal == "" || msg.Calendar == "" || msg.Calendar == cal
}

// Run registers the client and pumps messages until the page goes away.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

type subscribeFrame struct {
	Subscribe *string `json:"subscribe"`
}

// readPump handles subscribe frames from the page. Anything else is ignored.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(readLimit)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			continue
		}
		var frame subscribeFrame
		if json.Unmarshal(data, &frame) == nil && frame.Subscribe != nil {
			c.Watch(*frame.Subscribe)
		}
	}
}

// writePump writes queued messages and pings the page so dead
// connections are noticed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
