package websocket

import (
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const maxFrameSize = 4096

// Client represents one websocket connection watching a listing
// conversation. The channel is receive-only for the client: sends go
// through the REST endpoint and loop back via the broker.
type Client struct {
	UserID    string
	ListingID int64
	Conn      *websocket.Conn
	Hub       *Hub
	Send      chan []byte
}

// NewClient creates a new WebSocket client
func NewClient(userID string, listingID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID:    userID,
		ListingID: listingID,
		Conn:      conn,
		Hub:       hub,
		Send:      make(chan []byte, 256),
	}
}

// ReadPump drains the connection until it closes. Inbound frames are
// discarded; the read loop exists to notice disconnects and answer
// pings.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
