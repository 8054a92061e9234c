package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"campusrent/server/internal/models"
)

// MessageFeed delivers published conversation messages to the hub.
// *broker.Broker satisfies it; tests use an in-process fake.
type MessageFeed interface {
	Subscribe(ctx context.Context, listingID int64, handler func(*models.Message)) (func(), error)
}

// room holds the connected clients for one listing conversation plus
// the feed subscription that serves them
type room struct {
	clients map[*Client]bool
	stop    func()
}

// Hub maintains conversation rooms and fans feed messages out to the
// clients watching each listing
type Hub struct {
	feed MessageFeed

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	rooms map[int64]*room
	mu    sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(feed MessageFeed) *Hub {
	return &Hub{
		feed:       feed,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int64]*room),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to its listing's room, opening the feed
// subscription when the room is new
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.ListingID]
	if !ok {
		r = &room{clients: make(map[*Client]bool)}
		stop, err := h.feed.Subscribe(context.Background(), client.ListingID, func(msg *models.Message) {
			h.broadcast(msg)
		})
		if err != nil {
			log.Printf("Failed to subscribe room %d: %v", client.ListingID, err)
			// The client still connects; tell it live delivery is down
			h.sendError(client, "LIVE_UNAVAILABLE",
				"Live updates are unavailable, refresh to see new messages")
		} else {
			r.stop = stop
		}
		h.rooms[client.ListingID] = r
	}

	r.clients[client] = true
	log.Printf("Client connected: %s (listing %d)", client.UserID, client.ListingID)
}

// unregisterClient removes a client, tearing the room down with the
// last subscriber
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.ListingID]
	if !ok || !r.clients[client] {
		return
	}

	delete(r.clients, client)
	close(client.Send)

	if len(r.clients) == 0 {
		if r.stop != nil {
			r.stop()
		}
		delete(h.rooms, client.ListingID)
	}

	log.Printf("Client disconnected: %s (listing %d)", client.UserID, client.ListingID)
}

// broadcast writes a message frame to every client in its room
func (h *Hub) broadcast(msg *models.Message) {
	frame := Frame{
		Type:      EventMessage,
		Payload:   msg,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Failed to marshal message frame: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[msg.ListingID]
	if !ok {
		return
	}

	for client := range r.clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("Dropping frame for slow client: %s", client.UserID)
		}
	}
}

// sendError writes an error frame to one client
func (h *Hub) sendError(client *Client, code, message string) {
	frame := Frame{
		Type:      EventError,
		Payload:   ErrorPayload{Code: code, Message: message},
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
	}
}

// RoomCount returns the number of active conversation rooms
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms)
}

// ClientCount returns the number of clients watching a listing
func (h *Hub) ClientCount(listingID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if r, ok := h.rooms[listingID]; ok {
		return len(r.clients)
	}
	return 0
}
