package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"campusrent/server/internal/models"
)

// fakeFeed captures subscriptions so tests can push messages directly
type fakeFeed struct {
	mu       sync.Mutex
	handlers map[int64]func(*models.Message)
	stops    map[int64]int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		handlers: make(map[int64]func(*models.Message)),
		stops:    make(map[int64]int),
	}
}

func (f *fakeFeed) Subscribe(ctx context.Context, listingID int64, handler func(*models.Message)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[listingID] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.stops[listingID]++
	}, nil
}

func (f *fakeFeed) push(msg *models.Message) {
	f.mu.Lock()
	handler := f.handlers[msg.ListingID]
	f.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

func (f *fakeFeed) stopCount(listingID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops[listingID]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func recvFrame(t *testing.T, c *Client) MessageFrame {
	t.Helper()
	select {
	case data := <-c.Send:
		var frame MessageFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("unmarshaling frame: %v", err)
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return MessageFrame{}
	}
}

func TestHubRoomLifecycle(t *testing.T) {
	feed := newFakeFeed()
	hub := NewHub(feed)
	go hub.Run()

	c1 := NewClient("u1", 7, nil, hub)
	c2 := NewClient("u2", 7, nil, hub)

	hub.Register <- c1
	waitFor(t, "first registration", func() bool { return hub.ClientCount(7) == 1 })
	hub.Register <- c2
	waitFor(t, "second registration", func() bool { return hub.ClientCount(7) == 2 })

	if hub.RoomCount() != 1 {
		t.Fatalf("expected 1 room, got %d", hub.RoomCount())
	}

	hub.Unregister <- c1
	waitFor(t, "first unregistration", func() bool { return hub.ClientCount(7) == 1 })
	if feed.stopCount(7) != 0 {
		t.Fatal("subscription stopped while the room still had a client")
	}

	hub.Unregister <- c2
	waitFor(t, "room teardown", func() bool { return hub.RoomCount() == 0 })
	if feed.stopCount(7) != 1 {
		t.Fatalf("expected subscription stopped once, got %d", feed.stopCount(7))
	}
}

func TestHubBroadcastReachesEveryClientInRoom(t *testing.T) {
	feed := newFakeFeed()
	hub := NewHub(feed)
	go hub.Run()

	c1 := NewClient("u1", 7, nil, hub)
	c2 := NewClient("u2", 7, nil, hub)
	other := NewClient("u3", 8, nil, hub)

	hub.Register <- c1
	hub.Register <- c2
	hub.Register <- other
	waitFor(t, "registrations", func() bool {
		return hub.ClientCount(7) == 2 && hub.ClientCount(8) == 1
	})

	feed.push(&models.Message{ID: 5, ListingID: 7, SenderID: "u1", Content: "hi", CreatedAt: time.Now()})

	for _, c := range []*Client{c1, c2} {
		frame := recvFrame(t, c)
		if frame.Type != EventMessage {
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
		if frame.Payload.ID != 5 || frame.Payload.Content != "hi" {
			t.Fatalf("unexpected payload: %+v", frame.Payload)
		}
	}

	select {
	case data := <-other.Send:
		t.Fatalf("client on listing 8 received a listing 7 frame: %s", data)
	default:
	}
}

// failingFeed rejects every subscription
type failingFeed struct{}

func (failingFeed) Subscribe(ctx context.Context, listingID int64, handler func(*models.Message)) (func(), error) {
	return nil, errors.New("broker down")
}

func TestHubSubscribeFailureNotifiesClient(t *testing.T) {
	hub := NewHub(failingFeed{})
	go hub.Run()

	c := NewClient("u1", 7, nil, hub)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.ClientCount(7) == 1 })

	select {
	case data := <-c.Send:
		var frame struct {
			Type    EventType    `json:"type"`
			Payload ErrorPayload `json:"payload"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("unmarshaling frame: %v", err)
		}
		if frame.Type != EventError {
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
		if frame.Payload.Code != "LIVE_UNAVAILABLE" {
			t.Fatalf("unexpected error payload: %+v", frame.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error frame received")
	}
}

func TestHubBroadcastWithoutRoomIsNoop(t *testing.T) {
	feed := newFakeFeed()
	hub := NewHub(feed)

	// No rooms exist yet; a stray broadcast must not panic
	hub.broadcast(&models.Message{ID: 1, ListingID: 99, SenderID: "u1", Content: "stray"})
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	feed := newFakeFeed()
	hub := NewHub(feed)
	go hub.Run()

	c := NewClient("u1", 7, nil, hub)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.ClientCount(7) == 1 })

	hub.Unregister <- c
	waitFor(t, "teardown", func() bool { return hub.RoomCount() == 0 })

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected send channel closed, got a frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
}
