package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/fasthttp/websocket"
)

// LiveStream is a cancelable stream of incoming durable messages for
// one conversation. Messages() is closed when the stream ends; Err()
// then reports why.
type LiveStream interface {
	Messages() <-chan Message
	Close() error
	Err() error
}

// LiveChannel is the websocket-backed LiveStream. It is receive-only:
// sends always go through the REST path and loop back over the
// channel.
type LiveChannel struct {
	conn *websocket.Conn
	msgs chan Message

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// dialLive opens the subscription and starts the read loop
func dialLive(ctx context.Context, wsURL, token string) (*LiveChannel, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	lc := &LiveChannel{
		conn: conn,
		msgs: make(chan Message, 64),
	}
	go lc.readLoop()
	return lc, nil
}

// Messages returns the stream of incoming messages. The channel is
// closed when the subscription ends.
func (lc *LiveChannel) Messages() <-chan Message {
	return lc.msgs
}

// Err reports why the stream ended, nil while it is still open or
// after a clean Close
func (lc *LiveChannel) Err() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.err
}

// Close tears the subscription down. Safe to call more than once.
func (lc *LiveChannel) Close() error {
	lc.closeOnce.Do(func() {
		lc.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		lc.conn.Close()
	})
	return nil
}

// readLoop pumps frames off the connection until it closes. Malformed
// frames are dropped; they never terminate the subscription.
func (lc *LiveChannel) readLoop() {
	defer close(lc.msgs)

	for {
		_, data, err := lc.conn.ReadMessage()
		if err != nil {
			lc.mu.Lock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lc.err = fmt.Errorf("%w: %v", ErrChannelClosed, err)
			}
			lc.mu.Unlock()
			lc.conn.Close()
			return
		}

		msg, ok := decodeFrame(data)
		if !ok {
			continue
		}
		lc.msgs <- msg
	}
}

// liveFrame is the hub's wire envelope
type liveFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeFrame extracts a durable message from a wire frame. Anything
// that is not a well-formed message frame is rejected.
func decodeFrame(data []byte) (Message, bool) {
	var frame liveFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Message{}, false
	}
	if frame.Type != "message" {
		return Message{}, false
	}

	var msg Message
	if err := json.Unmarshal(frame.Payload, &msg); err != nil {
		return Message{}, false
	}
	if msg.ID == 0 || msg.ListingID == 0 {
		return Message{}, false
	}
	return msg, true
}
