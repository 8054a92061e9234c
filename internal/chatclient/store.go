package chatclient

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReconcileWindow is how far apart the optimistic and durable
// timestamps of the same logical message may be and still match. The
// optimistic clock is the client's, the durable one the database's,
// so a few seconds of skew must be absorbed.
const ReconcileWindow = 5 * time.Second

// Sender performs the durable send of a message
type Sender interface {
	Send(ctx context.Context, listingID int64, content, attachmentURL string) (*Message, error)
}

// DialFunc opens the live subscription for a conversation
type DialFunc func(ctx context.Context, listingID int64) (LiveStream, error)

// Store is the per-conversation ordered message log. It merges the
// history snapshot, live pushes and the local user's optimistic sends
// into one deduplicated, time-ordered sequence.
//
// All methods are safe for concurrent use; merges are serialized under
// one mutex so the final order does not depend on arrival order.
type Store struct {
	userID string
	sender Sender
	loader *HistoryLoader
	dial   DialFunc

	mu        sync.Mutex
	listingID int64
	epoch     uint64 // bumped by Open/Close; stale async results are discarded
	entries   []Entry
	live      LiveStream

	updates chan struct{}
}

// NewStore builds a store for one authenticated user. An empty userID
// produces a read-only store: SendLocal returns ErrUnauthenticated.
func NewStore(userID string, sender Sender, loader *HistoryLoader, dial DialFunc) *Store {
	if loader == nil {
		loader = &HistoryLoader{}
	}
	return &Store{
		userID:  userID,
		sender:  sender,
		loader:  loader,
		dial:    dial,
		updates: make(chan struct{}, 1),
	}
}

// Open switches the store to a conversation. Previous state is
// discarded and the previous subscription closed. The history fetch
// and the live subscription start concurrently; Open returns as soon
// as both are scheduled, and their results are merged as they arrive.
func (s *Store) Open(ctx context.Context, listingID int64) {
	s.mu.Lock()
	s.resetLocked(listingID)
	epoch := s.epoch
	s.mu.Unlock()

	go s.loadHistory(ctx, listingID, epoch)
	go s.subscribe(ctx, listingID, epoch)
}

// Close tears down the live subscription and drops conversation state
func (s *Store) Close() {
	s.mu.Lock()
	s.resetLocked(0)
	s.mu.Unlock()
}

// resetLocked bumps the epoch, closes any live stream and clears state
func (s *Store) resetLocked(listingID int64) {
	s.epoch++
	if s.live != nil {
		s.live.Close()
		s.live = nil
	}
	s.listingID = listingID
	s.entries = nil
}

// loadHistory fetches the snapshot and merges it, unless the
// conversation changed while the fetch was in flight
func (s *Store) loadHistory(ctx context.Context, listingID int64, epoch uint64) {
	history := s.loader.Load(ctx, listingID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Late result from a superseded conversation; discard
		return
	}
	for _, m := range history {
		s.mergeLocked(m)
	}
	s.signal()
}

// subscribe opens the live channel and pumps it into merge until it
// closes or the conversation changes
func (s *Store) subscribe(ctx context.Context, listingID int64, epoch uint64) {
	if s.dial == nil {
		return
	}

	stream, err := s.dial(ctx, listingID)
	if err != nil {
		// Degraded mode: history-derived state stays intact and the
		// conversation works without live delivery
		log.Printf("chatclient: live subscription for listing %d failed: %v", listingID, err)
		return
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		stream.Close()
		// Drain until the stream's read loop closes the channel; its
		// buffered frames belong to a superseded conversation and a
		// full buffer would otherwise block that loop forever
		go func() {
			for range stream.Messages() {
			}
		}()
		return
	}
	s.live = stream
	s.mu.Unlock()

	for msg := range stream.Messages() {
		s.Merge(msg)
	}

	if err := stream.Err(); err != nil {
		log.Printf("chatclient: live channel for listing %d ended: %v", listingID, err)
	}
}

// Merge inserts a durable message into the ordered list. Merging the
// same message twice is a no-op, as is the live echo of a message
// already reconciled through the send response.
func (s *Store) Merge(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(msg)
	s.signal()
}

func (s *Store) mergeLocked(msg Message) {
	if msg.ListingID != s.listingID {
		return
	}

	// Dedup by durable id
	if msg.Durable() {
		for _, e := range s.entries {
			if e.ID == msg.ID {
				return
			}
		}
	}

	// Reconcile against a pending optimistic entry: same sender and
	// content, created within the tolerance window. The optimistic
	// entry keeps its position; only identity becomes durable.
	if msg.Durable() {
		for i := range s.entries {
			e := &s.entries[i]
			if !e.Durable() &&
				e.SenderID == msg.SenderID &&
				e.Content == msg.Content &&
				absDuration(e.CreatedAt.Sub(msg.CreatedAt)) <= ReconcileWindow {
				e.ID = msg.ID
				e.LocalID = ""
				e.AttachmentURL = msg.AttachmentURL
				e.Pending = false
				e.Failed = false
				return
			}
		}
	}

	s.insertLocked(Entry{Message: msg})
}

// insertLocked places an entry keeping createdAt-ascending order, ties
// broken by insertion order
func (s *Store) insertLocked(e Entry) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].CreatedAt.After(e.CreatedAt)
	})
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// SendLocal appends an optimistic entry, immediately visible, and
// issues the durable send in the background. The returned local id
// identifies the entry until reconciliation. On send failure the entry
// stays visible, flagged failed; it is never silently dropped.
func (s *Store) SendLocal(ctx context.Context, content, attachmentURL string) (string, error) {
	if s.userID == "" {
		return "", ErrUnauthenticated
	}

	s.mu.Lock()
	if s.listingID == 0 {
		s.mu.Unlock()
		return "", ErrChannelClosed
	}
	listingID := s.listingID
	epoch := s.epoch

	entry := Entry{
		Message: Message{
			LocalID:       uuid.New().String(),
			ListingID:     listingID,
			SenderID:      s.userID,
			Content:       content,
			AttachmentURL: attachmentURL,
			CreatedAt:     s.nextTimestampLocked(),
		},
		Pending: true,
	}
	s.insertLocked(entry)
	s.signal()
	s.mu.Unlock()

	go s.deliver(ctx, entry, epoch)

	return entry.LocalID, nil
}

// deliver runs the durable send and reconciles or flags the entry
func (s *Store) deliver(ctx context.Context, entry Entry, epoch uint64) {
	msg, err := s.sender.Send(ctx, entry.ListingID, entry.Content, entry.AttachmentURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}

	if err != nil {
		log.Printf("chatclient: send to listing %d failed: %v", entry.ListingID, err)
		for i := range s.entries {
			if s.entries[i].LocalID == entry.LocalID {
				s.entries[i].Pending = false
				s.entries[i].Failed = true
				break
			}
		}
		s.signal()
		return
	}

	// Feed the confirmed row through merge immediately rather than
	// waiting for the live echo; whichever arrives second is a no-op
	s.mergeLocked(*msg)
	s.signal()
}

// nextTimestampLocked returns now, clamped so the sender's own entries
// never go backwards in time
func (s *Store) nextTimestampLocked() time.Time {
	now := time.Now()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].SenderID == s.userID {
			if now.Before(s.entries[i].CreatedAt) {
				now = s.entries[i].CreatedAt
			}
			break
		}
	}
	return now
}

// Snapshot returns the current rendered list, ordered and
// deduplicated, with per-entry pending/failed state
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// PendingCount returns how many optimistic entries await reconciliation
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.Pending {
			n++
		}
	}
	return n
}

// Updates signals after every state change. The channel is buffered
// and coalescing: a renderer drains it and calls Snapshot.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

func (s *Store) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
