// Package chatclient implements the client side of listing
// conversations: a REST history fetch with a direct-table fallback, a
// websocket live channel, and a conversation store that merges both
// with the local user's optimistic sends into one ordered,
// duplicate-free message list.
package chatclient

import "time"

// Message is one chat message in a listing conversation. Durable
// messages carry a server-assigned ID; optimistic local entries have
// ID zero and are identified by LocalID until reconciled.
type Message struct {
	ID            int64     `json:"id"`
	LocalID       string    `json:"-"`
	ListingID     int64     `json:"listingId"`
	SenderID      string    `json:"senderId"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Durable reports whether the message has a server-assigned id
func (m Message) Durable() bool {
	return m.ID != 0
}

// Entry is a message plus its rendering state. Pending entries are
// optimistic sends still in flight; Failed entries stay visible so the
// user can see what they tried to send.
type Entry struct {
	Message
	Pending bool
	Failed  bool
}
