package models

import "time"

// Message represents a chat message in a listing conversation.
// Conversations are keyed by listing: everyone chatting about the same
// item shares one thread.
type Message struct {
	ID            int64     `json:"id" db:"id"`
	ListingID     int64     `json:"listingId" db:"listing_id"`
	SenderID      string    `json:"senderId" db:"sender_id"`
	Content       string    `json:"content" db:"content"`
	AttachmentURL *string   `json:"attachmentUrl,omitempty" db:"attachment_url"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// MessageWithSender includes sender information for history responses
type MessageWithSender struct {
	ID            int64     `json:"id"`
	ListingID     int64     `json:"listingId"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	Content       string    `json:"content"`
	AttachmentURL *string   `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
