package models

import "time"

// Notification types
const (
	NotifMessage = "message"
	NotifListing = "listing"
	NotifWallet  = "wallet"
	NotifBooking = "booking"
)

// Notification is an in-app notification row
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
