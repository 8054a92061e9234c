package models

import "time"

// Listing statuses
const (
	ListingAvailable = "available"
	ListingRemoved   = "removed"
)

// Listing represents a rentable item posted by a student
type Listing struct {
	ID              int64     `json:"id" db:"id"`
	OwnerID         string    `json:"ownerId" db:"owner_id"`
	CategoryID      *int64    `json:"categoryId,omitempty" db:"category_id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	PricePerDay     float64   `json:"pricePerDay" db:"price_per_day"`
	MeetingLocation string    `json:"meetingLocation" db:"meeting_location"`
	ImageURL        *string   `json:"imageUrl,omitempty" db:"image_url"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// ListingWithOwner includes owner and category info for browse screens
type ListingWithOwner struct {
	Listing
	OwnerName    string  `json:"ownerName"`
	OwnerTag     string  `json:"ownerTag"`
	CategoryName *string `json:"categoryName,omitempty"`
}

// Category groups listings for browsing
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
