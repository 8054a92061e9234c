package websocket

import (
	"time"

	"campusrent/server/internal/models"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// EventMessage carries a durable chat message
	EventMessage EventType = "message"

	// EventError carries a non-fatal error notice
	EventError EventType = "error"
)

// Frame is the envelope written to every websocket client
type Frame struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageFrame is the concrete shape of an EventMessage frame, used by
// clients to decode what the hub writes
type MessageFrame struct {
	Type      EventType      `json:"type"`
	Payload   models.Message `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// ErrorPayload is the payload of an EventError frame
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
