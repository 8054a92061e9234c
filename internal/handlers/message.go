package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"campusrent/server/internal/database"
	"campusrent/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// MessagePublisher pushes a durable message onto the live channel.
// *broker.Broker satisfies it.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
}

var publisher MessagePublisher

// InitPublisher wires the live-channel publisher used after sends
func InitPublisher(p MessagePublisher) {
	publisher = p
}

// SendMessageRequest represents send message request body
type SendMessageRequest struct {
	ListingID     int64  `json:"listing_id"`
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// GetMessages returns the full history of a listing conversation,
// ascending by creation time
func GetMessages(c *fiber.Ctx) error {
	listingID, err := strconv.ParseInt(c.Query("listing_id"), 10, 64)
	if err != nil || listingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "listing_id query parameter is required",
		})
	}

	rows, err := database.Pool.Query(context.Background(), `
		SELECT m.id, m.listing_id, m.sender_id, m.content, m.attachment_url, m.created_at, u.name
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE m.listing_id = $1
		ORDER BY m.created_at ASC
	`, listingID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var messages []models.MessageWithSender

	for rows.Next() {
		var m models.MessageWithSender
		if err := rows.Scan(&m.ID, &m.ListingID, &m.SenderID, &m.Content,
			&m.AttachmentURL, &m.CreatedAt, &m.SenderName); err != nil {
			continue
		}
		messages = append(messages, m)
	}

	if messages == nil {
		messages = []models.MessageWithSender{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    messages,
	})
}

// SendMessage appends a message to a listing conversation. The durable
// row is returned in the response and also published to the live
// channel, so senders reconcile against whichever arrives first.
func SendMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	req.Content = strings.TrimSpace(req.Content)

	if req.ListingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "listing_id is required",
		})
	}

	// Content may be empty only when an attachment is present
	if req.Content == "" && req.AttachmentURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Message content is required",
		})
	}

	// Conversation must belong to a real listing
	var ownerID string
	err := database.Pool.QueryRow(context.Background(),
		"SELECT owner_id FROM listings WHERE id = $1", req.ListingID).Scan(&ownerID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Listing not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	var attachment *string
	if req.AttachmentURL != "" {
		attachment = &req.AttachmentURL
	}

	var message models.Message
	err = database.Pool.QueryRow(context.Background(), `
		INSERT INTO messages (listing_id, sender_id, content, attachment_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, listing_id, sender_id, content, attachment_url, created_at
	`, req.ListingID, userID, req.Content, attachment, time.Now()).
		Scan(&message.ID, &message.ListingID, &message.SenderID, &message.Content,
			&message.AttachmentURL, &message.CreatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send message",
		})
	}

	// Push to the live channel; the REST response already carries the
	// durable row, so a publish failure only delays other viewers
	if publisher != nil {
		if err := publisher.PublishMessage(context.Background(), &message); err != nil {
			log.Printf("Failed to publish message %d: %v", message.ID, err)
		}
	}

	// Notify the listing owner, unless they sent it themselves
	if ownerID != userID {
		notifyUser(ownerID, models.NotifMessage, "New Message",
			fmt.Sprintf("You have a new message about listing #%d", req.ListingID))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}
