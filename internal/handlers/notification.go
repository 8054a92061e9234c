package handlers

import (
	"context"
	"log"
	"time"

	"campusrent/server/internal/database"
	"campusrent/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MarkNotificationsRequest represents mark-read request body. Empty
// IDs means mark everything.
type MarkNotificationsRequest struct {
	IDs []int64 `json:"ids,omitempty"`
}

// GetNotifications returns the caller's notifications, newest first
func GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := database.Pool.Query(context.Background(), `
		SELECT id, user_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var items []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.Read, &n.CreatedAt); err != nil {
			continue
		}
		items = append(items, n)
	}

	if items == nil {
		items = []models.Notification{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
	})
}

// MarkNotificationsRead marks the given notifications (or all) as read
func MarkNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req MarkNotificationsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var err error
	if len(req.IDs) > 0 {
		_, err = database.Pool.Exec(context.Background(),
			"UPDATE notifications SET read = true WHERE user_id = $1 AND id = ANY($2)",
			userID, req.IDs)
	} else {
		_, err = database.Pool.Exec(context.Background(),
			"UPDATE notifications SET read = true WHERE user_id = $1 AND read = false",
			userID)
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to mark notifications as read",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notifications marked as read",
	})
}

// notifyUser inserts a notification row. Failures are logged only; a
// missing notification never fails the action that triggered it.
func notifyUser(userID, notifType, title, message string) {
	_, err := database.Pool.Exec(context.Background(), `
		INSERT INTO notifications (user_id, type, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, notifType, title, message, time.Now())
	if err != nil {
		log.Printf("Failed to create notification for %s: %v", userID, err)
	}
}
