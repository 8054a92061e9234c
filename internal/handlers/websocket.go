package handlers

import (
	"log"
	"strconv"

	ws "campusrent/server/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

var (
	// WSHub is the global WebSocket hub instance
	WSHub *ws.Hub
)

// InitWebSocket initializes the WebSocket hub on top of the given feed
func InitWebSocket(feed ws.MessageFeed) {
	WSHub = ws.NewHub(feed)
	go WSHub.Run()
	log.Println("✅ WebSocket Hub initialized")
}

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocketHandler joins a connection to one listing conversation
func WebSocketHandler(c *websocket.Conn) {
	userID := c.Locals("userID").(string)

	listingID, err := strconv.ParseInt(c.Params("listingId"), 10, 64)
	if err != nil || listingID <= 0 {
		c.Close()
		return
	}

	client := ws.NewClient(userID, listingID, c, WSHub)
	WSHub.Register <- client

	go client.WritePump()
	client.ReadPump() // Blocks until the connection closes
}

// GetWebSocketStats returns live-channel statistics
func GetWebSocketStats(c *fiber.Ctx) error {
	if WSHub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "WebSocket hub not initialized",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"activeRooms": WSHub.RoomCount(),
		},
	})
}
