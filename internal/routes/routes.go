package routes

import (
	"campusrent/server/internal/handlers"
	"campusrent/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "CampusRent API is running",
		})
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.StrictRateLimiter(), handlers.Register)
	auth.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	auth.Get("/me", middleware.AuthMiddleware, handlers.GetMe)

	// Listing routes
	api.Get("/listings", handlers.GetListings)
	api.Get("/categories", handlers.GetCategories)
	listings := api.Group("/listings", middleware.AuthMiddleware)
	listings.Get("/mine", handlers.GetMyListings)
	listings.Post("/", handlers.CreateListing)
	listings.Get("/:listingId", handlers.GetListing)
	listings.Delete("/:listingId", handlers.DeleteListing)

	// Message routes (protected) - history fetch + durable send
	messages := api.Group("/messages", middleware.AuthMiddleware)
	messages.Get("/", handlers.GetMessages)
	messages.Post("/", middleware.SendRateLimiter(), handlers.SendMessage)

	// Wallet routes (protected)
	wallet := api.Group("/wallet", middleware.AuthMiddleware)
	wallet.Get("/", handlers.GetWallet)
	wallet.Post("/topup", handlers.TopUp)
	wallet.Post("/withdraw", handlers.Withdraw)

	// Notification routes (protected)
	notifications := api.Group("/notifications", middleware.AuthMiddleware)
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/read", handlers.MarkNotificationsRead)

	// KYC routes (protected)
	kyc := api.Group("/kyc", middleware.AuthMiddleware)
	kyc.Post("/", middleware.UploadRateLimiter(), handlers.SubmitKYC)
	kyc.Get("/status", handlers.GetKYCStatus)

	// Upload routes (protected)
	uploads := api.Group("/upload", middleware.AuthMiddleware)
	uploads.Post("/image", middleware.UploadRateLimiter(), handlers.UploadImage)

	// WebSocket route (protected): one live channel per listing conversation
	api.Get("/ws/:listingId", middleware.AuthMiddleware, handlers.WebSocketUpgrade, websocket.New(handlers.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws-stats", middleware.AuthMiddleware, handlers.GetWebSocketStats)
}
