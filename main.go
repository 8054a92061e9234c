package main

import (
	"context"
	"log"
	"os"

	"campusrent/server/internal/broker"
	"campusrent/server/internal/database"
	"campusrent/server/internal/handlers"
	"campusrent/server/internal/routes"
	"campusrent/server/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Connect to NATS for chat fan-out
	chatBroker, err := broker.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer chatBroker.Close()
	log.Println("✅ Chat broker connected")

	handlers.InitPublisher(chatBroker)
	handlers.InitWebSocket(chatBroker)

	// Object storage is optional in development; uploads and KYC
	// report unavailable when it is not configured
	store, err := storage.New(context.Background())
	if err != nil {
		log.Printf("Object storage disabled: %v", err)
	} else {
		handlers.InitStorage(store)
		log.Println("✅ Object storage ready")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "CampusRent API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
