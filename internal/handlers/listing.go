package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusrent/server/internal/database"
	"campusrent/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// ListingFee is the flat platform fee charged per listing, in rupees
const ListingFee = 30.0

// CreateListingRequest represents create listing request body
type CreateListingRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	PricePerDay     float64 `json:"price_per_day"`
	CategoryID      int64   `json:"category_id,omitempty"`
	MeetingLocation string  `json:"meeting_location"`
	ImageURL        string  `json:"image_url,omitempty"`
	PaymentID       string  `json:"payment_id,omitempty"` // checkout reference for the listing fee
}

// GetListings returns available listings, newest first
func GetListings(c *fiber.Ctx) error {
	rows, err := database.Pool.Query(context.Background(), `
		SELECT l.id, l.owner_id, l.category_id, l.title, l.description, l.price_per_day,
			l.meeting_location, l.image_url, l.status, l.created_at, l.updated_at,
			u.name, u.campus_tag, c.name
		FROM listings l
		INNER JOIN users u ON l.owner_id = u.id
		LEFT JOIN categories c ON l.category_id = c.id
		WHERE l.status = 'available'
		ORDER BY l.created_at DESC
	`)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	listings := scanListings(rows)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    listings,
	})
}

// GetListing returns one listing with owner info
func GetListing(c *fiber.Ctx) error {
	listingID, err := strconv.ParseInt(c.Params("listingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid listing id",
		})
	}

	var l models.ListingWithOwner
	err = database.Pool.QueryRow(context.Background(), `
		SELECT l.id, l.owner_id, l.category_id, l.title, l.description, l.price_per_day,
			l.meeting_location, l.image_url, l.status, l.created_at, l.updated_at,
			u.name, u.campus_tag, c.name
		FROM listings l
		INNER JOIN users u ON l.owner_id = u.id
		LEFT JOIN categories c ON l.category_id = c.id
		WHERE l.id = $1
	`, listingID).Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Title, &l.Description,
		&l.PricePerDay, &l.MeetingLocation, &l.ImageURL, &l.Status,
		&l.CreatedAt, &l.UpdatedAt, &l.OwnerName, &l.OwnerTag, &l.CategoryName)

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

	return c.JSON(fiber.Map{
		"success": true,
		"data":    l,
	})
}

// GetMyListings returns the authenticated user's listings
func GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := database.Pool.Query(context.Background(), `
		SELECT l.id, l.owner_id, l.category_id, l.title, l.description, l.price_per_day,
			l.meeting_location, l.image_url, l.status, l.created_at, l.updated_at,
			u.name, u.campus_tag, c.name
		FROM listings l
		INNER JOIN users u ON l.owner_id = u.id
		LEFT JOIN categories c ON l.category_id = c.id
		WHERE l.owner_id = $1 AND l.status != 'removed'
		ORDER BY l.created_at DESC
	`, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	listings := scanListings(rows)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    listings,
	})
}

// CreateListing creates a listing and records the platform fee
func CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	req.Title = strings.TrimSpace(req.Title)

	if req.Title == "" || req.PricePerDay <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and a positive price_per_day are required",
		})
	}

	var categoryID *int64
	if req.CategoryID > 0 {
		categoryID = &req.CategoryID
	}
	var imageURL *string
	if req.ImageURL != "" {
		imageURL = &req.ImageURL
	}

	var listing models.Listing
	err := database.Pool.QueryRow(context.Background(), `
		INSERT INTO listings (owner_id, category_id, title, description, price_per_day,
			meeting_location, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'available', $8, $9)
		RETURNING id, owner_id, category_id, title, description, price_per_day,
			meeting_location, image_url, status, created_at, updated_at
	`, userID, categoryID, req.Title, req.Description, req.PricePerDay,
		req.MeetingLocation, imageURL, time.Now(), time.Now()).
		Scan(&listing.ID, &listing.OwnerID, &listing.CategoryID, &listing.Title,
			&listing.Description, &listing.PricePerDay, &listing.MeetingLocation,
			&listing.ImageURL, &listing.Status, &listing.CreatedAt, &listing.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create listing",
		})
	}

	// Record the listing fee against the wallet ledger. The checkout
	// reference is opaque; the widget itself lives outside this service.
	var reference *string
	if req.PaymentID != "" {
		reference = &req.PaymentID
	}
	_, err = database.Pool.Exec(context.Background(), `
		INSERT INTO wallet_transactions (user_id, kind, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, models.TxnFee, ListingFee, reference, time.Now())
	if err != nil {
		// The listing exists either way; the fee row is bookkeeping
		notifyUser(userID, models.NotifWallet, "Fee Not Recorded",
			fmt.Sprintf("The platform fee for %q could not be recorded", listing.Title))
	}

	notifyUser(userID, models.NotifListing, "Item Listed",
		fmt.Sprintf("%q is now visible to other students", listing.Title))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    listing,
	})
}

// DeleteListing soft-deletes a listing owned by the caller
func DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	listingID, err := strconv.ParseInt(c.Params("listingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid listing id",
		})
	}

	tag, err := database.Pool.Exec(context.Background(), `
		UPDATE listings SET status = 'removed', updated_at = $1
		WHERE id = $2 AND owner_id = $3
	`, time.Now(), listingID, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Listing not found or you don't own it",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Listing removed",
	})
}

// GetCategories returns all categories ordered by name
func GetCategories(c *fiber.Ctx) error {
	rows, err := database.Pool.Query(context.Background(),
		"SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			continue
		}
		categories = append(categories, cat)
	}

	if categories == nil {
		categories = []models.Category{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

func scanListings(rows pgx.Rows) []models.ListingWithOwner {
	var listings []models.ListingWithOwner
	for rows.Next() {
		var l models.ListingWithOwner
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Title, &l.Description,
			&l.PricePerDay, &l.MeetingLocation, &l.ImageURL, &l.Status,
			&l.CreatedAt, &l.UpdatedAt, &l.OwnerName, &l.OwnerTag, &l.CategoryName); err != nil {
			continue
		}
		listings = append(listings, l)
	}
	if listings == nil {
		listings = []models.ListingWithOwner{}
	}
	return listings
}
