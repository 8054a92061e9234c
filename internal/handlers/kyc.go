package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"campusrent/server/internal/database"
	"campusrent/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const (
	// Face matching is a stub: a fixed score after a short delay,
	// standing in for a real verification provider.
	faceMatchScore     = 0.85
	faceMatchThreshold = 0.6
	faceMatchDelay     = 1500 * time.Millisecond

	maxKYCImageSize = 5 * 1024 * 1024
)

// SubmitKYC accepts a selfie and an id-card photo, stores both, runs
// the face match and records the verification
func SubmitKYC(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	if uploads == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "File storage is not configured",
		})
	}

	selfie, err := c.FormFile("selfie")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Selfie is missing",
		})
	}

	idCard, err := c.FormFile("id_card")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Identity card is missing",
		})
	}

	for _, f := range []*multipart.FileHeader{selfie, idCard} {
		if f.Size > maxKYCImageSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Image size exceeds limit of 5MB",
			})
		}
		if !isImageExt(filepath.Ext(f.Filename)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Only jpg, jpeg, png and webp images are allowed",
			})
		}
	}

	score := matchFaces(selfie, idCard)
	if score < faceMatchThreshold {
		// Record the failed attempt so support can review it
		_, _ = database.Pool.Exec(context.Background(), `
			INSERT INTO kyc_verifications (user_id, selfie_url, id_card_url, score, status, created_at)
			VALUES ($1, '', '', $2, $3, $4)
		`, userID, score, models.KYCRejected, time.Now())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "Face verification failed. Your photo does not match the ID proof",
		})
	}

	now := time.Now().Unix()
	selfieURL, err := uploadFormImage(c, selfie,
		fmt.Sprintf("kyc/%s_user_%d%s", userID, now, strings.ToLower(filepath.Ext(selfie.Filename))))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to store selfie",
		})
	}

	idURL, err := uploadFormImage(c, idCard,
		fmt.Sprintf("kyc/%s_id_%d%s", userID, now, strings.ToLower(filepath.Ext(idCard.Filename))))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to store identity card",
		})
	}

	var verification models.KYCVerification
	err = database.Pool.QueryRow(context.Background(), `
		INSERT INTO kyc_verifications (user_id, selfie_url, id_card_url, score, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, selfie_url, id_card_url, score, status, created_at
	`, userID, selfieURL, idURL, score, models.KYCApproved, time.Now()).
		Scan(&verification.ID, &verification.UserID, &verification.SelfieURL,
			&verification.IDCardURL, &verification.Score, &verification.Status,
			&verification.CreatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record verification",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    verification,
	})
}

// GetKYCStatus returns the caller's latest verification, if any
func GetKYCStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var verification models.KYCVerification
	err := database.Pool.QueryRow(context.Background(), `
		SELECT id, user_id, selfie_url, id_card_url, score, status, created_at
		FROM kyc_verifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&verification.ID, &verification.UserID, &verification.SelfieURL,
		&verification.IDCardURL, &verification.Score, &verification.Status,
		&verification.CreatedAt)

	if err == pgx.ErrNoRows {
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"status": "unverified",
			},
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
		"data":    verification,
	})
}

// matchFaces returns the mock face-match score
func matchFaces(selfie, idCard *multipart.FileHeader) float64 {
	_ = selfie
	_ = idCard
	time.Sleep(faceMatchDelay)
	return faceMatchScore
}
