package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"campusrent/server/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	MaxImageSize     = 5 * 1024 * 1024 // 5MB
	AllowedImageExts = ".jpg,.jpeg,.png,.webp"
)

var uploads *storage.Store

// InitStorage wires the object store used by uploads and KYC
func InitStorage(s *storage.Store) {
	uploads = s
}

// UploadImage stores a listing or chat image and returns its public
// URL plus a thumbnail URL
func UploadImage(c *fiber.Ctx) error {
	if uploads == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "File storage is not configured",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No image uploaded",
		})
	}

	if file.Size > MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("Image size exceeds limit of 5MB (uploaded: %.2fMB)", float64(file.Size)/(1024*1024)),
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !isImageExt(ext) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid image format. Allowed: jpg, jpeg, png, webp",
		})
	}

	data, err := readFormFile(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read uploaded image",
		})
	}

	key := fmt.Sprintf("listings/%s-%d%s", uuid.New().String(), time.Now().Unix(), ext)
	url, thumbURL, err := uploads.UploadImageWithThumbnail(c.Context(), key, data, contentTypeFor(ext))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to store image",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"filename":      file.Filename,
			"size":          file.Size,
			"url":           url,
			"thumbnail_url": thumbURL,
		},
	})
}

// uploadFormImage stores a multipart image under the given key without
// generating a thumbnail
func uploadFormImage(c *fiber.Ctx, file *multipart.FileHeader, key string) (string, error) {
	data, err := readFormFile(file)
	if err != nil {
		return "", err
	}
	return uploads.Upload(c.Context(), key, data, contentTypeFor(strings.ToLower(filepath.Ext(file.Filename))))
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isImageExt(ext string) bool {
	return ext != "" && strings.Contains(AllowedImageExts, strings.ToLower(ext))
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
