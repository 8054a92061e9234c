package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
)

// thumbWidth is the width of generated listing thumbnails; height
// keeps the aspect ratio
const thumbWidth = 320

// Store uploads images to an S3 bucket and hands back public URLs
type Store struct {
	client *s3.Client
	bucket string
	region string
}

// New builds a Store from AWS_* environment variables
func New(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("AWS_BUCKET")
	region := os.Getenv("AWS_REGION")
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("AWS_BUCKET and AWS_REGION must be set")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// Upload stores raw bytes under key and returns the public URL
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// UploadImageWithThumbnail stores an image plus a resized thumbnail
// next to it ("<key>" and "thumbs/<key>") and returns both URLs. The
// thumbnail is always JPEG. Webp has no registered decoder, so webp
// uploads are stored as-is and serve as their own thumbnail.
func (s *Store) UploadImageWithThumbnail(ctx context.Context, key string, data []byte, contentType string) (string, string, error) {
	if contentType == "image/webp" {
		url, err := s.Upload(ctx, key, data, contentType)
		return url, url, err
	}

	// Build the thumbnail before touching the bucket so a bad image
	// never leaves a partial upload behind
	thumb, err := makeThumbnail(data)
	if err != nil {
		return "", "", fmt.Errorf("failed to build thumbnail for %q: %w", key, err)
	}

	url, err := s.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", "", err
	}

	thumbKey := "thumbs/" + strings.TrimSuffix(key, ext(key)) + ".jpg"
	thumbURL, err := s.Upload(ctx, thumbKey, thumb, "image/jpeg")
	if err != nil {
		return "", "", err
	}

	return url, thumbURL, nil
}

// makeThumbnail resizes an image to the thumbnail width, keeping the
// aspect ratio, and encodes it as JPEG
func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PublicURL builds the public URL for a stored key
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func ext(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i:]
	}
	return ""
}
