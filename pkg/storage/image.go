package storage

import (
	"abclisting/pkg/logger"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	ListingImagePrefix = "listings/"

	DefaultMaxImageBytes = 5 * 1024 * 1024
)

var (
	ErrInvalidDataURI       = errors.New("image must be a base64 data URI")
	ErrUnsupportedImageType = errors.New("image must be png, jpeg or webp")
	ErrImageTooLarge        = errors.New("image is too large")
	ErrNotConfigured        = errors.New("object storage is not configured")
	ErrForeignURL           = errors.New("image URL does not belong to this store")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ImageStore persists listing images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, dataURI string) (string, error)
	// Delete removes an image previously returned by Upload.
	Delete(ctx context.Context, url string) error
}

type Image struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes "data:<mime>;base64,<payload>".
func ParseDataURI(dataURI string, maxBytes int) (*Image, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedImageType, contentType)
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return &Image{ContentType: contentType, Data: data}, nil
}

type MinioImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxBytes  int
	log       *logger.Logger
}

// NewMinioImageStore serves objects from publicURL/<bucket>/<key>. publicURL
// defaults to the client's endpoint.
func NewMinioImageStore(client *minio.Client, bucket, publicURL string, maxBytes int, log *logger.Logger) *MinioImageStore {
	if publicURL == "" && client != nil {
		publicURL = client.EndpointURL().String()
	}
	return &MinioImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		maxBytes:  maxBytes,
		log:       log,
	}
}

// EnsureBucket creates the bucket on first start.
func (s *MinioImageStore) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Created object storage bucket", "bucket", s.bucket)
	return nil
}

func (s *MinioImageStore) Upload(ctx context.Context, dataURI string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	img, err := ParseDataURI(dataURI, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := ListingImagePrefix + uuid.NewString() + imageExtensions[img.ContentType]
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType:  img.ContentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.log.Info("Uploaded listing image", "bucket", s.bucket, "key", key, "size", info.Size)
	return s.publicURL + "/" + s.bucket + "/" + key, nil
}

// KeyFromURL returns the object key behind a URL returned by Upload.
func (s *MinioImageStore) KeyFromURL(url string) (string, error) {
	key, ok := strings.CutPrefix(url, s.publicURL+"/"+s.bucket+"/")
	if !ok || !strings.HasPrefix(key, ListingImagePrefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return key, nil
}

func (s *MinioImageStore) Delete(ctx context.Context, url string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	key, err := s.KeyFromURL(url)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	s.log.Info("Deleted listing image", "bucket", s.bucket, "key", key)
	return nil
}
