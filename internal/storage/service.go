package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Config selects and configures the photo storage backend.
type Config struct {
	Mode      string // "local" or "s3"
	LocalPath string
	S3        S3Config
}

// DefaultConfig stores photos under ./uploads on local disk.
func DefaultConfig() Config {
	return Config{Mode: "local", LocalPath: "./uploads"}
}

// Service stores advertisement photos and hands out stable keys for them.
type Service struct {
	backend Backend
}

// NewService builds the backend named by cfg.Mode.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Mode {
	case "s3":
		backend, err = NewS3(ctx, cfg.S3)
	case "", "local":
		backend, err = NewLocal(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	return &Service{backend: backend}, nil
}

// NewServiceWithBackend wraps an existing backend, used by tests.
func NewServiceWithBackend(b Backend) *Service {
	return &Service{backend: b}
}

// extensionFor maps the photo MIME types Telegram serves to file extensions.
func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// SavePhoto stores photo content under a fresh key and returns the key.
func (s *Service) SavePhoto(ctx context.Context, content io.Reader, contentType string) (string, error) {
	key := "photos/" + uuid.NewString() + extensionFor(contentType)
	if _, err := s.backend.Write(ctx, key, content, contentType); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return key, nil
}

// OpenPhoto returns the photo content and metadata for a key.
func (s *Service) OpenPhoto(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error) {
	return s.backend.Reader(ctx, key)
}

// DeletePhoto removes a stored photo, idempotently.
func (s *Service) DeletePhoto(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.backend.Close()
}
