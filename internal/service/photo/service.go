// Package photo ingests uploaded profile photos into durable storage and
// hands back a URL the browser can fetch them from.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ingestion errors
var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("photo exceeds size limit")
	ErrStorage         = errors.New("photo storage failed")
)

// DefaultMaxBytes bounds an upload when no limit is configured.
const DefaultMaxBytes int64 = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is one received file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Photo is a stored upload.
type Photo struct {
	Name string
	URL  string
}

// Storage persists photo bytes under a name.
type Storage interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	// URL returns the public address of name. baseURL is the scheme and host
	// of the current request and may be ignored by backends with their own
	// public endpoint.
	URL(baseURL, name string) string
}

// Service implements photo ingestion on top of a Storage.
type Service struct {
	storage  Storage
	maxBytes int64
}

// NewService creates an ingestion service. maxBytes <= 0 selects DefaultMaxBytes.
func NewService(storage Storage, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{storage: storage, maxBytes: maxBytes}
}

// MaxBytes returns the per-upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Ingest stores u under a fresh collision-free name and returns its URL.
// The content type is sniffed from the bytes; the declared type is not
// trusted.
func (s *Service) Ingest(ctx context.Context, u *Upload, baseURL string) (*Photo, error) {
	if u == nil || u.Body == nil {
		return nil, ErrNoFile
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if orig := strings.ToLower(filepath.Ext(u.Filename)); orig != "" && extensionMatches(orig, contentType) {
		ext = orig
	}

	name := uuid.NewString() + ext
	if err := s.storage.Put(ctx, name, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &Photo{Name: name, URL: s.storage.URL(baseURL, name)}, nil
}

// Discard removes a previously ingested photo.
func (s *Service) Discard(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func extensionMatches(ext, contentType string) bool {
	switch contentType {
	case "image/jpeg":
		return ext == ".jpg" || ext == ".jpeg"
	default:
		return allowedTypes[contentType] == ext
	}
}
