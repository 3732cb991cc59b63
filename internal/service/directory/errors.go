package directory

import (
	"errors"
	"strings"

	"github.com/janisto/profile-directory/internal/service/profile"
)

// Pipeline errors. Store errors (profile.ErrNotFound, profile.ErrInvalidID,
// *profile.StoreValidationError) are returned unchanged.
var (
	ErrAddressNotFound = errors.New("invalid address")
	ErrGeocoding       = errors.New("geocoding service unavailable")
	ErrPhotoIngestion  = errors.New("photo ingestion failed")
)

// ValidationError lists required submission fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	var verr *ValidationError
	var serr *profile.StoreValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, ErrGeocoding):
		return "geocoding_unavailable"
	case errors.Is(err, ErrPhotoIngestion):
		return "photo_ingestion"
	case errors.Is(err, profile.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, profile.ErrNotFound):
		return "not_found"
	case errors.As(err, &serr):
		return "store_validation"
	default:
		return "internal_error"
	}
}
