// Package profile defines the profile record, its canonical stored shape and
// the record store adapters that persist it.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store errors
var (
	ErrNotFound  = errors.New("profile not found")
	ErrInvalidID = errors.New("invalid profile id")
)

// Location holds resolved coordinates. Both fields may be absent, but a
// Location is always part of a stored profile.
type Location struct {
	Lat *float64
	Lng *float64
}

// Profile is a stored profile.
type Profile struct {
	ID          string
	Name        string
	Description string
	Address     string
	Location    Location
	Photo       string
	Contact     string
	Interests   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Document is the canonical stored shape of a profile, without the
// store-managed identifier and timestamps.
type Document struct {
	Name        string
	Description string
	Address     string
	Location    Location
	Photo       string
	Contact     string
	Interests   []string
}

// Store persists profile documents. Every write validates the document first
// and fails with *StoreValidationError when it is rejected. Identifiers are
// assigned by the store on Insert and never change afterwards.
type Store interface {
	Insert(ctx context.Context, doc Document) (*Profile, error)
	FindAll(ctx context.Context) ([]Profile, error)
	FindByID(ctx context.Context, id string) (*Profile, error)
	ReplaceByID(ctx context.Context, id string, doc Document) (*Profile, error)
	DeleteByID(ctx context.Context, id string) error
}

// ValidID reports whether id is a canonical UUID string, the identifier form
// all stores assign.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func newProfile(id string, doc Document, createdAt, updatedAt time.Time) *Profile {
	return &Profile{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Address:     doc.Address,
		Location:    doc.Location,
		Photo:       doc.Photo,
		Contact:     doc.Contact,
		Interests:   doc.Interests,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}
