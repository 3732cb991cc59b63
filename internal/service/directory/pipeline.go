// Package directory coordinates profile writes: geocoding the address,
// ingesting an optional photo and persisting the normalized document.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/profile-directory/internal/platform/logging"
	"github.com/janisto/profile-directory/internal/service/geocode"
	"github.com/janisto/profile-directory/internal/service/photo"
	"github.com/janisto/profile-directory/internal/service/profile"
)

const (
	resourceType = "profile"

	defaultGeocodeTimeout = 10 * time.Second
	defaultPhotoTimeout   = 30 * time.Second
)

// PhotoIngester stores uploads and removes them again on request.
type PhotoIngester interface {
	Ingest(ctx context.Context, u *photo.Upload, baseURL string) (*photo.Photo, error)
	Discard(ctx context.Context, name string) error
}

// Submission is one create or update request.
type Submission struct {
	// Profile carries the submitted fields. Profile.Photo is the preview URL
	// of an already stored photo, kept when no new file is sent.
	Profile profile.Payload
	// Photo is a newly uploaded file, or nil.
	Photo *photo.Upload
	// BaseURL is the scheme and host photo URLs are built from.
	BaseURL string
}

// Pipeline implements profile create, update and delete. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	store          profile.Store
	geocoder       geocode.Resolver
	photos         PhotoIngester
	geocodeTimeout time.Duration
	photoTimeout   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGeocodeTimeout bounds each address lookup.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.geocodeTimeout = d
		}
	}
}

// WithPhotoTimeout bounds each photo ingestion.
func WithPhotoTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.photoTimeout = d
		}
	}
}

// NewPipeline creates a write pipeline.
func NewPipeline(store profile.Store, geocoder geocode.Resolver, photos PhotoIngester, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:          store,
		geocoder:       geocoder,
		photos:         photos,
		geocodeTimeout: defaultGeocodeTimeout,
		photoTimeout:   defaultPhotoTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create geocodes the address, ingests the photo if one was sent and inserts
// the resulting document.
func (p *Pipeline) Create(ctx context.Context, sub Submission) (*profile.Profile, error) {
	created, err := p.write(ctx, sub, func(ctx context.Context, doc profile.Document) (*profile.Profile, error) {
		return p.store.Insert(ctx, doc)
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "create", resourceType, "", applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}
	applog.LogAuditEvent(ctx, "create", resourceType, created.ID, applog.AuditSuccess, nil)
	return created, nil
}

// Update runs the same steps as Create and replaces the profile stored
// under id. The identifier is never regenerated.
func (p *Pipeline) Update(ctx context.Context, id string, sub Submission) (*profile.Profile, error) {
	ctx = applog.WithFields(ctx, zap.String("profileId", id))
	updated, err := p.update(ctx, id, sub)
	if err != nil {
		applog.LogAuditEvent(ctx, "update", resourceType, id, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}
	applog.LogAuditEvent(ctx, "update", resourceType, id, applog.AuditSuccess, nil)
	return updated, nil
}

func (p *Pipeline) update(ctx context.Context, id string, sub Submission) (*profile.Profile, error) {
	if !profile.ValidID(id) {
		return nil, profile.ErrInvalidID
	}
	return p.write(ctx, sub, func(ctx context.Context, doc profile.Document) (*profile.Profile, error) {
		return p.store.ReplaceByID(ctx, id, doc)
	})
}

// Delete removes the profile stored under id. Its photo is left in storage.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	ctx = applog.WithFields(ctx, zap.String("profileId", id))
	err := p.delete(ctx, id)
	if err != nil {
		applog.LogAuditEvent(ctx, "delete", resourceType, id, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}
	applog.LogAuditEvent(ctx, "delete", resourceType, id, applog.AuditSuccess, nil)
	return nil
}

func (p *Pipeline) delete(ctx context.Context, id string) error {
	if !profile.ValidID(id) {
		return profile.ErrInvalidID
	}
	return p.store.DeleteByID(ctx, id)
}

type persistFunc func(ctx context.Context, doc profile.Document) (*profile.Profile, error)

// write runs precondition check, geocode, ingest, normalize and persist in
// that order, stopping at the first failure. A photo ingested by this call
// is discarded again if persisting fails.
func (p *Pipeline) write(ctx context.Context, sub Submission, persist persistFunc) (*profile.Profile, error) {
	if err := checkRequired(sub); err != nil {
		return nil, err
	}

	coords, err := p.resolve(ctx, sub.Profile.Address)
	if err != nil {
		return nil, err
	}

	payload := sub.Profile
	payload.Lat = &coords.Lat
	payload.Lng = &coords.Lng

	var ingested *photo.Photo
	if sub.Photo != nil {
		ingested, err = p.ingest(ctx, sub.Photo, sub.BaseURL)
		if err != nil {
			return nil, err
		}
		payload.Photo = ingested.URL
	}

	saved, err := persist(ctx, profile.Normalize(payload))
	if err != nil {
		if ingested != nil {
			p.discard(ctx, ingested.Name)
		}
		return nil, err
	}
	return saved, nil
}

func checkRequired(sub Submission) error {
	var missing []string
	if strings.TrimSpace(sub.Profile.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(sub.Profile.Address) == "" {
		missing = append(missing, "address")
	}
	if sub.Photo == nil && strings.TrimSpace(sub.Profile.Photo) == "" {
		missing = append(missing, "photo")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, address string) (geocode.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, p.geocodeTimeout)
	defer cancel()

	coords, err := p.geocoder.Resolve(ctx, address)
	switch {
	case err == nil:
		return coords, nil
	case errors.Is(err, geocode.ErrAddressNotFound):
		return geocode.Coordinates{}, ErrAddressNotFound
	default:
		applog.LogWarn(ctx, "geocoding failed", zap.Error(err))
		return geocode.Coordinates{}, fmt.Errorf("%w: %w", ErrGeocoding, err)
	}
}

func (p *Pipeline) ingest(ctx context.Context, u *photo.Upload, baseURL string) (*photo.Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.photoTimeout)
	defer cancel()

	ph, err := p.photos.Ingest(ctx, u, baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPhotoIngestion, err)
	}
	return ph, nil
}

// discard is best effort. It runs detached from cancellation so a timed out
// request still cleans up.
func (p *Pipeline) discard(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.photoTimeout)
	defer cancel()

	if err := p.photos.Discard(ctx, name); err != nil {
		applog.LogError(ctx, "failed to discard orphaned photo", err, zap.String("photo", name))
		return
	}
	applog.LogInfo(ctx, "discarded orphaned photo", zap.String("photo", name))
}
