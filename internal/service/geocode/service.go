// Package geocode resolves free-text addresses into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
)

// Resolver errors
var (
	// ErrAddressNotFound means the lookup succeeded but matched nothing.
	ErrAddressNotFound = errors.New("address not found")
	ErrUpstream        = errors.New("geocoding upstream error")
)

// UpstreamErrorKind classifies geocoding upstream failures.
type UpstreamErrorKind string

const (
	UpstreamErrorKindTransport   UpstreamErrorKind = "transport"
	UpstreamErrorKindRateLimited UpstreamErrorKind = "rate_limited"
	UpstreamErrorKindStatus      UpstreamErrorKind = "status"
	UpstreamErrorKindDecode      UpstreamErrorKind = "decode"
)

// UpstreamError reports a failed outbound lookup. It matches ErrUpstream
// with errors.Is and unwraps to the underlying cause.
type UpstreamError struct {
	Kind   UpstreamErrorKind
	Status int
	cause  error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "geocoding upstream error"
	}
	if e.cause == nil {
		return fmt.Sprintf("geocoding upstream error (kind=%s status=%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("geocoding upstream error (kind=%s status=%d): %v", e.Kind, e.Status, e.cause)
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Unwrap enables errors.Is/As against the underlying cause.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Coordinates is a resolved position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Resolver turns an address into coordinates. It returns ErrAddressNotFound
// when nothing matches and an error matching ErrUpstream when the lookup
// itself failed.
type Resolver interface {
	Resolve(ctx context.Context, address string) (Coordinates, error)
}
