package directory

import (
	"context"

	"github.com/janisto/profile-directory/internal/service/profile"
)

// Query is the read side of the directory.
type Query struct {
	store profile.Store
}

// NewQuery creates a read service over store.
func NewQuery(store profile.Store) *Query {
	return &Query{store: store}
}

// List returns every stored profile in store order.
func (q *Query) List(ctx context.Context) ([]profile.Profile, error) {
	return q.store.FindAll(ctx)
}

// Get returns the profile stored under id.
func (q *Query) Get(ctx context.Context, id string) (*profile.Profile, error) {
	if !profile.ValidID(id) {
		return nil, profile.ErrInvalidID
	}
	return q.store.FindByID(ctx, id)
}
