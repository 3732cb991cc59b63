// Package profiletest holds the behavior every profile.Store must share.
package profiletest

import (
	"context"
	"errors"
	"testing"

	"github.com/janisto/profile-directory/internal/service/profile"
)

// CleanupFunc releases resources held by a store under test.
type CleanupFunc = func()

// StoreFactory returns an empty store.
type StoreFactory func(t *testing.T) (profile.Store, CleanupFunc)

func ptr(v float64) *float64 { return &v }

func document(name string) profile.Document {
	return profile.Document{
		Name:        name,
		Description: "about " + name,
		Address:     "10 Downing St",
		Location:    profile.Location{Lat: ptr(51.5), Lng: ptr(-0.12)},
		Interests:   []string{"math"},
	}
}

// RunStore exercises newStore against the shared Store contract.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()

	t.Run("insert assigns id", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p, err := store.Insert(ctx, document("Ada"))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if !profile.ValidID(p.ID) {
			t.Fatalf("expected a UUID id, got %q", p.ID)
		}
		if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
			t.Fatalf("unexpected timestamps: created=%v updated=%v", p.CreatedAt, p.UpdatedAt)
		}

		got, err := store.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Name != "Ada" || got.Address != "10 Downing St" {
			t.Fatalf("unexpected profile: %+v", got)
		}
		if got.Location.Lat == nil || *got.Location.Lat != 51.5 || got.Location.Lng == nil || *got.Location.Lng != -0.12 {
			t.Fatalf("unexpected location: %+v", got.Location)
		}
		if len(got.Interests) != 1 || got.Interests[0] != "math" {
			t.Fatalf("unexpected interests: %v", got.Interests)
		}
	})

	t.Run("insert keeps absent coordinates", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		doc := document("Bob")
		doc.Location = profile.Location{}
		p, err := store.Insert(ctx, doc)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, err := store.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Location.Lat != nil || got.Location.Lng != nil {
			t.Fatalf("expected absent coordinates, got %+v", got.Location)
		}
	})

	t.Run("insert rejects invalid document", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		doc := document("Ada")
		doc.Description = ""
		_, err := store.Insert(ctx, doc)
		var verr *profile.StoreValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected StoreValidationError, got %v", err)
		}

		all, err := store.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll: %v", err)
		}
		if len(all) != 0 {
			t.Fatalf("expected nothing persisted, got %d profiles", len(all))
		}
	})

	t.Run("find all", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		all, err := store.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll: %v", err)
		}
		if len(all) != 0 {
			t.Fatalf("expected empty store, got %d", len(all))
		}

		for _, name := range []string{"Ada", "Bob"} {
			if _, err := store.Insert(ctx, document(name)); err != nil {
				t.Fatalf("Insert %s: %v", name, err)
			}
		}
		all, err = store.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 profiles, got %d", len(all))
		}
	})

	t.Run("replace preserves id and created_at", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p, err := store.Insert(ctx, document("Ada"))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}

		doc := document("Ada Lovelace")
		doc.Interests = nil
		updated, err := store.ReplaceByID(ctx, p.ID, doc)
		if err != nil {
			t.Fatalf("ReplaceByID: %v", err)
		}
		if updated.ID != p.ID {
			t.Fatalf("id changed from %s to %s", p.ID, updated.ID)
		}
		if !updated.CreatedAt.Equal(p.CreatedAt) {
			t.Fatalf("created_at changed from %v to %v", p.CreatedAt, updated.CreatedAt)
		}
		if updated.UpdatedAt.Before(p.UpdatedAt) {
			t.Fatalf("updated_at went backwards: %v < %v", updated.UpdatedAt, p.UpdatedAt)
		}

		got, err := store.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Name != "Ada Lovelace" {
			t.Fatalf("expected replaced name, got %q", got.Name)
		}
		if len(got.Interests) != 0 {
			t.Fatalf("expected interests replaced, got %v", got.Interests)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()
		missing, err := profile.NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}

		if _, err := store.FindByID(ctx, missing); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("FindByID: expected ErrNotFound, got %v", err)
		}
		if _, err := store.ReplaceByID(ctx, missing, document("Ada")); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("ReplaceByID: expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteByID(ctx, missing); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("DeleteByID: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed ids", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		for _, id := range []string{"", "abc", "not-a-uuid-at-all-but-36-characters"} {
			if _, err := store.FindByID(ctx, id); !errors.Is(err, profile.ErrInvalidID) {
				t.Fatalf("FindByID(%q): expected ErrInvalidID, got %v", id, err)
			}
			if err := store.DeleteByID(ctx, id); !errors.Is(err, profile.ErrInvalidID) {
				t.Fatalf("DeleteByID(%q): expected ErrInvalidID, got %v", id, err)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := open(t, newStore)
		ctx := context.Background()

		p, err := store.Insert(ctx, document("Ada"))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := store.DeleteByID(ctx, p.ID); err != nil {
			t.Fatalf("DeleteByID: %v", err)
		}
		if _, err := store.FindByID(ctx, p.ID); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteByID(ctx, p.ID); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})
}

func open(t *testing.T, newStore StoreFactory) profile.Store {
	t.Helper()
	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return store
}
