package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const profilesCollection = "profiles"

type firestoreLocation struct {
	Lat *float64 `firestore:"lat"`
	Lng *float64 `firestore:"lng"`
}

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	Name        string            `firestore:"name"`
	Description string            `firestore:"description"`
	Address     string            `firestore:"address"`
	Location    firestoreLocation `firestore:"location"`
	Photo       string            `firestore:"photo,omitempty"`
	Contact     string            `firestore:"contact,omitempty"`
	Interests   []string          `firestore:"interests"`
	CreatedAt   time.Time         `firestore:"created_at"`
	UpdatedAt   time.Time         `firestore:"updated_at"`
}

func toFirestore(doc Document, createdAt, updatedAt time.Time) firestoreProfile {
	interests := doc.Interests
	if interests == nil {
		interests = []string{}
	}
	return firestoreProfile{
		Name:        doc.Name,
		Description: doc.Description,
		Address:     doc.Address,
		Location:    firestoreLocation(doc.Location),
		Photo:       doc.Photo,
		Contact:     doc.Contact,
		Interests:   interests,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func (fp firestoreProfile) toProfile(id string) *Profile {
	return &Profile{
		ID:          id,
		Name:        fp.Name,
		Description: fp.Description,
		Address:     fp.Address,
		Location:    Location(fp.Location),
		Photo:       fp.Photo,
		Contact:     fp.Contact,
		Interests:   fp.Interests,
		CreatedAt:   fp.CreatedAt,
		UpdatedAt:   fp.UpdatedAt,
	}
}

// FirestoreStore implements Store on a Firestore collection. Documents are
// keyed by UUIDv7, so the default document-id ordering of FindAll follows
// creation order.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Insert(ctx context.Context, doc Document) (*Profile, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	fp := toFirestore(doc, now, now)
	if _, err := s.client.Collection(profilesCollection).Doc(id).Create(ctx, fp); err != nil {
		return nil, fmt.Errorf("creating profile document: %w", err)
	}
	return fp.toProfile(id), nil
}

func (s *FirestoreStore) FindAll(ctx context.Context) ([]Profile, error) {
	iter := s.client.Collection(profilesCollection).Documents(ctx)
	defer iter.Stop()

	var out []Profile
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing profiles: %w", err)
		}
		var fp firestoreProfile
		if err := snap.DataTo(&fp); err != nil {
			return nil, fmt.Errorf("decoding profile %s: %w", snap.Ref.ID, err)
		}
		out = append(out, *fp.toProfile(snap.Ref.ID))
	}
	return out, nil
}

func (s *FirestoreStore) FindByID(ctx context.Context, id string) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	snap, err := s.client.Collection(profilesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := snap.DataTo(&fp); err != nil {
		return nil, err
	}
	return fp.toProfile(id), nil
}

// ReplaceByID overwrites the document inside a transaction so the creation
// timestamp of the existing document is preserved.
func (s *FirestoreStore) ReplaceByID(ctx context.Context, id string, doc Document) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	docRef := s.client.Collection(profilesCollection).Doc(id)

	var result *Profile
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		var existing firestoreProfile
		if err := snap.DataTo(&existing); err != nil {
			return err
		}

		fp := toFirestore(doc, existing.CreatedAt, time.Now().UTC().Truncate(time.Microsecond))
		if err := tx.Set(docRef, fp); err != nil {
			return err
		}
		result = fp.toProfile(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByID removes the document, reporting ErrNotFound when it is absent.
func (s *FirestoreStore) DeleteByID(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	docRef := s.client.Collection(profilesCollection).Doc(id)

	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		return tx.Delete(docRef)
	})
}

// Compile-time interface check
var _ Store = (*FirestoreStore)(nil)
