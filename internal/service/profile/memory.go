package profile

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. FindAll returns profiles in
// insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	order    []string
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Insert(_ context.Context, doc Document) (*Profile, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p := newProfile(id, cloneDocument(doc), now, now)
	m.profiles[id] = p
	m.order = append(m.order, id)
	return cloneProfile(p), nil
}

func (m *MemoryStore) FindAll(_ context.Context) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Profile, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *cloneProfile(m.profiles[id]))
	}
	return out, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *MemoryStore) ReplaceByID(_ context.Context, id string, doc Document) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := newProfile(id, cloneDocument(doc), existing.CreatedAt, m.now())
	m.profiles[id] = p
	return cloneProfile(p), nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}

// Clear removes all profiles (useful for test cleanup).
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]*Profile)
	m.order = nil
}

func cloneDocument(doc Document) Document {
	doc.Location = Location{Lat: cloneFloat(doc.Location.Lat), Lng: cloneFloat(doc.Location.Lng)}
	doc.Interests = slices.Clone(doc.Interests)
	return doc
}

func cloneProfile(p *Profile) *Profile {
	c := *p
	c.Location = Location{Lat: cloneFloat(p.Location.Lat), Lng: cloneFloat(p.Location.Lng)}
	c.Interests = slices.Clone(p.Interests)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)
