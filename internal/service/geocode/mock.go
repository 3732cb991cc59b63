package geocode

import (
	"context"
	"sync"
)

// MockResolver implements Resolver for unit tests. Unknown addresses resolve
// to ErrAddressNotFound unless Err is set.
type MockResolver struct {
	mu      sync.Mutex
	results map[string]Coordinates
	calls   []string

	// Err, when set, is returned from every call.
	Err error
}

// NewMockResolver creates a mock that knows the given addresses.
func NewMockResolver(results map[string]Coordinates) *MockResolver {
	if results == nil {
		results = map[string]Coordinates{}
	}
	return &MockResolver{results: results}
}

func (m *MockResolver) Resolve(_ context.Context, address string) (Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, address)
	if m.Err != nil {
		return Coordinates{}, m.Err
	}
	c, ok := m.results[address]
	if !ok {
		return Coordinates{}, ErrAddressNotFound
	}
	return c, nil
}

// Calls returns the addresses looked up so far, in order.
func (m *MockResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Compile-time interface check
var _ Resolver = (*MockResolver)(nil)
