// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// MockDetectionCache is an in-memory database.DetectionCache
type MockDetectionCache struct {
	mu      sync.RWMutex
	entries map[string]database.DetectionResult

	// Error injection
	PutError error

	// Call counters
	GetCalls int
	PutCalls int
}

// NewMockDetectionCache creates an empty mock cache
func NewMockDetectionCache() *MockDetectionCache {
	return &MockDetectionCache{
		entries: make(map[string]database.DetectionResult),
	}
}

// Get returns a copy of the cached result
func (m *MockDetectionCache) Get(_ context.Context, fingerprint string) (*database.DetectionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	r, ok := m.entries[fingerprint]
	if !ok {
		return nil, false
	}
	c := r.Clone()
	return &c, true
}

// Put stores a copy of the result
func (m *MockDetectionCache) Put(_ context.Context, fingerprint string, result *database.DetectionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	m.entries[fingerprint] = result.Clone()
	return nil
}

// Len returns the number of cached entries
func (m *MockDetectionCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MockPeopleStore is an in-memory database.PeopleStore
type MockPeopleStore struct {
	mu     sync.Mutex
	people []database.Person

	// Error injection
	LoadError error
	SaveError error

	// SaveCalls counts successful and failed Save invocations
	SaveCalls int
}

// NewMockPeopleStore creates a store pre-populated with people
func NewMockPeopleStore(people ...database.Person) *MockPeopleStore {
	return &MockPeopleStore{people: clonePeople(people)}
}

// Load returns a copy of the stored people
func (m *MockPeopleStore) Load(_ context.Context) ([]database.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	return clonePeople(m.people), nil
}

// Save replaces the stored people
func (m *MockPeopleStore) Save(_ context.Context, people []database.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.people = clonePeople(people)
	return nil
}

// Snapshot returns what was last saved
func (m *MockPeopleStore) Snapshot() []database.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePeople(m.people)
}

func clonePeople(people []database.Person) []database.Person {
	out := make([]database.Person, len(people))
	for i := range people {
		out[i] = people[i].Clone()
	}
	return out
}
