package database

import (
	"context"
)

// DetectionCache maps content fingerprints to raw detection results
type DetectionCache interface {
	// Get returns the cached result for a fingerprint. A read failure is reported
	// as a miss; the cache never fails a lookup.
	Get(ctx context.Context, fingerprint string) (*DetectionResult, bool)
	// Put stores the result, overwriting any previous entry for the fingerprint
	Put(ctx context.Context, fingerprint string, result *DetectionResult) error
}

// PeopleStore persists the whole person registry as a single document
type PeopleStore interface {
	// Load returns all persisted persons in stored order. A missing document yields an empty slice.
	Load(ctx context.Context) ([]Person, error)
	// Save replaces the persisted document with the given persons
	Save(ctx context.Context, people []Person) error
}
