// Package registry owns the person registry: named identities with exemplar
// embeddings, persisted write-through after every mutation.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/facematch"
)

// ExemplarInput describes a face to add to a person
type ExemplarInput struct {
	SourcePath string    // image the face was found in
	BBox       []float64 // [x1, y1, x2, y2] in source pixels
	Embedding  []float32
}

// Registry is the authoritative set of persons.
//
// Mutations are serialized by a single writer lock and replace the people slice
// (copy-on-write), so a slice returned by Snapshot is never modified afterwards.
type Registry struct {
	mu      sync.RWMutex
	store   database.PeopleStore
	samples *SampleStore
	people  []database.Person

	now func() time.Time
}

// New loads the registry from store. samples may be nil, in which case exemplars
// are stored without sample images.
func New(ctx context.Context, store database.PeopleStore, samples *SampleStore) (*Registry, error) {
	people, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load people: %w", err)
	}
	if people == nil {
		people = []database.Person{}
	}
	return &Registry{
		store:   store,
		samples: samples,
		people:  people,
		now:     time.Now,
	}, nil
}

// Len returns the number of persons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.people)
}

// IsEmpty reports whether the registry holds no persons.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// Snapshot returns the current persons in registry order without copying.
// The result must be treated as read-only.
func (r *Registry) Snapshot() []database.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.people
}

// GetAll returns deep copies of all persons in registry order.
func (r *Registry) GetAll() []database.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]database.Person, len(r.people))
	for i := range r.people {
		out[i] = r.people[i].Clone()
	}
	return out
}

// GetByID returns a copy of the person with the given ID.
func (r *Registry) GetByID(personID string) (database.Person, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexLocked(personID)
	if idx < 0 {
		return database.Person{}, false
	}
	return r.people[idx].Clone(), true
}

// EmbeddingDim returns the embedding length used by stored exemplars, 0 when there are none.
func (r *Registry) EmbeddingDim() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dimLocked()
}

// CreateOrUpdate upserts a person by case-insensitive name. Existing persons get
// the provided fields merged in; a differently cased name replaces the display name.
func (r *Registry) CreateOrUpdate(ctx context.Context, name string, fields database.PersonFields) (database.Person, error) {
	name = facematch.CleanName(name)
	if name == "" {
		return database.Person{}, database.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := facematch.NameKey(name)
	now := r.now()
	for i := range r.people {
		if facematch.NameKey(r.people[i].Name) != key {
			continue
		}
		p := r.people[i].Clone()
		changed := p.Name != name
		p.Name = name
		changed = applyFields(&p, fields) || changed
		if !changed {
			return p.Clone(), nil
		}
		p.ModifiedAt = now
		if err := r.commitLocked(ctx, i, p); err != nil {
			return database.Person{}, err
		}
		log.WithField("person", p.ID).Debug("person updated")
		return p.Clone(), nil
	}

	p := database.Person{
		ID:         uuid.NewString(),
		Name:       name,
		Exemplars:  []database.Exemplar{},
		CreatedAt:  now,
		ModifiedAt: now,
	}
	applyFields(&p, fields)
	if err := r.commitLocked(ctx, -1, p); err != nil {
		return database.Person{}, err
	}
	log.WithFields(log.Fields{"person": p.ID, "name": p.Name}).Info("person created")
	return p.Clone(), nil
}

// Rename changes a person's display name. The new name must not belong to another person.
func (r *Registry) Rename(ctx context.Context, personID, name string) (database.Person, error) {
	if facematch.CleanName(name) == "" {
		return database.Person{}, database.ErrInvalidName
	}
	return r.Update(ctx, personID, name, database.PersonFields{})
}

// Update renames a person and applies fields under a single lock, so the person
// is addressed by ID throughout. An empty name keeps the current one.
func (r *Registry) Update(ctx context.Context, personID, name string, fields database.PersonFields) (database.Person, error) {
	cleaned := facematch.CleanName(name)
	if name != "" && cleaned == "" {
		return database.Person{}, database.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(personID)
	if idx < 0 {
		return database.Person{}, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}

	p := r.people[idx].Clone()
	changed := false
	if cleaned != "" {
		key := facematch.NameKey(cleaned)
		for i := range r.people {
			if i != idx && facematch.NameKey(r.people[i].Name) == key {
				return database.Person{}, fmt.Errorf("%q: %w", cleaned, database.ErrNameTaken)
			}
		}
		if p.Name != cleaned {
			p.Name = cleaned
			changed = true
		}
	}
	changed = applyFields(&p, fields) || changed
	if !changed {
		return p, nil
	}

	p.ModifiedAt = r.now()
	if err := r.commitLocked(ctx, idx, p); err != nil {
		return database.Person{}, err
	}
	log.WithField("person", p.ID).Debug("person updated")
	return p.Clone(), nil
}

// Delete removes a person and, best-effort, its sample images.
// It returns false when the person does not exist.
func (r *Registry) Delete(ctx context.Context, personID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(personID)
	if idx < 0 {
		return false, nil
	}
	removed := r.people[idx]

	next := slices.Delete(slices.Clone(r.people), idx, idx+1)
	if err := r.store.Save(ctx, next); err != nil {
		return false, fmt.Errorf("failed to save people: %w", err)
	}
	r.people = next

	if r.samples != nil {
		for _, e := range removed.Exemplars {
			if err := r.samples.Remove(e.SamplePath); err != nil {
				log.WithField("person", personID).Warnf("failed to delete sample %s: %v", e.SamplePath, err)
			}
		}
		if err := r.samples.RemovePerson(personID); err != nil {
			log.WithField("person", personID).Warnf("failed to delete sample directory: %v", err)
		}
	}
	log.WithFields(log.Fields{"person": personID, "name": removed.Name}).Info("person deleted")
	return true, nil
}

// AddExemplar stores a sample image for the face and appends a new exemplar.
// The first exemplar becomes the thumbnail.
func (r *Registry) AddExemplar(ctx context.Context, personID string, in ExemplarInput) (database.Person, error) {
	if len(in.Embedding) == 0 {
		return database.Person{}, fmt.Errorf("%w: exemplar embedding is empty", database.ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(personID)
	if idx < 0 {
		return database.Person{}, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	if dim := r.dimLocked(); dim > 0 && dim != len(in.Embedding) {
		return database.Person{}, fmt.Errorf("%w: embedding has %d dimensions, registry uses %d",
			database.ErrConfiguration, len(in.Embedding), dim)
	}

	ex := database.Exemplar{
		FaceID:     uuid.NewString(),
		Embedding:  slices.Clone(in.Embedding),
		SourcePath: in.SourcePath,
		BBox:       slices.Clone(in.BBox),
		CreatedAt:  r.now(),
	}
	if r.samples != nil && in.SourcePath != "" {
		path, err := r.samples.Save(personID, ex.FaceID, in.SourcePath, in.BBox)
		if err != nil {
			return database.Person{}, fmt.Errorf("failed to store sample: %w", err)
		}
		ex.SamplePath = path
	}

	p := r.people[idx].Clone()
	p.Exemplars = append(p.Exemplars, ex)
	if p.ThumbnailFace == "" {
		setThumbnail(&p, &ex)
	}
	p.ModifiedAt = ex.CreatedAt

	if err := r.commitLocked(ctx, idx, p); err != nil {
		if r.samples != nil {
			_ = r.samples.Remove(ex.SamplePath)
		}
		return database.Person{}, err
	}
	log.WithFields(log.Fields{"person": personID, "face": ex.FaceID}).Info("exemplar added")
	return p.Clone(), nil
}

// RemoveExemplar deletes an exemplar and its sample. Removing the thumbnail face
// moves the thumbnail to the first remaining exemplar, or clears it.
// An unknown faceID leaves the person unchanged.
func (r *Registry) RemoveExemplar(ctx context.Context, personID, faceID string) (database.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(personID)
	if idx < 0 {
		return database.Person{}, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	p := r.people[idx].Clone()
	exIdx := p.FindExemplar(faceID)
	if exIdx < 0 {
		return p, nil
	}

	removed := p.Exemplars[exIdx]
	p.Exemplars = slices.Delete(p.Exemplars, exIdx, exIdx+1)
	if p.ThumbnailFace == faceID {
		if len(p.Exemplars) > 0 {
			setThumbnail(&p, &p.Exemplars[0])
		} else {
			setThumbnail(&p, nil)
		}
	}
	p.ModifiedAt = r.now()

	if err := r.commitLocked(ctx, idx, p); err != nil {
		return database.Person{}, err
	}
	if r.samples != nil {
		if err := r.samples.Remove(removed.SamplePath); err != nil {
			log.WithField("person", personID).Warnf("failed to delete sample %s: %v", removed.SamplePath, err)
		}
	}
	log.WithFields(log.Fields{"person": personID, "face": faceID}).Info("exemplar removed")
	return p.Clone(), nil
}

// RecordMatches registers that the given persons were matched in the image with
// the given fingerprint. ImageCount grows once per distinct image; ModifiedAt is
// bumped on every match event. Unknown person IDs are ignored.
func (r *Registry) RecordMatches(ctx context.Context, fingerprint string, personIDs []string) error {
	if len(personIDs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.Clone(r.people)
	now := r.now()
	changed := false
	for _, id := range personIDs {
		idx := r.indexLocked(id)
		if idx < 0 {
			continue
		}
		p := next[idx].Clone()
		if fingerprint != "" && !slices.Contains(p.MatchedFingerprints, fingerprint) {
			p.MatchedFingerprints = append(p.MatchedFingerprints, fingerprint)
			p.ImageCount++
		}
		p.ModifiedAt = now
		next[idx] = p
		changed = true
	}
	if !changed {
		return nil
	}

	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save people: %w", err)
	}
	r.people = next
	return nil
}

// commitLocked persists the registry with p placed at idx (appended when idx < 0)
// and swaps it in on success.
func (r *Registry) commitLocked(ctx context.Context, idx int, p database.Person) error {
	next := slices.Clone(r.people)
	if idx < 0 {
		next = append(next, p)
	} else {
		next[idx] = p
	}
	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save people: %w", err)
	}
	r.people = next
	return nil
}

func (r *Registry) indexLocked(personID string) int {
	for i := range r.people {
		if r.people[i].ID == personID {
			return i
		}
	}
	return -1
}

func (r *Registry) dimLocked() int {
	for i := range r.people {
		if d := r.people[i].EmbeddingDim(); d > 0 {
			return d
		}
	}
	return 0
}

func applyFields(p *database.Person, f database.PersonFields) bool {
	changed := false
	if f.Notes != nil && *f.Notes != p.Notes {
		p.Notes = *f.Notes
		changed = true
	}
	if f.Favorite != nil && *f.Favorite != p.Favorite {
		p.Favorite = *f.Favorite
		changed = true
	}
	if f.Hidden != nil && *f.Hidden != p.Hidden {
		p.Hidden = *f.Hidden
		changed = true
	}
	return changed
}

// setThumbnail points the thumbnail at an exemplar's image; nil clears it.
func setThumbnail(p *database.Person, ex *database.Exemplar) {
	if ex == nil {
		p.ThumbnailFace = ""
		p.ThumbnailPath = ""
		return
	}
	p.ThumbnailFace = ex.FaceID
	p.ThumbnailPath = ex.SamplePath
	if p.ThumbnailPath == "" {
		p.ThumbnailPath = ex.SourcePath
	}
}
