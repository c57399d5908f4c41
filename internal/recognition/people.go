package recognition

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/facematch"
	"github.com/kozaktomas/face-recognizer/internal/registry"
)

// ListPeople returns all persons in registry order.
func (p *Pipeline) ListPeople() []database.Person {
	return p.registry.GetAll()
}

// GetPerson returns the person with the given ID.
func (p *Pipeline) GetPerson(personID string) (database.Person, bool) {
	return p.registry.GetByID(personID)
}

// CreateOrUpdatePerson upserts a person by case-insensitive name.
func (p *Pipeline) CreateOrUpdatePerson(ctx context.Context, name string, fields database.PersonFields) (database.Person, error) {
	return p.registry.CreateOrUpdate(ctx, name, fields)
}

// RenamePerson changes a person's display name.
func (p *Pipeline) RenamePerson(ctx context.Context, personID, name string) (database.Person, error) {
	return p.registry.Rename(ctx, personID, name)
}

// UpdatePerson renames a person and/or changes its fields in one registry write.
// An empty name keeps the current one.
func (p *Pipeline) UpdatePerson(ctx context.Context, personID, name string, fields database.PersonFields) (database.Person, error) {
	return p.registry.Update(ctx, personID, name, fields)
}

// DeletePerson removes a person; false means it didn't exist.
func (p *Pipeline) DeletePerson(ctx context.Context, personID string) (bool, error) {
	return p.registry.Delete(ctx, personID)
}

// AssignFace adds the face at bbox in imagePath as an exemplar of the person.
// Without an embedding the image is recognized (cache-aware) and the detected face
// overlapping bbox the most is used; no sufficiently overlapping face is ErrNotFound.
func (p *Pipeline) AssignFace(ctx context.Context, personID, imagePath string, bbox []float64, embedding []float32) (database.Person, error) {
	if !facematch.ValidBBox(bbox) {
		return database.Person{}, fmt.Errorf("%w: %v", ErrInvalidBBox, bbox)
	}
	if _, ok := p.registry.GetByID(personID); !ok {
		return database.Person{}, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}

	if len(embedding) == 0 {
		res, err := p.recognize(ctx, imagePath)
		if err != nil && kindOf(err) != database.ErrorKindConfiguration {
			return database.Person{}, err
		}
		idx, iou := facematch.BestOverlap(bbox, res.Faces, constants.AssignIoUThreshold)
		if idx < 0 {
			return database.Person{}, fmt.Errorf("no detected face overlaps the box (best IoU %.2f): %w", iou, database.ErrNotFound)
		}
		embedding = res.Faces[idx].Embedding
		bbox = res.Faces[idx].BBox
	}

	return p.registry.AddExemplar(ctx, personID, registry.ExemplarInput{
		SourcePath: imagePath,
		BBox:       bbox,
		Embedding:  embedding,
	})
}

// UnassignFace removes an exemplar from a person. Unknown faces are a no-op.
func (p *Pipeline) UnassignFace(ctx context.Context, personID, faceID string) (database.Person, error) {
	return p.registry.RemoveExemplar(ctx, personID, faceID)
}
