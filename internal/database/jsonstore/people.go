package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// PeopleFile stores the registry as a JSON array of persons in a single file
type PeopleFile struct {
	path string
}

// NewPeopleFile creates a people store backed by the file at path.
func NewPeopleFile(path string) *PeopleFile {
	return &PeopleFile{path: path}
}

// Load reads the whole document. A missing file is an empty registry.
func (s *PeopleFile) Load(_ context.Context) ([]database.Person, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []database.Person{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read people file: %w", err)
	}

	var people []database.Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("failed to parse people file %s: %w", s.path, err)
	}
	if people == nil {
		people = []database.Person{}
	}
	return people, nil
}

// Save replaces the whole document.
func (s *PeopleFile) Save(_ context.Context, people []database.Person) error {
	if people == nil {
		people = []database.Person{}
	}
	if err := writeJSON(s.path, people); err != nil {
		return fmt.Errorf("failed to save people file: %w", err)
	}
	return nil
}
