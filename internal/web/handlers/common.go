package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Recognizer is the recognition and registry surface served over HTTP.
// *recognition.Pipeline implements it.
type Recognizer interface {
	Options() database.RecognitionOptions
	Configure(u database.OptionsUpdate) (database.RecognitionOptions, error)
	RecognizeOne(ctx context.Context, path string) database.DetectionResult
	RecognizeBatch(ctx context.Context, paths []string, onProgress recognition.ProgressFunc) ([]database.DetectionResult, error)

	ListPeople() []database.Person
	GetPerson(personID string) (database.Person, bool)
	CreateOrUpdatePerson(ctx context.Context, name string, fields database.PersonFields) (database.Person, error)
	UpdatePerson(ctx context.Context, personID, name string, fields database.PersonFields) (database.Person, error)
	DeletePerson(ctx context.Context, personID string) (bool, error)
	AssignFace(ctx context.Context, personID, imagePath string, bbox []float64, embedding []float32) (database.Person, error)
	UnassignFace(ctx context.Context, personID, faceID string) (database.Person, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a domain error to its HTTP status.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, database.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrInvalidName),
		errors.Is(err, database.ErrInvalidOptions),
		errors.Is(err, recognition.ErrInvalidBBox),
		errors.Is(err, recognition.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
