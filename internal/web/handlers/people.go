package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// PeopleHandler handles the person registry endpoints
type PeopleHandler struct {
	recognizer Recognizer
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(rec Recognizer) *PeopleHandler {
	return &PeopleHandler{recognizer: rec}
}

// PersonRequest is the body of create and update requests
type PersonRequest struct {
	Name string `json:"name"`
	database.PersonFields
}

// AssignFaceRequest adds a face from an image to a person
type AssignFaceRequest struct {
	ImagePath string    `json:"image_path"`
	BBox      []float64 `json:"bbox"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// List returns all persons
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.recognizer.ListPeople())
}

// Get returns a single person
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.recognizer.GetPerson(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// CreateOrUpdate upserts a person by name
func (h *PeopleHandler) CreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.recognizer.CreateOrUpdatePerson(r.Context(), req.Name, req.PersonFields)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Update renames a person and/or changes its fields
func (h *PeopleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.recognizer.UpdatePerson(r.Context(), chi.URLParam(r, "id"), req.Name, req.PersonFields)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Delete removes a person
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.recognizer.DeletePerson(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	log.WithField("person", sanitizeForLog(id)).Info("person deleted via API")
	w.WriteHeader(http.StatusNoContent)
}

// Thumbnail serves the person's thumbnail image
func (h *PeopleHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.recognizer.GetPerson(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if p.ThumbnailPath == "" {
		respondError(w, http.StatusNotFound, "person has no thumbnail")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	http.ServeFile(w, r, p.ThumbnailPath)
}

// AssignFace adds an exemplar to a person
func (h *PeopleHandler) AssignFace(w http.ResponseWriter, r *http.Request) {
	var req AssignFaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImagePath == "" {
		respondError(w, http.StatusBadRequest, "image_path is required")
		return
	}

	p, err := h.recognizer.AssignFace(r.Context(), chi.URLParam(r, "id"), req.ImagePath, req.BBox, req.Embedding)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// UnassignFace removes an exemplar from a person
func (h *PeopleHandler) UnassignFace(w http.ResponseWriter, r *http.Request) {
	p, err := h.recognizer.UnassignFace(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "faceId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
