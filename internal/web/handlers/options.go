package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// OptionsHandler exposes the recognition options
type OptionsHandler struct {
	recognizer Recognizer
}

// NewOptionsHandler creates a new options handler
func NewOptionsHandler(rec Recognizer) *OptionsHandler {
	return &OptionsHandler{recognizer: rec}
}

// Get returns the options in force
func (h *OptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.recognizer.Options())
}

// Update merges a partial options document
func (h *OptionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req database.OptionsUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	opts, err := h.recognizer.Configure(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, opts)
}
