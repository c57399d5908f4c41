package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
)

// RecognizeHandler handles single-image and batch recognition
type RecognizeHandler struct {
	recognizer Recognizer
	jobManager *JobManager
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(rec Recognizer, jm *JobManager) *RecognizeHandler {
	return &RecognizeHandler{
		recognizer: rec,
		jobManager: jm,
	}
}

// RecognizeRequest represents a single-image recognition request
type RecognizeRequest struct {
	Path string `json:"path"`
}

// BatchRequest represents a batch recognition request. Directories are expanded.
type BatchRequest struct {
	Paths     []string `json:"paths"`
	Recursive bool     `json:"recursive"`
}

// Recognize runs recognition on one image. Per-file failures are reported inside
// the result with status 200.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	respondJSON(w, http.StatusOK, h.recognizer.RecognizeOne(r.Context(), req.Path))
}

// StartBatch starts an async batch recognition job
func (h *RecognizeHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 {
		respondError(w, http.StatusBadRequest, "paths is required")
		return
	}

	paths, err := recognition.CollectImages(req.Paths, req.Recursive)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(paths) > constants.MaxBatchSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d files", constants.MaxBatchSize))
		return
	}

	job, ctx := h.jobManager.CreateJob(uuid.New().String(), paths)
	go func() {
		job.start()
		results, err := h.recognizer.RecognizeBatch(ctx, paths, job.progress)
		if errors.Is(err, context.Canceled) {
			err = nil // cancellation is already recorded on the job
		}
		job.finish(results, err)
		log.WithFields(log.Fields{"job": job.ID, "status": job.GetStatus()}).Info("batch job finished")
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"total":  len(paths),
		"status": string(JobStatusPending),
	})
}

// BatchStatus returns the status of a batch job, including results once finished
func (h *RecognizeHandler) BatchStatus(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.View(true))
}

// BatchEvents streams batch job progress via SSE
func (h *RecognizeHandler) BatchEvents(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			if job := h.jobManager.GetJob(id); job != nil {
				return job
			}
			return nil
		},
		func(job SSEJob) any {
			return job.(*BatchJob).View(false)
		},
	)
}

// CancelBatch cancels a running batch job
func (h *RecognizeHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if isJobTerminal(job.GetStatus()) {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": string(JobStatusCancelled)})
}
