package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

func TestOptionsHandler_Get(t *testing.T) {
	handler := NewOptionsHandler(newTestPipeline(t))
	recorder := httptest.NewRecorder()

	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var opts database.RecognitionOptions
	parseJSONResponse(t, recorder, &opts)
	if opts != database.DefaultRecognitionOptions() {
		t.Errorf("expected default options, got %+v", opts)
	}
}

func TestOptionsHandler_Update(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewOptionsHandler(pipeline)
	recorder := httptest.NewRecorder()

	req := jsonRequest(t, http.MethodPut, "/api/v1/options", map[string]any{
		"match_confidence_threshold": 0.75,
		"enable_landmarks":           true,
	})
	handler.Update(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	got := pipeline.Options()
	if got.MatchConfidenceThreshold != 0.75 || !got.EnableLandmarks {
		t.Errorf("update not applied: %+v", got)
	}
	if got.MinFaceSize != database.DefaultRecognitionOptions().MinFaceSize {
		t.Error("unset fields should keep their values")
	}
}

func TestOptionsHandler_UpdateInvalid(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewOptionsHandler(pipeline)
	recorder := httptest.NewRecorder()

	handler.Update(recorder, jsonRequest(t, http.MethodPut, "/api/v1/options", map[string]any{
		"detection_confidence_threshold": 7,
	}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	if pipeline.Options().DetectionConfidenceThreshold != database.DefaultRecognitionOptions().DetectionConfidenceThreshold {
		t.Error("invalid update must not change options")
	}
}
