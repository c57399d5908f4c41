package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/database/mock"
	"github.com/kozaktomas/face-recognizer/internal/detector"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
	"github.com/kozaktomas/face-recognizer/internal/registry"
)

// testFaces is what the stub detector reports for every image
var testFaces = []database.FaceDetection{
	{BBox: []float64{10, 10, 60, 60}, Confidence: 0.99, Embedding: []float32{1, 0, 0}},
	{BBox: []float64{100, 10, 150, 60}, Confidence: 0.95, Embedding: []float32{0, 1, 0}},
}

// newTestPipeline creates a pipeline over in-memory stores and a stub detector
func newTestPipeline(t *testing.T) *recognition.Pipeline {
	t.Helper()
	stub := detector.Func(func(ctx context.Context, _ string, _ database.RecognitionOptions) ([]database.FaceDetection, error) {
		r := database.DetectionResult{Faces: testFaces}
		return r.Clone().Faces, nil
	})
	return newTestPipelineWith(t, stub)
}

// newTestPipelineWith creates a pipeline over in-memory stores and the given detector
func newTestPipelineWith(t *testing.T, det detector.Detector) *recognition.Pipeline {
	t.Helper()
	reg, err := registry.New(context.Background(), mock.NewMockPeopleStore(), registry.NewSampleStore(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	p, err := recognition.New(recognition.Config{
		Cache:    mock.NewMockDetectionCache(),
		Detector: det,
		Registry: reg,
	})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

// waitForJob blocks until the job has recorded its outcome
func waitForJob(t *testing.T, job *BatchJob) BatchJobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v := job.View(true); v.CompletedAt != nil {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return BatchJobView{}
}

// writeTestImage writes a fake image file and returns its path
func writeTestImage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
