package handlers

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for x := range 200 {
		for y := range 100 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "people.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func withID(r *http.Request, id string) *http.Request {
	return requestWithChiParams(r, map[string]string{"id": id})
}

func TestPeopleHandler_CreateIsUpsert(t *testing.T) {
	handler := NewPeopleHandler(newTestPipeline(t))

	var first, second database.Person
	for i, target := range []*database.Person{&first, &second} {
		recorder := httptest.NewRecorder()
		name := []string{"Alice", "alice"}[i]
		handler.CreateOrUpdate(recorder, jsonRequest(t, http.MethodPost, "/api/v1/people", map[string]any{"name": name, "favorite": true}))
		assertStatusCode(t, recorder, http.StatusOK)
		parseJSONResponse(t, recorder, target)
	}

	if first.ID == "" || first.ID != second.ID {
		t.Errorf("expected the same person, got %q and %q", first.ID, second.ID)
	}
	if !second.Favorite {
		t.Error("favorite flag not applied")
	}

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/people", nil))
	var people []database.Person
	parseJSONResponse(t, recorder, &people)
	if len(people) != 1 {
		t.Errorf("expected 1 person, got %d", len(people))
	}
}

func TestPeopleHandler_CreateEmptyName(t *testing.T) {
	handler := NewPeopleHandler(newTestPipeline(t))
	recorder := httptest.NewRecorder()

	handler.CreateOrUpdate(recorder, jsonRequest(t, http.MethodPost, "/api/v1/people", map[string]any{"name": " "}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestPeopleHandler_GetAndDelete(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewPeopleHandler(pipeline)
	p, err := pipeline.CreateOrUpdatePerson(context.Background(), "Bob", database.PersonFields{})
	if err != nil {
		t.Fatal(err)
	}

	recorder := httptest.NewRecorder()
	handler.Get(recorder, withID(httptest.NewRequest(http.MethodGet, "/", nil), p.ID))
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.Delete(recorder, withID(httptest.NewRequest(http.MethodDelete, "/", nil), p.ID))
	assertStatusCode(t, recorder, http.StatusNoContent)

	for name, fn := range map[string]http.HandlerFunc{"get": handler.Get, "delete": handler.Delete} {
		recorder = httptest.NewRecorder()
		fn(recorder, withID(httptest.NewRequest(http.MethodGet, "/", nil), p.ID))
		if recorder.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", name, recorder.Code)
		}
	}
}

func TestPeopleHandler_Update(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewPeopleHandler(pipeline)
	ctx := context.Background()
	alice, _ := pipeline.CreateOrUpdatePerson(ctx, "Alice", database.PersonFields{})
	if _, err := pipeline.CreateOrUpdatePerson(ctx, "Bob", database.PersonFields{}); err != nil {
		t.Fatal(err)
	}

	recorder := httptest.NewRecorder()
	handler.Update(recorder, withID(jsonRequest(t, http.MethodPatch, "/", map[string]any{"name": "Alicia", "hidden": true}), alice.ID))
	assertStatusCode(t, recorder, http.StatusOK)
	var updated database.Person
	parseJSONResponse(t, recorder, &updated)
	if updated.Name != "Alicia" || !updated.Hidden {
		t.Errorf("unexpected update result: %+v", updated)
	}

	recorder = httptest.NewRecorder()
	handler.Update(recorder, withID(jsonRequest(t, http.MethodPatch, "/", map[string]any{"name": "BOB"}), alice.ID))
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestPeopleHandler_UpdateDeletedPerson(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewPeopleHandler(pipeline)
	ctx := context.Background()
	alice, _ := pipeline.CreateOrUpdatePerson(ctx, "Alice", database.PersonFields{})
	if _, err := pipeline.DeletePerson(ctx, alice.ID); err != nil {
		t.Fatal(err)
	}

	// Updating a person by ID must never recreate it by name.
	recorder := httptest.NewRecorder()
	handler.Update(recorder, withID(jsonRequest(t, http.MethodPatch, "/", map[string]any{"notes": "x"}), alice.ID))

	assertStatusCode(t, recorder, http.StatusNotFound)
	if people := pipeline.ListPeople(); len(people) != 0 {
		t.Errorf("expected no people, got %+v", people)
	}
}

func TestPeopleHandler_AssignThumbnailUnassign(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewPeopleHandler(pipeline)
	p, _ := pipeline.CreateOrUpdatePerson(context.Background(), "Carol", database.PersonFields{})
	photo := writeTestPNG(t)

	// No thumbnail before the first exemplar.
	recorder := httptest.NewRecorder()
	handler.Thumbnail(recorder, withID(httptest.NewRequest(http.MethodGet, "/", nil), p.ID))
	assertStatusCode(t, recorder, http.StatusNotFound)

	recorder = httptest.NewRecorder()
	handler.AssignFace(recorder, withID(jsonRequest(t, http.MethodPost, "/", AssignFaceRequest{
		ImagePath: photo,
		BBox:      []float64{12, 12, 58, 58},
	}), p.ID))
	assertStatusCode(t, recorder, http.StatusCreated)
	var assigned database.Person
	parseJSONResponse(t, recorder, &assigned)
	if len(assigned.Exemplars) != 1 || assigned.Exemplars[0].Embedding[0] != 1 {
		t.Fatalf("expected first detected face as exemplar, got %+v", assigned.Exemplars)
	}

	recorder = httptest.NewRecorder()
	handler.Thumbnail(recorder, withID(httptest.NewRequest(http.MethodGet, "/", nil), p.ID))
	assertStatusCode(t, recorder, http.StatusOK)
	if ct := recorder.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg thumbnail, got %s", ct)
	}

	recorder = httptest.NewRecorder()
	handler.UnassignFace(recorder, requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/", nil),
		map[string]string{"id": p.ID, "faceId": assigned.Exemplars[0].FaceID}))
	assertStatusCode(t, recorder, http.StatusOK)
	var after database.Person
	parseJSONResponse(t, recorder, &after)
	if len(after.Exemplars) != 0 || after.ThumbnailPath != "" {
		t.Errorf("expected no exemplars and no thumbnail, got %+v", after)
	}
}

func TestPeopleHandler_AssignFaceErrors(t *testing.T) {
	pipeline := newTestPipeline(t)
	handler := NewPeopleHandler(pipeline)
	p, _ := pipeline.CreateOrUpdatePerson(context.Background(), "Dave", database.PersonFields{})
	photo := writeTestImage(t, "x.jpg", "bytes")

	tests := []struct {
		name   string
		id     string
		body   AssignFaceRequest
		status int
	}{
		{"missing image", p.ID, AssignFaceRequest{BBox: []float64{0, 0, 10, 10}}, http.StatusBadRequest},
		{"invalid bbox", p.ID, AssignFaceRequest{ImagePath: photo, BBox: []float64{1, 2}}, http.StatusBadRequest},
		{"unknown person", "missing", AssignFaceRequest{ImagePath: photo, BBox: []float64{10, 10, 60, 60}}, http.StatusNotFound},
		{"no overlapping face", p.ID, AssignFaceRequest{ImagePath: photo, BBox: []float64{500, 500, 600, 600}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.AssignFace(recorder, withID(jsonRequest(t, http.MethodPost, "/", tt.body), tt.id))
			assertStatusCode(t, recorder, tt.status)
		})
	}
}
