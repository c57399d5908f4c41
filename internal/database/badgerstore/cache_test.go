package badgerstore

import (
	"context"
	"testing"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_GetMissing(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get(context.Background(), "abcd"); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestCache_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	first := &database.DetectionResult{
		FilePath:    "/photos/a.jpg",
		Fingerprint: "abcd",
		Faces: []database.FaceDetection{
			{ID: "f1", BBox: []float64{1, 2, 3, 4}, Confidence: 0.9, Embedding: []float32{1, 0}},
		},
	}
	if err := c.Put(ctx, "abcd", first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(ctx, "abcd")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got.Faces) != 1 || got.Faces[0].ID != "f1" {
		t.Errorf("unexpected cached faces: %+v", got.Faces)
	}

	second := &database.DetectionResult{FilePath: "/photos/b.jpg", Fingerprint: "abcd"}
	if err := c.Put(ctx, "abcd", second); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _ = c.Get(ctx, "abcd")
	if got.FilePath != "/photos/b.jpg" || len(got.Faces) != 0 {
		t.Errorf("expected overwritten entry, got %+v", got)
	}

	n, err := c.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("expected error without Dir")
	}
}
