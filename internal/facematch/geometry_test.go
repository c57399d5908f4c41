package facematch

import (
	"math"
	"testing"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

func TestComputeIoU(t *testing.T) {
	tests := []struct {
		name     string
		bbox1    []float64
		bbox2    []float64
		expected float64
	}{
		{
			name:     "identical boxes",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{20, 20, 30, 30},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 25.0 / 175.0, // intersection=25, union=100+100-25=175
		},
		{
			name:     "one inside other",
			bbox1:    []float64{0, 0, 20, 20},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 100.0 / 400.0,
		},
		{
			name:     "invalid bbox1",
			bbox1:    []float64{0, 0, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 0.0,
		},
		{
			name:     "empty bboxes",
			bbox1:    []float64{},
			bbox2:    []float64{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeIoU(tt.bbox1, tt.bbox2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ComputeIoU(%v, %v) = %v, want %v", tt.bbox1, tt.bbox2, result, tt.expected)
			}
		})
	}
}

func TestBestOverlap(t *testing.T) {
	faces := []database.FaceDetection{
		{ID: "left", BBox: []float64{0, 0, 100, 100}},
		{ID: "right", BBox: []float64{200, 0, 300, 100}},
	}

	tests := []struct {
		name    string
		target  []float64
		minIoU  float64
		wantIdx int
	}{
		{"exact right", []float64{200, 0, 300, 100}, 0.3, 1},
		{"shifted left", []float64{10, 10, 110, 110}, 0.3, 0},
		{"nothing there", []float64{500, 500, 600, 600}, 0.3, -1},
		{"overlap below threshold", []float64{90, 90, 190, 190}, 0.3, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _ := BestOverlap(tt.target, faces, tt.minIoU)
			if idx != tt.wantIdx {
				t.Errorf("BestOverlap() index = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

func TestExpandBBox(t *testing.T) {
	got := ExpandBBox([]float64{10, 10, 110, 60}, 0.2, 120, 200)
	want := []float64{0, 0, 120, 70}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 0.0001 {
			t.Errorf("ExpandBBox()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValidBBox(t *testing.T) {
	if !ValidBBox([]float64{0, 0, 1, 1}) {
		t.Error("expected unit box to be valid")
	}
	if ValidBBox([]float64{5, 5, 5, 10}) {
		t.Error("expected zero-width box to be invalid")
	}
	if ValidBBox([]float64{1, 2, 3}) {
		t.Error("expected short box to be invalid")
	}
}
