// Package detector provides face detection capabilities: an HTTP client for an
// InsightFace-style embedding server and a deterministic synthetic detector.
package detector

import (
	"cmp"
	"context"
	"slices"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// Detector maps an image to detected faces with embeddings.
// Returned detections carry no ID; callers assign stable IDs.
type Detector interface {
	Detect(ctx context.Context, imagePath string, opts database.RecognitionOptions) ([]database.FaceDetection, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(ctx context.Context, imagePath string, opts database.RecognitionOptions) ([]database.FaceDetection, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, imagePath string, opts database.RecognitionOptions) ([]database.FaceDetection, error) {
	return f(ctx, imagePath, opts)
}

// Filter enforces detection options on raw detector output: confidence and size
// limits, the per-image face cap (highest confidence first), and stripping of
// landmarks/attributes that were not requested. Input order is kept otherwise.
func Filter(faces []database.FaceDetection, opts database.RecognitionOptions) []database.FaceDetection {
	kept := make([]database.FaceDetection, 0, len(faces))
	for _, f := range faces {
		if f.Confidence < opts.DetectionConfidenceThreshold {
			continue
		}
		size := min(f.Width(), f.Height())
		if opts.MinFaceSize > 0 && size < float64(opts.MinFaceSize) {
			continue
		}
		if opts.MaxFaceSize > 0 && max(f.Width(), f.Height()) > float64(opts.MaxFaceSize) {
			continue
		}
		if !opts.EnableLandmarks {
			f.Landmarks = nil
		}
		if !opts.EnableAttributes {
			f.Attributes = nil
		}
		kept = append(kept, f)
	}

	if opts.MaxFacesPerImage > 0 && len(kept) > opts.MaxFacesPerImage {
		order := make([]int, len(kept))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(kept[b].Confidence, kept[a].Confidence)
		})
		top := order[:opts.MaxFacesPerImage]
		slices.Sort(top)
		limited := make([]database.FaceDetection, 0, len(top))
		for _, i := range top {
			limited = append(limited, kept[i])
		}
		kept = limited
	}
	return kept
}
