package database

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kozaktomas/face-recognizer/internal/constants"
)

// Exemplar is one stored reference face of a person
type Exemplar struct {
	FaceID     string    `json:"face_id"`
	Embedding  []float32 `json:"embedding"`
	SamplePath string    `json:"sample_path"`
	SourcePath string    `json:"source_path,omitempty"`
	BBox       []float64 `json:"bbox,omitempty"` // [x1, y1, x2, y2] in source pixels
	CreatedAt  time.Time `json:"created_at"`
}

// Person is a named identity with its exemplar faces
type Person struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Notes         string     `json:"notes,omitempty"`
	Favorite      bool       `json:"favorite"`
	Hidden        bool       `json:"hidden"`
	Exemplars     []Exemplar `json:"exemplars"`
	ThumbnailPath string     `json:"thumbnail_path,omitempty"`
	ThumbnailFace string     `json:"thumbnail_face_id,omitempty"` // exemplar backing ThumbnailPath
	ImageCount    int        `json:"image_count"`
	CreatedAt     time.Time  `json:"date_created"`
	ModifiedAt    time.Time  `json:"date_modified"`

	// MatchedFingerprints holds content fingerprints of images this person was matched in.
	// ImageCount is its length; it never shrinks.
	MatchedFingerprints []string `json:"matched_fingerprints,omitempty"`
}

// EmbeddingDim returns the embedding length of the person's exemplars, or 0 if there are none.
func (p *Person) EmbeddingDim() int {
	for i := range p.Exemplars {
		if n := len(p.Exemplars[i].Embedding); n > 0 {
			return n
		}
	}
	return 0
}

// FindExemplar returns the index of the exemplar with the given face ID, or -1.
func (p *Person) FindExemplar(faceID string) int {
	for i := range p.Exemplars {
		if p.Exemplars[i].FaceID == faceID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can't mutate registry state.
func (p *Person) Clone() Person {
	c := *p
	c.Exemplars = make([]Exemplar, len(p.Exemplars))
	for i, e := range p.Exemplars {
		e.Embedding = slices.Clone(e.Embedding)
		e.BBox = slices.Clone(e.BBox)
		c.Exemplars[i] = e
	}
	c.MatchedFingerprints = slices.Clone(p.MatchedFingerprints)
	return c
}

// PersonFields holds the optional fields accepted by create-or-update.
// Nil pointers leave the existing value untouched.
type PersonFields struct {
	Notes    *string `json:"notes,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
	Hidden   *bool   `json:"hidden,omitempty"`
}

// FaceDetection is a single detected face, optionally annotated with a matched person
type FaceDetection struct {
	ID         string         `json:"id"`
	BBox       []float64      `json:"bbox"` // [x1, y1, x2, y2] in pixels
	Confidence float64        `json:"confidence"`
	Landmarks  [][]float64    `json:"landmarks,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Embedding  []float32      `json:"embedding"`

	// Populated by matching; empty PersonID means no match above the threshold
	PersonID        string  `json:"person_id,omitempty"`
	PersonName      string  `json:"person_name,omitempty"`
	MatchConfidence float64 `json:"match_confidence,omitempty"`
}

// Width returns the bounding box width in pixels.
func (f *FaceDetection) Width() float64 {
	if len(f.BBox) != 4 {
		return 0
	}
	return f.BBox[2] - f.BBox[0]
}

// Height returns the bounding box height in pixels.
func (f *FaceDetection) Height() float64 {
	if len(f.BBox) != 4 {
		return 0
	}
	return f.BBox[3] - f.BBox[1]
}

// DetectionResult is the outcome of recognizing a single image. The cached copy
// never carries match annotations.
type DetectionResult struct {
	FilePath         string          `json:"file_path"`
	Fingerprint      string          `json:"content_fingerprint"`
	ImageWidth       int             `json:"image_width"`
	ImageHeight      int             `json:"image_height"`
	Faces            []FaceDetection `json:"faces"`
	Error            string          `json:"error,omitempty"`
	ErrorKind        ErrorKind       `json:"error_kind,omitempty"`
	OptionsSignature string          `json:"options_signature,omitempty"`
}

// Clone returns a deep copy of the result.
func (r *DetectionResult) Clone() DetectionResult {
	c := *r
	c.Faces = make([]FaceDetection, len(r.Faces))
	for i, f := range r.Faces {
		f.BBox = slices.Clone(f.BBox)
		f.Embedding = slices.Clone(f.Embedding)
		if f.Landmarks != nil {
			lm := make([][]float64, len(f.Landmarks))
			for j := range f.Landmarks {
				lm[j] = slices.Clone(f.Landmarks[j])
			}
			f.Landmarks = lm
		}
		f.Attributes = maps.Clone(f.Attributes)
		c.Faces[i] = f
	}
	return c
}

// Failed reports whether the result carries an error.
func (r *DetectionResult) Failed() bool {
	return r.Error != ""
}

// RecognitionOptions configures detection and matching
type RecognitionOptions struct {
	MinFaceSize                  int     `json:"min_face_size" yaml:"min_face_size"`
	MaxFaceSize                  int     `json:"max_face_size" yaml:"max_face_size"` // 0 = unbounded
	DetectionConfidenceThreshold float64 `json:"detection_confidence_threshold" yaml:"detection_confidence_threshold"`
	MatchConfidenceThreshold     float64 `json:"match_confidence_threshold" yaml:"match_confidence_threshold"`
	MaxFacesPerImage             int     `json:"max_faces_per_image" yaml:"max_faces_per_image"` // 0 = unbounded
	EnableLandmarks              bool    `json:"enable_landmarks" yaml:"enable_landmarks"`
	EnableAttributes             bool    `json:"enable_attributes" yaml:"enable_attributes"`
}

// DefaultRecognitionOptions returns the options used when nothing is configured.
func DefaultRecognitionOptions() RecognitionOptions {
	return RecognitionOptions{
		MinFaceSize:                  constants.DefaultMinFaceSize,
		DetectionConfidenceThreshold: constants.DefaultDetectionConfidence,
		MatchConfidenceThreshold:     constants.DefaultMatchConfidence,
	}
}

// DetectionSignature identifies the options that influence raw detection output.
// The match threshold is excluded because matching is never cached.
func (o RecognitionOptions) DetectionSignature() string {
	return fmt.Sprintf("min=%d;max=%d;conf=%g;faces=%d;lm=%t;attr=%t",
		o.MinFaceSize, o.MaxFaceSize, o.DetectionConfidenceThreshold,
		o.MaxFacesPerImage, o.EnableLandmarks, o.EnableAttributes)
}

// OptionsUpdate is a partial RecognitionOptions; nil fields are left unchanged
type OptionsUpdate struct {
	MinFaceSize                  *int     `json:"min_face_size,omitempty"`
	MaxFaceSize                  *int     `json:"max_face_size,omitempty"`
	DetectionConfidenceThreshold *float64 `json:"detection_confidence_threshold,omitempty"`
	MatchConfidenceThreshold     *float64 `json:"match_confidence_threshold,omitempty"`
	MaxFacesPerImage             *int     `json:"max_faces_per_image,omitempty"`
	EnableLandmarks              *bool    `json:"enable_landmarks,omitempty"`
	EnableAttributes             *bool    `json:"enable_attributes,omitempty"`
}

// Merge applies the non-nil fields of u to a copy of o.
func (o RecognitionOptions) Merge(u OptionsUpdate) RecognitionOptions {
	if u.MinFaceSize != nil {
		o.MinFaceSize = *u.MinFaceSize
	}
	if u.MaxFaceSize != nil {
		o.MaxFaceSize = *u.MaxFaceSize
	}
	if u.DetectionConfidenceThreshold != nil {
		o.DetectionConfidenceThreshold = *u.DetectionConfidenceThreshold
	}
	if u.MatchConfidenceThreshold != nil {
		o.MatchConfidenceThreshold = *u.MatchConfidenceThreshold
	}
	if u.MaxFacesPerImage != nil {
		o.MaxFacesPerImage = *u.MaxFacesPerImage
	}
	if u.EnableLandmarks != nil {
		o.EnableLandmarks = *u.EnableLandmarks
	}
	if u.EnableAttributes != nil {
		o.EnableAttributes = *u.EnableAttributes
	}
	return o
}

// Validate checks option ranges.
func (o RecognitionOptions) Validate() error {
	if o.MinFaceSize < 0 || o.MaxFaceSize < 0 || o.MaxFacesPerImage < 0 {
		return fmt.Errorf("%w: sizes and face limits must not be negative", ErrInvalidOptions)
	}
	if o.MaxFaceSize > 0 && o.MaxFaceSize < o.MinFaceSize {
		return fmt.Errorf("%w: max_face_size %d is below min_face_size %d", ErrInvalidOptions, o.MaxFaceSize, o.MinFaceSize)
	}
	if o.DetectionConfidenceThreshold < 0 || o.DetectionConfidenceThreshold > 1 {
		return fmt.Errorf("%w: detection_confidence_threshold must be within [0, 1]", ErrInvalidOptions)
	}
	if o.MatchConfidenceThreshold < -1 || o.MatchConfidenceThreshold > 1 {
		return fmt.Errorf("%w: match_confidence_threshold must be within [-1, 1]", ErrInvalidOptions)
	}
	return nil
}
