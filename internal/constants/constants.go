// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Recognition defaults
const (
	// DefaultMinFaceSize is the minimum face width/height in pixels kept after detection
	DefaultMinFaceSize = 20

	// DefaultDetectionConfidence is the minimum detector score for a face to be kept
	DefaultDetectionConfidence = 0.5

	// DefaultMatchConfidence is the minimum cosine similarity for a face to be matched to a person
	DefaultMatchConfidence = 0.6

	// DefaultEmbeddingDim is the embedding length produced by buffalo_l / ArcFace models
	DefaultEmbeddingDim = 512

	// DefaultDetectorTimeout bounds a single detector call
	DefaultDetectorTimeout = 60 * time.Second
)

// Face assignment constants
const (
	// AssignIoUThreshold is the minimum Intersection over Union between a requested
	// bounding box and a detected face for the face to be used as an exemplar
	AssignIoUThreshold = 0.3

	// SampleMaxSize is the maximum width or height of a stored exemplar sample
	SampleMaxSize = 256

	// SampleMargin is the fraction of the face box added on every side when cropping a sample
	SampleMargin = 0.2

	// SampleJPEGQuality is the JPEG quality used for exemplar samples
	SampleJPEGQuality = 90
)

// HNSW index parameters for face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWSearchK is the number of exemplars requested from the graph per query.
	// Candidates are re-scored with exact cosine similarity afterwards.
	HNSWSearchK = 32
)

// Storage layout
const (
	// PeopleFileName is the people document inside the data directory
	PeopleFileName = "people.json"

	// CacheDirName is the detection cache directory inside the data directory
	CacheDirName = "cache"

	// SamplesDirName is the exemplar sample directory inside the data directory
	SamplesDirName = "samples"
)

// SupportedExtensions lists image extensions accepted by the recognition pipeline (lowercase, with dot)
var SupportedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff", ".heic", ".heif",
}
