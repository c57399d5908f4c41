package recognition

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// Per-file failure classes. Configuration and not-found errors come from database.
var (
	ErrIO                = errors.New("io error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDetector          = errors.New("detector error")
	ErrInvalidBBox       = errors.New("invalid bounding box")
)

// kindOf maps a pipeline error to the kind recorded on a DetectionResult.
func kindOf(err error) database.ErrorKind {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return database.ErrorKindUnsupportedFormat
	case errors.Is(err, ErrDetector):
		return database.ErrorKindDetector
	case errors.Is(err, database.ErrConfiguration):
		return database.ErrorKindConfiguration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return database.ErrorKindCancelled
	default:
		return database.ErrorKindIO
	}
}
