package database

import "errors"

// Sentinel errors shared by stores, the registry and the recognition pipeline.
var (
	// ErrNotFound is returned when an operation references an unknown person or face.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is returned when embedding lengths disagree between the
	// detector and stored exemplars.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidOptions is returned when recognition options are out of range.
	ErrInvalidOptions = errors.New("invalid recognition options")

	// ErrInvalidName is returned when a person name is empty.
	ErrInvalidName = errors.New("person name must not be empty")

	// ErrNameTaken is returned when renaming a person to a name another person already uses.
	ErrNameTaken = errors.New("person name already in use")
)

// ErrorKind classifies a per-file recognition failure
type ErrorKind string

// ErrorKind values recorded on failed DetectionResults.
const (
	ErrorKindIO                ErrorKind = "io"
	ErrorKindUnsupportedFormat ErrorKind = "unsupported_format"
	ErrorKindDetector          ErrorKind = "detector"
	ErrorKindConfiguration     ErrorKind = "configuration"
	ErrorKindCancelled         ErrorKind = "cancelled"
)
