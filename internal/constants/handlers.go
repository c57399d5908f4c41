package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Batch constants
const (
	// MaxBatchSize is the maximum number of files accepted by a single batch request
	MaxBatchSize = 10000

	// DefaultConcurrency is the default number of parallel detection workers
	DefaultConcurrency = 1
)

// Request size constants
const (
	// MaxRequestBodySize is the maximum accepted JSON request body in bytes (10MB)
	MaxRequestBodySize = 10 << 20
)
