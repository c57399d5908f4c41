package handlers

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// BatchJob is an async batch recognition.
type BatchJob struct {
	EventBroadcaster

	ID          string
	Paths       []string
	Status      JobStatus
	Processed   int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Results     []database.DetectionResult
}

// BatchJobView is the JSON representation of a batch job.
type BatchJobView struct {
	ID          string                     `json:"id"`
	Status      JobStatus                  `json:"status"`
	Total       int                        `json:"total"`
	Processed   int                        `json:"processed"`
	Failed      int                        `json:"failed"`
	Error       string                     `json:"error,omitempty"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
	Results     []database.DetectionResult `json:"results,omitempty"`
}

// ProgressData is the payload of progress events.
type ProgressData struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// GetStatus returns the current job status (implements SSEJob).
func (j *BatchJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// View returns a consistent copy of the job state.
func (j *BatchJob) View(withResults bool) BatchJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := BatchJobView{
		ID:          j.ID,
		Status:      j.Status,
		Total:       len(j.Paths),
		Processed:   j.Processed,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	for i := range j.Results {
		if j.Results[i].Failed() {
			v.Failed++
		}
	}
	if withResults {
		v.Results = slices.Clone(j.Results)
	}
	return v
}

// Cancel cancels the batch job.
func (j *BatchJob) Cancel() {
	j.mu.Lock()
	if isJobTerminal(j.Status) {
		j.mu.Unlock()
		return
	}
	j.Status = JobStatusCancelled
	j.mu.Unlock()
	j.EventBroadcaster.Cancel()
}

func (j *BatchJob) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status == JobStatusPending {
		j.Status = JobStatusRunning
	}
}

func (j *BatchJob) progress(processed, total int) {
	j.mu.Lock()
	j.Processed = processed
	j.mu.Unlock()
	j.SendEvent(JobEvent{Type: "progress", Data: ProgressData{Processed: processed, Total: total}})
}

// finish records the outcome. A cancelled job keeps its status.
func (j *BatchJob) finish(results []database.DetectionResult, err error) {
	now := time.Now()
	j.mu.Lock()
	j.Results = results
	j.CompletedAt = &now
	if j.Status != JobStatusCancelled {
		if err != nil {
			j.Status = JobStatusFailed
			j.Error = err.Error()
		} else {
			j.Status = JobStatusCompleted
		}
	}
	status := j.Status
	j.mu.Unlock()

	switch status {
	case JobStatusCompleted:
		j.SendEvent(JobEvent{Type: "completed", Data: j.View(false)})
	case JobStatusFailed:
		j.SendEvent(JobEvent{Type: "failed", Message: err.Error()})
	}
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	if b.cancel != nil {
		b.cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*BatchJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*BatchJob),
	}
}

// CreateJob creates a new pending batch job whose context is cancelled by Cancel.
func (m *JobManager) CreateJob(id string, paths []string) (*BatchJob, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &BatchJob{
		ID:        id,
		Paths:     paths,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}
	job.cancel = cancel

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job, ctx
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *BatchJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*BatchJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*BatchJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}
