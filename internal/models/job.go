package models

import "time"

// JobStatus is the async search lifecycle state.
type JobStatus string

const (
	JobPending     JobStatus = "PENDING"
	JobRunning     JobStatus = "RUNNING"
	JobDoneSuccess JobStatus = "DONE_SUCCESS"
	JobDoneFailed  JobStatus = "DONE_FAILED"
)

// Terminal reports whether the status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobDoneSuccess || s == JobDoneFailed
}

// CanTransition enforces PENDING → RUNNING → DONE_* with no back edges.
// A pending job may fail directly without ever running.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next.Terminal()
	case JobRunning:
		return next.Terminal()
	default:
		return false
	}
}

// Job tracks one async search from enqueue to terminal state. ID equals
// the search request id.
type Job struct {
	ID        string          `json:"id"`
	Status    JobStatus       `json:"status"`
	Result    *SearchResponse `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created"`
	UpdatedAt time.Time       `json:"modified"`
}
