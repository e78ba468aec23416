package pipeline

import (
	"context"
	"time"
)

// Job names recorded on pipeline runs
const (
	JobForecast = "forecast"
	JobReorder  = "reorder"
)

// Outcome is the result of processing a single product
type Outcome int

const (
	// OutcomeSucceeded means the item produced a record
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped means the item was valid but there was nothing to produce
	OutcomeSkipped
	// OutcomeFailed means the item returned an error or panicked
	OutcomeFailed
)

// ItemFunc processes one product. A non-nil error counts the item as failed
// regardless of the returned outcome.
type ItemFunc func(ctx context.Context, productID int64) (Outcome, error)

// Config holds configuration for the orchestrator
type Config struct {
	WorkerCount int // Number of products processed concurrently
}

// DefaultConfig processes products one at a time.
func DefaultConfig() Config {
	return Config{WorkerCount: 1}
}

// Counts tallies item outcomes for one run
type Counts struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RunStatus represents the current state of a pipeline run
type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Run tracks a single execution of a job for one owner
type Run struct {
	ID           int64      `db:"id" json:"id"`
	JobName      string     `db:"job_name" json:"job_name"`
	OwnerID      int64      `db:"owner_id" json:"owner_id"`
	Status       RunStatus  `db:"status" json:"status"`
	Total        int        `db:"total_items" json:"total_items"`
	Succeeded    int        `db:"succeeded_items" json:"succeeded_items"`
	Skipped      int        `db:"skipped_items" json:"skipped_items"`
	Failed       int        `db:"failed_items" json:"failed_items"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
}

// RunRecorder persists run bookkeeping. Recording failures never abort a run.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *Run) error
	CompleteRun(ctx context.Context, run *Run) error
}
