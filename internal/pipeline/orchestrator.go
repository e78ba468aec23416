package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Orchestrator runs a per-product job across a set of products and records the run.
type Orchestrator struct {
	recorder RunRecorder
	cfg      Config
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator. A nil recorder disables run tracking.
func NewOrchestrator(recorder RunRecorder, cfg Config) *Orchestrator {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Orchestrator{
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run applies fn to every product id and returns the outcome tally.
// The returned error is non-nil only when ctx was cancelled mid-run.
func (o *Orchestrator) Run(ctx context.Context, job string, ownerID int64, ids []int64, fn ItemFunc) (Counts, error) {
	run := &Run{
		JobName:   job,
		OwnerID:   ownerID,
		Status:    StatusProcessing,
		Total:     len(ids),
		StartedAt: o.now(),
	}
	if err := o.recorder.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("job", job).Msg("failed to record pipeline run start")
	}

	log.Info().
		Str("job", job).
		Int64("owner_id", ownerID).
		Int("products", len(ids)).
		Int("workers", o.cfg.WorkerCount).
		Msg("starting pipeline run")

	counts, err := processParallel(ctx, job, o.cfg.WorkerCount, ids, fn)

	completedAt := o.now()
	run.CompletedAt = &completedAt
	run.Succeeded = counts.Succeeded
	run.Skipped = counts.Skipped
	run.Failed = counts.Failed
	run.Status = StatusCompleted
	if err != nil {
		run.Status = StatusFailed
		msg := err.Error()
		run.ErrorMessage = &msg
	}

	// Record completion even if the caller's context is gone
	if recErr := o.recorder.CompleteRun(context.WithoutCancel(ctx), run); recErr != nil {
		log.Warn().Err(recErr).Str("job", job).Msg("failed to record pipeline run completion")
	}

	log.Info().
		Str("job", job).
		Int("succeeded", counts.Succeeded).
		Int("skipped", counts.Skipped).
		Int("failed", counts.Failed).
		Dur("duration", completedAt.Sub(run.StartedAt)).
		Msg("pipeline run finished")

	if err != nil {
		return counts, fmt.Errorf("%s run interrupted: %w", job, err)
	}
	return counts, nil
}
