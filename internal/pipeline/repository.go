package pipeline

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Repository handles database operations for pipeline tracking
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new pipeline repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a run record and sets its ID
func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO pipeline_runs (
			job_name, owner_id, status, total_items, started_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.JobName, run.OwnerID, run.Status, run.Total, run.StartedAt,
	).Scan(&run.ID)
}

// CompleteRun stores the final tally of a run
func (r *Repository) CompleteRun(ctx context.Context, run *Run) error {
	if run.ID == 0 {
		return nil
	}

	query := `
		UPDATE pipeline_runs
		SET status = $1, succeeded_items = $2, skipped_items = $3,
		    failed_items = $4, completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.Succeeded, run.Skipped,
		run.Failed, run.CompletedAt, run.ErrorMessage, run.ID,
	)
	return err
}

// GetRun retrieves a pipeline run by ID
func (r *Repository) GetRun(ctx context.Context, id int64) (*Run, error) {
	query := `
		SELECT id, job_name, owner_id, status, total_items, succeeded_items,
		       skipped_items, failed_items, started_at, completed_at, error_message
		FROM pipeline_runs
		WHERE id = $1
	`

	var run Run
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// ListRecentRuns returns the latest runs for an owner, newest first
func (r *Repository) ListRecentRuns(ctx context.Context, ownerID int64, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, job_name, owner_id, status, total_items, succeeded_items,
		       skipped_items, failed_items, started_at, completed_at, error_message
		FROM pipeline_runs
		WHERE owner_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	runs := []Run{}
	if err := r.db.SelectContext(ctx, &runs, query, ownerID, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

// NoopRecorder discards run bookkeeping
type NoopRecorder struct{}

func (NoopRecorder) CreateRun(context.Context, *Run) error   { return nil }
func (NoopRecorder) CompleteRun(context.Context, *Run) error { return nil }
