package port

import (
	"context"

	"github.com/framescan/framescan/internal/domain"
)

// JobStore is the durable record of job progress and decoded results.
// Implementations must tolerate concurrent writers across jobs and concurrent
// AddResult calls within a single job. Storage I/O failures propagate to the
// caller; retry policy belongs to the worker.
type JobStore interface {
	// Init resets a job to StatusQueued, clears any prior error and results,
	// and writes fresh metadata. Safe to call for a job id that already
	// exists; readers never observe status without metadata.
	Init(ctx context.Context, jobID, fileName string, fps float64) error

	// SetStatus overwrites the job status. A non-empty errorMessage is
	// recorded alongside; an empty one clears any previously recorded error.
	// Metadata and results are untouched.
	SetStatus(ctx context.Context, jobID string, status domain.JobStatus, errorMessage string) error

	// GetStatus returns domain.ErrNotFound for unknown job ids.
	GetStatus(ctx context.Context, jobID string) (domain.JobState, error)

	// AddResult appends a result into the job's timestamp-ordered collection.
	AddResult(ctx context.Context, jobID string, result domain.JobResult) error

	// GetResults returns results ascending by timestamp, or an empty slice
	// when the job has none.
	GetResults(ctx context.Context, jobID string) ([]domain.JobResult, error)

	// GetMetadata returns domain.ErrNotFound for unknown job ids.
	GetMetadata(ctx context.Context, jobID string) (domain.JobMetadata, error)
}
