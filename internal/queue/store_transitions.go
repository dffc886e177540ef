package queue

import (
	"context"
	"fmt"
	"time"
)

// UpdateHeartbeat stamps the heartbeat column for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing rolls back jobs whose heartbeat is older than the
// cutoff to the start status of their interrupted stage so a worker can pick
// them up again. Returns the number of jobs reclaimed.
func (s *Store) ResetStuckProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	cutoffRaw := cutoff.UTC().Format(time.RFC3339Nano)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, transition := range stageRollbackTransitions {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs
             SET status = ?, last_heartbeat = NULL, updated_at = ?
             WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
			transition.to, now, transition.from, cutoffRaw,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck %s: %w", transition.from, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// FailInFlight marks all in-flight jobs failed with the given reason. Used
// during daemon shutdown so no job is left stuck in a processing status.
func (s *Store) FailInFlight(ctx context.Context, reason string) (int64, error) {
	var total int64
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for status := range processingStatuses {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs
             SET status = ?, error_message = ?, progress_message = ?,
                 progress_stage = ?, last_heartbeat = NULL, updated_at = ?
             WHERE status = ?`,
			StatusFailed, reason, reason, StageLabel(StatusFailed), now, status,
		)
		if err != nil {
			return total, fmt.Errorf("fail in-flight %s: %w", status, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed resets a failed job back to pending so it runs from the start.
// Per-stage retry is deliberately not supported: re-running after the save
// stage has committed is undefined, so a retry always resubmits the whole
// pipeline.
func (s *Store) RetryFailed(ctx context.Context, id int64) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if job.Status != StatusFailed {
		return nil, fmt.Errorf("job %d is %s, only failed jobs can be retried", id, job.Status)
	}

	job.Status = StatusPending
	job.ExecutionPath = ""
	job.ProgressStage = ""
	job.OverallProgress = 0
	job.SubProgress = 0
	job.ProgressMessage = ""
	job.ErrorMessage = ""
	job.ResultJSON = ""
	job.NotesText = ""
	job.StartedAt = nil
	job.LastHeartbeat = nil
	if err := s.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}
