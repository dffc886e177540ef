package api

import (
	"slices"
	"time"

	"mindscribe/internal/pipeline"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
	"mindscribe/internal/stage"
)

// FromJob converts a queue record to its API representation. The remaining
// time estimate is derived at read time from the recorded overall progress
// and the elapsed wall clock since processing started.
func FromJob(job *queue.Job, estimator *progress.Estimator, now time.Time) Job {
	if job == nil {
		return Job{}
	}

	dto := Job{
		ID:              job.ID,
		SessionTitle:    job.SessionTitle,
		SourcePath:      job.SourcePath,
		Status:          string(job.Status),
		ExecutionPath:   string(job.ExecutionPath),
		ErrorMessage:    job.ErrorMessage,
		DurationSeconds: job.DurationSeconds,
		Progress: JobProgress{
			Stage:          job.ProgressStage,
			OverallPercent: job.OverallProgress,
			SubProgress:    job.SubProgress,
			Message:        job.ProgressMessage,
		},
	}

	if estimator != nil && job.StartedAt != nil && !job.IsTerminal() {
		elapsed := now.Sub(*job.StartedAt)
		dto.Progress.EstimatedRemainingSeconds = estimator.TimeRemaining(job.OverallProgress, elapsed)
	}
	if job.Status == queue.StatusCompleted {
		zero := 0
		dto.Progress.EstimatedRemainingSeconds = &zero
	}

	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.StartedAt != nil && !job.StartedAt.IsZero() {
		dto.StartedAt = job.StartedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job, estimator *progress.Estimator, now time.Time) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job, estimator, now))
	}
	return out
}

// FromStatusSummary converts a pipeline status summary to its API payload.
func FromStatusSummary(summary pipeline.StatusSummary, estimator *progress.Estimator, now time.Time) PipelineStatus {
	status := PipelineStatus{
		Running:     summary.Running,
		Workers:     summary.Workers,
		QueueStats:  summary.QueueStats,
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob, estimator, now)
		status.LastJob = &last
	}
	return status
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}
