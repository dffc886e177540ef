package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"mindscribe/internal/logging"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
)

// Reporter is how stage handlers publish sub-progress. It maps the report
// onto the overall 0-100 scale, persists it, and emits sampled log lines so
// chatty stages do not flood the daemon log.
type Reporter struct {
	store     *queue.Store
	estimator *progress.Estimator
	logger    *slog.Logger

	mu      sync.Mutex
	sampler *logging.ProgressSampler
}

// NewReporter constructs a progress reporter backed by the given store and
// estimator.
func NewReporter(store *queue.Store, estimator *progress.Estimator, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:     store,
		estimator: estimator,
		logger:    logger,
		sampler:   logging.NewProgressSampler(0),
	}
}

// Update records a sub-progress report for the job's current stage. The
// overall percentage is derived through the estimator and never decreases.
func (r *Reporter) Update(ctx context.Context, job *queue.Job, sub float64, message string) {
	if r == nil || job == nil {
		return
	}
	overall := r.estimator.Overall(job.Status, sub, job.OverallProgress)
	job.SetProgress(queue.StageLabel(job.Status), overall, sub, message)

	if err := r.store.Update(ctx, job); err != nil {
		logging.WithContext(ctx, r.base()).Warn("failed to persist progress update", logging.Error(err))
		return
	}

	r.mu.Lock()
	emit := r.sampler.ShouldLog(float64(job.OverallProgress), string(job.Status))
	r.mu.Unlock()
	if emit {
		logging.WithContext(ctx, r.base()).Info("progress",
			logging.String(logging.FieldEventType, "progress_update"),
			logging.Int("overall_progress", job.OverallProgress),
			logging.Float64("sub_progress", job.SubProgress),
			logging.String("message", message),
		)
	}
}

func (r *Reporter) base() *slog.Logger {
	if r.logger == nil {
		return logging.NewNop()
	}
	return r.logger
}
