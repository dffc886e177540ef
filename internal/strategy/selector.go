package strategy

import (
	"context"
	"errors"
	"log/slog"

	"mindscribe/internal/accel"
	"mindscribe/internal/logging"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
)

// Work bundles the two implementations of one stage's work. Accelerated may
// be nil when the deployment ships without the local engine; Baseline is
// required.
type Work struct {
	Name        string
	Accelerated func(context.Context) error
	Baseline    func(context.Context) error
}

// Selector decides, per stage execution, whether to attempt the accelerated
// path and performs the fallback decision on failure. It holds no per-job
// state.
type Selector struct {
	pool              *accel.Pool
	logger            *slog.Logger
	preferAccelerated bool
}

// NewSelector constructs a selector. preferAccelerated is the deployment
// toggle; forceBaseline is a per-run input to Run.
func NewSelector(pool *accel.Pool, logger *slog.Logger, preferAccelerated bool) *Selector {
	return &Selector{
		pool:              pool,
		logger:            logging.NewComponentLogger(logger, "strategy"),
		preferAccelerated: preferAccelerated,
	}
}

// Run executes the stage work on the selected path and reports which path
// produced the result.
//
// The accelerated path is attempted only when the deployment prefers it,
// the caller did not force baseline, and an accelerated implementation
// exists. An accelerated failure falls back to baseline only for the
// enumerated recoverable kinds (missing dependency, no accelerator present,
// resource exhaustion); any other accelerated error is a stage failure so
// genuine bugs are not masked as capacity problems. A baseline failure is
// always terminal.
func (s *Selector) Run(ctx context.Context, work Work, forceBaseline bool) (queue.ExecutionPath, error) {
	if work.Baseline == nil {
		return "", services.Wrap(services.ErrConfiguration, work.Name, "strategy", "no baseline implementation", nil)
	}

	if !s.attemptAccelerated(work, forceBaseline) {
		return queue.PathBaseline, work.Baseline(ctx)
	}

	accelErr := s.pool.Execute(ctx, work.Name, work.Accelerated)
	if accelErr == nil {
		return queue.PathAccelerated, nil
	}
	if errors.Is(accelErr, context.Canceled) || errors.Is(accelErr, context.DeadlineExceeded) {
		return queue.PathAccelerated, accelErr
	}
	if !services.RecoverableAccelerated(accelErr) {
		return queue.PathAccelerated, accelErr
	}

	logging.WithContext(ctx, s.logger).Warn("accelerated path failed, falling back to baseline",
		logging.String(logging.FieldEventType, "accelerated_fallback"),
		logging.String("work", work.Name),
		logging.Error(accelErr),
		logging.String(logging.FieldErrorHint, "check local engine installation and GPU memory"),
	)

	if err := work.Baseline(ctx); err != nil {
		return queue.PathBaseline, err
	}
	return queue.PathBaseline, nil
}

func (s *Selector) attemptAccelerated(work Work, forceBaseline bool) bool {
	if forceBaseline {
		return false
	}
	if !s.preferAccelerated {
		return false
	}
	return work.Accelerated != nil && s.pool != nil
}
