package progress

import (
	"math"
	"time"

	"mindscribe/internal/queue"
)

// minProgressForEstimate is the overall percentage below which elapsed time
// carries too little signal for a stable remaining-time extrapolation.
const minProgressForEstimate = 10

// Estimator converts per-stage progress reports into the overall 0-100
// percentage exposed to polling clients, and extrapolates remaining time.
// It is a pure value; all state lives in the job record.
type Estimator struct {
	ranges Ranges
}

// NewEstimator constructs an estimator over a validated stage range table.
func NewEstimator(ranges Ranges) *Estimator {
	return &Estimator{ranges: ranges}
}

// Overall maps (stage, sub) to the overall percentage, clamped to the
// stage's range and then against the previously recorded value so the
// visible sequence never decreases even when reports arrive out of order.
func (e *Estimator) Overall(stage queue.Status, sub float64, previous int) int {
	switch stage {
	case queue.StatusCompleted:
		return 100
	case queue.StatusFailed:
		// A failed job keeps the last recorded progress for post-mortem display.
		return previous
	}

	rng, ok := e.ranges.Lookup(stage)
	if !ok {
		return clampPercent(previous)
	}

	if sub < 0 {
		sub = 0
	}
	if sub > 1 {
		sub = 1
	}

	overall := rng.Start + int(math.Round(sub*float64(rng.Width())))
	if overall < rng.Start {
		overall = rng.Start
	}
	if overall > rng.End {
		overall = rng.End
	}
	if overall < previous {
		overall = previous
	}
	return clampPercent(overall)
}

// HandleStageTransition returns the percentage to record when a job enters a
// new stage. A regression (an earlier stage reported after a later one)
// never reduces the percentage shown to the caller.
func (e *Estimator) HandleStageTransition(to queue.Status, current int) int {
	start := e.ranges.Start(to)
	if current > start {
		start = current
	}
	return clampPercent(start)
}

// TimeRemaining linearly extrapolates remaining seconds from progress so far.
// It returns nil when overall is below the stability threshold or elapsed is
// not positive; accuracy improves as overall rises, which is expected rather
// than a defect.
func (e *Estimator) TimeRemaining(overall int, elapsed time.Duration) *int {
	if overall < minProgressForEstimate || elapsed <= 0 {
		return nil
	}
	if overall >= 100 {
		zero := 0
		return &zero
	}
	remaining := int(math.Round(elapsed.Seconds() * float64(100-overall) / float64(overall)))
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
