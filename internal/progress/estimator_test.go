package progress_test

import (
	"testing"
	"time"

	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
)

// defaultWeights mirrors the shipped configuration: Uploading [0,5),
// Preprocessing [5,15), Transcribing [15,55), Diarizing [55,85),
// GeneratingNotes [85,95), Saving [95,100].
var defaultWeights = []int{5, 10, 40, 30, 10, 5}

func mustRanges(t *testing.T, weights []int) progress.Ranges {
	t.Helper()
	ranges, err := progress.NewRanges(weights)
	if err != nil {
		t.Fatalf("NewRanges failed: %v", err)
	}
	return ranges
}

func TestNewRangesContiguous(t *testing.T) {
	ranges := mustRanges(t, defaultWeights)
	cursor := 0
	for _, stage := range progress.PipelineStages {
		rng, ok := ranges.Lookup(stage)
		if !ok {
			t.Fatalf("missing range for %s", stage)
		}
		if rng.Start != cursor {
			t.Fatalf("%s: expected start %d, got %d", stage, cursor, rng.Start)
		}
		cursor = rng.End
	}
	if cursor != 100 {
		t.Fatalf("ranges should close at 100, got %d", cursor)
	}
}

func TestNewRangesRejectsInvalidWeights(t *testing.T) {
	cases := []struct {
		name    string
		weights []int
	}{
		{"sum under 100", []int{5, 10, 40, 30, 10, 4}},
		{"sum over 100", []int{5, 10, 41, 30, 10, 5}},
		{"zero weight", []int{0, 15, 40, 30, 10, 5}},
		{"negative weight", []int{-5, 20, 40, 30, 10, 5}},
		{"wrong count", []int{50, 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := progress.NewRanges(tc.weights); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOverallMidStage(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))
	if got := est.Overall(queue.StatusTranscribing, 0.5, 0); got != 35 {
		t.Fatalf("expected 35, got %d", got)
	}
}

func TestOverallClampsToStageRange(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))
	if got := est.Overall(queue.StatusTranscribing, -0.5, 0); got != 15 {
		t.Fatalf("sub below zero should clamp to range start, got %d", got)
	}
	if got := est.Overall(queue.StatusTranscribing, 2.0, 0); got != 55 {
		t.Fatalf("sub above one should clamp to range end, got %d", got)
	}
}

func TestOverallNeverDecreases(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))

	recorded := 0
	reports := []struct {
		stage queue.Status
		sub   float64
	}{
		{queue.StatusUploading, 1.0},
		{queue.StatusPreprocessing, 1.0},
		{queue.StatusTranscribing, 0.8},
		// Duplicate earlier report arriving late.
		{queue.StatusPreprocessing, 0.2},
		{queue.StatusDiarizing, 0.1},
		{queue.StatusTranscribing, 1.0},
		{queue.StatusSaving, 1.0},
	}
	for _, report := range reports {
		next := est.Overall(report.stage, report.sub, recorded)
		if next < recorded {
			t.Fatalf("progress regressed from %d to %d at (%s, %f)", recorded, next, report.stage, report.sub)
		}
		recorded = next
	}
	if recorded != 100 {
		t.Fatalf("expected 100 at end, got %d", recorded)
	}
}

func TestOverallTerminalStages(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))
	if got := est.Overall(queue.StatusCompleted, 0, 42); got != 100 {
		t.Fatalf("completed should report 100, got %d", got)
	}
	if got := est.Overall(queue.StatusFailed, 0, 42); got != 42 {
		t.Fatalf("failed should preserve recorded progress, got %d", got)
	}
}

func TestHandleStageTransition(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))

	// Normal forward transition jumps to the new stage's range start.
	if got := est.HandleStageTransition(queue.StatusDiarizing, 55); got != 55 {
		t.Fatalf("expected 55, got %d", got)
	}
	// A stage regression never reduces the visible percentage.
	if got := est.HandleStageTransition(queue.StatusPreprocessing, 60); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := est.HandleStageTransition(queue.StatusCompleted, 97); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestTimeRemaining(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))

	if got := est.TimeRemaining(9, time.Minute); got != nil {
		t.Fatalf("below threshold should return nil, got %d", *got)
	}
	if got := est.TimeRemaining(50, 0); got != nil {
		t.Fatalf("zero elapsed should return nil, got %d", *got)
	}
	if got := est.TimeRemaining(50, -time.Second); got != nil {
		t.Fatalf("negative elapsed should return nil, got %d", *got)
	}

	got := est.TimeRemaining(55, 120*time.Second)
	if got == nil {
		t.Fatal("expected an estimate")
	}
	if *got <= 0 {
		t.Fatalf("expected positive estimate, got %d", *got)
	}
	// 120s * 45/55 rounds to 98.
	if *got != 98 {
		t.Fatalf("expected 98, got %d", *got)
	}

	if got := est.TimeRemaining(100, time.Hour); got == nil || *got != 0 {
		t.Fatalf("completed job should estimate zero remaining, got %v", got)
	}
}

func TestTimeRemainingShrinksAsProgressRises(t *testing.T) {
	est := progress.NewEstimator(mustRanges(t, defaultWeights))
	elapsed := 10 * time.Minute
	prev := est.TimeRemaining(20, elapsed)
	for _, overall := range []int{40, 60, 80, 95} {
		cur := est.TimeRemaining(overall, elapsed)
		if cur == nil || prev == nil {
			t.Fatal("expected estimates above threshold")
		}
		if *cur > *prev {
			t.Fatalf("estimate grew from %d to %d at %d%%", *prev, *cur, overall)
		}
		prev = cur
	}
}
