package api

import (
	"testing"
	"time"

	"mindscribe/internal/pipeline"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
	"mindscribe/internal/stage"
)

func newEstimator(t *testing.T) *progress.Estimator {
	t.Helper()
	ranges, err := progress.NewRanges([]int{5, 10, 40, 30, 10, 5})
	if err != nil {
		t.Fatalf("NewRanges: %v", err)
	}
	return progress.NewEstimator(ranges)
}

func TestFromJobIncludesRemainingEstimateWhileProcessing(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	started := now.Add(-1 * time.Minute)
	job := &queue.Job{
		ID:              7,
		SessionTitle:    "Tuesday intake",
		SourcePath:      "/recordings/intake.m4a",
		Status:          queue.StatusTranscribing,
		ExecutionPath:   queue.PathAccelerated,
		ProgressStage:   "Transcribing",
		OverallProgress: 50,
		SubProgress:     0.75,
		ProgressMessage: "Transcribing audio",
		CreatedAt:       started.Add(-time.Minute),
		UpdatedAt:       now,
		StartedAt:       &started,
	}

	dto := FromJob(job, newEstimator(t), now)
	if dto.Status != "transcribing" || dto.ExecutionPath != "accelerated" {
		t.Fatalf("unexpected status fields: %+v", dto)
	}
	if dto.Progress.OverallPercent != 50 || dto.Progress.SubProgress != 0.75 {
		t.Fatalf("unexpected progress: %+v", dto.Progress)
	}
	if dto.Progress.EstimatedRemainingSeconds == nil {
		t.Fatal("expected a remaining-time estimate at 50%")
	}
	// elapsed*(100-overall)/overall = 60s at 50%.
	if got := *dto.Progress.EstimatedRemainingSeconds; got != 60 {
		t.Fatalf("expected 60s remaining, got %d", got)
	}
	if dto.StartedAt == "" || dto.CreatedAt == "" {
		t.Fatalf("expected formatted timestamps: %+v", dto)
	}
}

func TestFromJobOmitsEstimateBelowThreshold(t *testing.T) {
	now := time.Now()
	started := now.Add(-30 * time.Second)
	job := &queue.Job{
		ID:              3,
		Status:          queue.StatusUploading,
		OverallProgress: 4,
		StartedAt:       &started,
	}
	dto := FromJob(job, newEstimator(t), now)
	if dto.Progress.EstimatedRemainingSeconds != nil {
		t.Fatalf("expected no estimate below 10%%, got %d", *dto.Progress.EstimatedRemainingSeconds)
	}
}

func TestFromJobCompletedReportsZeroRemaining(t *testing.T) {
	now := time.Now()
	started := now.Add(-time.Minute)
	job := &queue.Job{
		ID:              4,
		Status:          queue.StatusCompleted,
		OverallProgress: 100,
		StartedAt:       &started,
	}
	dto := FromJob(job, newEstimator(t), now)
	if dto.Progress.EstimatedRemainingSeconds == nil || *dto.Progress.EstimatedRemainingSeconds != 0 {
		t.Fatalf("expected zero remaining for completed job, got %+v", dto.Progress.EstimatedRemainingSeconds)
	}
}

func TestFromStatusSummarySortsStageHealth(t *testing.T) {
	summary := pipeline.StatusSummary{
		Running: true,
		Workers: 2,
		StageHealth: map[string]stage.Health{
			"transcribing":  stage.Healthy("transcribing"),
			"preprocessing": stage.Unhealthy("preprocessing", "ffmpeg not found"),
			"uploading":     stage.Healthy("uploading"),
		},
	}
	status := FromStatusSummary(summary, newEstimator(t), time.Now())
	if len(status.StageHealth) != 3 {
		t.Fatalf("expected 3 health entries, got %d", len(status.StageHealth))
	}
	order := []string{"preprocessing", "transcribing", "uploading"}
	for i, name := range order {
		if status.StageHealth[i].Name != name {
			t.Fatalf("expected %s at index %d, got %s", name, i, status.StageHealth[i].Name)
		}
	}
	if status.StageHealth[0].Ready || status.StageHealth[0].Detail != "ffmpeg not found" {
		t.Fatalf("unexpected unhealthy entry: %+v", status.StageHealth[0])
	}
}

func TestFromJobsNilOnEmpty(t *testing.T) {
	if out := FromJobs(nil, newEstimator(t), time.Now()); out != nil {
		t.Fatalf("expected nil slice, got %v", out)
	}
}
