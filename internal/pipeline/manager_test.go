package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mindscribe/internal/accel"
	"mindscribe/internal/align"
	"mindscribe/internal/config"
	"mindscribe/internal/logging"
	"mindscribe/internal/media"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/strategy"
	"mindscribe/internal/testsupport"
)

type stubAccelEngine struct {
	artifact *align.Artifact
	err      error
	calls    int
}

func (s *stubAccelEngine) Transcribe(context.Context, string, string) (*align.Artifact, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

type stubBaselineEngine struct {
	artifact *align.Artifact
	err      error
	calls    int
}

func (s *stubBaselineEngine) Transcribe(context.Context, string, string) (*align.Artifact, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func diarizedArtifact() *align.Artifact {
	return &align.Artifact{
		Language: "en",
		Segments: []align.Segment{
			{Start: 0, End: 4, Text: "How are you feeling today?"},
			{Start: 4, End: 10, Text: "A bit anxious, honestly."},
		},
		SpeakerTurns: []align.SpeakerTurn{
			{Start: 0, End: 4, Speaker: "SPEAKER_00"},
			{Start: 4, End: 10, Speaker: "SPEAKER_01"},
		},
	}
}

func plainArtifact() *align.Artifact {
	return &align.Artifact{
		Language: "en",
		Segments: []align.Segment{
			{Start: 0, End: 4, Text: "How are you feeling today?"},
			{Start: 4, End: 10, Text: "A bit anxious, honestly."},
		},
	}
}

// stubMedia returns a media service whose ffprobe reports a 10s audio file
// and whose ffmpeg writes the destination file instead of transcoding.
func stubMedia(t *testing.T) *media.Service {
	t.Helper()
	svc := media.NewService("", "")
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name == media.FFprobeCommand {
			return []byte(`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"10.0"}}`), nil
		}
		dest := args[len(args)-1]
		return nil, os.WriteFile(dest, []byte("RIFFfake"), 0o644)
	})
	return svc
}

type pipelineFixture struct {
	cfg     *config.Config
	store   *queue.Store
	manager *Manager
	pool    *accel.Pool
}

func newFixture(t *testing.T, cfg *config.Config, local AcceleratedEngine, remote BaselineEngine) *pipelineFixture {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	manager, err := NewManager(cfg, store, logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	pool := accel.NewPool(logger)
	t.Cleanup(pool.Close)

	reporter := NewReporter(store, manager.Estimator(), logger)
	selector := strategy.NewSelector(pool, logger, cfg.Transcriber.PreferAccelerated)

	set := StageSet{
		Uploader:      NewUploader(cfg, reporter),
		Preprocessor:  NewPreprocessor(cfg, stubMedia(t), reporter),
		Transcriber:   NewTranscriber(cfg, selector, local, remote, reporter),
		Diarizer:      NewDiarizer(cfg, reporter),
		NoteGenerator: NewNoteGenerator(cfg, reporter),
		Saver:         NewSaver(cfg, reporter),
	}
	if err := manager.ConfigureStages(set); err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	return &pipelineFixture{cfg: cfg, store: store, manager: manager, pool: pool}
}

func (f *pipelineFixture) runJob(t *testing.T) *queue.Job {
	t.Helper()

	source := filepath.Join(t.TempDir(), "2026-03-14_intake.m4a")
	if err := os.WriteFile(source, []byte("fake recording"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	job, err := f.store.NewJob(context.Background(), source, "")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(f.manager.Stop)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		current, err := f.store.GetByID(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if current != nil && current.IsTerminal() {
			return current
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state")
	return nil
}

func TestPipelineCompletesOnAcceleratedPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	local := &stubAccelEngine{artifact: diarizedArtifact()}
	remote := &stubBaselineEngine{artifact: plainArtifact()}

	f := newFixture(t, cfg, local, remote)
	job := f.runJob(t)

	if job.Status != queue.StatusCompleted {
		t.Fatalf("status = %s (error %q)", job.Status, job.ErrorMessage)
	}
	if job.ExecutionPath != queue.PathAccelerated {
		t.Fatalf("path = %s, want accelerated", job.ExecutionPath)
	}
	if remote.calls != 0 {
		t.Fatalf("baseline engine called %d times on accelerated run", remote.calls)
	}
	if job.OverallProgress != 100 {
		t.Fatalf("overall = %d, want 100", job.OverallProgress)
	}
	if job.DurationSeconds != 10 {
		t.Fatalf("duration = %v, want 10", job.DurationSeconds)
	}
	if job.NotesText == "" || !strings.Contains(job.NotesText, "## Transcript") {
		t.Fatalf("notes missing transcript section: %q", job.NotesText)
	}

	var output align.Output
	if err := json.Unmarshal([]byte(job.ResultJSON), &output); err != nil {
		t.Fatalf("result json: %v", err)
	}
	if len(output.Combined) != 2 {
		t.Fatalf("combined = %+v", output.Combined)
	}
	if output.Combined[0].Speaker != "SPEAKER_00" || output.Combined[1].Speaker != "SPEAKER_01" {
		t.Fatalf("speakers = %s, %s", output.Combined[0].Speaker, output.Combined[1].Speaker)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("job-%d", job.ID))); !os.IsNotExist(err) {
		t.Fatal("workspace not removed after saving")
	}
	entries, err := os.ReadDir(cfg.Paths.LibraryDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("library entries = %v (err %v)", entries, err)
	}
	libDir := filepath.Join(cfg.Paths.LibraryDir, entries[0].Name())
	for _, name := range []string{"transcript.json", "notes.md"} {
		if _, err := os.Stat(filepath.Join(libDir, name)); err != nil {
			t.Fatalf("library file %s missing: %v", name, err)
		}
	}
}

func TestPipelineFallsBackToBaseline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	local := &stubAccelEngine{err: services.Wrap(services.ErrResourceExhausted, "transcribing", "local-engine", "GPU memory exhausted", nil)}
	remote := &stubBaselineEngine{artifact: plainArtifact()}

	f := newFixture(t, cfg, local, remote)
	job := f.runJob(t)

	if job.Status != queue.StatusCompleted {
		t.Fatalf("status = %s (error %q), want completed via fallback", job.Status, job.ErrorMessage)
	}
	if job.ExecutionPath != queue.PathBaseline {
		t.Fatalf("path = %s, want baseline", job.ExecutionPath)
	}
	if local.calls != 1 || remote.calls != 1 {
		t.Fatalf("calls local=%d remote=%d, want 1 and 1", local.calls, remote.calls)
	}

	var output align.Output
	if err := json.Unmarshal([]byte(job.ResultJSON), &output); err != nil {
		t.Fatalf("result json: %v", err)
	}
	for _, seg := range output.Combined {
		if seg.Speaker != align.UnknownSpeaker {
			t.Fatalf("baseline speaker = %s, want %s", seg.Speaker, align.UnknownSpeaker)
		}
	}
}

func TestPipelineHardAcceleratedFailureFailsStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	local := &stubAccelEngine{err: errors.New("alignment state corrupt")}
	remote := &stubBaselineEngine{artifact: plainArtifact()}

	f := newFixture(t, cfg, local, remote)
	job := f.runJob(t)

	if job.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if remote.calls != 0 {
		t.Fatal("baseline ran despite non-recoverable accelerated failure")
	}
	if !strings.Contains(job.ErrorMessage, "alignment state corrupt") {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
}

func TestPipelineBaselineOnlyDeployment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAcceleratedDisabled())
	remote := &stubBaselineEngine{artifact: plainArtifact()}

	f := newFixture(t, cfg, nil, remote)
	job := f.runJob(t)

	if job.Status != queue.StatusCompleted {
		t.Fatalf("status = %s (error %q)", job.Status, job.ErrorMessage)
	}
	if job.ExecutionPath != queue.PathBaseline {
		t.Fatalf("path = %s, want baseline", job.ExecutionPath)
	}
}

func TestPipelineBaselineFailureIsTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAcceleratedDisabled())
	remote := &stubBaselineEngine{err: services.Wrap(services.ErrExternalTool, "transcribing", "remote-stt", "upstream returned 500", nil)}

	f := newFixture(t, cfg, nil, remote)
	job := f.runJob(t)

	if job.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "upstream returned 500") {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
	if job.ProgressStage != queue.StageLabel(queue.StatusFailed) {
		t.Fatalf("progress stage = %q", job.ProgressStage)
	}
}

func TestStartRequiresConfiguredStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager, err := NewManager(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded without configured stages")
	}
}

func TestConfigureStagesRejectsMissingHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager, err := NewManager(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := manager.ConfigureStages(StageSet{}); err == nil {
		t.Fatal("ConfigureStages accepted an empty stage set")
	}
}

func TestNewManagerRejectsBadWeights(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cfg.Progress.SavingWeight += 1
	if _, err := NewManager(cfg, store, logging.NewNop()); err == nil {
		t.Fatal("NewManager accepted weights summing above 100")
	}
}

func TestMarkProcessingSetsProgressFloor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager, err := NewManager(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	job := testsupport.NewJob(t, store, filepath.Join(t.TempDir(), "a.m4a"))
	job.Status = queue.StatusTranscribing
	stg := pipelineStage{name: "transcribing", processingStatus: queue.StatusTranscribing}
	if err := manager.markProcessing(context.Background(), stg, job); err != nil {
		t.Fatalf("markProcessing: %v", err)
	}
	// Transcribing opens at 15 with the default weight table.
	if job.OverallProgress != 15 {
		t.Fatalf("overall = %d, want 15", job.OverallProgress)
	}
	if job.StartedAt == nil || job.LastHeartbeat == nil {
		t.Fatal("StartedAt/LastHeartbeat not set on claim")
	}

	// A transition never lowers already-recorded progress.
	job.OverallProgress = 40
	if err := manager.markProcessing(context.Background(), stg, job); err != nil {
		t.Fatalf("markProcessing: %v", err)
	}
	if job.OverallProgress != 40 {
		t.Fatalf("overall = %d, want 40", job.OverallProgress)
	}
}

func TestReporterUpdatePersistsMonotonicProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager, err := NewManager(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	reporter := NewReporter(store, manager.Estimator(), logging.NewNop())

	job := testsupport.NewJob(t, store, filepath.Join(t.TempDir(), "a.m4a"))
	job.Status = queue.StatusTranscribing

	reporter.Update(context.Background(), job, 0.5, "halfway")
	if job.OverallProgress != 35 {
		t.Fatalf("overall = %d, want 35", job.OverallProgress)
	}

	reporter.Update(context.Background(), job, 0.25, "regression")
	if job.OverallProgress != 35 {
		t.Fatalf("overall = %d after regression, want 35", job.OverallProgress)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.OverallProgress != 35 {
		t.Fatalf("persisted overall = %d, want 35", stored.OverallProgress)
	}
}
