package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mindscribe/internal/align"
	"mindscribe/internal/logging"
)

func TestWorkspaceArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ws, err := EnsureWorkspace(dir, 7)
	if err != nil {
		t.Fatalf("EnsureWorkspace: %v", err)
	}

	artifact := &align.Artifact{
		Language:        "en",
		DurationSeconds: 120,
		Segments: []align.Segment{
			{Start: 0, End: 4.5, Text: "How have you been feeling this week?", Speaker: "therapist"},
		},
		SpeakerTurns: []align.SpeakerTurn{{Start: 0, End: 4.5, Speaker: "therapist"}},
	}
	if err := ws.WriteArtifact(artifact); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	got, err := ws.ReadArtifact()
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}
	if got.Language != "en" || got.DurationSeconds != 120 {
		t.Fatalf("artifact header mismatch: %+v", got)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != artifact.Segments[0].Text {
		t.Fatalf("segments mismatch: %+v", got.Segments)
	}
	if _, err := os.Stat(ws.TranscriptPath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp artifact file left behind")
	}
}

func TestWorkspacePathsAreStable(t *testing.T) {
	ws := ForJob("/var/lib/mindscribe/staging", 12)
	if ws.Root != filepath.Join("/var/lib/mindscribe/staging", "job-12") {
		t.Fatalf("root = %s", ws.Root)
	}
	if filepath.Base(ws.SourcePath(".m4a")) != "source.m4a" {
		t.Fatalf("source path = %s", ws.SourcePath(".m4a"))
	}
	if filepath.Base(ws.AudioPath()) != "audio.wav" {
		t.Fatalf("audio path = %s", ws.AudioPath())
	}
}

func TestWorkspaceRemove(t *testing.T) {
	dir := t.TempDir()
	ws, err := EnsureWorkspace(dir, 3)
	if err != nil {
		t.Fatalf("EnsureWorkspace: %v", err)
	}
	if err := os.WriteFile(ws.AudioPath(), []byte("wav"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Fatal("workspace still exists after Remove")
	}
}

func TestCleanStaleRemovesOldWorkspaces(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "job-1")
	fresh := filepath.Join(dir, "job-2")
	unrelated := filepath.Join(dir, "models")
	for _, d := range []string{stale, fresh, unrelated} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	result := CleanStale(dir, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("removed = %v, want [%s]", result.Removed, stale)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh workspace removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatal("non-workspace directory removed")
	}
}

func TestCleanStaleMissingDir(t *testing.T) {
	result := CleanStale(filepath.Join(t.TempDir(), "missing"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
