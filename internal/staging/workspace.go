package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mindscribe/internal/align"
)

const (
	sourceFileName     = "source"
	audioFileName      = "audio.wav"
	transcriptFileName = "transcript.json"
	notesFileName      = "notes.md"
)

// Workspace is the per-job scratch directory that holds the staged source
// recording and the intermediate artifacts produced by each stage.
type Workspace struct {
	Root string
}

// EnsureWorkspace creates (or reuses) the workspace directory for a job.
func EnsureWorkspace(stagingDir string, jobID int64) (Workspace, error) {
	root := filepath.Join(stagingDir, fmt.Sprintf("job-%d", jobID))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return Workspace{Root: root}, nil
}

// ForJob returns the workspace for a job without creating it.
func ForJob(stagingDir string, jobID int64) Workspace {
	return Workspace{Root: filepath.Join(stagingDir, fmt.Sprintf("job-%d", jobID))}
}

// SourcePath is where the uploading stage copies the original recording,
// preserving the source extension for ffmpeg format detection.
func (w Workspace) SourcePath(ext string) string {
	return filepath.Join(w.Root, sourceFileName+ext)
}

// AudioPath is the normalized mono 16 kHz WAV produced by preprocessing.
func (w Workspace) AudioPath() string {
	return filepath.Join(w.Root, audioFileName)
}

// TranscriptPath is the JSON transcript artifact shared by the transcribing,
// diarizing, and note generation stages.
func (w Workspace) TranscriptPath() string {
	return filepath.Join(w.Root, transcriptFileName)
}

// NotesPath is the rendered session note written before saving.
func (w Workspace) NotesPath() string {
	return filepath.Join(w.Root, notesFileName)
}

// Remove deletes the workspace and everything in it.
func (w Workspace) Remove() error {
	if w.Root == "" {
		return nil
	}
	return os.RemoveAll(w.Root)
}

// WriteArtifact persists the transcript artifact atomically so a crashed
// stage never leaves a truncated file for the next stage to parse.
func (w Workspace) WriteArtifact(artifact *align.Artifact) error {
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript artifact: %w", err)
	}
	tmp := w.TranscriptPath() + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write transcript artifact: %w", err)
	}
	if err := os.Rename(tmp, w.TranscriptPath()); err != nil {
		return fmt.Errorf("finalize transcript artifact: %w", err)
	}
	return nil
}

// ReadArtifact loads the transcript artifact written by an earlier stage.
func (w Workspace) ReadArtifact() (*align.Artifact, error) {
	payload, err := os.ReadFile(w.TranscriptPath())
	if err != nil {
		return nil, fmt.Errorf("read transcript artifact: %w", err)
	}
	var artifact align.Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode transcript artifact: %w", err)
	}
	return &artifact, nil
}
