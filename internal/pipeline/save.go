package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mindscribe/internal/config"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
)

// Saver publishes the finished transcript and note into the library and
// freezes the result on the job row. The workspace is removed afterwards;
// completion and cleanup are the same stage so a crash between the two is
// recoverable by rerunning saving.
type Saver struct {
	cfg      *config.Config
	reporter *Reporter
}

// NewSaver constructs the saving stage handler.
func NewSaver(cfg *config.Config, reporter *Reporter) *Saver {
	return &Saver{cfg: cfg, reporter: reporter}
}

func (s *Saver) Prepare(context.Context, *queue.Job) error { return nil }

func (s *Saver) Execute(ctx context.Context, job *queue.Job) error {
	ws := staging.ForJob(s.cfg.Paths.StagingDir, job.ID)
	artifact, err := stage.LoadArtifact(ws, "saving")
	if err != nil {
		return err
	}
	if artifact.Output == nil {
		return services.Wrap(services.ErrValidation, "saving", "check alignment",
			"Aligned transcript missing; rerun diarization", nil)
	}

	libDir := filepath.Join(s.cfg.Paths.LibraryDir, libraryFolder(job))
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "saving", "create library dir",
			"Could not create the library directory; check library_dir", err)
	}

	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(libDir, "transcript.json"), payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "saving", "write transcript",
			"Could not write the transcript into the library", err)
	}
	s.reporter.Update(ctx, job, 0.5, "Transcript saved")

	if job.NotesText != "" {
		if err := os.WriteFile(filepath.Join(libDir, "notes.md"), []byte(job.NotesText), 0o644); err != nil {
			return services.Wrap(services.ErrTransient, "saving", "write notes",
				"Could not write the session note into the library", err)
		}
	}

	// The stored result is the aligned output only; the full artifact lives
	// in the library file.
	result, err := json.Marshal(artifact.Output)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	job.ResultJSON = string(result)

	if err := ws.Remove(); err != nil {
		return services.Wrap(services.ErrTransient, "saving", "remove workspace",
			"Could not remove the job workspace", err)
	}
	job.StagedPath = ""

	s.reporter.Update(ctx, job, 1, "Results published")
	return nil
}

func (s *Saver) HealthCheck(context.Context) stage.Health {
	if err := os.MkdirAll(s.cfg.Paths.LibraryDir, 0o755); err != nil {
		return stage.Unhealthy("saving", fmt.Sprintf("library dir unavailable: %v", err))
	}
	return stage.Healthy("saving")
}

// libraryFolder derives a stable folder name from the session title, falling
// back to the job id for untitled sessions.
func libraryFolder(job *queue.Job) string {
	title := strings.TrimSpace(job.SessionTitle)
	if title == "" {
		return fmt.Sprintf("session-%d", job.ID)
	}
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	folder := strings.Trim(b.String(), "-")
	if folder == "" {
		return fmt.Sprintf("session-%d", job.ID)
	}
	return fmt.Sprintf("%s-%d", folder, job.ID)
}
