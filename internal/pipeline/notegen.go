package pipeline

import (
	"context"
	"os"

	"mindscribe/internal/config"
	"mindscribe/internal/notes"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
)

// NoteGenerator renders the session note from the aligned transcript.
type NoteGenerator struct {
	cfg      *config.Config
	reporter *Reporter
}

// NewNoteGenerator constructs the note generation stage handler.
func NewNoteGenerator(cfg *config.Config, reporter *Reporter) *NoteGenerator {
	return &NoteGenerator{cfg: cfg, reporter: reporter}
}

func (n *NoteGenerator) Prepare(context.Context, *queue.Job) error { return nil }

func (n *NoteGenerator) Execute(ctx context.Context, job *queue.Job) error {
	ws := staging.ForJob(n.cfg.Paths.StagingDir, job.ID)
	artifact, err := stage.LoadArtifact(ws, "generating-notes")
	if err != nil {
		return err
	}
	if artifact.Output == nil {
		return services.Wrap(services.ErrValidation, "generating-notes", "check alignment",
			"Aligned transcript missing; rerun diarization", nil)
	}

	note := notes.Generate(job.SessionTitle, job.CreatedAt, job.DurationSeconds, artifact.Output.Combined)
	if err := os.WriteFile(ws.NotesPath(), []byte(note), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "generating-notes", "write notes",
			"Could not write the session note", err)
	}
	job.NotesText = note

	n.reporter.Update(ctx, job, 1, "Session note generated")
	return nil
}

func (n *NoteGenerator) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("generating-notes")
}
