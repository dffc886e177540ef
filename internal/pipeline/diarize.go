package pipeline

import (
	"context"

	"mindscribe/internal/align"
	"mindscribe/internal/config"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
)

// Diarizer finalizes speaker attribution. On the accelerated path the
// speaker turns were produced together with the transcript; on the baseline
// path there are none and every segment is attributed to the unknown
// speaker. Either way the stage ends by computing the combined and aligned
// segment views.
type Diarizer struct {
	cfg      *config.Config
	reporter *Reporter
}

// NewDiarizer constructs the diarizing stage handler.
func NewDiarizer(cfg *config.Config, reporter *Reporter) *Diarizer {
	return &Diarizer{cfg: cfg, reporter: reporter}
}

func (d *Diarizer) Prepare(context.Context, *queue.Job) error { return nil }

func (d *Diarizer) Execute(ctx context.Context, job *queue.Job) error {
	ws := staging.ForJob(d.cfg.Paths.StagingDir, job.ID)
	artifact, err := stage.LoadArtifact(ws, "diarizing")
	if err != nil {
		return err
	}

	if job.ExecutionPath != queue.PathAccelerated {
		artifact.SpeakerTurns = nil
	}
	d.reporter.Update(ctx, job, 0.5, "Aligning speakers")

	output := align.Align(artifact.Segments, artifact.SpeakerTurns)
	artifact.Output = &output
	if err := ws.WriteArtifact(artifact); err != nil {
		return services.Wrap(services.ErrTransient, "diarizing", "persist artifact",
			"Could not write the aligned transcript", err)
	}

	d.reporter.Update(ctx, job, 1, "Speakers aligned")
	return nil
}

func (d *Diarizer) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("diarizing")
}
