package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"mindscribe/internal/config"
	"mindscribe/internal/media"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
)

// Preprocessor normalizes the staged recording into the mono 16 kHz WAV the
// transcription engines consume and records the session duration.
type Preprocessor struct {
	cfg      *config.Config
	media    *media.Service
	reporter *Reporter
}

// NewPreprocessor constructs the preprocessing stage handler.
func NewPreprocessor(cfg *config.Config, mediaSvc *media.Service, reporter *Reporter) *Preprocessor {
	return &Preprocessor{cfg: cfg, media: mediaSvc, reporter: reporter}
}

func (p *Preprocessor) Prepare(_ context.Context, job *queue.Job) error {
	if job.StagedPath == "" {
		return services.Wrap(services.ErrValidation, "preprocessing", "check staged source",
			"No staged recording; rerun uploading", nil)
	}
	return nil
}

func (p *Preprocessor) Execute(ctx context.Context, job *queue.Job) error {
	duration, err := p.media.ProbeDuration(ctx, job.StagedPath)
	if err != nil {
		return err
	}
	job.DurationSeconds = duration
	p.reporter.Update(ctx, job, 0.2, fmt.Sprintf("Inspected recording (%.0fs)", duration))

	ws := staging.ForJob(p.cfg.Paths.StagingDir, job.ID)
	if err := p.media.NormalizeAudio(ctx, job.StagedPath, ws.AudioPath()); err != nil {
		return err
	}
	p.reporter.Update(ctx, job, 1, "Audio normalized")
	return nil
}

func (p *Preprocessor) HealthCheck(context.Context) stage.Health {
	for _, binary := range []string{media.FFmpegCommand, media.FFprobeCommand} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy("preprocessing", fmt.Sprintf("%s not found in PATH", binary))
		}
	}
	return stage.Healthy("preprocessing")
}
