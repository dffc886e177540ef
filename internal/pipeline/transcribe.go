package pipeline

import (
	"context"

	"mindscribe/internal/align"
	"mindscribe/internal/config"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
	"mindscribe/internal/strategy"
)

// AcceleratedEngine is the local transcription engine contract. It produces
// both segments and speaker turns in one pass.
type AcceleratedEngine interface {
	Transcribe(ctx context.Context, source, outputDir string) (*align.Artifact, error)
}

// BaselineEngine is the remote transcription service contract. It produces
// segments only.
type BaselineEngine interface {
	Transcribe(ctx context.Context, source, language string) (*align.Artifact, error)
}

// Transcriber turns the normalized audio into a transcript artifact,
// selecting the execution path through the strategy selector.
type Transcriber struct {
	cfg      *config.Config
	selector *strategy.Selector
	local    AcceleratedEngine
	remote   BaselineEngine
	reporter *Reporter
}

// NewTranscriber constructs the transcribing stage handler. local may be nil
// when the deployment carries no accelerated engine.
func NewTranscriber(cfg *config.Config, selector *strategy.Selector, local AcceleratedEngine, remote BaselineEngine, reporter *Reporter) *Transcriber {
	return &Transcriber{cfg: cfg, selector: selector, local: local, remote: remote, reporter: reporter}
}

func (t *Transcriber) Prepare(_ context.Context, job *queue.Job) error {
	ws := staging.ForJob(t.cfg.Paths.StagingDir, job.ID)
	if ws.Root == "" {
		return services.Wrap(services.ErrValidation, "transcribing", "locate workspace",
			"No workspace for job; rerun uploading", nil)
	}
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	ws := staging.ForJob(t.cfg.Paths.StagingDir, job.ID)
	audio := ws.AudioPath()

	var artifact *align.Artifact
	work := strategy.Work{
		Name: "transcribing",
		Baseline: func(ctx context.Context) error {
			result, err := t.remote.Transcribe(ctx, audio, t.cfg.Transcriber.Language)
			if err != nil {
				return err
			}
			artifact = result
			return nil
		},
	}
	if t.local != nil {
		work.Accelerated = func(ctx context.Context) error {
			result, err := t.local.Transcribe(ctx, audio, ws.Root)
			if err != nil {
				return err
			}
			artifact = result
			return nil
		}
	}

	// A job enqueued with the baseline path pre-selected never attempts the
	// accelerated engine.
	forceBaseline := job.ExecutionPath == queue.PathBaseline

	path, err := t.selector.Run(ctx, work, forceBaseline)
	if err != nil {
		return err
	}
	job.ExecutionPath = path

	artifact.DurationSeconds = job.DurationSeconds
	if err := ws.WriteArtifact(artifact); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "persist artifact",
			"Could not write the transcript artifact", err)
	}

	t.reporter.Update(ctx, job, 1, "Transcript ready")
	return nil
}

func (t *Transcriber) HealthCheck(context.Context) stage.Health {
	if t.local == nil && t.remote == nil {
		return stage.Unhealthy("transcribing", "no transcription engine configured")
	}
	if t.remote == nil {
		return stage.Unhealthy("transcribing", "no baseline engine configured; accelerated failures cannot fall back")
	}
	return stage.Healthy("transcribing")
}
