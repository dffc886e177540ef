package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mindscribe/internal/config"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
	"mindscribe/internal/stage"
	"mindscribe/internal/staging"
)

// Uploader stages the source recording into the job workspace. The original
// file stays untouched; everything downstream works on the staged copy.
type Uploader struct {
	cfg      *config.Config
	reporter *Reporter
}

// NewUploader constructs the uploading stage handler.
func NewUploader(cfg *config.Config, reporter *Reporter) *Uploader {
	return &Uploader{cfg: cfg, reporter: reporter}
}

func (u *Uploader) Prepare(_ context.Context, job *queue.Job) error {
	info, err := os.Stat(job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "uploading", "stat source",
			"Source recording not found", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "uploading", "stat source",
			"Source path is a directory, expected a recording file", nil)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrValidation, "uploading", "stat source",
			"Source recording is empty", nil)
	}
	return nil
}

func (u *Uploader) Execute(ctx context.Context, job *queue.Job) error {
	ws, err := staging.EnsureWorkspace(u.cfg.Paths.StagingDir, job.ID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "uploading", "create workspace",
			"Could not create the job workspace; check staging_dir", err)
	}

	dest := ws.SourcePath(filepath.Ext(job.SourcePath))
	if err := copyFile(ctx, job.SourcePath, dest); err != nil {
		return services.Wrap(services.ErrTransient, "uploading", "stage source",
			"Could not copy the recording into the workspace", err)
	}

	job.StagedPath = dest
	u.reporter.Update(ctx, job, 1, "Recording staged")
	return nil
}

func (u *Uploader) HealthCheck(context.Context) stage.Health {
	dir := u.cfg.Paths.StagingDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stage.Unhealthy("uploading", fmt.Sprintf("staging dir unavailable: %v", err))
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return stage.Unhealthy("uploading", fmt.Sprintf("staging dir not writable: %v", err))
	}
	os.Remove(probe)
	return stage.Healthy("uploading")
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
