package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"mindscribe/internal/config"
	"mindscribe/internal/logging"
	"mindscribe/internal/pipeline"
	"mindscribe/internal/preflight"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
	"mindscribe/internal/staging"
)

// staleWorkspaceAge is how old an orphaned staging workspace must be before
// startup cleanup removes it. Workspaces for live jobs are always younger.
const staleWorkspaceAge = 72 * time.Hour

// recordingExtensions lists the file types accepted for manual enqueueing.
var recordingExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
}

// Daemon coordinates the background pipeline and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	pipeline *pipeline.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	api    *apiServer
	checks []preflight.Result

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Pipeline     pipeline.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Preflight    []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, mgr *pipeline.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, and pipeline manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "mindscribed.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: mgr,
		logPath:  filepath.Join(cfg.Paths.LogDir, "mindscribed.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start launches the pipeline manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mindscribe daemon instance is already running")
	}

	d.checks = preflight.RunAll(ctx, d.cfg)
	for _, check := range d.checks {
		if check.Available || check.Optional {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"))
	}

	staging.CleanStale(d.cfg.Paths.StagingDir, staleWorkspaceAge, d.logger)

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.pipeline.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start pipeline: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.pipeline.Stop()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("mindscribe daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

// Stop stops background processing and releases the daemon lock. Jobs that
// were mid-stage are marked failed so operators see an explicit record
// rather than a silently stalled entry.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	d.api.stop()

	failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if failed, err := d.pipeline.FailInFlight(failCtx); err != nil {
		d.logger.Warn("failed to mark in-flight jobs", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("marked in-flight jobs failed",
			logging.Int64("job_count", failed),
			logging.String(logging.FieldEventType, "daemon_stop_failed_jobs"))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mindscribe daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddRecording enqueues a session recording for processing. When
// forceBaseline is set the job skips the accelerated engine entirely.
func (d *Daemon) AddRecording(ctx context.Context, sourcePath, sessionTitle string, forceBaseline bool) (*queue.Job, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := recordingExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	job, err := d.store.NewJob(ctx, absPath, sessionTitle)
	if err != nil {
		return nil, fmt.Errorf("enqueue recording: %w", err)
	}
	if forceBaseline {
		job.ExecutionPath = queue.PathBaseline
		if err := d.store.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("mark baseline-only job: %w", err)
		}
	}
	d.logger.Info("recording queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source", absPath),
		logging.String(logging.FieldEventType, "job_added"))
	return job, nil
}

// ListQueue returns jobs filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	return d.store.List(ctx, statuses...)
}

// GetJob returns a job by ID, or nil when absent.
func (d *Daemon) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	return d.store.GetByID(ctx, id)
}

// RemoveJobs deletes the given jobs from the queue.
func (d *Daemon) RemoveJobs(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// ClearQueue removes all jobs.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed jobs.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// ResetStuck rolls in-flight jobs back to their stage start status.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuckProcessing(ctx, time.Now())
}

// RetryFailed resets failed jobs (optionally a subset) back to pending.
// Each retried job restarts from the first stage.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		failed, err := d.store.List(ctx, queue.StatusFailed)
		if err != nil {
			return 0, err
		}
		for _, job := range failed {
			ids = append(ids, job.ID)
		}
	}
	var updated int64
	for _, id := range ids {
		job, err := d.store.RetryFailed(ctx, id)
		if err != nil {
			return updated, err
		}
		if job != nil {
			updated++
		}
	}
	return updated, nil
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// PipelineEstimator exposes the progress estimator for API converters.
func (d *Daemon) PipelineEstimator() *progress.Estimator {
	return d.pipeline.Estimator()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Pipeline:     d.pipeline.Status(ctx),
		QueueDBPath:  filepath.Join(d.cfg.Paths.LogDir, "queue.db"),
		LockFilePath: d.lockPath,
		Preflight:    d.checks,
	}
}
