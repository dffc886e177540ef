package pipeline

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"mindscribe/internal/config"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
// Multiple workers advance different jobs concurrently; per-job stage order
// is enforced by the status lifecycle.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	estimator    *progress.Estimator
	pollInterval time.Duration
	workers      int

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a pipeline manager. The stage weight table is
// validated here so a misconfigured deployment fails at startup, not
// mid-job.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Manager, error) {
	ranges, err := progress.NewRanges(cfg.StageWeights())
	if err != nil {
		return nil, err
	}
	workers := cfg.Workflow.Concurrency
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		estimator:    progress.NewEstimator(ranges),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		workers:      workers,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}, nil
}

// ConfigureStages registers the concrete stage handlers the pipeline runs.
func (m *Manager) ConfigureStages(set StageSet) error {
	stages := stageTable(set)
	byStart := make(map[queue.Status]pipelineStage, len(stages))
	order := make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			return errors.New("pipeline stage " + stg.name + " has no handler")
		}
		byStart[stg.startStatus] = stg
		order = append(order, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = byStart
	m.statusOrder = order
	m.mu.Unlock()
	return nil
}

// Estimator exposes the progress estimator for read-side consumers.
func (m *Manager) Estimator() *progress.Estimator {
	return m.estimator
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		cp := *job
		m.lastJob = &cp
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
