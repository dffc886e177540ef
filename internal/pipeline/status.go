package pipeline

import (
	"context"

	"mindscribe/internal/logging"
	"mindscribe/internal/queue"
	"mindscribe/internal/stage"
)

// StatusSummary represents lightweight pipeline diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	LastError   string
	LastJob     *queue.Job
	QueueStats  map[string]int
	StageHealth map[string]stage.Health
}

// Status returns the latest pipeline information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	stages := make([]pipelineStage, len(m.stages))
	copy(stages, m.stages)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, Workers: m.workers, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		cp := *lastJob
		summary.LastJob = &cp
	}
	return summary
}
