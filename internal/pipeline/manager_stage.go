package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindscribe/internal/logging"
	"mindscribe/internal/queue"
	"mindscribe/internal/services"
)

func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, job *queue.Job) error {
	stg, ok := m.stageByStart[job.Status]
	if !ok {
		workerLogger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	// Compare-and-set claim so two workers never run the same job.
	claimed, err := m.store.Claim(ctx, job.ID, stg.startStatus, stg.processingStatus)
	if err != nil {
		m.setLastError(err)
		workerLogger.Error("failed to claim job", logging.Error(err))
		return err
	}
	if !claimed {
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, stg.name, job, requestID)
	stageLogger := logging.WithContext(stageCtx, workerLogger)

	job.Status = stg.processingStatus
	if err := m.markProcessing(stageCtx, stg, job); err != nil {
		stageLogger.Error("failed to persist processing transition", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, job)
}

// markProcessing records the stage transition on the claimed job: progress
// jumps to at least the stage's range start, the error slate is wiped, and
// the heartbeat starts ticking.
func (m *Manager) markProcessing(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	now := time.Now().UTC()
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	overall := m.estimator.HandleStageTransition(stg.processingStatus, job.OverallProgress)
	job.SetProgress(queue.StageLabel(stg.processingStatus), overall, 0, fmt.Sprintf("%s started", queue.StageLabel(stg.processingStatus)))
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	return nil
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, job *queue.Job) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("source_file", strings.TrimSpace(job.SourcePath)),
		logging.Int("overall_progress", job.OverallProgress),
	)

	if err := stg.handler.Prepare(ctx, job); err != nil {
		m.handleStageFailure(ctx, stg.name, job, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, stg, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, job, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	job.SubProgress = 1
	if job.Status == queue.StatusCompleted {
		job.OverallProgress = 100
		job.ProgressStage = queue.StageLabel(queue.StatusCompleted)
		job.ProgressMessage = queue.StageLabel(queue.StatusCompleted)
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Int("overall_progress", job.OverallProgress),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := stg.handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *queue.Job, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldComponent, "pipeline-manager"))

	message := classifyStageFailure(stageName, stageErr)
	job.SetFailed(message)

	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastJob(job)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	message := strings.TrimSpace(services.Details(stageErr).Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}

func withStageContext(ctx context.Context, stageName string, job *queue.Job, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if job != nil {
		ctx = services.WithJobID(ctx, job.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}
