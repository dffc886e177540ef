package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Violations are fatal at
// process startup so a misconfigured stage table can never reach a running
// job.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateBaseline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateProgress() error {
	weights := map[string]int{
		"progress.uploading_weight":        c.Progress.UploadingWeight,
		"progress.preprocessing_weight":    c.Progress.PreprocessingWeight,
		"progress.transcribing_weight":     c.Progress.TranscribingWeight,
		"progress.diarizing_weight":        c.Progress.DiarizingWeight,
		"progress.generating_notes_weight": c.Progress.GeneratingNotesWeight,
		"progress.saving_weight":           c.Progress.SavingWeight,
	}
	total := 0
	for name, weight := range weights {
		if weight <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, weight)
		}
		total += weight
	}
	if total != 100 {
		return fmt.Errorf("progress stage weights must sum to exactly 100, got %d", total)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.concurrency":          c.Workflow.Concurrency,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateBaseline() error {
	// The baseline engine is the fallback for accelerated failures; a
	// deployment that disables the accelerated path entirely must have one.
	if !c.Transcriber.PreferAccelerated && strings.TrimSpace(c.Baseline.URL) == "" {
		return errors.New("baseline.url must be set when transcriber.prefer_accelerated is false")
	}
	if err := ensurePositiveMap(map[string]int{
		"baseline.request_timeout": c.Baseline.RequestTimeout,
		"baseline.poll_interval":   c.Baseline.PollInterval,
		"baseline.poll_timeout":    c.Baseline.PollTimeout,
	}); err != nil {
		return err
	}
	if c.Baseline.MaxRetries < 0 {
		return errors.New("baseline.max_retries must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}
