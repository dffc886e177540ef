package pipeline

import (
	"log/slog"
	"time"

	"mindscribe/internal/accel"
	"mindscribe/internal/config"
	"mindscribe/internal/media"
	"mindscribe/internal/queue"
	"mindscribe/internal/services/cloudstt"
	"mindscribe/internal/services/localstt"
	"mindscribe/internal/strategy"
)

// BuildStageSet wires the production stage handlers from configuration. The
// accelerated engine is only constructed when the deployment prefers it; the
// baseline client always exists so fallback has somewhere to land.
func BuildStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger, pool *accel.Pool, manager *Manager) StageSet {
	reporter := NewReporter(store, manager.Estimator(), logger)

	var local AcceleratedEngine
	if cfg.Transcriber.PreferAccelerated {
		local = localstt.NewService(localstt.Config{
			Model:       cfg.Transcriber.Model,
			CUDAEnabled: cfg.Transcriber.CUDAEnabled,
			Language:    cfg.Transcriber.Language,
			CacheDir:    cfg.Transcriber.CacheDir,
			HFToken:     cfg.Transcriber.HFToken,
		})
	}

	remote := cloudstt.NewClient(cloudstt.Config{
		URL:                 cfg.Baseline.URL,
		APIKey:              cfg.Baseline.APIKey,
		RequestTimeout:      time.Duration(cfg.Baseline.RequestTimeout) * time.Second,
		PollInterval:        time.Duration(cfg.Baseline.PollInterval) * time.Second,
		PollTimeout:         time.Duration(cfg.Baseline.PollTimeout) * time.Second,
		MaxRetries:          cfg.Baseline.MaxRetries,
		InitialRetryBackoff: time.Duration(cfg.Baseline.InitialRetryBackoff) * time.Second,
	}, logger)

	selector := strategy.NewSelector(pool, logger, cfg.Transcriber.PreferAccelerated)
	mediaSvc := media.NewService("", "")

	return StageSet{
		Uploader:      NewUploader(cfg, reporter),
		Preprocessor:  NewPreprocessor(cfg, mediaSvc, reporter),
		Transcriber:   NewTranscriber(cfg, selector, local, remote, reporter),
		Diarizer:      NewDiarizer(cfg, reporter),
		NoteGenerator: NewNoteGenerator(cfg, reporter),
		Saver:         NewSaver(cfg, reporter),
	}
}
