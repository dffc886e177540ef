package config

import (
	"os"
	"path/filepath"
)

// Default returns the baseline configuration used before any file or
// environment overrides are applied.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".local", "share", "mindscribe")

	return Config{
		Paths: Paths{
			StagingDir: filepath.Join(base, "staging"),
			LibraryDir: filepath.Join(base, "library"),
			LogDir:     filepath.Join(base, "logs"),
			APIBind:    "127.0.0.1:7414",
		},
		Transcriber: Transcriber{
			PreferAccelerated: true,
			Model:             "large-v3-turbo",
			CUDAEnabled:       true,
			Language:          "en",
			CacheDir:          filepath.Join(home, ".cache", "mindscribe", "models"),
		},
		Baseline: Baseline{
			RequestTimeout:      60,
			PollInterval:        5,
			PollTimeout:         1800,
			MaxRetries:          4,
			InitialRetryBackoff: 2,
		},
		Progress: Progress{
			UploadingWeight:       5,
			PreprocessingWeight:   10,
			TranscribingWeight:    40,
			DiarizingWeight:       30,
			GeneratingNotesWeight: 10,
			SavingWeight:          5,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
			Concurrency:        2,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
