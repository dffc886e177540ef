package testsupport

import (
	"path/filepath"
	"testing"

	"mindscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.SocketPath = filepath.Join(base, "mindscribed.sock")
	cfg.Transcriber.CacheDir = filepath.Join(base, "models")
	cfg.Baseline.URL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithBaselineURL overrides the baseline engine endpoint on the test config.
func WithBaselineURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Baseline.URL = url
	}
}

// WithAcceleratedDisabled forces the baseline path for the test config.
func WithAcceleratedDisabled() ConfigOption {
	return func(c *config.Config) {
		c.Transcriber.PreferAccelerated = false
	}
}
