package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	SocketPath string `toml:"socket_path"`
}

// Transcriber contains configuration for the accelerated transcription and
// diarization engine.
type Transcriber struct {
	// PreferAccelerated selects whether the accelerated local engine is
	// attempted at all for this deployment.
	PreferAccelerated bool   `toml:"prefer_accelerated"`
	Model             string `toml:"model"`
	CUDAEnabled       bool   `toml:"cuda_enabled"`
	Language          string `toml:"language"`
	CacheDir          string `toml:"cache_dir"`
	// HFToken authenticates the diarization model download. The
	// MINDSCRIBE_HF_TOKEN environment variable takes precedence.
	HFToken string `toml:"hf_token"`
}

// Baseline contains configuration for the remote fallback transcription
// service.
type Baseline struct {
	URL                 string `toml:"url"`
	APIKey              string `toml:"api_key"`
	RequestTimeout      int    `toml:"request_timeout"`
	PollInterval        int    `toml:"poll_interval"`
	PollTimeout         int    `toml:"poll_timeout"`
	MaxRetries          int    `toml:"max_retries"`
	InitialRetryBackoff int    `toml:"initial_retry_backoff"`
}

// Progress contains the stage weight table. Each weight is the share of the
// 0-100 progress scale owned by that stage; weights must be positive and sum
// to exactly 100.
type Progress struct {
	UploadingWeight       int `toml:"uploading_weight"`
	PreprocessingWeight   int `toml:"preprocessing_weight"`
	TranscribingWeight    int `toml:"transcribing_weight"`
	DiarizingWeight       int `toml:"diarizing_weight"`
	GeneratingNotesWeight int `toml:"generating_notes_weight"`
	SavingWeight          int `toml:"saving_weight"`
}

// Workflow contains configuration for daemon timing and concurrency.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	// Concurrency is the number of pipeline workers. Baseline-path work for
	// multiple jobs proceeds in parallel; accelerated work is still
	// serialized by the single-slot pool.
	Concurrency int `toml:"concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration object.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Transcriber Transcriber `toml:"transcriber"`
	Baseline    Baseline    `toml:"baseline"`
	Progress    Progress    `toml:"progress"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the expected location of the user config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mindscribe", "config.toml"), nil
}

// Load reads configuration from the given path, falling back to the default
// path when empty. A missing file yields defaults. An optional .env file in
// the working directory overlays secrets before environment lookup.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		resolved = defaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if unmarshalErr := toml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, unmarshalErr)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no config file exists yet.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	// .env is optional; absence is not an error.
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MINDSCRIBE_BASELINE_API_KEY")); v != "" {
		cfg.Baseline.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MINDSCRIBE_BASELINE_URL")); v != "" {
		cfg.Baseline.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("MINDSCRIBE_HF_TOKEN")); v != "" {
		cfg.Transcriber.HFToken = v
	}
}

// WriteSample writes the embedded sample config to the given path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon requires.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LibraryDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// StageWeights returns the configured stage weight table in pipeline order.
func (c *Config) StageWeights() []int {
	return []int{
		c.Progress.UploadingWeight,
		c.Progress.PreprocessingWeight,
		c.Progress.TranscribingWeight,
		c.Progress.DiarizingWeight,
		c.Progress.GeneratingNotesWeight,
		c.Progress.SavingWeight,
	}
}

func (c *Config) normalize() {
	expand := func(p string) string {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				return filepath.Join(home, p[2:])
			}
		}
		return p
	}
	c.Paths.StagingDir = expand(c.Paths.StagingDir)
	c.Paths.LibraryDir = expand(c.Paths.LibraryDir)
	c.Paths.LogDir = expand(c.Paths.LogDir)
	c.Paths.SocketPath = expand(c.Paths.SocketPath)
	c.Transcriber.CacheDir = expand(c.Transcriber.CacheDir)
	c.Baseline.URL = strings.TrimRight(strings.TrimSpace(c.Baseline.URL), "/")
}

// SocketPath returns the IPC socket location, defaulting under the log dir.
func (c *Config) SocketPath() string {
	if strings.TrimSpace(c.Paths.SocketPath) != "" {
		return c.Paths.SocketPath
	}
	return filepath.Join(c.Paths.LogDir, "mindscribed.sock")
}
