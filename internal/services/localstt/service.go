package localstt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mindscribe/internal/align"
)

// Service runs the local WhisperX engine with diarization enabled.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a local engine client with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether GPU acceleration is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Transcribe runs the engine against a normalized WAV file and parses its
// JSON output into segments and speaker turns. Failures are classified so
// the caller can distinguish recoverable environment problems from
// transcription bugs.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (*align.Artifact, error) {
	if source == "" {
		return nil, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir)
	if output, err := s.run(ctx, UVXCommand, args...); err != nil {
		return nil, classifyFailure(string(output), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	return loadArtifact(jsonPath)
}

// buildArgs constructs the uvx command arguments for the engine.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--diarize",
	)

	if s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.CacheDir != "" {
		args = append(args, "--model_cache_only", "False", "--model_dir", s.cfg.CacheDir)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

type enginePayload struct {
	Language string `json:"language"`
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

// loadArtifact parses the engine's JSON output. Speaker turns are rebuilt
// from the per-segment labels by merging adjacent segments with the same
// speaker.
func loadArtifact(jsonPath string) (*align.Artifact, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read engine output: %w", err)
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse engine output: %w", err)
	}

	artifact := &align.Artifact{Language: payload.Language}
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		artifact.Segments = append(artifact.Segments, align.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
		speaker := strings.TrimSpace(seg.Speaker)
		if speaker == "" {
			continue
		}
		turns := artifact.SpeakerTurns
		if n := len(turns); n > 0 && turns[n-1].Speaker == speaker && turns[n-1].End >= seg.Start {
			turns[n-1].End = seg.End
			continue
		}
		artifact.SpeakerTurns = append(artifact.SpeakerTurns, align.SpeakerTurn{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: speaker,
		})
	}
	return artifact, nil
}
