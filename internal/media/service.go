package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mindscribe/internal/services"
)

const (
	// FFmpegCommand is the default ffmpeg binary name.
	FFmpegCommand = "ffmpeg"
	// FFprobeCommand is the default ffprobe binary name.
	FFprobeCommand = "ffprobe"
)

// CommandRunner executes an external command and returns its combined
// output. Tests inject one to avoid requiring real binaries.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service wraps ffmpeg/ffprobe for audio normalization and inspection.
type Service struct {
	ffmpegBinary  string
	ffprobeBinary string
	runner        CommandRunner
}

// NewService creates a media service using the given binaries, falling back
// to the defaults on empty values.
func NewService(ffmpegBinary, ffprobeBinary string) *Service {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &Service{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.runner = runner
}

// NormalizeAudio converts the source recording into a mono 16 kHz PCM WAV,
// the input format the transcription engines expect.
func (s *Service) NormalizeAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := s.output(ctx, s.ffmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "preprocessing", "ffmpeg",
			"Audio normalization failed; check the recording is a valid media file", err)
	}
	return nil
}

// ProbeDuration inspects the source and returns its duration in seconds.
// A source with no audio stream is rejected as invalid input.
func (s *Service) ProbeDuration(ctx context.Context, source string) (float64, error) {
	result, err := s.Inspect(ctx, source)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "preprocessing", "ffprobe",
			"Media inspection failed; check the recording is a valid media file", err)
	}
	if result.AudioStreamCount() == 0 {
		return 0, services.Wrap(services.ErrValidation, "preprocessing", "ffprobe",
			"Recording contains no audio stream", nil)
	}
	return result.DurationSeconds(), nil
}

func (s *Service) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
