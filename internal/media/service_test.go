package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindscribe/internal/services"
)

func TestNormalizeAudioArgs(t *testing.T) {
	svc := NewService("", "")

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	})

	if err := svc.NormalizeAudio(context.Background(), "/in/session.m4a", "/out/audio.wav"); err != nil {
		t.Fatalf("NormalizeAudio: %v", err)
	}
	if gotName != FFmpegCommand {
		t.Fatalf("binary = %s, want %s", gotName, FFmpegCommand)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ac 1", "-ar 16000", "-c:a pcm_s16le", "/in/session.m4a", "/out/audio.wav"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestNormalizeAudioWrapsFailure(t *testing.T) {
	svc := NewService("", "")
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: invalid data found")
	})

	err := svc.NormalizeAudio(context.Background(), "in", "out")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestProbeDuration(t *testing.T) {
	svc := NewService("", "")
	svc.WithCommandRunner(func(_ context.Context, name string, _ ...string) ([]byte, error) {
		if name != FFprobeCommand {
			t.Fatalf("binary = %s, want %s", name, FFprobeCommand)
		}
		return []byte(`{
			"streams": [{"index": 0, "codec_type": "audio", "codec_name": "aac", "channels": 2}],
			"format": {"duration": "1823.42", "format_name": "mov,mp4,m4a"}
		}`), nil
	})

	duration, err := svc.ProbeDuration(context.Background(), "session.m4a")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if duration != 1823.42 {
		t.Fatalf("duration = %v, want 1823.42", duration)
	}
}

func TestProbeDurationRejectsNoAudio(t *testing.T) {
	svc := NewService("", "")
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams": [{"index": 0, "codec_type": "video"}], "format": {"duration": "10"}}`), nil
	})

	_, err := svc.ProbeDuration(context.Background(), "video.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestProbeDurationBadJSON(t *testing.T) {
	svc := NewService("", "")
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	})

	_, err := svc.ProbeDuration(context.Background(), "session.m4a")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}
