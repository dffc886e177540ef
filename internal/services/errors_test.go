package services_test

import (
	"errors"
	"testing"

	"mindscribe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("cuda out of memory")
	err := services.Wrap(services.ErrResourceExhausted, "transcribing", "local engine", "model load", base)
	if !errors.Is(err, services.ErrResourceExhausted) {
		t.Fatalf("expected resource exhausted marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "saving", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRecoverableAccelerated(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"missing dependency", services.Wrap(services.ErrMissingDependency, "transcribing", "", "uvx not found", nil), true},
		{"no accelerator", services.Wrap(services.ErrNoAccelerator, "diarizing", "", "", nil), true},
		{"out of memory", services.Wrap(services.ErrResourceExhausted, "transcribing", "", "", nil), true},
		{"external tool", services.Wrap(services.ErrExternalTool, "transcribing", "", "exit 1", nil), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.RecoverableAccelerated(tc.err); got != tc.want {
				t.Fatalf("RecoverableAccelerated(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "preprocessing", "ffmpeg", "extract failed", nil)
	details := services.Details(err)
	if details.Message != "preprocessing: ffmpeg: extract failed" {
		t.Fatalf("unexpected details message: %q", details.Message)
	}
}
