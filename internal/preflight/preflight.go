package preflight

import (
	"context"

	"mindscribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name      string
	Optional  bool
	Available bool
	Detail    string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks that depend on disabled features are skipped.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckStagingSpace(cfg.Paths.StagingDir))
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	results = append(results, CheckBinaries(requirements(cfg))...)

	if cfg.Baseline.URL != "" {
		results = append(results, CheckBaseline(ctx, cfg.Baseline))
	}

	return results
}

func requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required for audio normalization",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Required for media inspection",
		},
	}
	if cfg.Transcriber.PreferAccelerated {
		reqs = append(reqs, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Runs the accelerated transcription engine",
			Optional:    true,
		})
	}
	return reqs
}
