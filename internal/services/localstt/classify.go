package localstt

import (
	"errors"
	"os/exec"
	"strings"

	"mindscribe/internal/services"
)

// classifyFailure maps an engine failure onto the service error taxonomy.
// Only environment problems map to recoverable markers; anything else stays
// an external tool failure so bad transcriptions do not silently fall back.
func classifyFailure(output string, err error) error {
	lower := strings.ToLower(output)

	switch {
	case errors.Is(err, exec.ErrNotFound) || strings.Contains(lower, "no module named whisperx"):
		return services.Wrap(services.ErrMissingDependency, "transcribing", "local-engine",
			"Local engine is not installed; install uvx and the whisperx package", err)
	case strings.Contains(lower, "out of memory") || strings.Contains(lower, "outofmemoryerror"):
		return services.Wrap(services.ErrResourceExhausted, "transcribing", "local-engine",
			"GPU memory exhausted; close other GPU workloads or reduce the model size", err)
	case strings.Contains(lower, "no cuda-capable device") ||
		strings.Contains(lower, "cuda driver version") ||
		strings.Contains(lower, "found no nvidia driver") ||
		strings.Contains(lower, "libcudnn"):
		return services.Wrap(services.ErrNoAccelerator, "transcribing", "local-engine",
			"No usable GPU detected; check the NVIDIA driver installation", err)
	default:
		return services.Wrap(services.ErrExternalTool, "transcribing", "local-engine",
			"Local engine failed", err)
	}
}
