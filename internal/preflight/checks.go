package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mindscribe/internal/config"
	"mindscribe/internal/logging"
	"mindscribe/internal/services/cloudstt"
)

// minStagingBytes is the free-space floor below which staging is flagged.
// A one-hour session recording plus its normalized WAV fits comfortably
// under this.
const minStagingBytes = 2 << 30

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		result := Result{Name: req.Name, Optional: req.Optional}
		if cmd == "" {
			result.Detail = "command not configured"
			results = append(results, result)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, result)
			continue
		}
		result.Available = true
		result.Detail = strings.TrimSpace(req.Description)
		results = append(results, result)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Available: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStagingSpace reports free disk space on the staging filesystem.
func CheckStagingSpace(path string) Result {
	const name = "Staging disk space"
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free", float64(free)/float64(1<<30))
	if free < minStagingBytes {
		return Result{Name: name, Detail: detail + " (below 2 GiB minimum)"}
	}
	return Result{Name: name, Available: true, Detail: detail}
}

// CheckBaseline verifies that the remote transcription service is reachable.
// It uses a short timeout and a single attempt; availability changes are
// handled at transcription time, this only surfaces obvious misconfiguration.
func CheckBaseline(ctx context.Context, cfg config.Baseline) Result {
	const name = "Baseline transcription service"
	if strings.TrimSpace(cfg.URL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := cloudstt.NewClient(cloudstt.Config{
		URL:            cfg.URL,
		APIKey:         cfg.APIKey,
		RequestTimeout: 5 * time.Second,
	}, logging.NewNop())
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBaselineError(err)}
	}
	return Result{Name: name, Available: true, Detail: "Reachable"}
}

func summarizeBaselineError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
