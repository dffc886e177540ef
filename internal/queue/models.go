package queue

import (
	"strings"
	"time"
	"unicode"
)

// Status represents the lifecycle of a queued transcription job.
type Status string

const (
	StatusPending         Status = "pending"
	StatusUploading       Status = "uploading"
	StatusUploaded        Status = "uploaded"
	StatusPreprocessing   Status = "preprocessing"
	StatusPreprocessed    Status = "preprocessed"
	StatusTranscribing    Status = "transcribing"
	StatusTranscribed     Status = "transcribed"
	StatusDiarizing       Status = "diarizing"
	StatusDiarized        Status = "diarized"
	StatusGeneratingNotes Status = "generating_notes"
	StatusNotesGenerated  Status = "notes_generated"
	StatusSaving          Status = "saving"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// ExecutionPath records which engine strategy a job ran on.
type ExecutionPath string

const (
	PathAccelerated ExecutionPath = "accelerated"
	PathBaseline    ExecutionPath = "baseline"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusUploaded,
	StatusPreprocessing,
	StatusPreprocessed,
	StatusTranscribing,
	StatusTranscribed,
	StatusDiarizing,
	StatusDiarized,
	StatusGeneratingNotes,
	StatusNotesGenerated,
	StatusSaving,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusUploading:       {},
	StatusPreprocessing:   {},
	StatusTranscribing:    {},
	StatusDiarizing:       {},
	StatusGeneratingNotes: {},
	StatusSaving:          {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions maps a processing status back to the start status
// it was claimed from, used when reclaiming jobs with stale heartbeats.
var stageRollbackTransitions = []statusTransition{
	{from: StatusUploading, to: StatusPending},
	{from: StatusPreprocessing, to: StatusUploaded},
	{from: StatusTranscribing, to: StatusPreprocessed},
	{from: StatusDiarizing, to: StatusTranscribed},
	{from: StatusGeneratingNotes, to: StatusDiarized},
	{from: StatusSaving, to: StatusNotesGenerated},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Job represents one recording's processing run persisted in SQLite.
type Job struct {
	ID            int64
	RequestID     string
	SourcePath    string
	StagedPath    string
	SessionTitle  string
	Status        Status
	ExecutionPath ExecutionPath

	ProgressStage   string
	OverallProgress int
	SubProgress     float64
	ProgressMessage string
	ErrorMessage    string

	DurationSeconds float64
	ResultJSON      string
	NotesText       string

	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	LastHeartbeat *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (j Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the job reached a final state. Terminal jobs are
// immutable apart from queue maintenance commands.
func (j Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// SetProgress records a progress report. OverallProgress is clamped so it
// never decreases over the life of the job, even when a stage-completion
// report arrives out of order.
func (j *Job) SetProgress(stage string, overall int, sub float64, message string) {
	j.ProgressStage = stage
	if overall > j.OverallProgress {
		j.OverallProgress = overall
	}
	if sub < 0 {
		sub = 0
	}
	if sub > 1 {
		sub = 1
	}
	j.SubProgress = sub
	j.ProgressMessage = message
}

// SetFailed marks the job as failed with the given error message. Heartbeat is
// cleared; the recorded overall progress is preserved for post-mortem display.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressStage = StageLabel(StatusFailed)
	j.ProgressMessage = message
	j.SubProgress = 0
	j.LastHeartbeat = nil
}

// StageLabel returns a human-readable label for a status, e.g.
// "generating_notes" becomes "Generating Notes".
func StageLabel(status Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
