package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format. Consumers
// poll this view; the cadence is theirs to choose.
type Job struct {
	ID            int64       `json:"id"`
	SessionTitle  string      `json:"sessionTitle"`
	SourcePath    string      `json:"sourcePath"`
	Status        string      `json:"status"`
	ExecutionPath string      `json:"executionPath,omitempty"`
	Progress      JobProgress `json:"progress"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`

	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
	StartedAt       string  `json:"startedAt,omitempty"`
}

// JobProgress captures stage progress for a queue entry. The remaining-time
// estimate is absent until enough progress has accumulated for the linear
// extrapolation to say anything useful.
type JobProgress struct {
	Stage                     string  `json:"stage"`
	OverallPercent            int     `json:"overallPercent"`
	SubProgress               float64 `json:"subProgress"`
	Message                   string  `json:"message,omitempty"`
	EstimatedRemainingSeconds *int    `json:"estimatedRemainingSeconds,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running     bool           `json:"running"`
	Workers     int            `json:"workers"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	QueueDBPath  string           `json:"queueDbPath"`
	LockFilePath string           `json:"lockFilePath"`
	Pipeline     PipelineStatus   `json:"pipeline"`
	Preflight    []PreflightCheck `json:"preflight,omitempty"`
}

// PreflightCheck captures availability of one startup dependency.
type PreflightCheck struct {
	Name      string `json:"name"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}
