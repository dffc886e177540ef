package queue

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const jobColumns = "id, request_id, source_path, staged_path, session_title, status, execution_path, progress_stage, overall_progress, sub_progress, progress_message, error_message, duration_seconds, result_json, notes_text, created_at, updated_at, started_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		requestID        string
		sourcePath       string
		stagedPath       sql.NullString
		sessionTitle     sql.NullString
		statusStr        string
		executionPath    sql.NullString
		progressStage    sql.NullString
		overallProgress  sql.NullInt64
		subProgress      sql.NullFloat64
		progressMessage  sql.NullString
		errorMessage     sql.NullString
		durationSeconds  sql.NullFloat64
		resultJSON       sql.NullString
		notesText        sql.NullString
		createdRaw       string
		updatedRaw       string
		startedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&requestID,
		&sourcePath,
		&stagedPath,
		&sessionTitle,
		&statusStr,
		&executionPath,
		&progressStage,
		&overallProgress,
		&subProgress,
		&progressMessage,
		&errorMessage,
		&durationSeconds,
		&resultJSON,
		&notesText,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		RequestID:       requestID,
		SourcePath:      sourcePath,
		StagedPath:      stagedPath.String,
		SessionTitle:    sessionTitle.String,
		Status:          Status(statusStr),
		ExecutionPath:   ExecutionPath(executionPath.String),
		ProgressStage:   progressStage.String,
		OverallProgress: int(overallProgress.Int64),
		SubProgress:     subProgress.Float64,
		ProgressMessage: progressMessage.String,
		ErrorMessage:    errorMessage.String,
		DurationSeconds: durationSeconds.Float64,
		ResultJSON:      resultJSON.String,
		NotesText:       notesText.String,
	}
	job.CreatedAt = parseTimestamp(createdRaw)
	job.UpdatedAt = parseTimestamp(updatedRaw)
	if startedRaw.Valid {
		t := parseTimestamp(startedRaw.String)
		if !t.IsZero() {
			job.StartedAt = &t
		}
	}
	if lastHeartbeatRaw.Valid {
		t := parseTimestamp(lastHeartbeatRaw.String)
		if !t.IsZero() {
			job.LastHeartbeat = &t
		}
	}
	return job, nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var titleCaser = cases.Title(language.Und)

// InferSessionTitle derives a display title from a recording path:
// "jane-doe_intake.m4a" becomes "Jane Doe Intake".
func InferSessionTitle(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled Session"
	}
	return titleCaser.String(base)
}
