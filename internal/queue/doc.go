// Package queue persists transcription jobs in SQLite and owns the job
// lifecycle model: the ordered status machine, progress fields with their
// monotonic clamp, heartbeat reclamation for crashed workers, and the
// maintenance operations exposed through the CLI.
//
// Writes to a job row go through the pipeline orchestrator while the job is
// active; every other component reads.
package queue
