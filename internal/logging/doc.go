// Package logging centralizes slog construction and the structured field
// conventions used across the pipeline: component/job/stage attributes,
// context-derived fields, and a sampler that keeps per-percent progress
// updates from flooding the logs.
package logging
