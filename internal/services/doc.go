// Package services defines shared utilities consumed by the pipeline stage
// handlers and external engine clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (terminal stage failure vs recoverable accelerated
//     failure) uniform across the pipeline.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, fallback) stays uniform.
package services
