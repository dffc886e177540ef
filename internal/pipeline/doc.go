// Package pipeline orchestrates the processing lifecycle of a recording:
// uploading, preprocessing, transcribing, diarizing, note generation, and
// saving. Workers claim jobs from the queue, run the matching stage handler
// under a heartbeat, and publish fine-grained progress through the shared
// estimator.
package pipeline
