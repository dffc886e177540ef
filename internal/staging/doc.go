// Package staging manages per-job scratch directories: the staged source
// recording, the normalized audio, and the transcript artifact passed
// between stages.
package staging
