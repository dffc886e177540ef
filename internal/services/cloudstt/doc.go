// Package cloudstt is the client for the remote transcription service used
// on the baseline execution path. The remote service returns timed text
// segments only; speaker diarization is a local-engine capability.
package cloudstt
