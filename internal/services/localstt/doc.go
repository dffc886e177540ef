// Package localstt runs the local WhisperX transcription and diarization
// engine through uvx and classifies its failures for the execution strategy
// fallback decision.
package localstt
