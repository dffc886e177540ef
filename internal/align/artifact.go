package align

// Artifact is the transcript payload handed between pipeline stages. The
// transcribing stage fills Segments (and, on the accelerated path,
// SpeakerTurns), the diarizing stage fills Output, and note generation
// reads Output.Combined.
type Artifact struct {
	Language        string        `json:"language,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	Segments        []Segment     `json:"segments"`
	SpeakerTurns    []SpeakerTurn `json:"speaker_turns,omitempty"`
	Output          *Output       `json:"output,omitempty"`
}
