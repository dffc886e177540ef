package align

import (
	"sort"
)

// UnknownSpeaker labels transcript segments that no diarized speaker turn
// overlaps. It is a sentinel, not an error: the baseline engine produces no
// turns at all, and even accelerated runs can leave gaps.
const UnknownSpeaker = "unknown"

// Segment is a time-bounded unit of transcribed speech.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerTurn is a time-bounded interval attributed to one speaker by the
// diarization engine. Turns come from an independent time base and are
// reconciled with transcript segments here.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Output holds the two derived segment views. Combined keeps transcript
// granularity with a dominant-overlap speaker label; Aligned splits segments
// at turn boundaries for sub-segment playback highlighting. Both are computed
// once per job and never mutated afterwards.
type Output struct {
	Combined []Segment `json:"combined"`
	Aligned  []Segment `json:"aligned"`
}

// Align merges transcript segments with speaker turns. It is deterministic
// and pure: inputs are never mutated, and identical inputs always produce
// identical output.
func Align(segments []Segment, turns []SpeakerTurn) Output {
	sorted := make([]SpeakerTurn, len(turns))
	copy(sorted, turns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := Output{
		Combined: make([]Segment, 0, len(segments)),
		Aligned:  make([]Segment, 0, len(segments)),
	}
	for _, seg := range segments {
		out.Combined = append(out.Combined, combineSegment(seg, sorted))
		out.Aligned = append(out.Aligned, splitSegment(seg, sorted)...)
	}
	return out
}

// combineSegment relabels a transcript segment with the speaker whose turn
// has maximal temporal overlap. Ties go to the earliest-starting turn, which
// the sort order guarantees because later turns must strictly exceed the
// best overlap to win.
func combineSegment(seg Segment, sorted []SpeakerTurn) Segment {
	best := 0.0
	speaker := UnknownSpeaker
	for _, turn := range sorted {
		o := overlap(seg.Start, seg.End, turn.Start, turn.End)
		if o > best {
			best = o
			speaker = turn.Speaker
		}
	}
	seg.Speaker = speaker
	return seg
}

// splitSegment cuts a transcript segment at every turn boundary strictly
// inside it so each piece lies entirely within one speaker turn. Segments
// with no turn overlap pass through unsplit, labelled unknown.
func splitSegment(seg Segment, sorted []SpeakerTurn) []Segment {
	cuts := []float64{seg.Start}
	for _, turn := range sorted {
		for _, boundary := range []float64{turn.Start, turn.End} {
			if boundary > seg.Start && boundary < seg.End {
				cuts = append(cuts, boundary)
			}
		}
	}
	cuts = append(cuts, seg.End)
	sort.Float64s(cuts)

	pieces := make([]Segment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		start, end := cuts[i], cuts[i+1]
		if end <= start {
			continue
		}
		piece := Segment{Start: start, End: end, Text: seg.Text, Speaker: UnknownSpeaker}
		best := 0.0
		for _, turn := range sorted {
			if o := overlap(start, end, turn.Start, turn.End); o > best {
				best = o
				piece.Speaker = turn.Speaker
			}
		}
		pieces = append(pieces, piece)
	}

	if len(pieces) == 0 {
		seg.Speaker = UnknownSpeaker
		return []Segment{seg}
	}
	return pieces
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
