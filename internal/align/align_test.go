package align_test

import (
	"encoding/json"
	"testing"

	"mindscribe/internal/align"
)

func TestAlignSplitsAtTurnBoundary(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 10, Text: "hello"}}
	turns := []align.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 10, Speaker: "B"},
	}

	out := align.Align(segments, turns)

	if len(out.Combined) != 1 {
		t.Fatalf("expected 1 combined segment, got %d", len(out.Combined))
	}
	// B overlaps 6 seconds against A's 4: dominant overlap wins.
	if out.Combined[0].Speaker != "B" {
		t.Fatalf("expected combined speaker B, got %q", out.Combined[0].Speaker)
	}

	if len(out.Aligned) != 2 {
		t.Fatalf("expected 2 aligned segments, got %d", len(out.Aligned))
	}
	first, second := out.Aligned[0], out.Aligned[1]
	if first.Start != 0 || first.End != 4 || first.Speaker != "A" {
		t.Fatalf("unexpected first piece: %#v", first)
	}
	if second.Start != 4 || second.End != 10 || second.Speaker != "B" {
		t.Fatalf("unexpected second piece: %#v", second)
	}
	if first.Text != "hello" || second.Text != "hello" {
		t.Fatal("split pieces should carry the segment text")
	}
}

func TestAlignSplitsBetweenSameSpeakerTurns(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 10, Text: "hello"}}
	turns := []align.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 10, Speaker: "A"},
	}

	out := align.Align(segments, turns)

	if len(out.Aligned) != 2 {
		t.Fatalf("expected 2 aligned segments, got %#v", out.Aligned)
	}
	first, second := out.Aligned[0], out.Aligned[1]
	if first.Start != 0 || first.End != 4 || first.Speaker != "A" {
		t.Fatalf("unexpected first piece: %#v", first)
	}
	if second.Start != 4 || second.End != 10 || second.Speaker != "A" {
		t.Fatalf("unexpected second piece: %#v", second)
	}
	for _, piece := range out.Aligned {
		contained := false
		for _, turn := range turns {
			if piece.Start >= turn.Start && piece.End <= turn.End {
				contained = true
				break
			}
		}
		if !contained {
			t.Fatalf("piece %#v spans a turn boundary", piece)
		}
	}
}

func TestAlignEmptyTurnsYieldsUnknown(t *testing.T) {
	segments := []align.Segment{
		{Start: 0, End: 5, Text: "one"},
		{Start: 5, End: 9.5, Text: "two"},
	}

	out := align.Align(segments, nil)

	if len(out.Combined) != len(segments) || len(out.Aligned) != len(segments) {
		t.Fatalf("expected pass-through, got %d combined %d aligned", len(out.Combined), len(out.Aligned))
	}
	for i := range segments {
		if out.Combined[i].Speaker != align.UnknownSpeaker {
			t.Fatalf("combined[%d] speaker = %q", i, out.Combined[i].Speaker)
		}
		if out.Aligned[i].Speaker != align.UnknownSpeaker {
			t.Fatalf("aligned[%d] speaker = %q", i, out.Aligned[i].Speaker)
		}
		if out.Aligned[i] != out.Combined[i] {
			t.Fatalf("with no turns combined and aligned should match at %d", i)
		}
	}
}

func TestAlignNoOverlapPassesThroughUnsplit(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 3, Text: "silence"}}
	turns := []align.SpeakerTurn{{Start: 10, End: 20, Speaker: "A"}}

	out := align.Align(segments, turns)

	if len(out.Aligned) != 1 {
		t.Fatalf("expected unsplit segment, got %d pieces", len(out.Aligned))
	}
	if out.Aligned[0].Speaker != align.UnknownSpeaker {
		t.Fatalf("expected unknown speaker, got %q", out.Aligned[0].Speaker)
	}
}

func TestAlignTieBreaksToEarliestTurn(t *testing.T) {
	segments := []align.Segment{{Start: 2, End: 8, Text: "tie"}}
	// Both turns overlap exactly 3 seconds.
	turns := []align.SpeakerTurn{
		{Start: 5, End: 8, Speaker: "late"},
		{Start: 2, End: 5, Speaker: "early"},
	}

	out := align.Align(segments, turns)
	if out.Combined[0].Speaker != "early" {
		t.Fatalf("tie should go to earliest turn, got %q", out.Combined[0].Speaker)
	}
}

func TestAlignGapBetweenTurns(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 10, Text: "gap"}}
	turns := []align.SpeakerTurn{
		{Start: 0, End: 3, Speaker: "A"},
		{Start: 7, End: 10, Speaker: "B"},
	}

	out := align.Align(segments, turns)
	if len(out.Aligned) != 3 {
		t.Fatalf("expected 3 pieces, got %#v", out.Aligned)
	}
	if out.Aligned[0].Speaker != "A" || out.Aligned[1].Speaker != align.UnknownSpeaker || out.Aligned[2].Speaker != "B" {
		t.Fatalf("unexpected speakers: %#v", out.Aligned)
	}
	for _, piece := range out.Aligned {
		if piece.Speaker == align.UnknownSpeaker {
			continue
		}
		// Every attributed piece must lie entirely within one turn.
		contained := false
		for _, turn := range turns {
			if piece.Start >= turn.Start && piece.End <= turn.End {
				contained = true
				break
			}
		}
		if !contained {
			t.Fatalf("piece %#v not contained in any turn", piece)
		}
	}
}

func TestAlignTurnInsideSegment(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 12, Text: "mid"}}
	turns := []align.SpeakerTurn{{Start: 4, End: 8, Speaker: "A"}}

	out := align.Align(segments, turns)
	if len(out.Aligned) != 3 {
		t.Fatalf("expected 3 pieces, got %#v", out.Aligned)
	}
	if out.Aligned[1].Start != 4 || out.Aligned[1].End != 8 || out.Aligned[1].Speaker != "A" {
		t.Fatalf("unexpected middle piece: %#v", out.Aligned[1])
	}
}

func TestAlignDeterministic(t *testing.T) {
	segments := []align.Segment{
		{Start: 0, End: 7.25, Text: "first"},
		{Start: 7.25, End: 14, Text: "second"},
		{Start: 14, End: 30, Text: "third"},
	}
	turns := []align.SpeakerTurn{
		{Start: 0, End: 6, Speaker: "therapist"},
		{Start: 6, End: 13, Speaker: "client"},
		{Start: 13, End: 22, Speaker: "therapist"},
		{Start: 22, End: 30, Speaker: "client"},
	}

	first, err := json.Marshal(align.Align(segments, turns))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := json.Marshal(align.Align(segments, turns))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(next) != string(first) {
			t.Fatalf("alignment not deterministic:\n%s\n%s", first, next)
		}
	}
}

func TestAlignDoesNotMutateInputs(t *testing.T) {
	segments := []align.Segment{{Start: 0, End: 10, Text: "orig"}}
	turns := []align.SpeakerTurn{
		{Start: 6, End: 10, Speaker: "B"},
		{Start: 0, End: 6, Speaker: "A"},
	}

	align.Align(segments, turns)

	if segments[0].Speaker != "" {
		t.Fatal("input segment mutated")
	}
	if turns[0].Speaker != "B" || turns[1].Speaker != "A" {
		t.Fatal("input turns reordered")
	}
}
