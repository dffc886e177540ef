package progress

import (
	"fmt"

	"mindscribe/internal/queue"
)

// PipelineStages lists the non-terminal stages in execution order. Each owns
// a contiguous slice of the 0-100 progress scale.
var PipelineStages = []queue.Status{
	queue.StatusUploading,
	queue.StatusPreprocessing,
	queue.StatusTranscribing,
	queue.StatusDiarizing,
	queue.StatusGeneratingNotes,
	queue.StatusSaving,
}

// Range is the half-open slice [Start, End) of the overall progress scale
// owned by one stage. The final stage closes at 100.
type Range struct {
	Start int
	End   int
}

// Width returns the number of percentage points the range spans.
func (r Range) Width() int {
	return r.End - r.Start
}

// Ranges maps each pipeline stage to its progress range. Construct with
// NewRanges; a zero Ranges is invalid.
type Ranges struct {
	byStage map[queue.Status]Range
}

// NewRanges builds the stage range table from per-stage weights given in
// pipeline order. Weights must be positive and sum to exactly 100; the
// resulting ranges are contiguous by construction.
func NewRanges(weights []int) (Ranges, error) {
	if len(weights) != len(PipelineStages) {
		return Ranges{}, fmt.Errorf("expected %d stage weights, got %d", len(PipelineStages), len(weights))
	}
	byStage := make(map[queue.Status]Range, len(weights))
	cursor := 0
	for i, weight := range weights {
		if weight <= 0 {
			return Ranges{}, fmt.Errorf("stage %s weight must be positive, got %d", PipelineStages[i], weight)
		}
		byStage[PipelineStages[i]] = Range{Start: cursor, End: cursor + weight}
		cursor += weight
	}
	if cursor != 100 {
		return Ranges{}, fmt.Errorf("stage weights must sum to exactly 100, got %d", cursor)
	}
	return Ranges{byStage: byStage}, nil
}

// Lookup returns the range for a stage.
func (r Ranges) Lookup(stage queue.Status) (Range, bool) {
	rng, ok := r.byStage[stage]
	return rng, ok
}

// Start returns the opening percentage of a stage's range. Terminal stages
// map to the scale edges: Completed to 100, Failed to 0.
func (r Ranges) Start(stage queue.Status) int {
	if stage == queue.StatusCompleted {
		return 100
	}
	if rng, ok := r.byStage[stage]; ok {
		return rng.Start
	}
	return 0
}
