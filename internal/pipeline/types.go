package pipeline

import (
	"mindscribe/internal/queue"
	"mindscribe/internal/stage"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Uploader      stage.Handler
	Preprocessor  stage.Handler
	Transcriber   stage.Handler
	Diarizer      stage.Handler
	NoteGenerator stage.Handler
	Saver         stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// stageTable builds the ordered stage list from a StageSet. All six stages
// must be present; a hole in the pipeline would strand jobs mid-lifecycle.
func stageTable(set StageSet) []pipelineStage {
	return []pipelineStage{
		{
			name:             "uploading",
			handler:          set.Uploader,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusUploading,
			doneStatus:       queue.StatusUploaded,
		},
		{
			name:             "preprocessing",
			handler:          set.Preprocessor,
			startStatus:      queue.StatusUploaded,
			processingStatus: queue.StatusPreprocessing,
			doneStatus:       queue.StatusPreprocessed,
		},
		{
			name:             "transcribing",
			handler:          set.Transcriber,
			startStatus:      queue.StatusPreprocessed,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		},
		{
			name:             "diarizing",
			handler:          set.Diarizer,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusDiarizing,
			doneStatus:       queue.StatusDiarized,
		},
		{
			name:             "generating-notes",
			handler:          set.NoteGenerator,
			startStatus:      queue.StatusDiarized,
			processingStatus: queue.StatusGeneratingNotes,
			doneStatus:       queue.StatusNotesGenerated,
		},
		{
			name:             "saving",
			handler:          set.Saver,
			startStatus:      queue.StatusNotesGenerated,
			processingStatus: queue.StatusSaving,
			doneStatus:       queue.StatusCompleted,
		},
	}
}
