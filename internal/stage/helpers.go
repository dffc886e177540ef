package stage

import (
	"mindscribe/internal/align"
	"mindscribe/internal/services"
	"mindscribe/internal/staging"
)

// LoadArtifact reads the transcript artifact from a job workspace.
// On failure it returns a services.ErrValidation suitable for stage Execute
// methods.
func LoadArtifact(ws staging.Workspace, stageName string) (*align.Artifact, error) {
	artifact, err := ws.ReadArtifact()
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, stageName, "load transcript artifact",
			"Transcript artifact missing or invalid; rerun transcription", err)
	}
	return artifact, nil
}
