package talky

import "github.com/google/uuid"

// Application identity.
const (
	AppName = "talky"
	Version = "0.1.0"
)

// NewID returns a new random job identifier.
func NewID() string {
	return uuid.NewString()
}

// ArtifactName returns the audio artifact name for a job.
func ArtifactName(jobID string) string {
	return jobID + ".wav"
}
