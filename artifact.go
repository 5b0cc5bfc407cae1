package talky

import (
	"context"
	"io"
	"regexp"
)

// Artifact errors.
const (
	ErrArtifactNameRequired = Error("artifact name required")
	ErrInvalidArtifactName  = Error("invalid artifact name")
)

// Artifact represents an on-disk audio file produced by a completed job.
type Artifact struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ArtifactService represents a service for storing audio artifacts.
type ArtifactService interface {
	FindArtifactByName(ctx context.Context, name string) (*Artifact, io.ReadCloser, error)
	CreateArtifact(ctx context.Context, a *Artifact, r io.Reader) error

	// RemoveArtifact deletes an artifact. Removing a missing artifact
	// is not an error; deletion callers treat removal as best-effort.
	RemoveArtifact(ctx context.Context, name string) error
}

// IsValidArtifactName returns true if the name is in a valid format.
func IsValidArtifactName(name string) bool {
	return artifactNameRegex.MatchString(name)
}

var artifactNameRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+(\.[a-z0-9]+)?$`)
