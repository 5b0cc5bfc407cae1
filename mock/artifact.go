package mock

import (
	"context"
	"io"

	"github.com/abradburne/talky"
)

var _ talky.ArtifactService = &ArtifactService{}

// ArtifactService is a mock of talky.ArtifactService.
type ArtifactService struct {
	FindArtifactByNameFn func(ctx context.Context, name string) (*talky.Artifact, io.ReadCloser, error)
	CreateArtifactFn     func(ctx context.Context, a *talky.Artifact, r io.Reader) error
	RemoveArtifactFn     func(ctx context.Context, name string) error
}

func (s *ArtifactService) FindArtifactByName(ctx context.Context, name string) (*talky.Artifact, io.ReadCloser, error) {
	return s.FindArtifactByNameFn(ctx, name)
}

func (s *ArtifactService) CreateArtifact(ctx context.Context, a *talky.Artifact, r io.Reader) error {
	return s.CreateArtifactFn(ctx, a, r)
}

func (s *ArtifactService) RemoveArtifact(ctx context.Context, name string) error {
	return s.RemoveArtifactFn(ctx, name)
}
