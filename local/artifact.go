package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/abradburne/talky"
)

// Ensure service implements interface.
var _ talky.ArtifactService = &ArtifactService{}

// ArtifactService stores audio artifacts on the local filesystem.
type ArtifactService struct {
	Path string
}

// NewArtifactService returns a new instance of ArtifactService.
func NewArtifactService() *ArtifactService {
	return &ArtifactService{}
}

// FindArtifactByName returns an artifact and a reader to its contents.
// The reader must be closed by the caller. Returns nils if the artifact
// does not exist.
func (s *ArtifactService) FindArtifactByName(ctx context.Context, name string) (*talky.Artifact, io.ReadCloser, error) {
	if name == "" {
		return nil, nil, talky.ErrArtifactNameRequired
	} else if !talky.IsValidArtifactName(name) {
		return nil, nil, talky.ErrInvalidArtifactName
	}

	// Stat file.
	path := filepath.Join(s.Path, name)
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	// Open local file.
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	a := &talky.Artifact{Name: name, Size: fi.Size()}
	return a, file, nil
}

// CreateArtifact creates a new artifact with the contents of r and
// records its final size.
func (s *ArtifactService) CreateArtifact(ctx context.Context, a *talky.Artifact, r io.Reader) error {
	if a.Name == "" {
		return talky.ErrArtifactNameRequired
	} else if !talky.IsValidArtifactName(a.Name) {
		return talky.ErrInvalidArtifactName
	}

	// Ensure parent path exists.
	if err := os.MkdirAll(s.Path, 0700); err != nil {
		return err
	}

	// Create file inside directory.
	path := filepath.Join(s.Path, a.Name)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Copy contents.
	if _, err := io.Copy(file, r); err != nil {
		os.Remove(file.Name())
		return err
	}

	// Close file handle.
	if err := file.Close(); err != nil {
		return err
	}

	// Read size.
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	a.Size = fi.Size()

	return nil
}

// RemoveArtifact deletes an artifact. Removing a missing artifact is
// not an error.
func (s *ArtifactService) RemoveArtifact(ctx context.Context, name string) error {
	if name == "" {
		return talky.ErrArtifactNameRequired
	} else if !talky.IsValidArtifactName(name) {
		return talky.ErrInvalidArtifactName
	}

	err := os.Remove(filepath.Join(s.Path, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
