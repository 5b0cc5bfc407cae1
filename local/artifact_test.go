package local_test

import (
	"context"
	"io/ioutil"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/abradburne/talky"
	"github.com/abradburne/talky/local"
)

// Ensure artifact service can create and fetch an artifact.
func TestArtifactService(t *testing.T) {
	s := NewArtifactService()
	defer s.MustClose()

	// Create artifact.
	a := talky.Artifact{Name: "0001.wav"}
	if err := s.CreateArtifact(context.Background(), &a, strings.NewReader("RIFF")); err != nil {
		t.Fatal(err)
	} else if a.Size != 4 {
		t.Fatalf("unexpected size: %d", a.Size)
	}

	// Fetch artifact & verify.
	if other, rc, err := s.FindArtifactByName(context.Background(), "0001.wav"); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(other, &talky.Artifact{Name: "0001.wav", Size: 4}) {
		t.Fatalf("unexpected artifact: %#v", other)
	} else if buf, err := ioutil.ReadAll(rc); err != nil {
		t.Fatal(err)
	} else if string(buf) != "RIFF" {
		t.Fatalf("unexpected artifact data: %q", buf)
	} else if err := rc.Close(); err != nil {
		t.Fatal(err)
	}
}

// Ensure a missing artifact returns nils without error.
func TestArtifactService_FindArtifactByName_NotFound(t *testing.T) {
	s := NewArtifactService()
	defer s.MustClose()

	if a, rc, err := s.FindArtifactByName(context.Background(), "nope.wav"); err != nil {
		t.Fatal(err)
	} else if a != nil || rc != nil {
		t.Fatal("expected no artifact")
	}
}

// Ensure artifacts can be removed and removal is idempotent.
func TestArtifactService_RemoveArtifact(t *testing.T) {
	s := NewArtifactService()
	defer s.MustClose()

	a := talky.Artifact{Name: "0001.wav"}
	if err := s.CreateArtifact(context.Background(), &a, strings.NewReader("RIFF")); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveArtifact(context.Background(), "0001.wav"); err != nil {
		t.Fatal(err)
	}
	if other, _, err := s.FindArtifactByName(context.Background(), "0001.wav"); err != nil {
		t.Fatal(err)
	} else if other != nil {
		t.Fatal("expected artifact to be removed")
	}

	// Removing a missing artifact is not an error.
	if err := s.RemoveArtifact(context.Background(), "0001.wav"); err != nil {
		t.Fatal(err)
	}
}

// Ensure invalid names are rejected before touching the filesystem.
func TestArtifactService_InvalidName(t *testing.T) {
	s := NewArtifactService()
	defer s.MustClose()

	if _, _, err := s.FindArtifactByName(context.Background(), "../etc/passwd"); err != talky.ErrInvalidArtifactName {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RemoveArtifact(context.Background(), ""); err != talky.ErrArtifactNameRequired {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ArtifactService is a test wrapper for local.ArtifactService.
type ArtifactService struct {
	*local.ArtifactService
}

// NewArtifactService returns an artifact service in a temporary directory.
func NewArtifactService() *ArtifactService {
	path, err := ioutil.TempDir("", "talky-")
	if err != nil {
		panic(err)
	}

	s := &ArtifactService{ArtifactService: local.NewArtifactService()}
	s.Path = path
	return s
}

// MustClose cleans up the temporary directory used by the service.
func (s *ArtifactService) MustClose() {
	if err := os.RemoveAll(s.Path); err != nil {
		panic(err)
	}
}
