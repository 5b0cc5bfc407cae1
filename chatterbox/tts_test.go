package chatterbox_test

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abradburne/talky"
	"github.com/abradburne/talky/chatterbox"
)

// Ensure the voices directory is scanned into a catalog.
func TestTTSService_Voices(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	mustWriteFile(t, filepath.Join(s.VoicesDir, "Jerry_Seinfeld.wav"))
	mustWriteFile(t, filepath.Join(s.VoicesDir, "C3-PO.wav"))
	mustWriteFile(t, filepath.Join(s.VoicesDir, "notes.txt")) // ignored

	voices, err := s.Voices(context.Background())
	if err != nil {
		t.Fatal(err)
	} else if len(voices) != 2 {
		t.Fatalf("unexpected voice count: %d", len(voices))
	} else if voices[0].ID != "C3-PO" || voices[1].ID != "Jerry_Seinfeld" {
		t.Fatalf("unexpected voices: %s, %s", voices[0].ID, voices[1].ID)
	} else if voices[0].Name != "C3-PO" {
		t.Fatalf("unexpected display name: %s", voices[0].Name)
	}

	// New files appear on the next scan.
	mustWriteFile(t, filepath.Join(s.VoicesDir, "GLaDOS.wav"))
	if voices, err := s.Voices(context.Background()); err != nil {
		t.Fatal(err)
	} else if len(voices) != 3 {
		t.Fatalf("unexpected voice count after rescan: %d", len(voices))
	}
}

// Ensure voice lookup returns nil for unknown IDs.
func TestTTSService_FindVoiceByID(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	mustWriteFile(t, filepath.Join(s.VoicesDir, "C3-PO.wav"))

	if v, err := s.FindVoiceByID(context.Background(), "C3-PO"); err != nil {
		t.Fatal(err)
	} else if v == nil || v.Path != filepath.Join(s.VoicesDir, "C3-PO.wav") {
		t.Fatalf("unexpected voice: %#v", v)
	}

	if v, err := s.FindVoiceByID(context.Background(), "HAL-9000"); err != nil {
		t.Fatal(err)
	} else if v != nil {
		t.Fatalf("expected no voice, got: %#v", v)
	}
}

// Ensure synthesis runs the engine and returns its audio output. An
// unknown voice falls back to the default conditioning instead of
// failing.
func TestTTSService_SynthesizeSpeech(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	// Fake engine: write bytes to the --output path.
	s.Command = writeFakeEngine(t, filepath.Dir(s.ModelDir), `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
printf 'RIFFDATA' > "$out"
`)

	rc, err := s.SynthesizeSpeech(context.Background(), "Hello, world.", "no-such-voice")
	if err != nil {
		t.Fatal(err)
	}
	buf, err := ioutil.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	} else if string(buf) != "RIFFDATA" {
		t.Fatalf("unexpected audio data: %q", buf)
	}
	if err := rc.Close(); err != nil {
		t.Fatal(err)
	}
}

// Ensure engine failures surface as classified synthesis errors.
func TestTTSService_SynthesizeSpeech_EngineFailure(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	s.Command = writeFakeEngine(t, filepath.Dir(s.ModelDir), `
echo "error: Could not resolve host huggingface.co" >&2
exit 1
`)

	_, err := s.SynthesizeSpeech(context.Background(), "fail me", "")

	var serr *talky.SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	} else if serr.Kind != talky.SynthesisNetworkFailure {
		t.Fatalf("unexpected kind: %s", serr.Kind)
	}
}

// Ensure local-only mode refuses to synthesize without a cached model.
func TestTTSService_SynthesizeSpeech_ModelNotCached(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()
	s.LocalOnly = true

	_, err := s.SynthesizeSpeech(context.Background(), "Hello", "")

	var serr *talky.SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	} else if serr.Kind != talky.SynthesisModelNotCached {
		t.Fatalf("unexpected kind: %s", serr.Kind)
	}
}

// Ensure a model download runs in the background and updates state.
func TestTTSService_Download(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	if s.ModelCached() {
		t.Fatal("expected empty model cache")
	}
	if state := s.DownloadProgress(); state.Status != talky.DownloadStatusIdle {
		t.Fatalf("unexpected initial status: %s", state.Status)
	}

	// Fake engine: --download drops a file into the model dir.
	s.Command = writeFakeEngine(t, filepath.Dir(s.ModelDir), `
touch "$2/model.bin"
`)

	if err := s.Download(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Wait for the background fetch to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		state := s.DownloadProgress()
		if state.Status == talky.DownloadStatusCompleted {
			break
		} else if state.Status == talky.DownloadStatusError {
			t.Fatalf("download failed: %s", state.Message)
		} else if time.Now().After(deadline) {
			t.Fatalf("download did not complete: status=%s", state.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !s.ModelCached() {
		t.Fatal("expected model to be cached")
	}
}

// Ensure a failed download reports an error state with detail.
func TestTTSService_Download_Error(t *testing.T) {
	s, cleanup := NewTTSService(t)
	defer cleanup()

	s.Command = writeFakeEngine(t, filepath.Dir(s.ModelDir), `
echo "401 Unauthorized" >&2
exit 1
`)

	if err := s.Download(context.Background()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		state := s.DownloadProgress()
		if state.Status == talky.DownloadStatusError {
			if state.Message == "" {
				t.Fatal("expected failure message")
			}
			break
		} else if time.Now().After(deadline) {
			t.Fatalf("download did not fail: status=%s", state.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// NewTTSService returns a service with temporary model & voice dirs.
func NewTTSService(t *testing.T) (*chatterbox.TTSService, func()) {
	t.Helper()

	root, err := ioutil.TempDir("", "talky-chatterbox-")
	if err != nil {
		t.Fatal(err)
	}

	s := chatterbox.NewTTSService()
	s.ModelDir = filepath.Join(root, "model")
	s.VoicesDir = filepath.Join(root, "voices")
	for _, dir := range []string{s.ModelDir, s.VoicesDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			t.Fatal(err)
		}
	}

	return s, func() { os.RemoveAll(root) }
}

// mustWriteFile writes placeholder data to path, failing the test on error.
func mustWriteFile(t *testing.T, path string) {
	t.Helper()

	if err := ioutil.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
}

// writeFakeEngine writes an executable shell script standing in for the
// synthesizer binary.
func writeFakeEngine(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "fake-engine")
	if err := ioutil.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}
