// Package chatterbox wraps the Chatterbox command-line synthesizer.
//
// The engine is stateful and non-reentrant so every invocation holds an
// exclusive lock; the subprocess itself is the isolated execution slot
// that keeps long synthesis calls off the request-handling path.
package chatterbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/abradburne/talky"
)

// DefaultCommand is the synthesizer binary used when none is configured.
const DefaultCommand = "chatterbox-tts"

// Ensure service implements interfaces.
var (
	_ talky.TTSService   = &TTSService{}
	_ talky.VoiceService = &TTSService{}
)

// TTSService represents a service for performing text-to-speech with a
// local Chatterbox model.
type TTSService struct {
	mu sync.Mutex // serializes engine invocations

	Command   string // synthesizer binary
	ModelDir  string // model cache directory
	VoicesDir string // voice prompt directory
	LocalOnly bool   // never fetch the model during synthesis

	LogOutput io.Writer

	downloadMu sync.Mutex
	download   talky.DownloadState
}

// NewTTSService returns a new instance of TTSService.
func NewTTSService() *TTSService {
	return &TTSService{
		Command:   DefaultCommand,
		LogOutput: ioutil.Discard,
	}
}

// SynthesizeSpeech encodes text to speech with the local engine. The
// returned reader streams the WAV output and deletes it on close.
//
// Only one synthesis call runs at a time; concurrent callers block until
// the engine is free.
func (s *TTSService) SynthesizeSpeech(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	// Resolve the voice prompt. An unknown or empty voice falls back to
	// the engine's built-in default conditioning, never an error.
	voicePath := s.resolveVoicePath(voiceID)

	if s.LocalOnly && !s.ModelCached() {
		return nil, &talky.SynthesisError{
			Kind:   talky.SynthesisModelNotCached,
			Detail: fmt.Sprintf("model not cached in %s; download it first", s.ModelDir),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write output to a temporary file.
	f, err := ioutil.TempFile("", "talky-chatterbox-")
	if err != nil {
		return nil, err
	} else if err := f.Close(); err != nil {
		return nil, err
	}
	path := f.Name() + ".wav"
	if err := os.Rename(f.Name(), path); err != nil {
		return nil, err
	}

	args := []string{"--model-dir", s.ModelDir, "--output", path}
	if s.LocalOnly {
		args = append(args, "--local-only")
	}
	if voicePath != "" {
		args = append(args, "--voice", voicePath)
	}
	args = append(args, text)

	fmt.Fprintf(s.LogOutput, "chatterbox: synthesizing: voice=%s len=%d\n", voiceID, len(text))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(path)
		return nil, classifyError(err, stderr.String())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &oneTimeReader{File: file}, nil
}

// resolveVoicePath maps a voice ID to a prompt file path, or "" for the
// default voice.
func (s *TTSService) resolveVoicePath(voiceID string) string {
	if voiceID == "" {
		return ""
	}
	voice, err := s.FindVoiceByID(context.Background(), voiceID)
	if err != nil || voice == nil {
		fmt.Fprintf(s.LogOutput, "chatterbox: voice not found, using default: id=%s\n", voiceID)
		return ""
	}
	return voice.Path
}

// classifyError converts a subprocess failure into a SynthesisError.
func classifyError(err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = err.Error()
	} else if i := strings.LastIndexByte(detail, '\n'); i >= 0 {
		// Keep the final line; engine stderr tends to end with the
		// actual failure reason.
		detail = strings.TrimSpace(detail[i+1:])
	}

	lower := strings.ToLower(detail)
	kind := talky.SynthesisEngineFailure
	switch {
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "authentication"),
		strings.Contains(lower, "401"),
		strings.Contains(lower, "access token"):
		kind = talky.SynthesisAuthRequired
	case strings.Contains(lower, "network"),
		strings.Contains(lower, "connection"),
		strings.Contains(lower, "timed out"),
		strings.Contains(lower, "dns"),
		strings.Contains(lower, "could not resolve"):
		kind = talky.SynthesisNetworkFailure
	case strings.Contains(lower, "not cached"),
		strings.Contains(lower, "no local model"):
		kind = talky.SynthesisModelNotCached
	}

	return &talky.SynthesisError{Kind: kind, Detail: detail}
}

// oneTimeReader allows the reader to read once and then it deletes on close.
type oneTimeReader struct {
	*os.File
}

// Close closes the file handle and deletes the file.
func (r *oneTimeReader) Close() error {
	if err := r.File.Close(); err != nil {
		return err
	}
	return os.Remove(r.File.Name())
}
