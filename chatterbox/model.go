package chatterbox

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os/exec"

	"github.com/abradburne/talky"
)

// Ensure service implements interface.
var _ talky.ModelService = &TTSService{}

// ModelCached returns true if the model cache directory exists and holds
// at least one file.
func (s *TTSService) ModelCached() bool {
	entries, err := ioutil.ReadDir(s.ModelDir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// DownloadProgress returns a snapshot of the current download state.
func (s *TTSService) DownloadProgress() talky.DownloadState {
	s.downloadMu.Lock()
	defer s.downloadMu.Unlock()

	state := s.download
	if state.Status == "" {
		state.Status = talky.DownloadStatusIdle
	}
	return state
}

// Download fetches the model into the cache directory on a background
// goroutine. Progress is coarse; poll DownloadProgress for the current
// state.
func (s *TTSService) Download(ctx context.Context) error {
	s.downloadMu.Lock()
	if s.download.Status == talky.DownloadStatusDownloading {
		s.downloadMu.Unlock()
		return talky.ErrModelDownloadInProgress
	}
	s.download = talky.DownloadState{
		Status:   talky.DownloadStatusDownloading,
		Progress: 0.1,
		Message:  "starting model download",
	}
	s.downloadMu.Unlock()

	go s.downloadModel(ctx)
	return nil
}

// downloadModel runs the engine's fetch mode and records the outcome.
// The download shares the engine lock so it cannot race a synthesis call
// over the model cache.
func (s *TTSService) downloadModel(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setDownloadState(talky.DownloadState{
		Status:   talky.DownloadStatusDownloading,
		Progress: 0.2,
		Message:  "downloading model files",
	})

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Command, "--model-dir", s.ModelDir, "--download")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cerr := classifyError(err, stderr.String())
		fmt.Fprintf(s.LogOutput, "chatterbox: model download failed: err=%s\n", cerr)
		s.setDownloadState(talky.DownloadState{
			Status:  talky.DownloadStatusError,
			Message: cerr.Error(),
		})
		return
	}

	fmt.Fprintf(s.LogOutput, "chatterbox: model download complete: dir=%s\n", s.ModelDir)
	s.setDownloadState(talky.DownloadState{
		Status:   talky.DownloadStatusCompleted,
		Progress: 1.0,
		Message:  "model download complete",
	})
}

func (s *TTSService) setDownloadState(state talky.DownloadState) {
	s.downloadMu.Lock()
	s.download = state
	s.downloadMu.Unlock()
}
