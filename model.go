package talky

import "context"

// Model errors.
const (
	ErrModelDownloadInProgress = Error("model download already in progress")
)

// Model download statuses.
const (
	DownloadStatusIdle        = "idle"
	DownloadStatusDownloading = "downloading"
	DownloadStatusCompleted   = "completed"
	DownloadStatusError       = "error"
)

// DownloadState describes the progress of a model download.
type DownloadState struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// ModelService manages a synthesis engine's local model cache. Engines
// without a local model (remote APIs) have no ModelService.
type ModelService interface {
	// ModelCached returns true if the model is available locally.
	ModelCached() bool

	// Download fetches the model in the background. Returns
	// ErrModelDownloadInProgress if a fetch is already running.
	Download(ctx context.Context) error

	// DownloadProgress returns a snapshot of the current fetch state.
	DownloadProgress() DownloadState
}
