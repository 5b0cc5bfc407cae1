package mock

import (
	"context"

	"github.com/abradburne/talky"
)

var _ talky.ModelService = &ModelService{}

// ModelService is a mock of talky.ModelService.
type ModelService struct {
	ModelCachedFn      func() bool
	DownloadFn         func(ctx context.Context) error
	DownloadProgressFn func() talky.DownloadState
}

func (s *ModelService) ModelCached() bool {
	return s.ModelCachedFn()
}

func (s *ModelService) Download(ctx context.Context) error {
	return s.DownloadFn(ctx)
}

func (s *ModelService) DownloadProgress() talky.DownloadState {
	return s.DownloadProgressFn()
}
