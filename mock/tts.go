package mock

import (
	"context"
	"io"

	"github.com/abradburne/talky"
)

var _ talky.TTSService = &TTSService{}

// TTSService is a mock of talky.TTSService.
type TTSService struct {
	SynthesizeSpeechFn func(ctx context.Context, text, voiceID string) (io.ReadCloser, error)
}

func (s *TTSService) SynthesizeSpeech(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	return s.SynthesizeSpeechFn(ctx, text, voiceID)
}

var _ talky.VoiceService = &VoiceService{}

// VoiceService is a mock of talky.VoiceService.
type VoiceService struct {
	VoicesFn        func(ctx context.Context) ([]*talky.Voice, error)
	FindVoiceByIDFn func(ctx context.Context, id string) (*talky.Voice, error)
}

func (s *VoiceService) Voices(ctx context.Context) ([]*talky.Voice, error) {
	return s.VoicesFn(ctx)
}

func (s *VoiceService) FindVoiceByID(ctx context.Context, id string) (*talky.Voice, error) {
	return s.FindVoiceByIDFn(ctx, id)
}
