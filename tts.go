package talky

import (
	"context"
	"io"
)

// Synthesis failure kinds. The engine adapter classifies every failure
// into exactly one of these; callers may match on them but the job
// processor records the message uniformly.
const (
	SynthesisAuthRequired   = "authentication_required"
	SynthesisNetworkFailure = "network_unavailable"
	SynthesisModelNotCached = "model_not_cached"
	SynthesisEngineFailure  = "engine_error"
)

// SynthesisError represents a classified synthesis failure.
type SynthesisError struct {
	Kind   string
	Detail string
}

// Error returns a human-readable failure description.
func (e *SynthesisError) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return e.Detail
}

// TTSService represents a service for performing text-to-speech.
//
// Implementations wrap a synthesis engine that may take seconds to
// minutes per call. The reader streams the finished WAV audio and must
// be closed by the caller.
type TTSService interface {
	SynthesizeSpeech(ctx context.Context, text, voiceID string) (io.ReadCloser, error)
}
