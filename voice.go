package talky

import "context"

// Voice errors.
const (
	ErrVoiceNotFound = Error("voice not found")
)

// Voice represents a voice profile available to the synthesis engine.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"display_name"`
	Path string `json:"file_path,omitempty"`
}

// VoiceService represents a catalog of available voices.
type VoiceService interface {
	// Voices returns every available voice. Implementations backed by
	// a directory rescan it on each call so new files are picked up.
	Voices(ctx context.Context) ([]*Voice, error)

	// FindVoiceByID returns a voice by ID, or nil if it does not exist.
	FindVoiceByID(ctx context.Context, id string) (*Voice, error)
}
