package chatterbox

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abradburne/talky"
)

// Voices scans the voices directory for prompt files. The directory is
// rescanned on every call so newly dropped files appear immediately.
// The filename stem is both the ID and the display name:
//
//	C3-PO.wav          -> id=C3-PO
//	Jerry_Seinfeld.wav -> id=Jerry_Seinfeld
func (s *TTSService) Voices(ctx context.Context) ([]*talky.Voice, error) {
	matches, err := filepath.Glob(filepath.Join(s.VoicesDir, "*.wav"))
	if err != nil {
		return nil, err
	}

	voices := make([]*talky.Voice, 0, len(matches))
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		voices = append(voices, &talky.Voice{
			ID:   stem,
			Name: stem,
			Path: path,
		})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })

	return voices, nil
}

// FindVoiceByID returns a voice by ID. Returns nil if no matching prompt
// file exists.
func (s *TTSService) FindVoiceByID(ctx context.Context, id string) (*talky.Voice, error) {
	voices, err := s.Voices(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range voices {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}
