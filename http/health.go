package http

import (
	"encoding/json"
	"net/http"

	"github.com/abradburne/talky"
)

// handleHealth reports service liveness without touching the job store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{
		Status:  "ok",
		Voices:  []string{},
		Version: talky.Version,
	}

	// Engines without a managed model are always ready.
	if s.ModelService == nil {
		resp.ModelLoaded = true
	} else {
		resp.ModelLoaded = s.ModelService.ModelCached()
	}

	if voices, err := s.VoiceService.Voices(ctx); err == nil {
		for _, v := range voices {
			resp.Voices = append(resp.Voices, v.ID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&resp)
}

type healthResponse struct {
	Status      string   `json:"status"`
	ModelLoaded bool     `json:"model_loaded"`
	Voices      []string `json:"available_voices"`
	Version     string   `json:"version"`
}
