package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abradburne/talky"
)

// voiceHandler represents an HTTP handler for the voice catalog.
type voiceHandler struct {
	router chi.Router

	voiceService talky.VoiceService
}

// newVoiceHandler returns a new instance of voiceHandler.
func newVoiceHandler() *voiceHandler {
	h := &voiceHandler{router: chi.NewRouter()}
	h.router.Get("/", h.handleGetVoices)
	h.router.Get("/{id}", h.handleGetVoice)
	return h
}

// ServeHTTP implements http.Handler.
func (h *voiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *voiceHandler) handleGetVoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	voices, err := h.voiceService.Voices(ctx)
	if err != nil {
		Error(w, r, err)
		return
	}

	resp := getVoicesResponse{Voices: make([]*voiceResponse, len(voices))}
	for i, v := range voices {
		resp.Voices[i] = encodeVoice(v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&resp)
}

func (h *voiceHandler) handleGetVoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	v, err := h.voiceService.FindVoiceByID(ctx, id)
	if err != nil {
		Error(w, r, err)
		return
	} else if v == nil {
		Error(w, r, talky.ErrVoiceNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(encodeVoice(v))
}

func encodeVoice(v *talky.Voice) *voiceResponse {
	return &voiceResponse{ID: v.ID, Name: v.Name}
}

type voiceResponse struct {
	ID   string `json:"id"`
	Name string `json:"display_name"`
}

type getVoicesResponse struct {
	Voices []*voiceResponse `json:"voices"`
}
