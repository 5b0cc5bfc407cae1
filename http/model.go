package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abradburne/talky"
)

// modelHandler represents an HTTP handler for synthesis model management.
// When the configured engine has no local model the service is nil and
// every route reports the model as unmanaged.
type modelHandler struct {
	router chi.Router

	modelService talky.ModelService
}

// newModelHandler returns a new instance of modelHandler.
func newModelHandler() *modelHandler {
	h := &modelHandler{router: chi.NewRouter()}
	h.router.Get("/status", h.handleGetStatus)
	h.router.Post("/download", h.handlePostDownload)
	h.router.Get("/progress", h.handleGetProgress)
	return h
}

// ServeHTTP implements http.Handler.
func (h *modelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *modelHandler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	if h.modelService == nil {
		Error(w, r, ErrModelNotManaged)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&modelStatusResponse{
		Cached: h.modelService.ModelCached(),
	})
}

func (h *modelHandler) handlePostDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.modelService == nil {
		Error(w, r, ErrModelNotManaged)
		return
	}

	if err := h.modelService.Download(ctx); err != nil {
		Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(h.modelService.DownloadProgress())
}

func (h *modelHandler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if h.modelService == nil {
		Error(w, r, ErrModelNotManaged)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.modelService.DownloadProgress())
}

type modelStatusResponse struct {
	Cached bool `json:"cached"`
}
