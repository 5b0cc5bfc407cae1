package http

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abradburne/talky"
)

// Job listing page limits.
const (
	DefaultJobPageLimit = 50
	MaxJobPageLimit     = 100
)

// jobHandler represents an HTTP handler for managing synthesis jobs.
type jobHandler struct {
	router chi.Router

	// Services
	jobService      talky.JobService
	artifactService talky.ArtifactService
	jobEnqueuer     talky.JobEnqueuer

	logOutput io.Writer
}

// newJobHandler returns a new instance of jobHandler.
func newJobHandler() *jobHandler {
	h := &jobHandler{router: chi.NewRouter(), logOutput: ioutil.Discard}
	h.router.Post("/", h.handlePostJob)
	h.router.Get("/", h.handleGetJobs)
	h.router.Get("/{id}", h.handleGetJob)
	h.router.Get("/{id}/audio", h.handleGetJobAudio)
	h.router.Delete("/{id}", h.handleDeleteJob)
	h.router.Delete("/", h.handleDeleteJobs)
	return h
}

// ServeHTTP implements http.Handler.
func (h *jobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// handlePostJob creates a pending job and hands it to the processor.
func (h *jobHandler) handlePostJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Decode request body.
	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, r, ErrInvalidJSONBody)
		return
	}

	// Create job record.
	job := &talky.Job{
		Text:    strings.TrimSpace(req.Text),
		VoiceID: req.VoiceID,
	}
	if err := h.jobService.CreateJob(ctx, job); err != nil {
		Error(w, r, err)
		return
	}

	// Queue for background synthesis.
	h.jobEnqueuer.Enqueue(job.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(encodeJob(job))
}

// handleGetJobs returns one page of jobs, newest first.
func (h *jobHandler) handleGetJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse pagination, clamped to sane bounds.
	limit := DefaultJobPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	if limit < 1 {
		limit = 1
	} else if limit > MaxJobPageLimit {
		limit = MaxJobPageLimit
	}

	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	jobs, total, err := h.jobService.Jobs(ctx, limit, offset)
	if err != nil {
		Error(w, r, err)
		return
	}

	resp := getJobsResponse{
		Jobs:   make([]*jobResponse, len(jobs)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, job := range jobs {
		resp.Jobs[i] = encodeJob(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&resp)
}

// handleGetJob returns a single job by ID.
func (h *jobHandler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	job, err := h.jobService.FindJobByID(ctx, id)
	if err != nil {
		Error(w, r, err)
		return
	} else if job == nil {
		Error(w, r, talky.ErrJobNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(encodeJob(job))
}

// handleGetJobAudio streams the synthesized audio of a completed job.
func (h *jobHandler) handleGetJobAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	job, err := h.jobService.FindJobByID(ctx, id)
	if err != nil {
		Error(w, r, err)
		return
	} else if job == nil {
		Error(w, r, talky.ErrJobNotFound)
		return
	} else if job.Status != talky.JobStatusCompleted {
		Error(w, r, ErrAudioNotAvailable)
		return
	}

	a, rc, err := h.artifactService.FindArtifactByName(ctx, talky.ArtifactName(job.ID))
	if err != nil {
		Error(w, r, err)
		return
	} else if a == nil {
		Error(w, r, ErrAudioNotAvailable)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename(job)))
	io.Copy(w, rc)
}

// handleDeleteJob removes a job record and its audio artifact.
func (h *jobHandler) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	job, err := h.jobService.FindJobByID(ctx, id)
	if err != nil {
		Error(w, r, err)
		return
	} else if job == nil {
		Error(w, r, talky.ErrJobNotFound)
		return
	}

	if err := h.jobService.DeleteJob(ctx, id); err != nil {
		Error(w, r, err)
		return
	}

	// Remove the artifact after the record so a failed delete never
	// leaves a completed job without its audio.
	if err := h.artifactService.RemoveArtifact(ctx, talky.ArtifactName(id)); err != nil {
		fmt.Fprintf(h.logOutput, "remove artifact: id=%s err=%s\n", id, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteJobs removes every job record and artifact.
func (h *jobHandler) handleDeleteJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	paths, err := h.jobService.DeleteAllJobs(ctx)
	if err != nil {
		Error(w, r, err)
		return
	}

	for _, path := range paths {
		if err := h.artifactService.RemoveArtifact(ctx, path); err != nil {
			fmt.Fprintf(h.logOutput, "remove artifact: name=%s err=%s\n", path, err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// downloadFilename builds a descriptive filename for audio downloads.
func downloadFilename(job *talky.Job) string {
	voice := job.VoiceID
	if voice == "" {
		voice = "default"
	}
	return fmt.Sprintf("%s-%s.wav", voice, job.CreatedAt.UTC().Format("20060102-150405"))
}

// encodeJob converts a job to its wire representation.
func encodeJob(job *talky.Job) *jobResponse {
	resp := &jobResponse{
		ID:        job.ID,
		Text:      job.Text,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	}
	if job.VoiceID != "" {
		resp.VoiceID = &job.VoiceID
	}
	if !job.CompletedAt.IsZero() {
		t := job.CompletedAt
		resp.CompletedAt = &t
	}
	if job.AudioPath != "" {
		resp.AudioPath = &job.AudioPath
	}
	if job.Error != "" {
		resp.Error = &job.Error
	}
	if job.Terminal() {
		ms := job.DurationMs
		resp.DurationMs = &ms
	}
	if job.Status == talky.JobStatusCompleted {
		size := job.SizeBytes
		resp.SizeBytes = &size
	}
	return resp
}

type postJobRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

type jobResponse struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	VoiceID     *string    `json:"voice_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	AudioPath   *string    `json:"audio_path"`
	Error       *string    `json:"error_message"`
	DurationMs  *int       `json:"duration_ms"`
	SizeBytes   *int64     `json:"file_size_bytes"`
}

type getJobsResponse struct {
	Jobs   []*jobResponse `json:"jobs"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
