package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abradburne/talky"
)

const (
	ErrInvalidJSONBody   = talky.Error("invalid json body")
	ErrAudioNotAvailable = talky.Error("audio not available")
	ErrModelNotManaged   = talky.Error("model not managed")
)

// errorMap is a whitelist that maps errors to status codes.
var errorMap = map[error]int{
	ErrInvalidJSONBody:               http.StatusBadRequest,
	ErrAudioNotAvailable:             http.StatusNotFound,
	ErrModelNotManaged:               http.StatusNotFound,
	talky.ErrJobNotFound:             http.StatusNotFound,
	talky.ErrJobTextRequired:         http.StatusBadRequest,
	talky.ErrVoiceNotFound:           http.StatusNotFound,
	talky.ErrInvalidArtifactName:     http.StatusBadRequest,
	talky.ErrModelDownloadInProgress: http.StatusConflict,
}

// ErrorStatusCode returns the HTTP status code for an error object.
func ErrorStatusCode(err error) int {
	if code, ok := errorMap[err]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error writes an error response to the writer.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	// Determine status code.
	code := ErrorStatusCode(err)

	// Log error.
	if logOutput := FromContext(r.Context()); logOutput != nil {
		fmt.Fprintf(logOutput, "http error: %d %s\n", code, err.Error())
	}

	// Mask unrecognized errors from end users.
	if _, ok := errorMap[err]; !ok {
		err = talky.ErrInternal
	}

	// Write response.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(&errorResponse{Err: err.Error()})
}

type errorResponse struct {
	Err string `json:"error,omitempty"`
}
