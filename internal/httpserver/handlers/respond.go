package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Kind    domain.Kind `json:"kind"`
	Details string      `json:"details,omitempty"`
	Session any         `json:"session,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindEmpty:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	writeErrorWith(w, log, err, nil)
}

// writeErrorWith is writeError with the session snapshot attached.
func writeErrorWith(w http.ResponseWriter, log logger.Logger, err error, snap any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.Error(err))
	}
	writeJSON(w, log, status, errorResponse{
		Success: false,
		Error:   domain.Message(err),
		Kind:    domain.KindOf(err),
		Details: domain.Details(err),
		Session: snap,
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
// A non-empty body must be sent as application/json.
func decodeJSON(r *http.Request, v any) error {
	if r.ContentLength != 0 && !isJSON(r.Header.Get("Content-Type")) {
		return domain.Validation("Content-Type must be application/json")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Validation("invalid JSON body: %v", err)
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
