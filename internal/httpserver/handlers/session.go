package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/session"
)

type directoryRequest struct {
	Directory string `json:"directory"`
	Recursive *bool  `json:"recursive,omitempty"`
}

type selectRequest struct {
	Index int `json:"index"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type fileNameRequest struct {
	FileName string `json:"fileName"`
}

// respondSession writes snap, or the error with snap attached. Empty
// results are not HTTP errors; they are visible in the snapshot.
func respondSession(w http.ResponseWriter, log logger.Logger, snap session.Snapshot, err error) {
	if err != nil && !domain.IsKind(err, domain.KindEmpty) {
		writeErrorWith(w, log, err, snap)
		return
	}
	writeJSON(w, log, http.StatusOK, snap)
}

// sessionAction adapts a controller call with no request body.
func sessionAction(d deps.Deps, fn func(ctx context.Context) (session.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := fn(r.Context())
		respondSession(w, d.Logger, snap, err)
	}
}

// GetSession returns the current snapshot.
func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, d.Session.Snapshot())
	}
}

// SetSource scans a directory and makes it the working list.
func SetSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		if req.Recursive != nil {
			d.Session.SetRecursive(*req.Recursive)
		}
		snap, err := d.Session.SetSource(r.Context(), req.Directory)
		respondSession(w, d.Logger, snap, err)
	}
}

// SetTarget sets the organize root.
func SetTarget(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		snap, err := d.Session.SetTarget(req.Directory)
		respondSession(w, d.Logger, snap, err)
	}
}

// Select makes the video at index current.
func Select(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		snap, err := d.Session.Select(req.Index)
		respondSession(w, d.Logger, snap, err)
	}
}

// Next advances to the following video.
func Next(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(context.Context) (session.Snapshot, error) {
		return d.Session.Next()
	})
}

// SetFileName edits the name the current video will be moved under.
func SetFileName(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fileNameRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		snap, err := d.Session.SetFileName(req.FileName)
		respondSession(w, d.Logger, snap, err)
	}
}

// SetCategory selects a category for the current video.
func SetCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		snap, err := d.Session.SetCategory(r.Context(), req.Category)
		respondSession(w, d.Logger, snap, err)
	}
}

// AddSessionCategory creates a category and selects it.
func AddSessionCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondSession(w, d.Logger, d.Session.Snapshot(), err)
			return
		}
		snap, err := d.Session.AddCategory(r.Context(), req.Category)
		respondSession(w, d.Logger, snap, err)
	}
}

// OrganizeCurrent moves the current video.
func OrganizeCurrent(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, d.Session.Organize)
}

// DismissNotification hides the success message.
func DismissNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, d.Session.DismissNotification())
	}
}

// Refresh queues a stale entry sweep. It answers 429 when one is already
// queued.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SweepTrigger == nil {
			writeError(w, d.Logger, domain.Conflict("refresh is disabled"))
			return
		}

		select {
		case d.SweepTrigger <- struct{}{}:
			d.Logger.Info("manual sweep triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, map[string]bool{"queued": true})
		default:
			d.Logger.Warn("sweep already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, map[string]bool{"queued": false})
		}
	}
}
