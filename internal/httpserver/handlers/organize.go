package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
)

type organizeResponse struct {
	Success     bool   `json:"success"`
	Destination string `json:"destination"`
}

// Organize moves one file into <targetDirectory>/<category>/<newFileName><ext>.
func Organize(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.OrganizeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		dst, err := d.Organizer.Organize(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		// Keep the session list in step when a client bypasses it.
		if d.Session != nil {
			d.Session.Forget(sessionPath(req.SourcePath))
		}
		writeJSON(w, d.Logger, http.StatusOK, organizeResponse{Success: true, Destination: dst})
	}
}

// sessionPath spells p the way the session lists it: absolute and clean.
func sessionPath(p string) string {
	p = strings.TrimSpace(p)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
