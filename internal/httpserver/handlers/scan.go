package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
)

type scanRequest struct {
	Directory string `json:"directory"`
	SourceDir string `json:"sourceDir"`
	Recursive *bool  `json:"recursive,omitempty"`
}

func (s scanRequest) dir() string {
	if s.Directory != "" {
		return s.Directory
	}
	return s.SourceDir
}

// ScanDirectory lists the videos of a directory without touching the
// session. It serves both /api/scan-directory and /api/load-videos.
func ScanDirectory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		recursive := d.DefaultRecursive
		if req.Recursive != nil {
			recursive = *req.Recursive
		}

		entries, err := d.Scanner.Scan(r.Context(), req.dir(), recursive)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if entries == nil {
			entries = []domain.VideoEntry{}
		}
		writeJSON(w, d.Logger, http.StatusOK, entries)
	}
}
