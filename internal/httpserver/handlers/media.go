package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
)

// Media streams the video named by the percent-encoded path after /media/.
// Files the scanner would not list are answered like missing ones.
func Media(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.URL.EscapedPath(), stream.RoutePrefix)
		path, err := stream.ResolvePath(raw)
		if err != nil {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			http.Error(w, domain.Message(err), http.StatusBadRequest)
			return
		}
		if d.Accepts != nil && !d.Accepts(path) {
			d.Logger.Warn("refused non-video media request", logger.String("path", path))
			w.Header().Set("Access-Control-Allow-Origin", "*")
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		d.Streamer.ServeFile(w, r, path)
	}
}
