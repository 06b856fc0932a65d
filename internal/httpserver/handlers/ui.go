package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
)

// UI serves the embedded browser interface.
func UI(d deps.Deps) http.Handler {
	files := http.FileServer(http.FS(d.UI))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}
