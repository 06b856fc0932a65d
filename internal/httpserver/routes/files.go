package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/handlers"
)

func init() { Register(registerFiles) }

func registerFiles(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Post("/api/scan-directory", handlers.ScanDirectory(d))
	g.Post("/api/load-videos", handlers.ScanDirectory(d))
	g.Post("/api/organize", handlers.Organize(d))
	g.Post("/api/move-video", handlers.Organize(d))
	g.Get("/api/directories", handlers.Directories(d))
}
