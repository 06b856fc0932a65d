package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/handlers"
)

func init() { Register(registerUI) }

func registerUI(r chi.Router, d deps.Deps) {
	if d.UI == nil {
		return
	}
	ui := handlers.UI(d)
	g := guarded(r, d)
	g.Get("/", ui.ServeHTTP)
	g.Get("/static/*", ui.ServeHTTP)
}
