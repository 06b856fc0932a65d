package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/handlers"
)

func init() { Register(registerCategories) }

func registerCategories(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/categories", handlers.ListCategories(d))
	g.Post("/api/categories", handlers.AddCategory(d))
}
