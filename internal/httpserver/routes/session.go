package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/handlers"
)

func init() { Register(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	if d.Session == nil {
		return
	}

	guarded(r, d).Route("/api/session", func(s chi.Router) {
		s.Get("/", handlers.GetSession(d))
		s.Post("/source", handlers.SetSource(d))
		s.Post("/target", handlers.SetTarget(d))
		s.Post("/select", handlers.Select(d))
		s.Post("/next", handlers.Next(d))
		s.Put("/name", handlers.SetFileName(d))
		s.Post("/category", handlers.SetCategory(d))
		s.Post("/categories", handlers.AddSessionCategory(d))
		s.Post("/organize", handlers.OrganizeCurrent(d))
		s.Post("/refresh", handlers.Refresh(d))
		s.Delete("/notification", handlers.DismissNotification(d))
	})
	guarded(r, d).Get("/api/status", handlers.Infra(d))
}
