package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
)

func init() { Register(registerMedia) }

// GET also answers HEAD through middleware.GetHead.
func registerMedia(r chi.Router, d deps.Deps) {
	guarded(r, d).Get(stream.RoutePrefix+"*", handlers.Media(d))
}
