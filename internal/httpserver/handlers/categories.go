package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

type addCategoryRequest struct {
	Category string `json:"category"`
}

// ListCategories returns the stored categories as a JSON array.
func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Categories.List(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, list)
	}
}

// AddCategory appends a category and returns the full list. Adding an
// existing name returns the list unchanged.
func AddCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		list, err := d.Categories.Add(r.Context(), req.Category)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		if d.Session != nil {
			if _, err := d.Session.LoadCategories(r.Context()); err != nil {
				d.Logger.Warn("failed to refresh session categories", logger.Error(err))
			}
		}
		writeJSON(w, d.Logger, http.StatusOK, list)
	}
}
