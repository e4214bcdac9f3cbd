package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the search API routes
func NewRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Group(func(r chi.Router) {
			r.Use(CallerMiddleware)

			// Tag catalog is global and cheap
			r.Get("/tags", h.ListTagsHandler)
			r.Get("/tags/search", h.SearchTagsHandler)

			// Search history requires a caller
			r.Get("/search/history", h.ListHistoryHandler)
			r.Post("/search/history", h.AddHistoryHandler)
			r.Delete("/search/history", h.DeleteHistoryHandler)
			r.Delete("/search/history/{id}", h.DeleteHistoryEntryHandler)

			// Ranked search is throttled per caller
			r.Group(func(r chi.Router) {
				r.Use(h.RateLimitMiddleware)

				r.Get("/search", h.GlobalSearchHandler)
				r.Get("/search/{entity}", h.EntitySearchHandler)
				r.Get("/chats/{chatID}/search", h.ChatSearchHandler)
				r.Get("/tags/{name}/companions", h.CompanionsByTagHandler)
			})
		})
	})

	return r
}
