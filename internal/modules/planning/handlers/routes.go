package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers planning routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/recommendations", h.HandleGetRecommendations)
	r.Post("/cycle/run", h.HandleRunCycle)
}
