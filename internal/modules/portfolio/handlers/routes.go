package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetSummary)
		r.Get("/positions", h.HandleGetPositions)
		r.Get("/performance", h.HandleGetPerformance)
	})
}
