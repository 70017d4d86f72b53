package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/decisions", func(r chi.Router) {
		r.Post("/{symbol}/accept", h.HandleAcceptDecision)
		r.Post("/{symbol}/decline", h.HandleDeclineDecision)
	})
	r.Get("/trades", h.HandleGetTrades)
}
