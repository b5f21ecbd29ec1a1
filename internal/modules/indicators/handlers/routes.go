package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the indicator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/indicators", h.HandleGetIndicators)
}
