package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the stock data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stocks", h.HandleListStocks)
	r.Get("/stock-data", h.HandleGetStockData)
}
