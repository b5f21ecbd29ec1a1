// Package handlers provides HTTP handlers for stock data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
)

// Handler handles stock data HTTP requests
type Handler struct {
	service *marketdata.Service
	log     zerolog.Logger
}

// NewHandler creates a new stock data handler
func NewHandler(service *marketdata.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleListStocks handles GET /api/stocks
func (h *Handler) HandleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.ListStocks(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list stocks")
		h.writeError(w, http.StatusInternalServerError, "Failed to list stocks")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stocks": stocks,
		"count":  len(stocks),
	})
}

// HandleGetStockData handles GET /api/stock-data?symbol=&period=
func (h *Handler) HandleGetStockData(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol parameter is required")
		return
	}

	period, err := marketdata.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.service.GetPriceHistory(r.Context(), symbol, period)
	if err != nil {
		if errors.Is(err, marketdata.ErrEmptySymbol) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get stock data")
		h.writeError(w, http.StatusInternalServerError, "Failed to get stock data")
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":  series.Symbol,
			"name":    h.service.CompanyName(r.Context(), series.Symbol),
			"period":  series.Period,
			"points":  series.Points,
			"count":   len(series.Points),
			"is_real": series.IsReal(),
			"source":  series.Source,
		},
		"metadata": map[string]interface{}{
			"cached":     series.Cached,
			"stale":      series.Stale,
			"fetched_at": series.FetchedAt.Format(time.RFC3339),
			"timestamp":  time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
