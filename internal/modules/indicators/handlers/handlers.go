// Package handlers provides HTTP handlers for technical indicators.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/modules/indicators"
	"github.com/stockdash/stockdash/internal/modules/marketdata"
)

// Handler handles indicator HTTP requests
type Handler struct {
	service *indicators.Service
	log     zerolog.Logger
}

// NewHandler creates a new indicators handler
func NewHandler(service *indicators.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "indicators").Logger(),
	}
}

// HandleGetIndicators handles GET /api/indicators?symbol=&period=
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.service.Snapshot(r.Context(), symbol, period)
	if err != nil {
		if errors.Is(err, marketdata.ErrEmptySymbol) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute indicators")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute indicators")
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
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
