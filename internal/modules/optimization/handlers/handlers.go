// Package handlers provides HTTP handlers for the portfolio optimizer.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/stockdash/stockdash/internal/modules/optimization"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler handles optimizer HTTP requests
type Handler struct {
	service *optimization.Service
	log     zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(service *optimization.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// HandleGetObjectives handles GET /api/optimizer/objectives
func (h *Handler) HandleGetObjectives(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"objectives": optimization.Objectives(),
		"default":    optimization.ObjectiveMaxSharpe,
	})
}

// HandleRun handles POST /api/optimizer/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req optimization.RunRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "Optimization failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleFrontier handles POST /api/optimizer/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req optimization.FrontierRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Frontier(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "Frontier calculation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleValidateWeights handles POST /api/optimizer/weights/validate
func (h *Handler) HandleValidateWeights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weights []float64 `json:"weights"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	response := map[string]interface{}{
		"valid":     true,
		"sum":       floats.Sum(req.Weights),
		"tolerance": optimization.WeightSumTolerance,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if err := optimization.ValidateWeights(req.Weights); err != nil {
		response["valid"] = false
		response["error"] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, message string) {
	if optimization.IsRequestError(err) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg(message)
	h.writeError(w, http.StatusInternalServerError, message)
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
