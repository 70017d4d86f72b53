// Package handlers exposes the decision cycle and its recommendations over
// HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/domain"
	"github.com/kpapad/rangekeeper/internal/modules/decisions"
	"github.com/kpapad/rangekeeper/internal/modules/planning"
)

// Handler handles decision cycle HTTP requests
type Handler struct {
	planningSvc *planning.Service
	decisionSvc *decisions.Service
	log         zerolog.Logger
}

// NewHandler creates a new planning handler
func NewHandler(planningSvc *planning.Service, decisionSvc *decisions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		planningSvc: planningSvc,
		decisionSvc: decisionSvc,
		log:         log.With().Str("handler", "planning").Logger(),
	}
}

// HandleRunCycle triggers a decision cycle for the given trading day
// (today by default). Safe to retrigger: an already-run day reports
// duplicates instead of stacking decisions.
func (h *Handler) HandleRunCycle(w http.ResponseWriter, r *http.Request) {
	tradeDate := r.URL.Query().Get("trade_date")
	if tradeDate == "" {
		tradeDate = time.Now().UTC().Format(domain.TradeDateFormat)
	}
	if _, err := time.Parse(domain.TradeDateFormat, tradeDate); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid trade_date, expected YYYY-MM-DD")
		return
	}

	result, err := h.planningSvc.RunCycle(r.Context(), tradeDate)
	if err != nil {
		h.log.Error().Err(err).Str("trade_date", tradeDate).Msg("Decision cycle failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetRecommendations returns all pending decisions awaiting review
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	pending, err := h.decisionSvc.Pending(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get pending decisions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if pending == nil {
		pending = []decisions.Decision{}
	}
	h.writeJSON(w, http.StatusOK, pending)
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
