// Package handlers exposes decision resolution and the trade ledger over
// HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/domain"
	"github.com/kpapad/rangekeeper/internal/modules/decisions"
	"github.com/kpapad/rangekeeper/internal/modules/trading"
)

// Handler handles decision resolution and trade history requests
type Handler struct {
	executor    *trading.Executor
	decisionSvc *decisions.Service
	tradeRepo   *trading.TradeRepository
	log         zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(
	executor *trading.Executor,
	decisionSvc *decisions.Service,
	tradeRepo *trading.TradeRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		executor:    executor,
		decisionSvc: decisionSvc,
		tradeRepo:   tradeRepo,
		log:         log.With().Str("handler", "trading").Logger(),
	}
}

// HandleAcceptDecision accepts the pending decision for a ticker and
// executes the trade. The response carries the full trade record including
// before and after balances.
func (h *Handler) HandleAcceptDecision(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	tradeDate := h.tradeDate(r)

	trade, err := h.executor.AcceptAndExecute(r.Context(), symbol, tradeDate)
	if err != nil {
		h.writeDecisionError(w, symbol, tradeDate, err)
		return
	}

	h.writeJSON(w, http.StatusOK, trade)
}

// HandleDeclineDecision declines the pending decision for a ticker.
// No portfolio state changes.
func (h *Handler) HandleDeclineDecision(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	tradeDate := h.tradeDate(r)

	dec, err := h.decisionSvc.Resolve(r.Context(), symbol, tradeDate, domain.DecisionDeclined)
	if err != nil {
		h.writeDecisionError(w, symbol, tradeDate, err)
		return
	}

	h.writeJSON(w, http.StatusOK, dec)
}

// HandleGetTrades returns the trade ledger, optionally filtered by symbol
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	trades, err := h.tradeRepo.GetHistory(r.Context(), symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if trades == nil {
		trades = []trading.Trade{}
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// tradeDate resolves the trading day a resolution targets, defaulting to
// today (UTC)
func (h *Handler) tradeDate(r *http.Request) string {
	if date := r.URL.Query().Get("trade_date"); date != "" {
		return date
	}
	return time.Now().UTC().Format(domain.TradeDateFormat)
}

// writeDecisionError maps domain errors onto HTTP statuses
func (h *Handler) writeDecisionError(w http.ResponseWriter, symbol, tradeDate string, err error) {
	h.log.Warn().Err(err).
		Str("symbol", symbol).
		Str("trade_date", tradeDate).
		Msg("Decision resolution failed")

	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyResolved):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientShares), errors.Is(err, domain.ErrInsufficientCash):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrStoreTimeout), errors.Is(err, domain.ErrStoreUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
