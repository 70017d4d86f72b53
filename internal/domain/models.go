// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Signal represents the directional trading signal derived from a risk range
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// SignalFromString parses a signal value
func SignalFromString(s string) (Signal, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SignalBuy, nil
	case "SELL":
		return SignalSell, nil
	case "HOLD":
		return SignalHold, nil
	}
	return "", fmt.Errorf("invalid signal: %q", s)
}

// TradeSide represents the side of an executed trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// DecisionStatus represents the lifecycle state of a trade decision
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "PENDING"
	DecisionAccepted DecisionStatus = "ACCEPTED"
	DecisionDeclined DecisionStatus = "DECLINED"
)

// Terminal reports whether the status is a final state
func (s DecisionStatus) Terminal() bool {
	return s == DecisionAccepted || s == DecisionDeclined
}

// TradeDateFormat is the canonical trading-day format (UTC)
const TradeDateFormat = "2006-01-02"

// RangeSnapshot is one day's published risk range for an ETF.
// One per (symbol, trade date), immutable once ingested.
// Annotations carry upstream research/sentiment data and are never
// interpreted by the engine.
type RangeSnapshot struct {
	Symbol       string          `json:"symbol"`
	TradeDate    string          `json:"trade_date"`
	CurrentPrice float64         `json:"current_price"`
	OpenPrice    float64         `json:"open_price"`
	RangeLow     float64         `json:"range_low"`
	RangeHigh    float64         `json:"range_high"`
	Annotations  json.RawMessage `json:"annotations,omitempty"`
}

// Validate checks the snapshot is well-formed
func (s RangeSnapshot) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("snapshot has empty symbol")
	}
	if _, err := time.Parse(TradeDateFormat, s.TradeDate); err != nil {
		return fmt.Errorf("snapshot for %s has invalid trade_date %q: %w", s.Symbol, s.TradeDate, err)
	}
	if s.CurrentPrice <= 0 {
		return fmt.Errorf("snapshot for %s has non-positive current_price %.4f", s.Symbol, s.CurrentPrice)
	}
	if s.RangeLow <= 0 || s.RangeHigh <= 0 || s.RangeLow >= s.RangeHigh {
		return fmt.Errorf("snapshot for %s: %w (low=%.4f high=%.4f)", s.Symbol, ErrInvalidRange, s.RangeLow, s.RangeHigh)
	}
	return nil
}

// Recommendation is the output of a decision cycle for one ticker.
// It is a value: the next cycle's recommendation supersedes it entirely.
type Recommendation struct {
	Symbol               string  `json:"symbol"`
	TradeDate            string  `json:"trade_date"`
	Signal               Signal  `json:"signal"`
	PenetrationDepth     float64 `json:"penetration_depth"`
	Price                float64 `json:"price"`
	SharesToTrade        int64   `json:"shares_to_trade"`
	TargetPositionValue  float64 `json:"target_position_value"`
	CurrentPositionValue float64 `json:"current_position_value"`
}

// Actionable reports whether the recommendation proposes a trade
func (r Recommendation) Actionable() bool {
	return r.Signal != SignalHold && r.SharesToTrade > 0
}

// Side maps the signal to a trade side. Only valid for actionable
// recommendations.
func (r Recommendation) Side() TradeSide {
	if r.Signal == SignalSell {
		return TradeSideSell
	}
	return TradeSideBuy
}

// TradingRules are process-wide position sizing bounds, applied against
// total portfolio value. Validated once at startup; read-only afterwards.
type TradingRules struct {
	MaxPositionPct float64 `json:"max_position_pct"`
	MinPositionPct float64 `json:"min_position_pct"`
}

// Validate checks 0 <= min <= max <= 1
func (r TradingRules) Validate() error {
	if r.MinPositionPct < 0 || r.MaxPositionPct > 1 {
		return fmt.Errorf("%w: bounds must lie in [0,1] (min=%.4f max=%.4f)", ErrInvalidRules, r.MinPositionPct, r.MaxPositionPct)
	}
	if r.MinPositionPct > r.MaxPositionPct {
		return fmt.Errorf("%w: min_position_pct %.4f > max_position_pct %.4f", ErrInvalidRules, r.MinPositionPct, r.MaxPositionPct)
	}
	return nil
}

// PortfolioSummary is derived portfolio state, never stored independently
type PortfolioSummary struct {
	CashBalance    float64 `json:"cash_balance"`
	PositionsValue float64 `json:"positions_value"`
	TotalValue     float64 `json:"total_value"`
	InitialValue   float64 `json:"initial_value"`
	PercentChange  float64 `json:"percent_change"`
}
