// Package trading persists the immutable trade ledger and applies accepted
// decisions to portfolio state.
package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// Trade is one executed trade: the append-only audit record. The
// before/after fields make each record self-contained, so the ledger is
// the sole reconstruction source for the next trade's starting state.
type Trade struct {
	ID             int64            `json:"id"`
	OrderID        string           `json:"order_id"`
	Symbol         string           `json:"symbol"`
	Side           domain.TradeSide `json:"side"`
	Signal         domain.Signal    `json:"signal"`
	Shares         int64            `json:"shares"`
	Price          float64          `json:"price"`
	PositionBefore int64            `json:"position_before"`
	PositionAfter  int64            `json:"position_after"`
	CashBefore     float64          `json:"cash_before"`
	CashAfter      float64          `json:"cash_after"`
	TradeDate      string           `json:"trade_date"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Validate checks internal consistency before the record is made durable
func (t Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("trade has empty symbol")
	}
	if t.Shares <= 0 {
		return fmt.Errorf("trade shares must be positive, got %d", t.Shares)
	}
	if t.Price <= 0 {
		return fmt.Errorf("trade price must be positive, got %.4f", t.Price)
	}
	if t.Side != domain.TradeSideBuy && t.Side != domain.TradeSideSell {
		return fmt.Errorf("invalid trade side %q", t.Side)
	}
	if t.PositionBefore < 0 || t.PositionAfter < 0 {
		return fmt.Errorf("trade position counts must be non-negative")
	}
	if t.CashBefore < 0 || t.CashAfter < 0 {
		return fmt.Errorf("trade cash balances must be non-negative")
	}

	// Before/after fields must be consistent with side, shares and price
	switch t.Side {
	case domain.TradeSideBuy:
		if t.PositionAfter != t.PositionBefore+t.Shares {
			return fmt.Errorf("buy position delta inconsistent: %d -> %d for %d shares", t.PositionBefore, t.PositionAfter, t.Shares)
		}
	case domain.TradeSideSell:
		if t.PositionAfter != t.PositionBefore-t.Shares {
			return fmt.Errorf("sell position delta inconsistent: %d -> %d for %d shares", t.PositionBefore, t.PositionAfter, t.Shares)
		}
	}

	return nil
}
