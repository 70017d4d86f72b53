// Package signals derives trading signals from risk-range snapshots and
// sizes them against portfolio rules. Everything in this package is pure:
// identical inputs always produce identical outputs, so recommendations are
// reproducible after the fact.
package signals

import (
	"fmt"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// Evaluate classifies the current price's position within the risk range.
//
// The normalized position p = (price - low) / (high - low) maps onto:
//
//	p <= 0  -> BUY,  penetration depth -p
//	p >= 1  -> SELL, penetration depth p-1
//	else    -> HOLD, depth 0
//
// The interval is closed: a price exactly on a bound already signals action.
// Penetration depth is expressed as a multiple of the range width, so a
// depth of 0.5 means the price sits half a range width beyond the bound.
func Evaluate(snapshot domain.RangeSnapshot, currentPositionValue float64) (domain.Recommendation, error) {
	if err := snapshot.Validate(); err != nil {
		return domain.Recommendation{}, err
	}

	width := snapshot.RangeHigh - snapshot.RangeLow
	if width <= 0 {
		return domain.Recommendation{}, fmt.Errorf("%w: width %.4f for %s", domain.ErrInvalidRange, width, snapshot.Symbol)
	}

	p := (snapshot.CurrentPrice - snapshot.RangeLow) / width

	rec := domain.Recommendation{
		Symbol:               snapshot.Symbol,
		TradeDate:            snapshot.TradeDate,
		Price:                snapshot.CurrentPrice,
		CurrentPositionValue: currentPositionValue,
		TargetPositionValue:  currentPositionValue,
	}

	switch {
	case p <= 0:
		rec.Signal = domain.SignalBuy
		rec.PenetrationDepth = -p
	case p >= 1:
		rec.Signal = domain.SignalSell
		rec.PenetrationDepth = p - 1
	default:
		rec.Signal = domain.SignalHold
		rec.PenetrationDepth = 0
	}

	return rec, nil
}
