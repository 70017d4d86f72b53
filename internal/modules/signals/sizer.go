package signals

import (
	"math"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// Size turns a directional recommendation into a concrete share count.
//
// The proposed move is penetration depth scaled by total portfolio value
// (deeper breach, larger move), then clamped to the rule bounds
// [min_position_pct, max_position_pct] x total value so no single decision
// can exceed the configured exposure regardless of how extreme the snapshot
// is. Share counts are whole ETF shares; a move that rounds to zero shares
// is downgraded to HOLD.
//
// HOLD recommendations pass through unchanged.
func Size(rec domain.Recommendation, summary domain.PortfolioSummary, rules domain.TradingRules) (domain.Recommendation, error) {
	if err := rules.Validate(); err != nil {
		return domain.Recommendation{}, err
	}

	if rec.Signal == domain.SignalHold {
		return rec, nil
	}

	adjustment := rec.PenetrationDepth * summary.TotalValue
	if rec.Signal == domain.SignalSell {
		adjustment = -adjustment
	}

	floor := rules.MinPositionPct * summary.TotalValue
	ceiling := rules.MaxPositionPct * summary.TotalValue
	target := clamp(rec.CurrentPositionValue+adjustment, floor, ceiling)

	// The clamp can push the target against the direction of the signal
	// (e.g. a BUY while already above the ceiling). That is not an
	// actionable trade in the recommended direction.
	delta := target - rec.CurrentPositionValue
	if (rec.Signal == domain.SignalBuy && delta <= 0) || (rec.Signal == domain.SignalSell && delta >= 0) {
		rec.Signal = domain.SignalHold
		rec.SharesToTrade = 0
		rec.TargetPositionValue = rec.CurrentPositionValue
		return rec, nil
	}

	shares := int64(math.Floor(math.Abs(delta) / rec.Price))
	if shares == 0 {
		rec.Signal = domain.SignalHold
		rec.TargetPositionValue = rec.CurrentPositionValue
		return rec, nil
	}

	rec.SharesToTrade = shares
	rec.TargetPositionValue = target
	return rec, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
