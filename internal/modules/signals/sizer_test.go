package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpapad/rangekeeper/internal/domain"
)

var defaultRules = domain.TradingRules{MaxPositionPct: 0.5, MinPositionPct: 0.05}

func summary(total float64) domain.PortfolioSummary {
	return domain.PortfolioSummary{TotalValue: total}
}

func TestSize_XLFBuyCappedAtMax(t *testing.T) {
	// XLF at 30 against a 32-38 band: depth 1/3, current position 100 shares
	// (3000), portfolio 10000. Target wants 3000 + 3333 but caps at 5000,
	// so 66 whole shares.
	rec, err := Evaluate(snapshot(30, 32, 38), 3000)
	require.NoError(t, err)

	sized, err := Size(rec, summary(10000), defaultRules)
	require.NoError(t, err)

	assert.Equal(t, domain.SignalBuy, sized.Signal)
	assert.InDelta(t, 5000, sized.TargetPositionValue, 1e-9)
	assert.Equal(t, int64(66), sized.SharesToTrade)
	assert.Equal(t, domain.TradeSideBuy, sized.Side())
}

func TestSize_TargetAlwaysWithinRuleBounds(t *testing.T) {
	cases := []struct {
		name    string
		price   float64
		current float64
	}{
		{"deep buy from zero", 10, 0},
		{"shallow buy", 31.9, 2000},
		{"deep sell from large position", 50, 9000},
		{"sell at bound", 38, 4000},
	}

	rules := domain.TradingRules{MaxPositionPct: 0.4, MinPositionPct: 0.1}
	total := 20000.0

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Evaluate(snapshot(tc.price, 32, 38), tc.current)
			require.NoError(t, err)

			sized, err := Size(rec, summary(total), rules)
			require.NoError(t, err)

			if sized.Signal == domain.SignalHold {
				return
			}
			assert.GreaterOrEqual(t, sized.TargetPositionValue, rules.MinPositionPct*total-1e-9)
			assert.LessOrEqual(t, sized.TargetPositionValue, rules.MaxPositionPct*total+1e-9)
		})
	}
}

func TestSize_HoldPassesThroughUnchanged(t *testing.T) {
	rec, err := Evaluate(snapshot(35, 32, 38), 3000)
	require.NoError(t, err)
	require.Equal(t, domain.SignalHold, rec.Signal)

	sized, err := Size(rec, summary(10000), defaultRules)
	require.NoError(t, err)
	assert.Equal(t, rec, sized)
}

func TestSize_ZeroShareMoveDowngradesToHold(t *testing.T) {
	// Price at the bound: depth 0, adjustment 0, nothing to trade.
	rec, err := Evaluate(snapshot(32, 32, 38), 3000)
	require.NoError(t, err)
	require.Equal(t, domain.SignalBuy, rec.Signal)

	sized, err := Size(rec, summary(10000), defaultRules)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalHold, sized.Signal)
	assert.Equal(t, int64(0), sized.SharesToTrade)
	assert.False(t, sized.Actionable())
}

func TestSize_BuyAboveCeilingDowngradesToHold(t *testing.T) {
	// Already above the max bound: the clamp would shrink the position,
	// which contradicts a BUY.
	rec, err := Evaluate(snapshot(30, 32, 38), 6000)
	require.NoError(t, err)
	require.Equal(t, domain.SignalBuy, rec.Signal)

	sized, err := Size(rec, summary(10000), defaultRules)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalHold, sized.Signal)
}

func TestSize_SellRespectsFloor(t *testing.T) {
	// Deep sell: the floor keeps at least min_position_pct invested.
	rec, err := Evaluate(snapshot(50, 32, 38), 5000)
	require.NoError(t, err)
	require.Equal(t, domain.SignalSell, rec.Signal)

	sized, err := Size(rec, summary(10000), defaultRules)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalSell, sized.Signal)
	assert.InDelta(t, 500, sized.TargetPositionValue, 1e-9)
	assert.Equal(t, int64(90), sized.SharesToTrade)
}

func TestSize_InvalidRules(t *testing.T) {
	rec, err := Evaluate(snapshot(30, 32, 38), 3000)
	require.NoError(t, err)

	_, err = Size(rec, summary(10000), domain.TradingRules{MaxPositionPct: 0.1, MinPositionPct: 0.5})
	assert.ErrorIs(t, err, domain.ErrInvalidRules)

	_, err = Size(rec, summary(10000), domain.TradingRules{MaxPositionPct: 1.5, MinPositionPct: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRules)
}
