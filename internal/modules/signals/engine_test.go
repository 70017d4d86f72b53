package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpapad/rangekeeper/internal/domain"
)

func snapshot(price, low, high float64) domain.RangeSnapshot {
	return domain.RangeSnapshot{
		Symbol:       "XLF",
		TradeDate:    "2026-08-24",
		CurrentPrice: price,
		OpenPrice:    price,
		RangeLow:     low,
		RangeHigh:    high,
	}
}

func TestEvaluate_HoldInsideRange(t *testing.T) {
	for _, price := range []float64{32.01, 33, 35, 37.5, 37.99} {
		rec, err := Evaluate(snapshot(price, 32, 38), 0)
		require.NoError(t, err)
		assert.Equal(t, domain.SignalHold, rec.Signal, "price %.2f", price)
		assert.Equal(t, 0.0, rec.PenetrationDepth)
	}
}

func TestEvaluate_BuyAtOrBelowLow(t *testing.T) {
	// Exactly at the low bound: closed interval favors action
	rec, err := Evaluate(snapshot(32, 32, 38), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalBuy, rec.Signal)
	assert.Equal(t, 0.0, rec.PenetrationDepth)

	// Depth increases strictly as price falls further below the low bound
	prev := -1.0
	for _, price := range []float64{31.5, 31, 30, 28, 20} {
		rec, err := Evaluate(snapshot(price, 32, 38), 0)
		require.NoError(t, err)
		assert.Equal(t, domain.SignalBuy, rec.Signal)
		assert.Greater(t, rec.PenetrationDepth, prev, "price %.2f", price)
		prev = rec.PenetrationDepth
	}
}

func TestEvaluate_SellAtOrAboveHigh(t *testing.T) {
	rec, err := Evaluate(snapshot(38, 32, 38), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalSell, rec.Signal)
	assert.Equal(t, 0.0, rec.PenetrationDepth)

	rec, err = Evaluate(snapshot(41, 32, 38), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalSell, rec.Signal)
	assert.InDelta(t, 0.5, rec.PenetrationDepth, 1e-9)
}

func TestEvaluate_PenetrationDepthIsRangeWidthMultiple(t *testing.T) {
	// 2 below a width-6 range: depth = 2/6
	rec, err := Evaluate(snapshot(30, 32, 38), 3000)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalBuy, rec.Signal)
	assert.InDelta(t, 1.0/3.0, rec.PenetrationDepth, 1e-9)
	assert.Equal(t, 3000.0, rec.CurrentPositionValue)
}

func TestEvaluate_InvalidRange(t *testing.T) {
	cases := []struct {
		name      string
		low, high float64
	}{
		{"inverted", 38, 32},
		{"zero width", 35, 35},
		{"negative low", -1, 38},
		{"zero low", 0, 38},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(snapshot(30, tc.low, tc.high), 0)
			assert.ErrorIs(t, err, domain.ErrInvalidRange)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	snap := snapshot(29.87, 32, 38)
	first, err := Evaluate(snap, 1234.56)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Evaluate(snap, 1234.56)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvaluate_RejectsMalformedSnapshot(t *testing.T) {
	snap := snapshot(30, 32, 38)
	snap.Symbol = " "
	_, err := Evaluate(snap, 0)
	assert.Error(t, err)

	snap = snapshot(30, 32, 38)
	snap.TradeDate = "24/08/2026"
	_, err = Evaluate(snap, 0)
	assert.Error(t, err)
}
