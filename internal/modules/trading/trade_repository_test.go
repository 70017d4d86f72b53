package trading

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

func validTrade(orderID, symbol, tradeDate string) Trade {
	return Trade{
		OrderID:        orderID,
		Symbol:         symbol,
		Side:           domain.TradeSideBuy,
		Signal:         domain.SignalBuy,
		Shares:         10,
		Price:          25,
		PositionBefore: 0,
		PositionAfter:  10,
		CashBefore:     1000,
		CashAfter:      750,
		TradeDate:      tradeDate,
		CreatedAt:      time.Now().UTC(),
	}
}

func insertTrade(t *testing.T, db *sql.DB, repo *TradeRepository, trade Trade) error {
	t.Helper()
	return database.WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		return repo.CreateTx(tx, trade)
	})
}

func TestTradeRepository_HistoryInsertionOrder(t *testing.T) {
	f := setupExecutor(t, 10000)
	ctx := context.Background()

	require.NoError(t, insertTrade(t, f.db, f.tradeRepo, validTrade("o1", "XLF", "2026-08-20")))
	require.NoError(t, insertTrade(t, f.db, f.tradeRepo, validTrade("o2", "SPY", "2026-08-20")))
	require.NoError(t, insertTrade(t, f.db, f.tradeRepo, validTrade("o3", "XLF", "2026-08-21")))

	trades, err := f.tradeRepo.GetHistory(ctx, "", 50)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "o1", trades[0].OrderID)
	assert.Equal(t, "o3", trades[2].OrderID)

	xlf, err := f.tradeRepo.GetHistory(ctx, "xlf", 50)
	require.NoError(t, err)
	require.Len(t, xlf, 2)

	last, err := f.tradeRepo.GetLast(ctx, "XLF")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "o3", last.OrderID)
}

func TestTradeRepository_OneTradePerTickerPerDay(t *testing.T) {
	f := setupExecutor(t, 10000)

	require.NoError(t, insertTrade(t, f.db, f.tradeRepo, validTrade("o1", "XLF", "2026-08-20")))

	err := insertTrade(t, f.db, f.tradeRepo, validTrade("o2", "XLF", "2026-08-20"))
	assert.ErrorIs(t, err, domain.ErrDuplicateDecision)

	exists, err := f.tradeRepo.ExistsForDay(context.Background(), "XLF", "2026-08-20")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.tradeRepo.ExistsForDay(context.Background(), "XLF", "2026-08-21")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTrade_Validate(t *testing.T) {
	base := validTrade("o1", "XLF", "2026-08-20")
	require.NoError(t, base.Validate())

	bad := base
	bad.Shares = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Side = domain.TradeSide("SHORT")
	assert.Error(t, bad.Validate())

	// Position delta must match side and share count
	bad = base
	bad.PositionAfter = base.PositionBefore + base.Shares + 1
	assert.Error(t, bad.Validate())

	sell := base
	sell.Side = domain.TradeSideSell
	sell.Signal = domain.SignalSell
	sell.PositionBefore = 20
	sell.PositionAfter = 10
	assert.NoError(t, sell.Validate())
}
