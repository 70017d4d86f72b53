package decisions

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

func setupDecisionsDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE decisions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('PENDING', 'ACCEPTED', 'DECLINED')),
			signal TEXT NOT NULL CHECK (signal IN ('BUY', 'SELL', 'HOLD')),
			penetration_depth REAL NOT NULL CHECK (penetration_depth >= 0),
			price REAL NOT NULL CHECK (price > 0),
			shares_to_trade INTEGER NOT NULL CHECK (shares_to_trade >= 0),
			target_position_value REAL NOT NULL,
			current_position_value REAL NOT NULL,
			created_at INTEGER NOT NULL,
			resolved_at INTEGER,
			UNIQUE (symbol, trade_date)
		)
	`)
	require.NoError(t, err)

	return db
}

func buyRecommendation(symbol, tradeDate string) domain.Recommendation {
	return domain.Recommendation{
		Symbol:               symbol,
		TradeDate:            tradeDate,
		Signal:               domain.SignalBuy,
		PenetrationDepth:     0.5,
		Price:                30,
		SharesToTrade:        66,
		TargetPositionValue:  5000,
		CurrentPositionValue: 3000,
	}
}

func TestRepository_Create_AndGet(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	dec, err := repo.Create(ctx, buyRecommendation("xlf", "2026-08-24"))
	require.NoError(t, err)
	assert.NotEmpty(t, dec.ID)
	assert.Equal(t, "XLF", dec.Symbol)
	assert.Equal(t, domain.DecisionPending, dec.Status)
	assert.Nil(t, dec.ResolvedAt)

	got, err := repo.Get(ctx, "XLF", "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, dec.ID, got.ID)
	assert.Equal(t, int64(66), got.Recommendation.SharesToTrade)
	assert.Equal(t, domain.SignalBuy, got.Recommendation.Signal)
}

func TestRepository_Create_DuplicateKey(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, buyRecommendation("XLF", "2026-08-24"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, buyRecommendation("XLF", "2026-08-24"))
	assert.ErrorIs(t, err, domain.ErrDuplicateDecision)

	// A different day for the same ticker is a fresh decision
	_, err = repo.Create(ctx, buyRecommendation("XLF", "2026-08-25"))
	assert.NoError(t, err)
}

func TestRepository_Get_Missing(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())

	got, err := repo.Get(context.Background(), "SPY", "2026-08-24")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ResolveTx_FirstResolutionWins(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, buyRecommendation("XLF", "2026-08-24"))
	require.NoError(t, err)

	err = database.WithTransaction(ctx, db, func(tx *sql.Tx) error {
		dec, err := repo.ResolveTx(tx, "XLF", "2026-08-24", domain.DecisionDeclined)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionDeclined, dec.Status)
		require.NotNil(t, dec.ResolvedAt)
		return nil
	})
	require.NoError(t, err)

	// Second resolution reports the conflict and keeps the stored outcome
	err = database.WithTransaction(ctx, db, func(tx *sql.Tx) error {
		dec, err := repo.ResolveTx(tx, "XLF", "2026-08-24", domain.DecisionAccepted)
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
		assert.Equal(t, domain.DecisionDeclined, dec.Status)
		return nil
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "XLF", "2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDeclined, got.Status)
}

func TestRepository_ResolveTx_Missing(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())

	err := database.WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		_, err := repo.ResolveTx(tx, "SPY", "2026-08-24", domain.DecisionAccepted)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_ResolveTx_RejectsNonTerminalOutcome(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, buyRecommendation("XLF", "2026-08-24"))
	require.NoError(t, err)

	err = database.WithTransaction(ctx, db, func(tx *sql.Tx) error {
		_, err := repo.ResolveTx(tx, "XLF", "2026-08-24", domain.DecisionPending)
		return err
	})
	assert.Error(t, err)
}

func TestService_ProposeAndResolve(t *testing.T) {
	db := setupDecisionsDB(t)
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, db, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Propose(ctx, buyRecommendation("XLF", "2026-08-24"))
	require.NoError(t, err)
	_, err = svc.Propose(ctx, buyRecommendation("SPY", "2026-08-24"))
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	dec, err := svc.Resolve(ctx, "SPY", "2026-08-24", domain.DecisionDeclined)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDeclined, dec.Status)

	pending, err = svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "XLF", pending[0].Symbol)
}
