package portfolio

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupPortfolioDBs(t *testing.T) (*sql.DB, *sql.DB) {
	t.Helper()

	ledgerDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledgerDB.Close() })

	_, err = ledgerDB.Exec(`
		CREATE TABLE portfolio (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			cash_balance REAL NOT NULL CHECK (cash_balance >= 0),
			initial_value REAL NOT NULL CHECK (initial_value > 0),
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE positions (
			symbol TEXT PRIMARY KEY,
			shares INTEGER NOT NULL DEFAULT 0 CHECK (shares >= 0),
			current_price REAL NOT NULL DEFAULT 0 CHECK (current_price >= 0),
			annotations TEXT,
			last_updated INTEGER
		);
	`)
	require.NoError(t, err)

	historyDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { historyDB.Close() })

	_, err = historyDB.Exec(`
		CREATE TABLE portfolio_snapshots (
			snap_date TEXT PRIMARY KEY,
			total_value REAL NOT NULL,
			cash_balance REAL NOT NULL,
			positions_value REAL NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return ledgerDB, historyDB
}

func newPortfolioService(t *testing.T, ledgerDB, historyDB *sql.DB) *Service {
	t.Helper()
	log := zerolog.Nop()
	return NewService(
		NewPositionRepository(ledgerDB, log),
		NewPortfolioRepository(ledgerDB, log),
		NewSnapshotRepository(historyDB, log),
		log,
	)
}

func TestPortfolioRepository_Ensure_Idempotent(t *testing.T) {
	ledgerDB, _ := setupPortfolioDBs(t)
	repo := NewPortfolioRepository(ledgerDB, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Ensure(ctx, 10000))

	// Re-running with a different seed must not reset an existing portfolio
	require.NoError(t, repo.Ensure(ctx, 99999))

	cash, err := repo.GetCash(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, cash, 1e-9)

	initial, err := repo.GetInitialValue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, initial, 1e-9)
}

func TestService_Summary(t *testing.T) {
	ledgerDB, historyDB := setupPortfolioDBs(t)
	ctx := context.Background()

	portfolioRepo := NewPortfolioRepository(ledgerDB, zerolog.Nop())
	require.NoError(t, portfolioRepo.Ensure(ctx, 10000))

	_, err := ledgerDB.Exec("UPDATE portfolio SET cash_balance = 7000 WHERE id = 1")
	require.NoError(t, err)
	_, err = ledgerDB.Exec("INSERT INTO positions (symbol, shares, current_price) VALUES ('XLF', 100, 30)")
	require.NoError(t, err)
	_, err = ledgerDB.Exec("INSERT INTO positions (symbol, shares, current_price) VALUES ('SPY', 10, 50)")
	require.NoError(t, err)

	svc := newPortfolioService(t, ledgerDB, historyDB)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 7000.0, summary.CashBalance, 1e-9)
	assert.InDelta(t, 3500.0, summary.PositionsValue, 1e-9)
	assert.InDelta(t, 10500.0, summary.TotalValue, 1e-9)
	assert.InDelta(t, 10000.0, summary.InitialValue, 1e-9)
	assert.InDelta(t, 0.05, summary.PercentChange, 1e-9)
}

func TestService_Performance(t *testing.T) {
	ledgerDB, historyDB := setupPortfolioDBs(t)
	ctx := context.Background()

	snapshotRepo := NewSnapshotRepository(historyDB, zerolog.Nop())
	series := []ValueSnapshot{
		{Date: "2026-08-18", TotalValue: 10000, CashBalance: 10000},
		{Date: "2026-08-19", TotalValue: 10100, CashBalance: 9000, PositionsValue: 1100},
		{Date: "2026-08-20", TotalValue: 9900, CashBalance: 9000, PositionsValue: 900},
		{Date: "2026-08-21", TotalValue: 10200, CashBalance: 9000, PositionsValue: 1200},
	}
	for _, snap := range series {
		require.NoError(t, snapshotRepo.Save(ctx, snap))
	}

	svc := newPortfolioService(t, ledgerDB, historyDB)

	stats, err := svc.Performance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Days)
	assert.InDelta(t, 0.02, stats.TotalReturn, 1e-9)
	// Deepest fall from the running peak: 10100 -> 9900
	assert.InDelta(t, 200.0/10100.0, stats.MaxDrawdown, 1e-9)
	assert.Greater(t, stats.DailyVolatility, 0.0)
}

func TestService_Performance_TooFewSnapshots(t *testing.T) {
	ledgerDB, historyDB := setupPortfolioDBs(t)
	ctx := context.Background()

	snapshotRepo := NewSnapshotRepository(historyDB, zerolog.Nop())
	require.NoError(t, snapshotRepo.Save(ctx, ValueSnapshot{Date: "2026-08-18", TotalValue: 10000}))

	svc := newPortfolioService(t, ledgerDB, historyDB)

	stats, err := svc.Performance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Days)
	assert.Zero(t, stats.TotalReturn)
	assert.Zero(t, stats.MaxDrawdown)
}

func TestSnapshotRepository_SaveOverwritesSameDay(t *testing.T) {
	_, historyDB := setupPortfolioDBs(t)
	ctx := context.Background()

	repo := NewSnapshotRepository(historyDB, zerolog.Nop())
	require.NoError(t, repo.Save(ctx, ValueSnapshot{Date: "2026-08-18", TotalValue: 10000}))
	require.NoError(t, repo.Save(ctx, ValueSnapshot{Date: "2026-08-18", TotalValue: 10050}))

	snaps, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 10050.0, snaps[0].TotalValue, 1e-9)
}
