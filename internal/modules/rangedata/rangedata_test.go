package rangedata

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/kpapad/rangekeeper/internal/domain"
)

func writeSnapshotFile(t *testing.T, dir, tradeDate, content string) {
	t.Helper()
	path := filepath.Join(dir, "snapshots-"+tradeDate+".json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFileProvider_FetchDaily(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "2026-08-24", `[
		{"symbol": "xlf", "current_price": 28, "open_price": 29, "range_low": 30, "range_high": 36},
		{"symbol": "SPY", "trade_date": "2026-08-24", "current_price": 50, "open_price": 49.5, "range_low": 48, "range_high": 52, "annotations": {"note": "upstream"}}
	]`)

	provider := NewFileProvider(dir, zerolog.Nop())
	batch, err := provider.FetchDaily(context.Background(), "2026-08-24")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	// Symbols are normalized and missing trade dates filled in
	assert.Equal(t, "XLF", batch[0].Symbol)
	assert.Equal(t, "2026-08-24", batch[0].TradeDate)
	assert.Equal(t, "SPY", batch[1].Symbol)
	assert.JSONEq(t, `{"note": "upstream"}`, string(batch[1].Annotations))
}

func TestFileProvider_DuplicateSymbolKeepsFirst(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "2026-08-24", `[
		{"symbol": "XLF", "current_price": 28, "open_price": 29, "range_low": 30, "range_high": 36},
		{"symbol": "xlf", "current_price": 99, "open_price": 99, "range_low": 90, "range_high": 100}
	]`)

	provider := NewFileProvider(dir, zerolog.Nop())
	batch, err := provider.FetchDaily(context.Background(), "2026-08-24")
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, 28.0, batch[0].CurrentPrice)
}

func TestFileProvider_MissingBatch(t *testing.T) {
	provider := NewFileProvider(t.TempDir(), zerolog.Nop())
	_, err := provider.FetchDaily(context.Background(), "2026-08-24")
	assert.Error(t, err)
}

func TestFileProvider_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "2026-08-24", `{not json`)

	provider := NewFileProvider(dir, zerolog.Nop())
	_, err := provider.FetchDaily(context.Background(), "2026-08-24")
	assert.Error(t, err)
}

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE range_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			current_price REAL NOT NULL CHECK (current_price > 0),
			open_price REAL NOT NULL CHECK (open_price >= 0),
			range_low REAL NOT NULL CHECK (range_low > 0),
			range_high REAL NOT NULL CHECK (range_high > range_low),
			annotations TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE (symbol, trade_date)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestSnapshotRepository_SaveImmutable(t *testing.T) {
	db := setupHistoryDB(t)
	repo := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()

	snap := domain.RangeSnapshot{
		Symbol:       "XLF",
		TradeDate:    "2026-08-24",
		CurrentPrice: 28,
		OpenPrice:    29,
		RangeLow:     30,
		RangeHigh:    36,
	}
	require.NoError(t, repo.Save(ctx, snap))

	// Re-ingesting the same day is a no-op, the first snapshot stays
	snap.CurrentPrice = 99
	require.NoError(t, repo.Save(ctx, snap))

	snaps, err := repo.GetBySymbol(ctx, "XLF", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 28.0, snaps[0].CurrentPrice)
}
