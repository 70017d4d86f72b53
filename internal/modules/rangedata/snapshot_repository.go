package rangedata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// SnapshotRepository archives ingested range snapshots in history.db.
// Snapshots are immutable: re-ingesting a (symbol, date) pair is a no-op.
type SnapshotRepository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewSnapshotRepository creates a new range snapshot repository
func NewSnapshotRepository(historyDB *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "range_snapshot").Logger(),
	}
}

// Save archives a snapshot. The annotations blob is stored byte-for-byte;
// it is never parsed here or anywhere downstream.
func (r *SnapshotRepository) Save(ctx context.Context, snap domain.RangeSnapshot) error {
	query := `
		INSERT INTO range_snapshots
		(symbol, trade_date, current_price, open_price, range_low, range_high, annotations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, trade_date) DO NOTHING
	`

	var annotations sql.NullString
	if len(snap.Annotations) > 0 {
		annotations = sql.NullString{String: string(snap.Annotations), Valid: true}
	}

	_, err := r.historyDB.ExecContext(ctx, query,
		snap.Symbol,
		snap.TradeDate,
		snap.CurrentPrice,
		snap.OpenPrice,
		snap.RangeLow,
		snap.RangeHigh,
		annotations,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save range snapshot: %w", database.StoreError(err))
	}

	return nil
}

// GetBySymbol returns a ticker's archived snapshots in date order
func (r *SnapshotRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]domain.RangeSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT symbol, trade_date, current_price, open_price, range_low, range_high, annotations
		FROM range_snapshots
		WHERE symbol = ?
		ORDER BY trade_date ASC
		LIMIT ?
	`

	rows, err := r.historyDB.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query range snapshots: %w", database.StoreError(err))
	}
	defer rows.Close()

	var snaps []domain.RangeSnapshot
	for rows.Next() {
		var snap domain.RangeSnapshot
		var annotations sql.NullString
		if err := rows.Scan(&snap.Symbol, &snap.TradeDate, &snap.CurrentPrice, &snap.OpenPrice,
			&snap.RangeLow, &snap.RangeHigh, &annotations); err != nil {
			return nil, fmt.Errorf("failed to scan range snapshot: %w", err)
		}
		if annotations.Valid {
			snap.Annotations = []byte(annotations.String)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating range snapshots: %w", database.StoreError(err))
	}

	return snaps, nil
}
