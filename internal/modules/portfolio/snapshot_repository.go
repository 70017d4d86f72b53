package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
)

// SnapshotRepository stores daily portfolio values in history.db
type SnapshotRepository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(historyDB *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "portfolio_snapshot").Logger(),
	}
}

// Save records one day's portfolio value. Re-running a day overwrites that
// day's row, so the series holds one value per date.
func (r *SnapshotRepository) Save(ctx context.Context, snap ValueSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (snap_date, total_value, cash_balance, positions_value, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(snap_date) DO UPDATE SET
			total_value = excluded.total_value,
			cash_balance = excluded.cash_balance,
			positions_value = excluded.positions_value,
			created_at = excluded.created_at
	`

	_, err := r.historyDB.ExecContext(ctx, query, snap.Date, snap.TotalValue, snap.CashBalance, snap.PositionsValue, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save portfolio snapshot: %w", database.StoreError(err))
	}

	return nil
}

// GetAll returns all snapshots in date order
func (r *SnapshotRepository) GetAll(ctx context.Context) ([]ValueSnapshot, error) {
	query := `
		SELECT snap_date, total_value, cash_balance, positions_value
		FROM portfolio_snapshots
		ORDER BY snap_date ASC
	`

	rows, err := r.historyDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio snapshots: %w", database.StoreError(err))
	}
	defer rows.Close()

	var snaps []ValueSnapshot
	for rows.Next() {
		var snap ValueSnapshot
		if err := rows.Scan(&snap.Date, &snap.TotalValue, &snap.CashBalance, &snap.PositionsValue); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio snapshots: %w", database.StoreError(err))
	}

	return snaps, nil
}
