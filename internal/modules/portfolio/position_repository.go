package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
)

// positionsColumns avoids SELECT * so schema changes fail loudly.
// Column order must match scanPosition.
const positionsColumns = `symbol, shares, current_price, annotations, last_updated`

// PositionRepository handles position database operations against ledger.db
type PositionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(ledgerDB *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "position").Logger(),
	}
}

// GetAll returns all positions, symbol ordered
func (r *PositionRepository) GetAll(ctx context.Context) ([]Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions ORDER BY symbol ASC"

	rows, err := r.ledgerDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", database.StoreError(err))
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", database.StoreError(err))
	}

	return positions, nil
}

// GetBySymbol returns a position by symbol, nil when the ticker has never
// been held
func (r *PositionRepository) GetBySymbol(ctx context.Context, symbol string) (*Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE symbol = ?"

	rows, err := r.ledgerDB.QueryContext(ctx, query, normalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", database.StoreError(err))
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	pos, err := scanPosition(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &pos, nil
}

// LatestState returns the committed shares and price for a ticker.
// A never-held ticker is a zero position, not an error.
func (r *PositionRepository) LatestState(ctx context.Context, symbol string) (shares int64, price float64, err error) {
	pos, err := r.GetBySymbol(ctx, symbol)
	if err != nil {
		return 0, 0, err
	}
	if pos == nil {
		return 0, 0, nil
	}
	return pos.Shares, pos.CurrentPrice, nil
}

// RefreshPrice updates the stored market price for a held ticker from the
// day's snapshot. Annotations ride along unchanged and uninterpreted.
func (r *PositionRepository) RefreshPrice(ctx context.Context, symbol string, price float64, annotations []byte) error {
	query := `
		UPDATE positions
		SET current_price = ?, annotations = COALESCE(?, annotations), last_updated = ?
		WHERE symbol = ?
	`

	_, err := r.ledgerDB.ExecContext(ctx, query, price, nullBytes(annotations), time.Now().Unix(), normalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to refresh price for %s: %w", symbol, database.StoreError(err))
	}

	return nil
}

// GetTx reads a position's shares inside an open transaction. Used by the
// trade executor so validation sees committed state, not a stale copy.
func (r *PositionRepository) GetTx(tx *sql.Tx, symbol string) (int64, error) {
	var shares int64
	err := tx.QueryRow("SELECT shares FROM positions WHERE symbol = ?", normalizeSymbol(symbol)).Scan(&shares)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read position for %s: %w", symbol, database.StoreError(err))
	}
	return shares, nil
}

// ApplyTradeTx writes the post-trade share count and price inside the trade
// transaction
func (r *PositionRepository) ApplyTradeTx(tx *sql.Tx, symbol string, shares int64, price float64) error {
	query := `
		INSERT INTO positions (symbol, shares, current_price, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			shares = excluded.shares,
			current_price = excluded.current_price,
			last_updated = excluded.last_updated
	`

	_, err := tx.Exec(query, normalizeSymbol(symbol), shares, price, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to apply trade to position %s: %w", symbol, database.StoreError(err))
	}

	return nil
}

func scanPosition(rows *sql.Rows) (Position, error) {
	var pos Position
	var annotations sql.NullString
	var lastUpdated sql.NullInt64

	if err := rows.Scan(&pos.Symbol, &pos.Shares, &pos.CurrentPrice, &annotations, &lastUpdated); err != nil {
		return pos, err
	}

	if annotations.Valid {
		pos.Annotations = []byte(annotations.String)
	}
	if lastUpdated.Valid {
		pos.LastUpdated = time.Unix(lastUpdated.Int64, 0).UTC()
	}
	pos.MarketValue = float64(pos.Shares) * pos.CurrentPrice

	return pos, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func nullBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: string(b), Valid: true}
}
