package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// tradesColumns avoids SELECT * so schema changes fail loudly.
// Column order must match scanTrade.
const tradesColumns = `id, order_id, symbol, side, signal, shares, price,
	position_before, position_after, cash_before, cash_after, trade_date, created_at`

// TradeRepository handles trade persistence in ledger.db. Records are
// append-only: there is no update or delete path.
type TradeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// CreateTx appends a trade record inside the commit transaction
func (r *TradeRepository) CreateTx(tx *sql.Tx, trade Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	query := `
		INSERT INTO trades
		(order_id, symbol, side, signal, shares, price,
		 position_before, position_after, cash_before, cash_after, trade_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		trade.OrderID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Side),
		string(trade.Signal),
		trade.Shares,
		trade.Price,
		trade.PositionBefore,
		trade.PositionAfter,
		trade.CashBefore,
		trade.CashAfter,
		trade.TradeDate,
		trade.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: trades.symbol") ||
			strings.Contains(err.Error(), "idx_trades_symbol_date") {
			return fmt.Errorf("trade already executed for %s on %s: %w", trade.Symbol, trade.TradeDate, domain.ErrDuplicateDecision)
		}
		return fmt.Errorf("failed to create trade: %w", database.StoreError(err))
	}

	return nil
}

// ExistsForDay reports whether a trade was already executed for the ticker
// on the given trading day
func (r *TradeRepository) ExistsForDay(ctx context.Context, symbol, tradeDate string) (bool, error) {
	query := "SELECT 1 FROM trades WHERE symbol = ? AND trade_date = ? LIMIT 1"

	var exists int
	err := r.ledgerDB.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(symbol)), tradeDate).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", database.StoreError(err))
	}

	return true, nil
}

// GetHistory retrieves trades in insertion order, optionally filtered by
// symbol, up to limit records
func (r *TradeRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + tradesColumns + " FROM trades"
	args := []interface{}{}
	if symbol != "" {
		query += " WHERE symbol = ?"
		args = append(args, strings.ToUpper(strings.TrimSpace(symbol)))
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.ledgerDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade history: %w", database.StoreError(err))
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", database.StoreError(err))
	}

	return trades, nil
}

// GetLast returns the most recent trade for a symbol, nil when none exists
func (r *TradeRepository) GetLast(ctx context.Context, symbol string) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE symbol = ? ORDER BY id DESC LIMIT 1"

	rows, err := r.ledgerDB.QueryContext(ctx, query, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to get last trade: %w", database.StoreError(err))
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	trade, err := scanTrade(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade: %w", err)
	}

	return &trade, nil
}

func scanTrade(rows *sql.Rows) (Trade, error) {
	var trade Trade
	var side, signal string
	var createdAt int64

	err := rows.Scan(
		&trade.ID,
		&trade.OrderID,
		&trade.Symbol,
		&side,
		&signal,
		&trade.Shares,
		&trade.Price,
		&trade.PositionBefore,
		&trade.PositionAfter,
		&trade.CashBefore,
		&trade.CashAfter,
		&trade.TradeDate,
		&createdAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Side = domain.TradeSide(side)
	trade.Signal = domain.Signal(signal)
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()

	return trade, nil
}
