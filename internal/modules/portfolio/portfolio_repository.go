package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// PortfolioRepository owns the singleton portfolio row in ledger.db: the
// shared cash pool and the fixed initial value.
type PortfolioRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(ledgerDB *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "portfolio").Logger(),
	}
}

// Ensure creates the portfolio row on first startup. Idempotent; the
// initial value is fixed at creation and never rewritten.
func (r *PortfolioRepository) Ensure(ctx context.Context, initialCash float64) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO portfolio (id, cash_balance, initial_value, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err := r.ledgerDB.ExecContext(ctx, query, initialCash, initialCash, now, now)
	if err != nil {
		return fmt.Errorf("failed to ensure portfolio row: %w", database.StoreError(err))
	}

	return nil
}

// GetCash returns the current committed cash balance
func (r *PortfolioRepository) GetCash(ctx context.Context) (float64, error) {
	var cash float64
	err := r.ledgerDB.QueryRowContext(ctx, "SELECT cash_balance FROM portfolio WHERE id = 1").Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("portfolio row missing: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cash balance: %w", database.StoreError(err))
	}
	return cash, nil
}

// GetInitialValue returns the value fixed at portfolio creation
func (r *PortfolioRepository) GetInitialValue(ctx context.Context) (float64, error) {
	var initial float64
	err := r.ledgerDB.QueryRowContext(ctx, "SELECT initial_value FROM portfolio WHERE id = 1").Scan(&initial)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("portfolio row missing: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read initial value: %w", database.StoreError(err))
	}
	return initial, nil
}

// GetCashTx reads the committed cash balance inside an open transaction
func (r *PortfolioRepository) GetCashTx(tx *sql.Tx) (float64, error) {
	var cash float64
	err := tx.QueryRow("SELECT cash_balance FROM portfolio WHERE id = 1").Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("portfolio row missing: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cash balance: %w", database.StoreError(err))
	}
	return cash, nil
}

// UpdateCashTx writes the post-trade cash balance inside the trade
// transaction
func (r *PortfolioRepository) UpdateCashTx(tx *sql.Tx, newCash float64) error {
	result, err := tx.Exec("UPDATE portfolio SET cash_balance = ?, updated_at = ? WHERE id = 1", newCash, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", database.StoreError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cash update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("portfolio row missing: %w", domain.ErrNotFound)
	}

	return nil
}
