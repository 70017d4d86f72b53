package decisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// decisionsColumns order must match scanDecision
const decisionsColumns = `id, symbol, trade_date, status, signal, penetration_depth, price,
	shares_to_trade, target_position_value, current_position_value, created_at, resolved_at`

// Repository handles decision persistence in ledger.db
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new decision repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "decision").Logger(),
	}
}

// Create inserts a pending decision. The UNIQUE(symbol, trade_date) index
// is the authority on duplicates regardless of state.
func (r *Repository) Create(ctx context.Context, rec domain.Recommendation) (Decision, error) {
	dec := Decision{
		ID:             uuid.New().String(),
		Symbol:         strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		TradeDate:      rec.TradeDate,
		Status:         domain.DecisionPending,
		Recommendation: rec,
		CreatedAt:      time.Now().UTC(),
	}

	query := `
		INSERT INTO decisions
		(id, symbol, trade_date, status, signal, penetration_depth, price,
		 shares_to_trade, target_position_value, current_position_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.ExecContext(ctx, query,
		dec.ID,
		dec.Symbol,
		dec.TradeDate,
		string(dec.Status),
		string(rec.Signal),
		rec.PenetrationDepth,
		rec.Price,
		rec.SharesToTrade,
		rec.TargetPositionValue,
		rec.CurrentPositionValue,
		dec.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Decision{}, fmt.Errorf("%s on %s: %w", dec.Symbol, dec.TradeDate, domain.ErrDuplicateDecision)
		}
		return Decision{}, fmt.Errorf("failed to create decision: %w", database.StoreError(err))
	}

	r.log.Info().
		Str("symbol", dec.Symbol).
		Str("trade_date", dec.TradeDate).
		Str("signal", string(rec.Signal)).
		Int64("shares", rec.SharesToTrade).
		Msg("Decision proposed")

	return dec, nil
}

// Get retrieves the decision for (symbol, trade date)
func (r *Repository) Get(ctx context.Context, symbol, tradeDate string) (*Decision, error) {
	query := "SELECT " + decisionsColumns + " FROM decisions WHERE symbol = ? AND trade_date = ?"

	row := r.ledgerDB.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(symbol)), tradeDate)
	dec, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", database.StoreError(err))
	}

	return &dec, nil
}

// GetPending returns all unresolved decisions, oldest first
func (r *Repository) GetPending(ctx context.Context) ([]Decision, error) {
	query := "SELECT " + decisionsColumns + " FROM decisions WHERE status = ? ORDER BY created_at ASC, symbol ASC"

	rows, err := r.ledgerDB.QueryContext(ctx, query, string(domain.DecisionPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending decisions: %w", database.StoreError(err))
	}
	defer rows.Close()

	var decs []Decision
	for rows.Next() {
		dec, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decs = append(decs, dec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", database.StoreError(err))
	}

	return decs, nil
}

// GetTx reads a decision inside an open transaction
func (r *Repository) GetTx(tx *sql.Tx, symbol, tradeDate string) (*Decision, error) {
	query := "SELECT " + decisionsColumns + " FROM decisions WHERE symbol = ? AND trade_date = ?"

	row := tx.QueryRow(query, strings.ToUpper(strings.TrimSpace(symbol)), tradeDate)
	dec, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", database.StoreError(err))
	}

	return &dec, nil
}

// ResolveTx transitions a decision to a terminal state inside an open
// transaction. The first resolution wins; a second attempt reports
// ErrAlreadyResolved and the stored outcome stays put.
func (r *Repository) ResolveTx(tx *sql.Tx, symbol, tradeDate string, outcome domain.DecisionStatus) (Decision, error) {
	if !outcome.Terminal() {
		return Decision{}, fmt.Errorf("outcome %q is not a terminal decision status", outcome)
	}

	dec, err := r.GetTx(tx, symbol, tradeDate)
	if err != nil {
		return Decision{}, err
	}
	if dec == nil {
		return Decision{}, fmt.Errorf("no decision for %s on %s: %w", symbol, tradeDate, domain.ErrNotFound)
	}
	if dec.Status.Terminal() {
		return *dec, fmt.Errorf("decision for %s on %s is %s: %w", symbol, tradeDate, dec.Status, domain.ErrAlreadyResolved)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		"UPDATE decisions SET status = ?, resolved_at = ? WHERE id = ? AND status = ?",
		string(outcome), now.Unix(), dec.ID, string(domain.DecisionPending),
	)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to resolve decision: %w", database.StoreError(err))
	}

	dec.Status = outcome
	dec.ResolvedAt = &now
	return *dec, nil
}

func scanDecision(scan func(...interface{}) error) (Decision, error) {
	var dec Decision
	var status, signal string
	var createdAt int64
	var resolvedAt sql.NullInt64

	err := scan(
		&dec.ID,
		&dec.Symbol,
		&dec.TradeDate,
		&status,
		&signal,
		&dec.Recommendation.PenetrationDepth,
		&dec.Recommendation.Price,
		&dec.Recommendation.SharesToTrade,
		&dec.Recommendation.TargetPositionValue,
		&dec.Recommendation.CurrentPositionValue,
		&createdAt,
		&resolvedAt,
	)
	if err != nil {
		return dec, err
	}

	dec.Status = domain.DecisionStatus(status)
	dec.Recommendation.Symbol = dec.Symbol
	dec.Recommendation.TradeDate = dec.TradeDate
	dec.Recommendation.Signal = domain.Signal(signal)
	dec.CreatedAt = time.Unix(createdAt, 0).UTC()
	if resolvedAt.Valid {
		t := time.Unix(resolvedAt.Int64, 0).UTC()
		dec.ResolvedAt = &t
	}

	return dec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
