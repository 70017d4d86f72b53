package trading

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
	"github.com/kpapad/rangekeeper/internal/modules/decisions"
	"github.com/kpapad/rangekeeper/internal/modules/portfolio"
)

// defaultStoreTimeout bounds every commit attempt so a wedged store
// surfaces as ErrStoreTimeout instead of hanging the caller
const defaultStoreTimeout = 10 * time.Second

// Executor applies accepted decisions to portfolio state.
//
// Cash is one pool shared by every ticker, so the whole
// read-validate-write sequence holds a portfolio-level lock and runs in a
// single ledger transaction: the decision transition, the trade record,
// the position update and the cash update commit together or not at all.
// There is no cancellation mid-trade; once validation passes the commit
// either fully succeeds or fully fails.
type Executor struct {
	ledgerDB      *sql.DB
	tradeRepo     *TradeRepository
	positionRepo  *portfolio.PositionRepository
	portfolioRepo *portfolio.PortfolioRepository
	decisionRepo  *decisions.Repository
	timeout       time.Duration

	mu  sync.Mutex // Serializes trades competing for the shared cash pool
	log zerolog.Logger
}

// NewExecutor creates a new trade executor
func NewExecutor(
	ledgerDB *sql.DB,
	tradeRepo *TradeRepository,
	positionRepo *portfolio.PositionRepository,
	portfolioRepo *portfolio.PortfolioRepository,
	decisionRepo *decisions.Repository,
	log zerolog.Logger,
) *Executor {
	return &Executor{
		ledgerDB:      ledgerDB,
		tradeRepo:     tradeRepo,
		positionRepo:  positionRepo,
		portfolioRepo: portfolioRepo,
		decisionRepo:  decisionRepo,
		timeout:       defaultStoreTimeout,
		log:           log.With().Str("service", "executor").Logger(),
	}
}

// AcceptAndExecute accepts the pending decision for (symbol, trade date)
// and applies the trade.
//
// The committed position and cash balance are re-read inside the
// transaction immediately before validation, never from a cached copy.
// On any failure nothing durable is written; the partially computed trade
// is simply discarded.
func (e *Executor) AcceptAndExecute(ctx context.Context, symbol, tradeDate string) (Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var trade Trade
	err := database.WithTransaction(ctx, e.ledgerDB, func(tx *sql.Tx) error {
		// Accepting the decision and applying its trade are one unit:
		// an accepted decision without a trade must never be observable.
		dec, err := e.decisionRepo.ResolveTx(tx, symbol, tradeDate, domain.DecisionAccepted)
		if err != nil {
			return err
		}

		rec := dec.Recommendation
		if !rec.Actionable() {
			return fmt.Errorf("decision for %s on %s recommends no trade", symbol, tradeDate)
		}

		positionBefore, err := e.positionRepo.GetTx(tx, symbol)
		if err != nil {
			return err
		}
		cashBefore, err := e.portfolioRepo.GetCashTx(tx)
		if err != nil {
			return err
		}

		side := rec.Side()
		cost := float64(rec.SharesToTrade) * rec.Price

		var positionAfter int64
		var cashAfter float64
		switch side {
		case domain.TradeSideSell:
			if rec.SharesToTrade > positionBefore {
				return fmt.Errorf("sell %d shares of %s with %d held: %w", rec.SharesToTrade, symbol, positionBefore, domain.ErrInsufficientShares)
			}
			positionAfter = positionBefore - rec.SharesToTrade
			cashAfter = cashBefore + cost
		case domain.TradeSideBuy:
			if cost > cashBefore {
				return fmt.Errorf("buy of %.2f with %.2f cash: %w", cost, cashBefore, domain.ErrInsufficientCash)
			}
			positionAfter = positionBefore + rec.SharesToTrade
			cashAfter = cashBefore - cost
		}

		trade = Trade{
			OrderID:        uuid.New().String(),
			Symbol:         dec.Symbol,
			Side:           side,
			Signal:         rec.Signal,
			Shares:         rec.SharesToTrade,
			Price:          rec.Price,
			PositionBefore: positionBefore,
			PositionAfter:  positionAfter,
			CashBefore:     cashBefore,
			CashAfter:      cashAfter,
			TradeDate:      tradeDate,
			CreatedAt:      time.Now().UTC(),
		}

		if err := e.tradeRepo.CreateTx(tx, trade); err != nil {
			return err
		}
		if err := e.positionRepo.ApplyTradeTx(tx, symbol, positionAfter, rec.Price); err != nil {
			return err
		}
		if err := e.portfolioRepo.UpdateCashTx(tx, cashAfter); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return Trade{}, err
	}

	e.log.Info().
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int64("shares", trade.Shares).
		Float64("price", trade.Price).
		Float64("cash_after", trade.CashAfter).
		Msg("Trade executed")

	return trade, nil
}
