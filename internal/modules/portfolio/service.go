package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// Service orchestrates portfolio state queries.
//
// Responsibilities:
//   - Derive the portfolio summary (cash + market value of positions)
//   - Record daily value snapshots
//   - Compute performance statistics from the snapshot series
type Service struct {
	positionRepo  *PositionRepository
	portfolioRepo *PortfolioRepository
	snapshotRepo  *SnapshotRepository
	log           zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	positionRepo *PositionRepository,
	portfolioRepo *PortfolioRepository,
	snapshotRepo *SnapshotRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		positionRepo:  positionRepo,
		portfolioRepo: portfolioRepo,
		snapshotRepo:  snapshotRepo,
		log:           log.With().Str("service", "portfolio").Logger(),
	}
}

// Summary derives the current portfolio summary from committed state.
// total = cash + sum(shares * current price); percent change is measured
// against the initial value fixed at portfolio creation. Reads retry with
// bounded backoff; writes never do.
func (s *Service) Summary(ctx context.Context) (domain.PortfolioSummary, error) {
	var cash, initial float64
	var positions []Position

	err := database.RetryRead(ctx, 3, 50*time.Millisecond, func() error {
		var err error
		if cash, err = s.portfolioRepo.GetCash(ctx); err != nil {
			return fmt.Errorf("failed to get cash balance: %w", err)
		}
		if initial, err = s.portfolioRepo.GetInitialValue(ctx); err != nil {
			return fmt.Errorf("failed to get initial value: %w", err)
		}
		if positions, err = s.positionRepo.GetAll(ctx); err != nil {
			return fmt.Errorf("failed to get positions: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PortfolioSummary{}, err
	}

	var positionsValue float64
	for _, pos := range positions {
		positionsValue += pos.MarketValue
	}

	total := cash + positionsValue

	return domain.PortfolioSummary{
		CashBalance:    cash,
		PositionsValue: positionsValue,
		TotalValue:     total,
		InitialValue:   initial,
		PercentChange:  (total - initial) / initial,
	}, nil
}

// Positions returns all current positions
func (s *Service) Positions(ctx context.Context) ([]Position, error) {
	return s.positionRepo.GetAll(ctx)
}

// RecordSnapshot stores today's portfolio value in the history series
func (s *Service) RecordSnapshot(ctx context.Context) error {
	summary, err := s.Summary(ctx)
	if err != nil {
		return err
	}

	snap := ValueSnapshot{
		Date:           time.Now().UTC().Format(domain.TradeDateFormat),
		TotalValue:     summary.TotalValue,
		CashBalance:    summary.CashBalance,
		PositionsValue: summary.PositionsValue,
	}

	if err := s.snapshotRepo.Save(ctx, snap); err != nil {
		return err
	}

	s.log.Info().
		Str("date", snap.Date).
		Float64("total_value", snap.TotalValue).
		Msg("Portfolio snapshot recorded")

	return nil
}

// Performance computes return statistics over the daily snapshot series
func (s *Service) Performance(ctx context.Context) (PerformanceStats, error) {
	snaps, err := s.snapshotRepo.GetAll(ctx)
	if err != nil {
		return PerformanceStats{}, err
	}

	stats := PerformanceStats{Days: len(snaps)}
	if len(snaps) < 2 {
		return stats, nil
	}

	returns := make([]float64, 0, len(snaps)-1)
	for i := 1; i < len(snaps); i++ {
		prev := snaps[i-1].TotalValue
		if prev <= 0 {
			continue
		}
		returns = append(returns, (snaps[i].TotalValue-prev)/prev)
	}

	if len(returns) > 0 {
		stats.MeanDailyReturn = stat.Mean(returns, nil)
	}
	if len(returns) > 1 {
		stats.DailyVolatility = stat.StdDev(returns, nil)
	}

	// Max drawdown: deepest fall from a running peak
	peak := snaps[0].TotalValue
	for _, snap := range snaps {
		if snap.TotalValue > peak {
			peak = snap.TotalValue
		}
		if peak > 0 {
			drawdown := (peak - snap.TotalValue) / peak
			if drawdown > stats.MaxDrawdown {
				stats.MaxDrawdown = drawdown
			}
		}
	}

	first, last := snaps[0].TotalValue, snaps[len(snaps)-1].TotalValue
	if first > 0 {
		stats.TotalReturn = (last - first) / first
	}

	return stats, nil
}
