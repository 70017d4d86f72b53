// Package planning runs the daily decision cycle: ingest the day's range
// snapshots, evaluate and size a recommendation per ticker, and propose
// the actionable ones as pending decisions.
package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/domain"
	"github.com/kpapad/rangekeeper/internal/modules/decisions"
	"github.com/kpapad/rangekeeper/internal/modules/portfolio"
	"github.com/kpapad/rangekeeper/internal/modules/rangedata"
	"github.com/kpapad/rangekeeper/internal/modules/signals"
)

// CycleResult summarizes one decision cycle run
type CycleResult struct {
	TradeDate       string                  `json:"trade_date"`
	Evaluated       int                     `json:"evaluated"`
	Skipped         int                     `json:"skipped"`
	Proposed        int                     `json:"proposed"`
	Duplicates      int                     `json:"duplicates"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// Service runs decision cycles. A cycle is idempotent per trading day:
// rerunning it reports duplicates instead of stacking decisions.
type Service struct {
	provider     domain.RangeProvider
	snapshotRepo *rangedata.SnapshotRepository
	positionRepo *portfolio.PositionRepository
	portfolioSvc *portfolio.Service
	decisionSvc  *decisions.Service
	rules        domain.TradingRules
	log          zerolog.Logger
}

// NewService creates a new planning service
func NewService(
	provider domain.RangeProvider,
	snapshotRepo *rangedata.SnapshotRepository,
	positionRepo *portfolio.PositionRepository,
	portfolioSvc *portfolio.Service,
	decisionSvc *decisions.Service,
	rules domain.TradingRules,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider:     provider,
		snapshotRepo: snapshotRepo,
		positionRepo: positionRepo,
		portfolioSvc: portfolioSvc,
		decisionSvc:  decisionSvc,
		rules:        rules,
		log:          log.With().Str("service", "planning").Logger(),
	}
}

// RunCycle executes the decision cycle for one trading day.
//
// A malformed snapshot skips its ticker with a warning; the rest of the
// batch still runs. All recommendations are sized against the portfolio
// summary taken at the start of the cycle, so the batch reflects one
// consistent portfolio state. Actionable recommendations are proposed in
// priority order (deepest penetration first, symbol as tie-break) and a
// pre-existing decision for a ticker is reported, not an error.
func (s *Service) RunCycle(ctx context.Context, tradeDate string) (CycleResult, error) {
	result := CycleResult{TradeDate: tradeDate}

	snapshots, err := s.provider.FetchDaily(ctx, tradeDate)
	if err != nil {
		return result, fmt.Errorf("failed to fetch range snapshots: %w", err)
	}

	// Archive and refresh prices before the summary so sizing sees the
	// day's marks, not yesterday's.
	for _, snap := range snapshots {
		if err := snap.Validate(); err != nil {
			continue
		}
		if err := s.snapshotRepo.Save(ctx, snap); err != nil {
			s.log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("Failed to archive range snapshot")
		}
		if err := s.positionRepo.RefreshPrice(ctx, snap.Symbol, snap.CurrentPrice, snap.Annotations); err != nil {
			s.log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("Failed to refresh position price")
		}
	}

	summary, err := s.portfolioSvc.Summary(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to derive portfolio summary: %w", err)
	}

	var recs []domain.Recommendation
	for _, snap := range snapshots {
		if err := snap.Validate(); err != nil {
			result.Skipped++
			s.log.Warn().Err(err).
				Str("symbol", snap.Symbol).
				Str("trade_date", tradeDate).
				Msg("Skipping malformed snapshot")
			continue
		}

		shares, _, err := s.positionRepo.LatestState(ctx, snap.Symbol)
		if err != nil {
			return result, fmt.Errorf("failed to read position for %s: %w", snap.Symbol, err)
		}
		currentValue := float64(shares) * snap.CurrentPrice

		rec, err := signals.Evaluate(snap, currentValue)
		if err != nil {
			result.Skipped++
			s.log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("Skipping snapshot that failed evaluation")
			continue
		}

		rec, err = signals.Size(rec, summary, s.rules)
		if err != nil {
			return result, fmt.Errorf("failed to size recommendation for %s: %w", snap.Symbol, err)
		}

		result.Evaluated++
		recs = append(recs, rec)
	}

	// Deepest breach first; symbol breaks ties so the order is stable
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PenetrationDepth != recs[j].PenetrationDepth {
			return recs[i].PenetrationDepth > recs[j].PenetrationDepth
		}
		return recs[i].Symbol < recs[j].Symbol
	})
	result.Recommendations = recs

	for _, rec := range recs {
		if !rec.Actionable() {
			continue
		}
		if _, err := s.decisionSvc.Propose(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateDecision) {
				result.Duplicates++
				s.log.Info().
					Str("symbol", rec.Symbol).
					Str("trade_date", rec.TradeDate).
					Msg("Decision already exists, skipping proposal")
				continue
			}
			return result, fmt.Errorf("failed to propose decision for %s: %w", rec.Symbol, err)
		}
		result.Proposed++
	}

	s.log.Info().
		Str("trade_date", tradeDate).
		Int("evaluated", result.Evaluated).
		Int("skipped", result.Skipped).
		Int("proposed", result.Proposed).
		Int("duplicates", result.Duplicates).
		Msg("Decision cycle complete")

	return result, nil
}
