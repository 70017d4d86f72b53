package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/modules/portfolio"
)

// PortfolioSnapshotJob records the daily portfolio value into the history
// series that performance statistics are computed from
type PortfolioSnapshotJob struct {
	portfolioSvc *portfolio.Service
	timeout      time.Duration
	log          zerolog.Logger
}

// NewPortfolioSnapshotJob creates a new portfolio snapshot job
func NewPortfolioSnapshotJob(portfolioSvc *portfolio.Service, log zerolog.Logger) *PortfolioSnapshotJob {
	return &PortfolioSnapshotJob{
		portfolioSvc: portfolioSvc,
		timeout:      30 * time.Second,
		log:          log.With().Str("job", "portfolio_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *PortfolioSnapshotJob) Name() string {
	return "portfolio_snapshot"
}

// Run records today's portfolio value snapshot
func (j *PortfolioSnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.portfolioSvc.RecordSnapshot(ctx)
}
