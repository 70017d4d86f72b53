package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/domain"
	"github.com/kpapad/rangekeeper/internal/modules/planning"
)

// DecisionCycleJob runs the daily decision cycle for the current trading
// day. The cycle itself is idempotent, so a retriggered run is harmless.
type DecisionCycleJob struct {
	planningSvc *planning.Service
	timeout     time.Duration
	log         zerolog.Logger
}

// NewDecisionCycleJob creates a new decision cycle job
func NewDecisionCycleJob(planningSvc *planning.Service, log zerolog.Logger) *DecisionCycleJob {
	return &DecisionCycleJob{
		planningSvc: planningSvc,
		timeout:     5 * time.Minute,
		log:         log.With().Str("job", "decision_cycle").Logger(),
	}
}

// Name returns the job name
func (j *DecisionCycleJob) Name() string {
	return "decision_cycle"
}

// Run executes the decision cycle for today
func (j *DecisionCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tradeDate := time.Now().UTC().Format(domain.TradeDateFormat)

	result, err := j.planningSvc.RunCycle(ctx, tradeDate)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("trade_date", result.TradeDate).
		Int("proposed", result.Proposed).
		Msg("Scheduled decision cycle finished")

	return nil
}
