package decisions

import (
	"context"
	"database/sql"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/domain"
)

// Service is the decision tracker. It serializes proposal and resolution
// per symbol so two callers cannot race a decision through conflicting
// transitions.
type Service struct {
	repo     *Repository
	ledgerDB *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	log   zerolog.Logger
}

// NewService creates a new decision tracker
func NewService(repo *Repository, ledgerDB *sql.DB, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		ledgerDB: ledgerDB,
		locks:    make(map[string]*sync.Mutex),
		log:      log.With().Str("service", "decisions").Logger(),
	}
}

// symbolLock returns the mutex serializing operations on one ticker
func (s *Service) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[symbol] = lock
	}
	return lock
}

// Propose records a pending decision for (symbol, trade date).
// Any existing decision for the key, pending or resolved, reports
// ErrDuplicateDecision.
func (s *Service) Propose(ctx context.Context, rec domain.Recommendation) (Decision, error) {
	lock := s.symbolLock(rec.Symbol)
	lock.Lock()
	defer lock.Unlock()

	return s.repo.Create(ctx, rec)
}

// Resolve transitions a pending decision to the given terminal outcome.
// ErrNotFound when no decision exists; ErrAlreadyResolved when it is
// already terminal, so callers can tell a first resolution from a repeat.
func (s *Service) Resolve(ctx context.Context, symbol, tradeDate string, outcome domain.DecisionStatus) (Decision, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	var dec Decision
	err := database.WithTransaction(ctx, s.ledgerDB, func(tx *sql.Tx) error {
		var txErr error
		dec, txErr = s.repo.ResolveTx(tx, symbol, tradeDate, outcome)
		return txErr
	})
	if err != nil {
		return dec, err
	}

	s.log.Info().
		Str("symbol", symbol).
		Str("trade_date", tradeDate).
		Str("outcome", string(outcome)).
		Msg("Decision resolved")

	return dec, nil
}

// Get returns the decision for (symbol, trade date), nil when absent
func (s *Service) Get(ctx context.Context, symbol, tradeDate string) (*Decision, error) {
	return s.repo.Get(ctx, symbol, tradeDate)
}

// Pending returns all unresolved decisions
func (s *Service) Pending(ctx context.Context) ([]Decision, error) {
	return s.repo.GetPending(ctx)
}
