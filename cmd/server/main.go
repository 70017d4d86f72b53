// Package main is the entry point for Rangekeeper, a risk-range trading
// decision engine. It ingests daily range snapshots, derives sized trade
// recommendations, tracks human accept/decline decisions, and keeps an
// append-only ledger of executed trades.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kpapad/rangekeeper/internal/config"
	"github.com/kpapad/rangekeeper/internal/database"
	"github.com/kpapad/rangekeeper/internal/modules/decisions"
	"github.com/kpapad/rangekeeper/internal/modules/planning"
	planninghandlers "github.com/kpapad/rangekeeper/internal/modules/planning/handlers"
	"github.com/kpapad/rangekeeper/internal/modules/portfolio"
	portfoliohandlers "github.com/kpapad/rangekeeper/internal/modules/portfolio/handlers"
	"github.com/kpapad/rangekeeper/internal/modules/rangedata"
	"github.com/kpapad/rangekeeper/internal/modules/trading"
	tradinghandlers "github.com/kpapad/rangekeeper/internal/modules/trading/handlers"
	"github.com/kpapad/rangekeeper/internal/reliability"
	"github.com/kpapad/rangekeeper/internal/scheduler"
	"github.com/kpapad/rangekeeper/internal/server"
	"github.com/kpapad/rangekeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Rangekeeper")

	// ledger.db carries money state and gets the maximum-safety profile;
	// history.db holds derived time series
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	for _, db := range []*database.DB{ledgerDB, historyDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories
	positionRepo := portfolio.NewPositionRepository(ledgerDB.Conn(), log)
	portfolioRepo := portfolio.NewPortfolioRepository(ledgerDB.Conn(), log)
	valueSnapshotRepo := portfolio.NewSnapshotRepository(historyDB.Conn(), log)
	decisionRepo := decisions.NewRepository(ledgerDB.Conn(), log)
	tradeRepo := trading.NewTradeRepository(ledgerDB.Conn(), log)
	rangeSnapshotRepo := rangedata.NewSnapshotRepository(historyDB.Conn(), log)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := portfolioRepo.Ensure(startupCtx, cfg.InitialCash); err != nil {
		cancelStartup()
		log.Fatal().Err(err).Msg("Failed to initialize portfolio")
	}
	cancelStartup()

	// Services
	portfolioSvc := portfolio.NewService(positionRepo, portfolioRepo, valueSnapshotRepo, log)
	decisionSvc := decisions.NewService(decisionRepo, ledgerDB.Conn(), log)
	executor := trading.NewExecutor(ledgerDB.Conn(), tradeRepo, positionRepo, portfolioRepo, decisionRepo, log)
	rangeProvider := rangedata.NewFileProvider(cfg.SnapshotDir, log)
	planningSvc := planning.NewService(rangeProvider, rangeSnapshotRepo, positionRepo, portfolioSvc, decisionSvc, cfg.Rules, log)

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.CycleSchedule, scheduler.NewDecisionCycleJob(planningSvc, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register decision cycle job")
	}
	if err := sched.AddJob("0 22 * * MON-FRI", scheduler.NewPortfolioSnapshotJob(portfolioSvc, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register portfolio snapshot job")
	}

	if cfg.Backup != nil {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage client")
		}
		backupSvc := reliability.NewBackupService(s3Client, ledgerDB.Conn(), historyDB.Conn(), cfg.DataDir, cfg.Backup.Retention, log)
		if err := sched.AddJob(cfg.BackupSchedule, scheduler.NewBackupJob(backupSvc, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	} else {
		log.Warn().Msg("Off-site backups disabled, BACKUP_S3_ENDPOINT not set")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:               log,
		LedgerDB:          ledgerDB,
		HistoryDB:         historyDB,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		PortfolioHandlers: portfoliohandlers.NewHandler(portfolioSvc, log),
		TradingHandlers:   tradinghandlers.NewHandler(executor, decisionSvc, tradeRepo, log),
		PlanningHandlers:  planninghandlers.NewHandler(planningSvc, decisionSvc, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
	}

	log.Info().Msg("Rangekeeper stopped")
}
