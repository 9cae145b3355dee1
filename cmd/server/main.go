package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/marketdata"
	"github.com/aristath/ruhestand-sim/internal/scheduler"
	"github.com/aristath/ruhestand-sim/internal/server"
	"github.com/aristath/ruhestand-sim/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	logger.SetGlobalLogger(log)

	log.Info().Msg("starting ruhestand-sim")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})

	store, err := marketdata.Open(cfg.MarketDataDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open market data store")
	}
	defer store.Close()

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := registerJobs(sched, store, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register background jobs")
	}

	srv := server.New(server.Config{
		Log:       log,
		EngineCfg: config.Default,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}

// registerJobs wires the scheduler's only current job: a nightly rerun
// of the historical backtest against whatever rows are cached, so
// operators can see in the logs whether yesterday's close moved the
// picture. The reference strategy/portfolio are placeholders until a
// persisted-profile store exists.
func registerJobs(sched *scheduler.Scheduler, store *marketdata.Store, log zerolog.Logger) error {
	job := &scheduler.BacktestJob{
		Store:     store,
		Series:    "sp500",
		StartYear: 1990,
		EndYear:   time.Now().Year() - 1,
		Portfolio: defaultPortfolio(),
		Strategy:  defaultStrategy(),
		EngineCfg: config.Default,
		Log:       log,
	}

	return sched.AddJob("0 0 6 * * *", job)
}

func defaultPortfolio() domain.PortfolioState {
	return domain.PortfolioState{
		Age:           65,
		CashTagesgeld: 60000,
		EquityLegacy:  domain.Tranche{MarketValue: 400000, CostBasis: 200000},
		EquityNew:     domain.Tranche{MarketValue: 100000, CostBasis: 100000},
		Gold:          domain.GoldHolding{Active: true, MarketValue: 50000, CostBasis: 40000, TargetPct: 8},
		FloorNeed:     24000,
		FlexNeed:      8000,
		Tax:           domain.TaxParams{AnnualAllowance: 1000, EquityTQF: 0.30},
	}
}

func defaultStrategy() domain.Strategy {
	return domain.Strategy{
		RunwayTargetMonths: 36,
		RunwayMinMonths:    24,
		EquityTargetPct:    80,
		RebalanceBandPct:   5,
	}
}
