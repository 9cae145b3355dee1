package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/historical"
	"github.com/aristath/ruhestand-sim/internal/marketdata"
)

// BacktestJob reruns the historical backtest against the latest cached
// market rows and logs the outcome. It exists so operators can see, at
// a glance each morning, whether yesterday's close changed the picture
// without opening the UI.
type BacktestJob struct {
	Store     *marketdata.Store
	Series    string
	StartYear int
	EndYear   int
	Portfolio domain.PortfolioState
	Strategy  domain.Strategy
	EngineCfg config.EngineConfig
	Log       zerolog.Logger
}

// Name identifies the job in scheduler logs.
func (j *BacktestJob) Name() string { return "backtest-rerun" }

// Run loads the cached rows and replays the backtest.
func (j *BacktestJob) Run() error {
	rows, err := j.Store.Load(j.Series, j.StartYear, j.EndYear)
	if err != nil {
		return fmt.Errorf("load market rows: %w", err)
	}
	if len(rows) == 0 {
		j.Log.Warn().Str("series", j.Series).Msg("no cached market rows, skipping rerun")
		return nil
	}

	report, err := historical.Run(j.Portfolio, j.Strategy, historical.Config{
		StartYear: j.StartYear, EndYear: j.EndYear, Rows: rows,
	}, j.EngineCfg)
	if err != nil {
		return fmt.Errorf("rerun backtest: %w", err)
	}

	j.Log.Info().
		Bool("success", report.Success).
		Float64("finalWealth", report.FinalWealth).
		Float64("avgFlexRate", report.AvgFlexRate).
		Msg("backtest rerun complete")

	return nil
}
