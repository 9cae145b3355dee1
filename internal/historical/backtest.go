// Package historical implements the Historical Driver (spec §4.6): it
// iterates the Year Step across an ordered sequence of dated market
// rows, applying price growth between years before each decision, and
// accumulates a report of per-year snapshots and summary statistics.
package historical

import (
	"fmt"
	"math"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/engine/yearstep"
	"github.com/aristath/ruhestand-sim/internal/trend"
	"github.com/aristath/ruhestand-sim/internal/validation"
)

// trendWindow is the SMA period used for the report's trend diagnostic,
// long enough to smooth a single bad year without lagging a backtest's
// typical few-decade span.
const trendWindow = 5

// MarketRow is one dated year of market history.
type MarketRow struct {
	Year         int
	Index        float64
	InflationPct float64
	CAPERatio    *float64
	GoldPerfPct  *float64
}

// Config bundles the backtest window and its historical data.
type Config struct {
	StartYear int
	EndYear   int
	Rows      []MarketRow
}

// Report is the backtest's full output.
type Report struct {
	Success             bool
	FinalWealth         float64
	FinalAge            uint32
	YearsSimulated      int
	PortfolioDepletedAt *uint32
	Snapshots           []domain.YearSnapshot
	MinWealth           float64
	MaxWealth           float64
	TotalWithdrawals    float64
	AvgFlexRate         float64
	// Trend is a non-authoritative SMA read over the run's index values,
	// surfaced for a human operator's sanity check; the Year Step never
	// consults it.
	Trend trend.Diagnostic
}

// Run executes the backtest described in spec §4.6.
func Run(portfolio domain.PortfolioState, strategy domain.Strategy, cfg Config, engineCfg config.EngineConfig) (Report, error) {
	if len(cfg.Rows) == 0 {
		return Report{}, &domain.ConfigurationError{Message: "historical data is empty"}
	}
	if cfg.StartYear > cfg.EndYear {
		return Report{}, &domain.ConfigurationError{Message: "start_year must be <= end_year"}
	}
	expectedYears := cfg.EndYear - cfg.StartYear + 1
	if len(cfg.Rows) != expectedYears {
		return Report{}, &domain.ConfigurationError{
			Message: fmt.Sprintf("historical data length (%d) doesn't match year range (%d)", len(cfg.Rows), expectedYears),
		}
	}

	errs := validation.Validate(validation.Input{Portfolio: portfolio, Strategy: strategy, Market: domain.MarketContext{InflationPct: cfg.Rows[0].InflationPct}})
	if len(errs) > 0 {
		return Report{}, &domain.ValidationError{Errors: errs}
	}

	startAge := portfolio.Age
	state := domain.NewGuardrailState(portfolio.Liquidity() + portfolio.EquityLegacy.MarketValue + portfolio.EquityNew.MarketValue + goldValue(portfolio))

	report := Report{MinWealth: math.Inf(1), MaxWealth: 0}
	p := portfolio
	var prevIndex float64

	for i, row := range cfg.Rows {
		currentAge := startAge + uint32(i)

		mkt := domain.MarketContext{
			IndexCurrent: row.Index,
			InflationPct: row.InflationPct,
			CAPERatio:    row.CAPERatio,
		}
		if i >= 1 {
			mkt.IndexPrior1 = cfg.Rows[i-1].Index
		}
		if i >= 2 {
			mkt.IndexPrior2 = cfg.Rows[i-2].Index
		}
		if i >= 3 {
			mkt.IndexPrior3 = cfg.Rows[i-3].Index
		}

		ath := 0.0
		for j := 0; j <= i; j++ {
			ath = math.Max(ath, cfg.Rows[j].Index)
		}
		mkt.AllTimeHigh = ath

		yearsSinceATH := 0.0
		for j := i; j >= 0; j-- {
			if cfg.Rows[j].Index >= ath*0.99 {
				break
			}
			yearsSinceATH++
		}

		if i == 0 {
			prevIndex = row.Index
		}
		growth := 1.0
		if prevIndex > 0 {
			growth = row.Index / prevIndex
		}
		goldGrowth := 1 + row.InflationPct/100
		if row.GoldPerfPct != nil {
			goldGrowth = 1 + *row.GoldPerfPct/100
		}

		p.EquityLegacy.MarketValue *= growth
		p.EquityNew.MarketValue *= growth
		if p.Gold.Active {
			p.Gold.MarketValue *= goldGrowth
		}
		p.Age = currentAge

		out := yearstep.Run(yearstep.Input{
			Portfolio: p, Strategy: strategy, Market: mkt,
			YearsSinceATH: yearsSinceATH, CAPE: row.CAPERatio, Year: row.Year,
		}, state, engineCfg)

		state = out.GuardrailState
		p = out.Portfolio
		prevIndex = row.Index

		report.Snapshots = append(report.Snapshots, out.Snapshot)
		report.TotalWithdrawals += out.Snapshot.Withdrawal
		report.MinWealth = math.Min(report.MinWealth, out.Snapshot.TotalWealth)
		report.MaxWealth = math.Max(report.MaxWealth, out.Snapshot.TotalWealth)

		if out.Snapshot.TotalWealth <= 0 {
			age := currentAge
			report.PortfolioDepletedAt = &age
			report.FinalWealth = out.Snapshot.TotalWealth
			report.FinalAge = currentAge
			report.YearsSimulated = i + 1
			report.Success = false
			report.AvgFlexRate = averageFlexRate(report.Snapshots)
			report.Trend = trend.Analyze(indexSeries(cfg.Rows[:i+1]), trendWindow)
			return report, nil
		}
	}

	report.Success = true
	report.FinalWealth = p.EquityLegacy.MarketValue + p.EquityNew.MarketValue + goldValue(p) + p.Liquidity()
	report.FinalAge = startAge + uint32(len(cfg.Rows)-1)
	report.YearsSimulated = len(cfg.Rows)
	report.AvgFlexRate = averageFlexRate(report.Snapshots)
	report.Trend = trend.Analyze(indexSeries(cfg.Rows), trendWindow)

	return report, nil
}

func indexSeries(rows []MarketRow) []float64 {
	series := make([]float64, len(rows))
	for i, r := range rows {
		series[i] = r.Index
	}
	return series
}

func goldValue(p domain.PortfolioState) float64 {
	if !p.Gold.Active {
		return 0
	}
	return p.Gold.MarketValue
}

func averageFlexRate(snapshots []domain.YearSnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range snapshots {
		sum += s.FlexRate
	}
	return sum / float64(len(snapshots))
}
