// Command simview is a terminal viewer for a historical backtest run: it
// drives the engine directly (no HTTP hop) and renders the year-by-year
// snapshot table alongside the summary stats a spreadsheet would bury.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/historical"
)

func main() {
	report, err := historical.Run(samplePortfolio(), sampleStrategy(), sampleConfig(), config.Default)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest failed: %v\n", err)
		os.Exit(1)
	}

	m := newModel(report)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func samplePortfolio() domain.PortfolioState {
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

func sampleStrategy() domain.Strategy {
	return domain.Strategy{
		RunwayTargetMonths: 36,
		RunwayMinMonths:    24,
		EquityTargetPct:    80,
		RebalanceBandPct:   5,
	}
}

func sampleConfig() historical.Config {
	rows := make([]historical.MarketRow, 0, 30)
	index := 100.0
	for year := 1994; year <= 2023; year++ {
		index *= 1.07
		rows = append(rows, historical.MarketRow{Year: year, Index: index, InflationPct: 2.2})
	}
	return historical.Config{StartYear: 1994, EndYear: 2023, Rows: rows}
}
