package yearstep

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

func basePortfolio() domain.PortfolioState {
	return domain.PortfolioState{
		Age:           60,
		CashTagesgeld: 100000,
		EquityLegacy:  domain.Tranche{MarketValue: 800000, CostBasis: 400000},
		FloorNeed:     30000,
		FlexNeed:      12000,
		Tax:           domain.TaxParams{AnnualAllowance: 1000, EquityTQF: 0.30},
	}
}

func baseStrategy() domain.Strategy {
	return domain.Strategy{
		RunwayMinMonths:    24,
		RunwayTargetMonths: 36,
		EquityTargetPct:    80,
		RebalanceBandPct:   5,
	}
}

func TestRun_CalmMarketProducesSensibleSnapshot(t *testing.T) {
	p := basePortfolio()
	strategy := baseStrategy()
	mkt := domain.MarketContext{
		IndexCurrent: 110, IndexPrior1: 100, AllTimeHigh: 110, InflationPct: 2.0,
	}
	cape := 25.0

	out := Run(Input{
		Portfolio: p, Strategy: strategy, Market: mkt,
		YearsSinceATH: 0, CAPE: &cape, Year: 2020,
	}, domain.NewGuardrailState(900000), config.Default)

	assert.GreaterOrEqual(t, out.SpendingPlan.FlexRate, 0.0)
	assert.LessOrEqual(t, out.SpendingPlan.FlexRate, 100.0)
	assert.Equal(t, domain.RegimePeakHot, out.Regime.Tag)
	assert.Equal(t, 2020, out.Snapshot.Year)
}

func TestRun_ConservesWealthAcrossSaleAndWithdrawal(t *testing.T) {
	p := basePortfolio()
	p.CashTagesgeld = 5000
	strategy := baseStrategy()
	mkt := domain.MarketContext{
		IndexCurrent: 75, IndexPrior1: 100, IndexPrior2: 100, IndexPrior3: 100,
		AllTimeHigh: 100, InflationPct: 2.0,
	}
	cape := 20.0

	prior := domain.NewGuardrailState(905000)

	out := Run(Input{
		Portfolio: p, Strategy: strategy, Market: mkt,
		YearsSinceATH: 1, CAPE: &cape, Year: 2021,
	}, prior, config.Default)

	before := p.EquityLegacy.MarketValue + p.Liquidity()
	after := out.Portfolio.EquityLegacy.MarketValue + out.Portfolio.Liquidity()

	consumed := out.Action.TaxTotal + out.Action.Uses.ToEquity + out.Action.Uses.ToGold + out.SpendingPlan.TotalWithdrawal

	assert.InDelta(t, before-consumed, after, 0.5)
}

func TestRun_PensionAboveFloorZeroesInflatedFloor(t *testing.T) {
	p := basePortfolio()
	p.Pension = domain.Pension{Active: true, MonthlyAmount: 3000}
	strategy := baseStrategy()
	mkt := domain.MarketContext{IndexCurrent: 100, IndexPrior1: 95, AllTimeHigh: 100, InflationPct: 2.0}
	cape := 20.0

	out := Run(Input{
		Portfolio: p, Strategy: strategy, Market: mkt,
		YearsSinceATH: 0, CAPE: &cape, Year: 2020,
	}, domain.NewGuardrailState(900000), config.Default)

	assert.Less(t, out.Snapshot.Withdrawal, p.FlexNeed*1.01)
}

func TestRun_GoldSoldFirstInBearRegimeEmergency(t *testing.T) {
	p := basePortfolio()
	p.CashTagesgeld = 1000
	p.Gold = domain.GoldHolding{Active: true, MarketValue: 50000, CostBasis: 30000, TargetPct: 10, FloorPct: 2}
	strategy := baseStrategy()
	mkt := domain.MarketContext{IndexCurrent: 60, AllTimeHigh: 100, InflationPct: 2.0}
	cape := 20.0

	out := Run(Input{
		Portfolio: p, Strategy: strategy, Market: mkt,
		YearsSinceATH: 1, CAPE: &cape, Year: 2009,
	}, domain.NewGuardrailState(900000), config.Default)

	assert.Equal(t, domain.ActionEmergencyRefill, out.Action.Kind)
	if assert.NotEmpty(t, out.Action.Sources) {
		assert.Equal(t, domain.TrancheGold, out.Action.Sources[0].Kind)
	}
}
