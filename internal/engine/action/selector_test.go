package action

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

func mockStrategy() domain.Strategy {
	return domain.Strategy{
		RunwayMinMonths:    24,
		RunwayTargetMonths: 36,
		EquityTargetPct:    80,
		RebalanceBandPct:   5,
	}
}

func mockPortfolio() domain.PortfolioState {
	return domain.PortfolioState{
		Age:          60,
		CashTagesgeld: 5000,
		EquityLegacy: domain.Tranche{MarketValue: 100000, CostBasis: 50000},
		FloorNeed:    24000,
		FlexNeed:     10000,
		Tax:          domain.TaxParams{AnnualAllowance: 1000, EquityTQF: 0.30},
	}
}

func TestTargetLiquidity_WidensInBearRegime(t *testing.T) {
	strategy := mockStrategy()
	calm := TargetLiquidity(strategy, domain.MarketRegime{Tag: domain.RegimeSideLong}, 24000, 10000)
	bear := TargetLiquidity(strategy, domain.MarketRegime{Tag: domain.RegimeBearDeep}, 24000, 10000)

	assert.Greater(t, bear, calm)
}

func TestTargetLiquidity_CorrectionYoungDoesNotWiden(t *testing.T) {
	strategy := mockStrategy()
	calm := TargetLiquidity(strategy, domain.MarketRegime{Tag: domain.RegimeSideLong}, 24000, 10000)
	corrYoung := TargetLiquidity(strategy, domain.MarketRegime{Tag: domain.RegimeCorrectionYoung}, 24000, 10000)

	assert.Equal(t, calm, corrYoung)
}

func TestSelect_RefillWhenEffectiveLiquidityBelowTarget(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 5000

	plan := domain.SpendingPlan{TotalWithdrawal: 30000}
	regime := domain.MarketRegime{Tag: domain.RegimeSideLong}

	result := Select(p, mockStrategy(), regime, plan, 24000, 36000, 0, config.Default)

	assert.Equal(t, domain.ActionRefill, result.Kind)
	assert.NotEmpty(t, result.Sources)
}

func TestSelect_EmergencyRefillWhenBelowCrisisMinInBear(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 1000
	p.CashMoneyMarket = 0

	plan := domain.SpendingPlan{TotalWithdrawal: 0}
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep}

	result := Select(p, mockStrategy(), regime, plan, 24000, 36000, 0, config.Default)

	assert.Equal(t, domain.ActionEmergencyRefill, result.Kind)
}

func TestSelect_NoEmergencyRefillOutsideBear(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 1000

	plan := domain.SpendingPlan{TotalWithdrawal: 0}
	regime := domain.MarketRegime{Tag: domain.RegimeSideLong}

	result := Select(p, mockStrategy(), regime, plan, 24000, 36000, 0, config.Default)

	assert.NotEqual(t, domain.ActionEmergencyRefill, result.Kind)
}

func TestSelect_InvestsSurplusSplitByGoldTarget(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 80000
	p.Gold = domain.GoldHolding{Active: true, MarketValue: 0, TargetPct: 10, FloorPct: 2}

	plan := domain.SpendingPlan{TotalWithdrawal: 0}
	regime := domain.MarketRegime{Tag: domain.RegimeSideLong}

	result := Select(p, mockStrategy(), regime, plan, 24000, 30000, 0, config.Default)

	assert.Equal(t, domain.ActionInvest, result.Kind)
	assert.Greater(t, result.Uses.ToGold, 0.0)
	assert.Greater(t, result.Uses.ToEquity, 0.0)
}

func TestSelect_NoActionWhenSmallSurplusBelowMinTrade(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 45000

	plan := domain.SpendingPlan{TotalWithdrawal: 0}
	regime := domain.MarketRegime{Tag: domain.RegimeSideLong}

	result := Select(p, mockStrategy(), regime, plan, 24000, 36000, 0, config.Default)

	assert.Equal(t, domain.ActionNone, result.Kind)
}

func TestSelect_DeclinesToInvestSurplusDuringBear(t *testing.T) {
	p := mockPortfolio()
	p.CashTagesgeld = 100000

	plan := domain.SpendingPlan{TotalWithdrawal: 0}
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep}

	result := Select(p, mockStrategy(), regime, plan, 24000, 36000, 0, config.Default)

	assert.Equal(t, domain.ActionNone, result.Kind)
}
