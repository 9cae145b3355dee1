// Package yearstep composes the Market Analyzer, Spending Planner, and
// Target-Liquidity & Action Selector into a single pure function over one
// year (spec §4.5). It also evolves the portfolio's tranches according
// to the proportional cost-basis rule so callers can chain years.
package yearstep

import (
	"math"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/engine/action"
	"github.com/aristath/ruhestand-sim/internal/engine/market"
	"github.com/aristath/ruhestand-sim/internal/engine/spending"
)

// Input bundles everything one year needs.
type Input struct {
	Portfolio     domain.PortfolioState
	Strategy      domain.Strategy
	Market        domain.MarketContext
	YearsSinceATH float64
	CAPE          *float64
	Year          int
}

// Output is one year's full result: the new guardrail state to carry
// forward, the portfolio evolved by the year's transaction, and a
// reportable snapshot.
type Output struct {
	Regime       domain.MarketRegime
	SpendingPlan domain.SpendingPlan
	Action       domain.TransactionAction
	GuardrailState domain.GuardrailState
	Portfolio    domain.PortfolioState
	Snapshot     domain.YearSnapshot
}

// Run executes one Year Step: market analysis, spending plan, target
// liquidity and action selection, then tranche evolution.
func Run(in Input, prior domain.GuardrailState, cfg config.EngineConfig) Output {
	p := in.Portfolio

	state := prior
	if state.CumulativeInflationFactor <= 0 {
		state.CumulativeInflationFactor = 1
	}
	if state.LastInflationAppliedAge != p.Age {
		state.CumulativeInflationFactor *= 1 + in.Market.InflationPct/100
		state.LastInflationAppliedAge = p.Age
	}

	goldValue := 0.0
	if p.Gold.Active {
		goldValue = p.Gold.MarketValue
	}
	depotTotal := p.EquityLegacy.MarketValue + p.EquityNew.MarketValue + goldValue
	liquidity := p.Liquidity()
	totalWealth := depotTotal + liquidity

	minGoldAbs := 0.0
	if p.Gold.Active {
		minGoldAbs = (p.Gold.FloorPct / 100) * totalWealth
	}

	floorInflated := p.FloorNeed * state.CumulativeInflationFactor
	flexInflated := p.FlexNeed * state.CumulativeInflationFactor

	pensionAnnual := 0.0
	if p.Pension.Active {
		pensionAnnual = p.Pension.MonthlyAmount * 12
	}
	pensionSurplus := math.Max(0, pensionAnnual-floorInflated)
	inflatedFlex := math.Max(0, flexInflated-pensionSurplus)
	inflatedFloor := math.Max(0, floorInflated-pensionAnnual)

	annualNeed := inflatedFloor + inflatedFlex
	runwayMonthsPre := math.Inf(1)
	if annualNeed > 0 {
		runwayMonthsPre = liquidity / (annualNeed / 12)
	}

	regime := market.Analyze(in.Market, in.YearsSinceATH, in.CAPE, cfg)

	spendRes := spending.Plan(state, regime, spending.Inputs{
		InflatedFloor:   inflatedFloor,
		InflatedFlex:    inflatedFlex,
		RunwayMonths:    runwayMonthsPre,
		DepotTotal:      depotTotal,
		TotalWealth:     totalWealth,
		RunwayMinMonths: in.Strategy.RunwayMinMonths,
	}, cfg)

	targetLiquidity := action.TargetLiquidity(in.Strategy, regime, inflatedFloor, inflatedFlex)
	act := action.Select(p, in.Strategy, regime, spendRes.Plan, inflatedFloor, targetLiquidity, minGoldAbs, cfg)

	newPortfolio := applyAction(p, act, spendRes.Plan.TotalWithdrawal)

	postLiquidity := newPortfolio.Liquidity()
	runwayMonthsPost := math.Inf(1)
	if annualNeed > 0 {
		runwayMonthsPost = postLiquidity / (annualNeed / 12)
	}

	status := domain.RunwayBad
	switch {
	case runwayMonthsPost >= in.Strategy.RunwayTargetMonths:
		status = domain.RunwayOK
	case runwayMonthsPost >= in.Strategy.RunwayMinMonths:
		status = domain.RunwayWarn
	}

	postGoldValue := 0.0
	if newPortfolio.Gold.Active {
		postGoldValue = newPortfolio.Gold.MarketValue
	}
	postTotalWealth := newPortfolio.EquityLegacy.MarketValue + newPortfolio.EquityNew.MarketValue + postGoldValue + postLiquidity

	snapshot := domain.YearSnapshot{
		Year:            in.Year,
		Age:             p.Age,
		TotalWealth:     postTotalWealth,
		Liquidity:       postLiquidity,
		EquityLegacy:    newPortfolio.EquityLegacy.MarketValue,
		EquityNew:       newPortfolio.EquityNew.MarketValue,
		CostBasisLegacy: newPortfolio.EquityLegacy.CostBasis,
		CostBasisNew:    newPortfolio.EquityNew.CostBasis,
		GoldValue:       postGoldValue,
		FlexRate:        spendRes.Plan.FlexRate,
		AlarmActive:     spendRes.Plan.AlarmActive,
		RunwayMonths:    runwayMonthsPost,
		RunwayStatus:    status,
		Regime:          regime.Tag,
		MarketIndex:     in.Market.IndexCurrent,
		InflationPct:    in.Market.InflationPct,
		ActionKind:      act.Kind,
		Withdrawal:      spendRes.Plan.TotalWithdrawal,
		RefillNet:       act.NetTotal,
	}

	return Output{
		Regime:         regime,
		SpendingPlan:   spendRes.Plan,
		Action:         act,
		GuardrailState: spendRes.State,
		Portfolio:      newPortfolio,
		Snapshot:       snapshot,
	}
}

// applyAction evolves tranches and liquidity per the proportional
// cost-basis rule: sold tranches shrink market value and scale cost
// basis by the same fraction; bought tranches grow market value and
// cost basis by the purchased amount (bought at cost = bought at
// market). Withdrawal is always funded from liquidity.
func applyAction(p domain.PortfolioState, act domain.TransactionAction, withdrawal float64) domain.PortfolioState {
	out := p

	for _, src := range act.Sources {
		switch src.Kind {
		case domain.TrancheEquityLegacy:
			out.EquityLegacy = sellFrom(out.EquityLegacy, src.Gross)
		case domain.TrancheEquityNew:
			out.EquityNew = sellFrom(out.EquityNew, src.Gross)
		case domain.TrancheGold:
			g := sellFrom(domain.Tranche{MarketValue: out.Gold.MarketValue, CostBasis: out.Gold.CostBasis}, src.Gross)
			out.Gold.MarketValue = g.MarketValue
			out.Gold.CostBasis = g.CostBasis
		}
	}

	if act.Uses.ToEquity > 0 {
		out.EquityNew.MarketValue += act.Uses.ToEquity
		out.EquityNew.CostBasis += act.Uses.ToEquity
	}
	if act.Uses.ToGold > 0 {
		out.Gold.MarketValue += act.Uses.ToGold
		out.Gold.CostBasis += act.Uses.ToGold
	}

	netLiquidityChange := act.NetTotal - act.Uses.ToEquity - act.Uses.ToGold - withdrawal
	applyLiquidityDelta(&out, netLiquidityChange)

	return out
}

func sellFrom(t domain.Tranche, gross float64) domain.Tranche {
	if t.MarketValue <= 0 || gross <= 0 {
		return t
	}
	fraction := math.Min(gross, t.MarketValue) / t.MarketValue
	return domain.Tranche{
		MarketValue: t.MarketValue - gross,
		CostBasis:   t.CostBasis * (1 - fraction),
	}
}

// applyLiquidityDelta adds delta to the Tagesgeld bucket (the money-market
// bucket is left unchanged), unless an override is in effect in which
// case the override itself is adjusted.
func applyLiquidityDelta(p *domain.PortfolioState, delta float64) {
	if p.LiquidityOverride != nil {
		newVal := *p.LiquidityOverride + delta
		p.LiquidityOverride = &newVal
		return
	}
	p.CashTagesgeld += delta
}
