// Package action implements the Target-Liquidity & Action Selector
// (spec §4.3): it derives the year's target liquidity buffer and, by
// comparing it against projected liquidity after spending, decides
// between an emergency refill, a normal refill, a surplus investment,
// or no action at all.
package action

import (
	"math"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/engine/tax"
)

// minTradeAmount is the smallest surplus worth investing; below this the
// action selector declines to trade to avoid needless tax events.
const minTradeAmount = 25000.0

// liquidityHysteresis is the smallest refill gap worth acting on.
const liquidityHysteresis = 2000.0

// TargetLiquidity returns the year's liquidity buffer target: the larger
// of a minimum two-month buffer and a regime-scaled runway target,
// rounded up to the nearest 100. Only the two bear regimes widen the
// months target beyond the strategy's own runway_target_months.
func TargetLiquidity(strategy domain.Strategy, regime domain.MarketRegime, inflatedFloor, inflatedFlex float64) float64 {
	monthsTarget := strategy.RunwayTargetMonths
	if regime.Tag.IsBear() {
		monthsTarget = math.Max(monthsTarget, 48)
	}

	annualNeed := inflatedFloor + inflatedFlex
	minBuffer := (annualNeed / 12) * 2
	rawTarget := math.Max(annualNeed*monthsTarget/12, minBuffer)

	return math.Ceil(rawTarget/100) * 100
}

// Select decides the year's action given current liquidity, the target,
// the spending plan, and the market regime.
func Select(
	portfolio domain.PortfolioState,
	strategy domain.Strategy,
	regime domain.MarketRegime,
	plan domain.SpendingPlan,
	inflatedFloor float64,
	targetLiquidity float64,
	minGold float64,
	cfg config.EngineConfig,
) domain.TransactionAction {
	currentLiquidity := portfolio.Liquidity()

	equityTQF := portfolio.Tax.EquityTQF
	if equityTQF <= 0 {
		equityTQF = cfg.Tax.EquityTQF
	}

	crisisMin := (inflatedFloor / 12) * strategy.RunwayMinMonths

	if regime.Tag.IsBear() && currentLiquidity <= crisisMin {
		requestedNet := math.Max(crisisMin-currentLiquidity, inflatedFloor)

		sale := tax.Allocate(tax.Request{
			Portfolio:     portfolio,
			RequestedNet:  requestedNet,
			MinGold:       minGold,
			Defensive:     true,
			ChurchTaxRate: portfolio.Tax.ChurchTaxRate,
			EquityTQF:     equityTQF,
			GoldTQF:       cfg.Tax.GoldTQF,
		})

		return domain.TransactionAction{
			Kind:       domain.ActionEmergencyRefill,
			Sources:    sale.Sources,
			Uses:       domain.Uses{ToLiquidity: sale.NetTotal},
			TaxTotal:   sale.TaxTotal,
			GrossTotal: sale.GrossTotal,
			NetTotal:   sale.NetTotal,
		}
	}

	effectiveLiquidity := currentLiquidity - plan.TotalWithdrawal
	gap := targetLiquidity - effectiveLiquidity

	if gap > 0 {
		liquidityNeed := quantize(gap, "ceil")
		if liquidityNeed < liquidityHysteresis {
			return domain.TransactionAction{Kind: domain.ActionNone}
		}

		sale := tax.Allocate(tax.Request{
			Portfolio:     portfolio,
			RequestedNet:  liquidityNeed,
			MinGold:       minGold,
			Defensive:     regime.Tag.IsBear(),
			ChurchTaxRate: portfolio.Tax.ChurchTaxRate,
			EquityTQF:     equityTQF,
			GoldTQF:       cfg.Tax.GoldTQF,
		})

		return domain.TransactionAction{
			Kind:       domain.ActionRefill,
			Sources:    sale.Sources,
			Uses:       domain.Uses{ToLiquidity: sale.NetTotal},
			TaxTotal:   sale.TaxTotal,
			GrossTotal: sale.GrossTotal,
			NetTotal:   sale.NetTotal,
		}
	}

	surplus := -gap
	if surplus > minTradeAmount && !regime.Tag.IsBear() {
		totalAssets := portfolio.EquityLegacy.MarketValue + portfolio.EquityNew.MarketValue + portfolio.Gold.MarketValue + surplus

		desiredGold := 0.0
		if portfolio.Gold.Active {
			desiredGold = math.Max(totalAssets*(portfolio.Gold.TargetPct/100)-portfolio.Gold.MarketValue, 0)
		}

		investGold := math.Min(desiredGold, surplus)
		investEquity := surplus - investGold

		return domain.TransactionAction{
			Kind: domain.ActionInvest,
			Uses: domain.Uses{ToEquity: investEquity, ToGold: investGold},
		}
	}

	return domain.TransactionAction{Kind: domain.ActionNone}
}

// quantize rounds amount to an anti-pseudo-accuracy step that widens as
// the amount grows, then rounds in the requested direction.
func quantize(amount float64, mode string) float64 {
	step := 25000.0
	switch {
	case amount < 10000:
		step = 1000
	case amount < 50000:
		step = 5000
	case amount < 200000:
		step = 10000
	}

	if mode == "ceil" {
		return math.Ceil(amount/step) * step
	}
	return math.Floor(amount/step) * step
}
