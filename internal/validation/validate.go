// Package validation implements the pure boundary predicate: given a
// household's portfolio/strategy input, it returns the list of
// out-of-range fields. The engine refuses to run while this is non-empty.
package validation

import (
	"github.com/aristath/ruhestand-sim/internal/domain"
)

// Input bundles exactly the fields validation inspects, independent of
// how the caller assembles PortfolioState/Strategy/MarketContext.
type Input struct {
	Portfolio domain.PortfolioState
	Strategy  domain.Strategy
	Market    domain.MarketContext
}

// Validate returns one FieldError per out-of-range value. An empty slice
// means the input is safe to simulate.
func Validate(in Input) []domain.FieldError {
	var errs []domain.FieldError

	check := func(condition bool, field, msg string) {
		if condition {
			errs = append(errs, domain.FieldError{Field: field, Message: msg})
		}
	}

	p := in.Portfolio
	s := in.Strategy

	check(p.Age < 18 || p.Age > 120, "age", "age must be between 18 and 120")
	check(in.Market.InflationPct < -10 || in.Market.InflationPct > 50, "inflationPct", "inflation outside plausible bounds (-10% to 50%)")

	check(p.CashTagesgeld < 0, "cashTagesgeld", "value must not be negative")
	check(p.CashMoneyMarket < 0, "cashMoneyMarket", "value must not be negative")
	check(p.EquityLegacy.MarketValue < 0, "equityLegacy.marketValue", "value must not be negative")
	check(p.EquityNew.MarketValue < 0, "equityNew.marketValue", "value must not be negative")
	check(p.Gold.MarketValue < 0, "gold.marketValue", "value must not be negative")
	check(p.FloorNeed < 0, "floorNeed", "value must not be negative")
	check(p.FlexNeed < 0, "flexNeed", "value must not be negative")
	check(p.EquityLegacy.CostBasis < 0, "equityLegacy.costBasis", "value must not be negative")
	check(p.EquityNew.CostBasis < 0, "equityNew.costBasis", "value must not be negative")
	check(p.Gold.CostBasis < 0, "gold.costBasis", "value must not be negative")
	check(p.Tax.AnnualAllowance < 0, "tax.annualAllowance", "value must not be negative")

	check(in.Market.IndexCurrent < 0, "market.indexCurrent", "market data must not be negative")
	check(in.Market.AllTimeHigh < 0, "market.allTimeHigh", "market data must not be negative")

	if p.Gold.Active {
		check(p.Gold.TargetPct <= 0 || p.Gold.TargetPct > 50, "gold.targetPct", "target allocation unrealistic (0-50%)")
		check(p.Gold.FloorPct < 0 || p.Gold.FloorPct > 20, "gold.floorPct", "floor percentage unrealistic (0-20%)")
	}

	check(s.RunwayMinMonths < 12 || s.RunwayMinMonths > 60, "strategy.runwayMinMonths", "runway minimum must be between 12 and 60 months")
	check(s.RunwayTargetMonths < 18 || s.RunwayTargetMonths > 72, "strategy.runwayTargetMonths", "runway target must be between 18 and 72 months")
	check(s.RunwayTargetMonths < s.RunwayMinMonths, "strategy.runwayTargetMonths", "runway target must not be smaller than the minimum")

	check(s.EquityTargetPct < 20 || s.EquityTargetPct > 90, "strategy.equityTargetPct", "equity target quota must be between 20% and 90%")
	check(s.RebalanceBandPct < 1 || s.RebalanceBandPct > 20, "strategy.rebalanceBandPct", "rebalance band must be between 1% and 20%")
	check(s.MaxSkimPct < 0 || s.MaxSkimPct > 50, "strategy.maxSkimPct", "max skim must be between 0% and 50%")
	check(s.MaxBearRefillPct < 0 || s.MaxBearRefillPct > 70, "strategy.maxBearRefillPct", "max bear refill must be between 0% and 70%")

	return errs
}
