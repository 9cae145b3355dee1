// Package tax implements the Tax-Aware Sale Allocator (spec §4.4): given
// a requested net proceeds target (or a forced gross target), it walks
// the household's tranches in sell order and computes, per tranche, the
// gross sale, the German capital-gains tax, and the net proceeds.
package tax

import (
	"math"
	"sort"

	"github.com/aristath/ruhestand-sim/internal/domain"
)

// KESt is the flat capital-gains tax rate (25%) plus the 5.5% solidarity
// surcharge on top of it; church tax is added per household via
// Request.ChurchTaxRate.
const kestBase = 0.25
const soliRate = 0.055

// tranche is one sellable bucket, carrying the partial-exemption factor
// (TQF) that applies to its kind.
type tranche struct {
	kind      domain.TrancheKind
	marketVal float64
	costBasis float64
	tqf       float64
}

// Request bundles one allocation call's inputs.
type Request struct {
	Portfolio domain.PortfolioState
	// RequestedNet is the net proceeds to raise; ignored when
	// ForceGrossAmount is positive.
	RequestedNet float64
	// ForceGrossAmount, when positive, targets a gross sale amount instead
	// of a net proceeds amount (used by rebalancing skims).
	ForceGrossAmount float64
	// MinGold floors how much of the gold tranche may be sold.
	MinGold float64
	// Budgets caps, by tranche kind, how much market value may be sold
	// from that tranche this call. A kind absent from the map is
	// unconstrained.
	Budgets map[domain.TrancheKind]float64
	// Defensive reorders gold ahead of equity in the sell order, used
	// during bear_deep and recovery_in_bear regimes and emergency sales.
	Defensive bool
	// ChurchTaxRate and EquityTQF configure the household's effective
	// tax rate and the equity partial-exemption factor.
	ChurchTaxRate float64
	EquityTQF     float64
	GoldTQF       float64
}

// Result is the sale allocator's output: the tax paid, gross raised, net
// achieved, and a per-tranche breakdown. Net proceeds may fall short of
// RequestedNet when the household's tranches run out before the target
// is met.
type Result struct {
	TaxTotal   float64
	GrossTotal float64
	NetTotal   float64
	Sources    []domain.SaleSource
}

// Allocate runs the sell-order loop described in spec §4.4.
func Allocate(req Request) Result {
	kest := kestBase * (1 + soliRate + req.ChurchTaxRate)

	tranches := buildTranches(req.Portfolio, req.EquityTQF, req.GoldTQF)
	sortBySellOrder(tranches, req.Defensive)

	var result Result
	remainingNet := math.Max(req.RequestedNet, 0)
	pauschRest := req.Portfolio.Tax.AnnualAllowance
	grossSoFar := 0.0

	for _, tr := range tranches {
		budgetCap := math.Inf(1)
		if req.Budgets != nil {
			if cap, ok := req.Budgets[tr.kind]; ok {
				budgetCap = cap
			}
		}

		maxGross := math.Min(tr.marketVal, budgetCap)
		if tr.kind == domain.TrancheGold {
			maxGross = math.Min(math.Max(req.Portfolio.Gold.MarketValue-req.MinGold, 0), maxGross)
		}
		if maxGross <= 0 {
			continue
		}

		if req.ForceGrossAmount > 0 && grossSoFar >= req.ForceGrossAmount {
			break
		}
		if req.ForceGrossAmount <= 0 && remainingNet <= 0.01 {
			break
		}

		gainQuote := 0.0
		if tr.marketVal > 0 {
			gainQuote = math.Max(tr.marketVal-tr.costBasis, 0) / tr.marketVal
		}

		var targetGross float64
		if req.ForceGrossAmount > 0 {
			targetGross = math.Min(req.ForceGrossAmount-grossSoFar, maxGross)
		} else {
			factor := gainQuote * (1 - tr.tqf) * kest
			needed := remainingNet / math.Max(1-factor, 0.01)
			targetGross = math.Min(needed, maxGross)
		}

		gross := targetGross
		gainGross := gross * gainQuote
		gainAfterTQF := gainGross * (1 - tr.tqf)
		usedAllowance := math.Min(pauschRest, gainAfterTQF)
		taxBasis := math.Max(gainAfterTQF-usedAllowance, 0)
		levied := taxBasis * kest
		net := gross - levied

		result.TaxTotal += levied
		result.GrossTotal += gross
		result.NetTotal += net
		grossSoFar += gross
		pauschRest -= usedAllowance
		remainingNet -= net

		result.Sources = append(result.Sources, domain.SaleSource{
			Kind: tr.kind, Gross: gross, Net: net, Tax: levied,
		})
	}

	return result
}

func buildTranches(p domain.PortfolioState, equityTQF, goldTQF float64) []tranche {
	var out []tranche
	if p.EquityLegacy.MarketValue > 0 {
		out = append(out, tranche{domain.TrancheEquityLegacy, p.EquityLegacy.MarketValue, p.EquityLegacy.CostBasis, equityTQF})
	}
	if p.EquityNew.MarketValue > 0 {
		out = append(out, tranche{domain.TrancheEquityNew, p.EquityNew.MarketValue, p.EquityNew.CostBasis, equityTQF})
	}
	if p.Gold.Active && p.Gold.MarketValue > 0 {
		out = append(out, tranche{domain.TrancheGold, p.Gold.MarketValue, p.Gold.CostBasis, goldTQF})
	}
	return out
}

// sortBySellOrder orders tranches gold-first when defensive, then by
// ascending taxable gain share (gain quote net of exemption) so the
// tranche with the smallest immediate tax drag sells first.
func sortBySellOrder(tranches []tranche, defensive bool) {
	sort.SliceStable(tranches, func(i, j int) bool {
		a, b := tranches[i], tranches[j]
		if defensive {
			if a.kind == domain.TrancheGold && b.kind != domain.TrancheGold {
				return true
			}
			if b.kind == domain.TrancheGold && a.kind != domain.TrancheGold {
				return false
			}
		}

		valA := efficiency(a)
		valB := efficiency(b)
		return valA < valB
	})
}

func efficiency(t tranche) float64 {
	if t.marketVal <= 0 {
		return 0
	}
	gainQuote := math.Max(t.marketVal-t.costBasis, 0) / t.marketVal
	return gainQuote * (1 - t.tqf)
}
