package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/ruhestand-sim/internal/domain"
)

func mockPortfolio() domain.PortfolioState {
	return domain.PortfolioState{
		Tax: domain.TaxParams{AnnualAllowance: 1000},
	}
}

func TestAllocate_GainIsTaxedNetOfExemptionAndAllowance(t *testing.T) {
	p := mockPortfolio()
	p.Tax.AnnualAllowance = 0
	p.EquityLegacy = domain.Tranche{MarketValue: 10000, CostBasis: 5000}

	res := Allocate(Request{
		Portfolio:     p,
		RequestedNet:  907.69,
		EquityTQF:     0.15,
		Budgets:       map[domain.TrancheKind]float64{domain.TrancheEquityLegacy: 10000},
	})

	assert.Len(t, res.Sources, 1)
	sale := res.Sources[0]
	assert.InDelta(t, 1022.3, sale.Gross, 1.0)
	assert.Greater(t, sale.Tax, 50.0)
}

func TestAllocate_NoTaxOnLossTranche(t *testing.T) {
	p := mockPortfolio()
	p.EquityLegacy = domain.Tranche{MarketValue: 8000, CostBasis: 10000}

	res := Allocate(Request{
		Portfolio:    p,
		RequestedNet: 1000,
		EquityTQF:    0.15,
		Budgets:      map[domain.TrancheKind]float64{domain.TrancheEquityLegacy: 10000},
	})

	assert.Len(t, res.Sources, 1)
	sale := res.Sources[0]
	assert.InDelta(t, 1000, sale.Gross, 5.0)
	assert.Equal(t, 0.0, sale.Tax)
}

func TestAllocate_DefensiveSellsGoldFirst(t *testing.T) {
	p := mockPortfolio()
	p.EquityLegacy = domain.Tranche{MarketValue: 50000, CostBasis: 10000}
	p.Gold = domain.GoldHolding{Active: true, MarketValue: 20000, CostBasis: 15000}

	res := Allocate(Request{
		Portfolio:    p,
		RequestedNet: 5000,
		EquityTQF:    0.30,
		GoldTQF:      1.0,
		Defensive:    true,
		MinGold:      0,
	})

	assert.NotEmpty(t, res.Sources)
	assert.Equal(t, domain.TrancheGold, res.Sources[0].Kind)
}

func TestAllocate_GoldRespectsMinGoldFloor(t *testing.T) {
	p := mockPortfolio()
	p.Gold = domain.GoldHolding{Active: true, MarketValue: 10000, CostBasis: 8000}
	p.EquityLegacy = domain.Tranche{MarketValue: 50000, CostBasis: 10000}

	res := Allocate(Request{
		Portfolio:    p,
		RequestedNet: 50000,
		EquityTQF:    0.30,
		GoldTQF:      1.0,
		Defensive:    true,
		MinGold:      9000,
	})

	var goldGross float64
	for _, s := range res.Sources {
		if s.Kind == domain.TrancheGold {
			goldGross = s.Gross
		}
	}
	assert.LessOrEqual(t, goldGross, 1000.01)
}

func TestAllocate_ForceGrossAmountIgnoresRequestedNet(t *testing.T) {
	p := mockPortfolio()
	p.EquityLegacy = domain.Tranche{MarketValue: 50000, CostBasis: 40000}

	res := Allocate(Request{
		Portfolio:        p,
		ForceGrossAmount: 3000,
		EquityTQF:        0.30,
	})

	assert.InDelta(t, 3000, res.GrossTotal, 0.01)
}

func TestAllocate_ChurchTaxRaisesEffectiveRate(t *testing.T) {
	p := mockPortfolio()
	p.Tax.AnnualAllowance = 0
	p.EquityLegacy = domain.Tranche{MarketValue: 10000, CostBasis: 0}

	without := Allocate(Request{Portfolio: p, ForceGrossAmount: 5000, EquityTQF: 0.30, ChurchTaxRate: 0})
	with := Allocate(Request{Portfolio: p, ForceGrossAmount: 5000, EquityTQF: 0.30, ChurchTaxRate: 0.08})

	assert.Greater(t, with.TaxTotal, without.TaxTotal)
}

func TestAllocate_EmptyPortfolioYieldsNoSources(t *testing.T) {
	res := Allocate(Request{Portfolio: mockPortfolio(), RequestedNet: 1000})
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.0, res.GrossTotal)
}
