package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

func capeOf(v float64) *float64 { return &v }

func TestAnalyze_SideLong(t *testing.T) {
	ctx := domain.MarketContext{
		IndexCurrent: 100, IndexPrior1: 95, IndexPrior2: 90, IndexPrior3: 85,
		AllTimeHigh: 105, InflationPct: 2.0,
	}
	r := Analyze(ctx, 0, capeOf(20), config.Default)

	assert.Equal(t, domain.RegimeSideLong, r.Tag)
	assert.False(t, r.Stagflation)
	assert.Equal(t, domain.ValuationFair, r.Valuation)
}

func TestAnalyze_DeepBear(t *testing.T) {
	ctx := domain.MarketContext{
		IndexCurrent: 100, AllTimeHigh: 140, InflationPct: 2.0,
	}
	r := Analyze(ctx, 1, capeOf(20), config.Default)

	assert.Equal(t, domain.RegimeBearDeep, r.Tag)
	assert.Greater(t, r.DistanceFromATHPct, 28.0)
}

func TestAnalyze_Stagflation(t *testing.T) {
	ctx := domain.MarketContext{
		IndexCurrent: 90, IndexPrior1: 100, AllTimeHigh: 105, InflationPct: 8.0,
	}
	r := Analyze(ctx, 1, capeOf(20), config.Default)

	assert.True(t, r.Stagflation)
}

func TestAnalyze_RecoveryInBear(t *testing.T) {
	// Deep drawdown (>20%) but a strong rally off the low and >15% distance
	// from ATH should reclassify bear_deep into recovery_in_bear.
	ctx := domain.MarketContext{
		IndexCurrent: 75, IndexPrior1: 60, IndexPrior2: 100, IndexPrior3: 100,
		AllTimeHigh: 100, InflationPct: 2.0,
	}
	r := Analyze(ctx, 2, capeOf(20), config.Default)

	assert.Equal(t, domain.RegimeRecoveryInBear, r.Tag)
}

func TestAnalyze_CAPEBuckets(t *testing.T) {
	base := domain.MarketContext{IndexCurrent: 100, AllTimeHigh: 100, InflationPct: 2}

	cases := []struct {
		name     string
		cape     *float64
		expected domain.ValuationSignal
	}{
		{"nil uses default 20 -> fair", nil, domain.ValuationFair},
		{"undervalued at 15", capeOf(15), domain.ValuationUndervalued},
		{"overvalued at 30", capeOf(30), domain.ValuationOvervalued},
		{"extreme at 35", capeOf(35), domain.ValuationExtremeOvervalued},
		{"negative falls back to default", capeOf(-5), domain.ValuationFair},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Analyze(base, 0, tc.cape, config.Default)
			assert.Equal(t, tc.expected, r.Valuation)
		})
	}
}

func TestAnalyze_ZeroIndexGuards(t *testing.T) {
	ctx := domain.MarketContext{}
	r := Analyze(ctx, 0, nil, config.Default)

	assert.Equal(t, 0.0, r.DistanceFromATHPct)
	assert.Equal(t, 0.0, r.Perf1YPct)
}
