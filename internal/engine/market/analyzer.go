// Package market implements the Market Analyzer (spec §4.1): a pure
// function from market history to a one-year regime classification.
package market

import (
	"fmt"
	"math"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

// Analyze classifies the current market regime from ctx, the number of
// years elapsed since the all-time high, and an optional CAPE ratio. It
// performs no I/O and never mutates its inputs.
func Analyze(ctx domain.MarketContext, yearsSinceATH float64, cape *float64, cfg config.EngineConfig) domain.MarketRegime {
	distanceFromATH := 0.0
	if ctx.AllTimeHigh > 0 && ctx.IndexCurrent > 0 {
		d := (ctx.AllTimeHigh - ctx.IndexCurrent) / ctx.AllTimeHigh * 100
		if d > 0 {
			distanceFromATH = d
		}
	}

	perf1Y := 0.0
	if ctx.IndexPrior1 > 0 {
		perf1Y = (ctx.IndexCurrent - ctx.IndexPrior1) / ctx.IndexPrior1 * 100
	}

	monthsSinceATH := yearsSinceATH * 12
	if distanceFromATH > 0 && yearsSinceATH == 0 {
		monthsSinceATH = 12
	}

	var tag domain.Regime
	var reasons []string

	switch {
	case distanceFromATH <= 0 && perf1Y >= 10:
		tag = domain.RegimePeakHot
		reasons = append(reasons, "new all-time high with strong momentum")
	case distanceFromATH <= 0:
		tag = domain.RegimePeakStable
		reasons = append(reasons, "new all-time high")
	case distanceFromATH > 20:
		tag = domain.RegimeBearDeep
		reasons = append(reasons, fmt.Sprintf("ATH distance > 20%% (%.1f%%)", distanceFromATH))
	case distanceFromATH > 10 && perf1Y > 10 && monthsSinceATH > 6:
		tag = domain.RegimeRecovery
		reasons = append(reasons, "strong momentum after correction")
	case distanceFromATH <= 15 && monthsSinceATH <= 6:
		tag = domain.RegimeCorrectionYoung
		reasons = append(reasons, "recent, shallow correction")
	default:
		tag = domain.RegimeSideLong
		reasons = append(reasons, "sideways phase")
	}

	if tag == domain.RegimeBearDeep || tag == domain.RegimeRecovery {
		low := math.Inf(1)
		for _, v := range []float64{ctx.IndexCurrent, ctx.IndexPrior1, ctx.IndexPrior2, ctx.IndexPrior3} {
			if v > 0 && v < low {
				low = v
			}
		}
		if !math.IsInf(low, 1) && low > 0 {
			rally := (ctx.IndexCurrent - low) / low * 100
			if (perf1Y >= 15 || rally >= 30) && distanceFromATH > 15 {
				tag = domain.RegimeRecoveryInBear
				reasons = append(reasons, fmt.Sprintf("recovery within bear market (1y perf %.0f%%, rally from low %.0f%%)", perf1Y, rally))
			}
		}
	}

	real1Y := perf1Y - ctx.InflationPct
	stagflation := ctx.InflationPct >= cfg.StagflationInflation && real1Y < 0
	if stagflation {
		reasons = append(reasons, fmt.Sprintf("stagflation (inflation %.1f%% > real return %.1f%%)", ctx.InflationPct, real1Y))
	}

	signal, capeUsed, expected := assessCAPE(cape, cfg)
	reasons = append(reasons, fmt.Sprintf("%s (CAPE %.1f, exp. return %.1f%%)", signal, capeUsed, expected*100))

	return domain.MarketRegime{
		Tag:                tag,
		DistanceFromATHPct: distanceFromATH,
		Perf1YPct:          perf1Y,
		Valuation:          domain.ValuationSignal(signal),
		ExpectedReturn:     expected,
		CAPEUsed:           capeUsed,
		Stagflation:        stagflation,
		Reasons:            reasons,
	}
}

// assessCAPE normalizes a missing/non-positive CAPE to the configured
// default, then buckets it into a valuation signal and expected return.
func assessCAPE(raw *float64, cfg config.EngineConfig) (signal string, capeUsed, expected float64) {
	capeUsed = cfg.CAPEDefault
	if raw != nil && *raw > 0 && !math.IsInf(*raw, 0) && !math.IsNaN(*raw) {
		capeUsed = *raw
	}

	switch {
	case capeUsed >= cfg.CAPEExtremeOvervalued:
		signal = string(domain.ValuationExtremeOvervalued)
	case capeUsed >= cfg.CAPEOvervalued:
		signal = string(domain.ValuationOvervalued)
	case capeUsed <= cfg.CAPEUndervalued:
		signal = string(domain.ValuationUndervalued)
	default:
		signal = string(domain.ValuationFair)
	}

	expected = config.ExpectedReturnBySignal(signal)
	return
}
