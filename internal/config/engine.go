package config

// EngineConfig is the single compile-time constants table referenced by
// spec.md §6. It is read-only at runtime; tests may construct a modified
// copy to probe edge cases, but production code always uses Default.
type EngineConfig struct {
	// CAPE valuation tiers.
	CAPEDefault            float64
	CAPEUndervalued        float64
	CAPEOvervalued         float64
	CAPEExtremeOvervalued  float64

	// Alarm thresholds.
	AlarmWithdrawalRate float64
	AlarmRealDrawdown   float64

	// Caution thresholds (informational; not load-bearing on the alarm
	// state machine itself, see §4.2).
	CautionWithdrawalRate float64
	CautionInflationCap   float64

	// Spending smoothing.
	FlexSmoothingAlpha  float64
	RateChangeUpPP      float64
	RateChangeAgileUpPP float64
	RateChangeDownPP    float64
	RateChangeBearDownPP float64

	// Strategy thresholds.
	StagflationInflation float64
	RunwayThinMonths     float64

	// Tax defaults (§9 Open Questions 1 and 3).
	Tax TaxDefaults
}

// TaxDefaults are the configurable, per-tranche partial-exemption factor
// and church-tax rate.
type TaxDefaults struct {
	EquityTQF     float64
	GoldTQF       float64
	ChurchTaxRate float64
}

// Default is the engine's production constants table.
var Default = EngineConfig{
	CAPEDefault:           20,
	CAPEUndervalued:       15,
	CAPEOvervalued:        30,
	CAPEExtremeOvervalued: 35,

	AlarmWithdrawalRate: 0.055,
	AlarmRealDrawdown:   0.25,

	CautionWithdrawalRate: 0.045,
	CautionInflationCap:   3.0,

	FlexSmoothingAlpha:   0.35,
	RateChangeUpPP:       2.5,
	RateChangeAgileUpPP:  4.5,
	RateChangeDownPP:     3.5,
	RateChangeBearDownPP: 10.0,

	StagflationInflation: 4.0,
	RunwayThinMonths:     24.0,

	Tax: TaxDefaults{
		EquityTQF:     0.30,
		GoldTQF:       1.0,
		ChurchTaxRate: 0.0,
	},
}

// ExpectedReturnBySignal returns the expected real return the market
// analyzer attaches to each valuation signal.
func ExpectedReturnBySignal(signal string) float64 {
	switch signal {
	case "undervalued":
		return 0.08
	case "overvalued":
		return 0.05
	case "extreme_overvalued":
		return 0.04
	default:
		return 0.07
	}
}
