// Package spending implements the Spending Planner (spec §4.2): a
// stateful guardrail machine over two states, CALM and ALARMED, that
// turns a market regime and prior GuardrailState into a flex rate, a
// total withdrawal, and an updated GuardrailState.
package spending

import (
	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

// Inputs bundles everything one Plan call needs beyond the prior
// GuardrailState and the classified regime.
type Inputs struct {
	InflatedFloor float64
	InflatedFlex  float64
	RunwayMonths  float64
	DepotTotal    float64
	TotalWealth   float64
	RunwayMinMonths float64
}

// Result is the plan plus the GuardrailState to carry into next year.
type Result struct {
	Plan  domain.SpendingPlan
	State domain.GuardrailState
}

// Plan runs one year of the guardrail state machine.
func Plan(prior domain.GuardrailState, regime domain.MarketRegime, in Inputs, cfg config.EngineConfig) Result {
	state := prior
	if state.CumulativeInflationFactor <= 0 {
		state.CumulativeInflationFactor = 1
	}

	tentative := in.InflatedFloor + in.InflatedFlex*(state.FlexRate/100)
	withdrawalRate := 0.0
	if in.DepotTotal > 0 {
		withdrawalRate = tentative / in.DepotTotal
	}

	realWealth := in.TotalWealth / state.CumulativeInflationFactor
	realDrawdown := 0.0
	if state.PeakRealWealth > 0 {
		realDrawdown = (state.PeakRealWealth - realWealth) / state.PeakRealWealth
	}

	alarmActive := state.AlarmActive
	alarmWasActive := alarmActive

	if alarmActive {
		switch {
		case regime.Tag == domain.RegimePeakHot || regime.Tag == domain.RegimePeakStable || regime.Tag == domain.RegimeSideLong:
			if withdrawalRate <= cfg.AlarmWithdrawalRate || realDrawdown <= 0.15 {
				alarmActive = false
			}
		case regime.Tag == domain.RegimeRecoveryInBear:
			okRunway := in.RunwayMonths >= in.RunwayMinMonths+6
			okDrawdown := realDrawdown <= (cfg.AlarmRealDrawdown - 0.05)
			if withdrawalRate <= cfg.AlarmWithdrawalRate || okRunway || okDrawdown {
				alarmActive = false
			}
		}
	}

	if !alarmActive {
		isCrisis := regime.Tag == domain.RegimeBearDeep
		isRunwayThin := in.RunwayMonths < cfg.RunwayThinMonths
		isQuoteCritical := withdrawalRate > cfg.AlarmWithdrawalRate
		isDrawdownCritical := realDrawdown > cfg.AlarmRealDrawdown

		if isCrisis && ((isQuoteCritical && isRunwayThin) || isDrawdownCritical) {
			alarmActive = true
		}
	}

	var flexRate float64
	if alarmActive {
		if alarmActive && !alarmWasActive {
			flexRate = max(35, state.FlexRate-10)
		} else {
			flexRate = max(35, state.FlexRate)
		}
	} else {
		rawCut := 0.0
		if regime.Tag == domain.RegimeBearDeep {
			rawCut = 50 + max(0, regime.DistanceFromATHPct-20)
		}
		target := 100 - rawCut

		smoothed := cfg.FlexSmoothingAlpha*target + (1-cfg.FlexSmoothingAlpha)*state.FlexRate

		delta := smoothed - state.FlexRate
		upCap := cfg.RateChangeUpPP
		if isAgileRegime(regime.Tag) {
			upCap = cfg.RateChangeAgileUpPP
		}
		downCap := cfg.RateChangeDownPP
		if regime.Tag == domain.RegimeBearDeep {
			downCap = cfg.RateChangeBearDownPP
		}

		switch {
		case delta > upCap:
			flexRate = state.FlexRate + upCap
		case delta < -downCap:
			flexRate = state.FlexRate - downCap
		default:
			flexRate = smoothed
		}
	}

	if regime.Tag == domain.RegimeRecoveryInBear && flexRate > 80 {
		flexRate = 80
	}
	flexRate = clamp(flexRate, 0, 100)

	withdrawal := in.InflatedFloor + in.InflatedFlex*(flexRate/100)

	state.FlexRate = flexRate
	state.AlarmActive = alarmActive
	state.PeakRealWealth = max(state.PeakRealWealth, realWealth)

	return Result{
		Plan: domain.SpendingPlan{
			FlexRate:        flexRate,
			TotalWithdrawal: withdrawal,
			AlarmActive:     alarmActive,
		},
		State: state,
	}
}

// isAgileRegime reports whether regime belongs to the wider up-cap bucket
// (the spec groups peak_hot/peak_stable/side_long/recovery/corr_young/
// recovery_in_bear together for the agile up-cap).
func isAgileRegime(tag domain.Regime) bool {
	switch tag {
	case domain.RegimePeakHot, domain.RegimePeakStable, domain.RegimeSideLong,
		domain.RegimeRecovery, domain.RegimeCorrectionYoung, domain.RegimeRecoveryInBear:
		return true
	default:
		return false
	}
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
