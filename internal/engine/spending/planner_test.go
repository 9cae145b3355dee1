package spending

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
)

func TestPlan_CalmSideLongHoldsFlexRate(t *testing.T) {
	prior := domain.NewGuardrailState(1_000_000)
	regime := domain.MarketRegime{Tag: domain.RegimeSideLong}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 40, DepotTotal: 800000, TotalWealth: 1_000_000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.False(t, res.Plan.AlarmActive)
	assert.InDelta(t, 100, res.Plan.FlexRate, 0.01)
	assert.InDelta(t, 36000, res.Plan.TotalWithdrawal, 0.01)
}

func TestPlan_BearDeepCutsFlexRateButCapsDownMove(t *testing.T) {
	prior := domain.NewGuardrailState(1_000_000)
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep, DistanceFromATHPct: 30}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 30, DepotTotal: 680000, TotalWealth: 780000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.False(t, res.Plan.AlarmActive)
	assert.InDelta(t, 100-config.Default.RateChangeBearDownPP, res.Plan.FlexRate, 0.01)
}

func TestPlan_AlarmTriggersOnCriticalDrawdownAlone(t *testing.T) {
	prior := domain.NewGuardrailState(1_000_000)
	prior.PeakRealWealth = 1_000_000
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep, DistanceFromATHPct: 35}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 40, DepotTotal: 600000, TotalWealth: 600000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.True(t, res.Plan.AlarmActive)
	assert.GreaterOrEqual(t, res.Plan.FlexRate, 35.0)
}

func TestPlan_AlarmEscalationCutsFlexRateByTenOnFirstYear(t *testing.T) {
	prior := domain.NewGuardrailState(1_000_000)
	prior.PeakRealWealth = 1_000_000
	prior.FlexRate = 80
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep, DistanceFromATHPct: 35}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 10, DepotTotal: 400000, TotalWealth: 400000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.True(t, res.Plan.AlarmActive)
	assert.InDelta(t, 70, res.Plan.FlexRate, 0.01)
}

func TestPlan_AlarmDeescalatesOnPeakStableRegime(t *testing.T) {
	prior := domain.GuardrailState{
		FlexRate: 50, AlarmActive: true,
		PeakRealWealth: 1_000_000, CumulativeInflationFactor: 1,
	}
	regime := domain.MarketRegime{Tag: domain.RegimePeakStable}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 40, DepotTotal: 900000, TotalWealth: 1_050_000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.False(t, res.Plan.AlarmActive)
}

func TestPlan_RecoveryInBearCapsFlexRateAtEighty(t *testing.T) {
	prior := domain.GuardrailState{
		FlexRate: 95, AlarmActive: false,
		PeakRealWealth: 1_000_000, CumulativeInflationFactor: 1,
	}
	regime := domain.MarketRegime{Tag: domain.RegimeRecoveryInBear, DistanceFromATHPct: 25}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 30, DepotTotal: 800000, TotalWealth: 850000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.LessOrEqual(t, res.Plan.FlexRate, 80.0)
}

func TestPlan_FlexRateNeverLeavesZeroToHundredBounds(t *testing.T) {
	prior := domain.NewGuardrailState(1_000_000)
	prior.FlexRate = 2
	regime := domain.MarketRegime{Tag: domain.RegimeBearDeep, DistanceFromATHPct: 60}
	in := Inputs{
		InflatedFloor: 24000, InflatedFlex: 12000,
		RunwayMonths: 20, DepotTotal: 300000, TotalWealth: 300000,
		RunwayMinMonths: 24,
	}

	res := Plan(prior, regime, in, config.Default)

	assert.GreaterOrEqual(t, res.Plan.FlexRate, 0.0)
	assert.LessOrEqual(t, res.Plan.FlexRate, 100.0)
}
