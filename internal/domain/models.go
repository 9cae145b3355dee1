// Package domain holds the data model shared by every engine package:
// market context, portfolio state, strategy parameters, guardrail state,
// and the derived, ephemeral entities a single year step produces.
package domain

// RiskProfile tags the abstract risk posture a Strategy indexes curves by.
type RiskProfile string

const (
	RiskGrowth       RiskProfile = "growth"
	RiskBalanced     RiskProfile = "balanced"
	RiskConservative RiskProfile = "conservative"
)

// Regime is the one-year market classification produced by the Market
// Analyzer.
type Regime string

const (
	RegimePeakHot         Regime = "peak_hot"
	RegimePeakStable      Regime = "peak_stable"
	RegimeRecovery        Regime = "recovery"
	RegimeBearDeep        Regime = "bear_deep"
	RegimeCorrectionYoung Regime = "corr_young"
	RegimeSideLong        Regime = "side_long"
	RegimeRecoveryInBear  Regime = "recovery_in_bear"
)

// ValuationSignal is the CAPE-derived valuation bucket.
type ValuationSignal string

const (
	ValuationUndervalued       ValuationSignal = "undervalued"
	ValuationFair              ValuationSignal = "fair"
	ValuationOvervalued        ValuationSignal = "overvalued"
	ValuationExtremeOvervalued ValuationSignal = "extreme_overvalued"
)

// ActionKind is the decision a single Year Step resolves to.
type ActionKind string

const (
	ActionNone            ActionKind = "NONE"
	ActionRefill          ActionKind = "REFILL"
	ActionInvest          ActionKind = "INVEST"
	ActionEmergencyRefill ActionKind = "EMERGENCY_REFILL"
)

// TrancheKind identifies a sellable/buyable bucket of assets.
type TrancheKind string

const (
	TrancheEquityLegacy TrancheKind = "aktien_alt"
	TrancheEquityNew    TrancheKind = "aktien_neu"
	TrancheGold         TrancheKind = "gold"
)

// RunwayStatus classifies post-decision liquidity coverage.
type RunwayStatus string

const (
	RunwayOK   RunwayStatus = "ok"
	RunwayWarn RunwayStatus = "warn"
	RunwayBad  RunwayStatus = "bad"
)

// MarketContext is the market input to a single Year Step: the current and
// three prior year-end index values, the all-time high, years elapsed
// since that high, inflation, and an optional Shiller CAPE.
type MarketContext struct {
	IndexCurrent   float64  `json:"indexCurrent"`
	IndexPrior1    float64  `json:"indexPrior1"`
	IndexPrior2    float64  `json:"indexPrior2"`
	IndexPrior3    float64  `json:"indexPrior3"`
	AllTimeHigh    float64  `json:"allTimeHigh"`
	YearsSinceATH  float64  `json:"yearsSinceAth"`
	InflationPct   float64  `json:"inflationPct"`
	CAPERatio      *float64 `json:"capeRatio,omitempty"`
}

// Tranche is one cost-basis bucket of equity (or gold) holdings.
type Tranche struct {
	MarketValue float64 `json:"marketValue"`
	CostBasis   float64 `json:"costBasis"`
}

// GoldHolding is the optional gold sleeve.
type GoldHolding struct {
	Active       bool    `json:"active"`
	MarketValue  float64 `json:"marketValue"`
	CostBasis    float64 `json:"costBasis"`
	TargetPct    float64 `json:"targetPct"`
	FloorPct     float64 `json:"floorPct"`
}

// Pension is the optional recurring income offset.
type Pension struct {
	Active        bool    `json:"active"`
	MonthlyAmount float64 `json:"monthlyAmount"`
}

// TaxParams carries the household's capital-gains allowance and
// per-tranche partial-exemption and church-tax configuration.
type TaxParams struct {
	AnnualAllowance float64 `json:"annualAllowance"`
	EquityTQF       float64 `json:"equityTqf"`
	ChurchTaxRate   float64 `json:"churchTaxRate"`
}

// PortfolioState is the household's financial state at the start of a
// year: age, liquidity, equity tranches, optional gold, recurring needs,
// optional pension, and tax parameters.
type PortfolioState struct {
	Age uint32 `json:"age"`

	CashTagesgeld   float64  `json:"cashTagesgeld"`
	CashMoneyMarket float64  `json:"cashMoneyMarket"`
	LiquidityOverride *float64 `json:"liquidityOverride,omitempty"`

	EquityLegacy Tranche `json:"equityLegacy"`
	EquityNew    Tranche `json:"equityNew"`
	Gold         GoldHolding `json:"gold"`

	FloorNeed float64 `json:"floorNeed"`
	FlexNeed  float64 `json:"flexNeed"`

	Pension Pension `json:"pension"`
	Tax     TaxParams `json:"tax"`
}

// Liquidity resolves the explicit override, falling back to the sum of the
// two cash buckets.
func (p PortfolioState) Liquidity() float64 {
	if p.LiquidityOverride != nil {
		return *p.LiquidityOverride
	}
	return p.CashTagesgeld + p.CashMoneyMarket
}

// Strategy carries the household's runway and rebalancing preferences.
type Strategy struct {
	RunwayMinMonths    float64     `json:"runwayMinMonths"`
	RunwayTargetMonths float64     `json:"runwayTargetMonths"`
	EquityTargetPct    float64     `json:"equityTargetPct"`
	RebalanceBandPct   float64     `json:"rebalanceBandPct"`
	MaxSkimPct         float64     `json:"maxSkimPct"`
	MaxBearRefillPct   float64     `json:"maxBearRefillPct"`
	RiskProfile        RiskProfile `json:"riskProfile"`
}

// GuardrailState is carried across years: it is never mutated in place,
// only read and returned anew by each Year Step.
type GuardrailState struct {
	FlexRate                 float64 `json:"flexRate"`
	PeakRealWealth            float64 `json:"peakRealWealth"`
	CumulativeInflationFactor float64 `json:"cumulativeInflationFactor"`
	AlarmActive               bool    `json:"alarmActive"`
	ConsecutiveBearYears      uint32  `json:"consecutiveBearYears"`
	LastInflationAppliedAge   uint32  `json:"lastInflationAppliedAge"`
}

// NewGuardrailState returns the year-0 default state.
func NewGuardrailState(initialWealth float64) GuardrailState {
	return GuardrailState{
		FlexRate:                  100,
		PeakRealWealth:            initialWealth,
		CumulativeInflationFactor: 1,
		AlarmActive:               false,
	}
}

// MarketRegime is the Market Analyzer's one-year output.
type MarketRegime struct {
	Tag                Regime          `json:"tag"`
	DistanceFromATHPct float64         `json:"distanceFromAthPct"`
	Perf1YPct          float64         `json:"perf1YPct"`
	Valuation          ValuationSignal `json:"valuation"`
	ExpectedReturn     float64         `json:"expectedReturn"`
	CAPEUsed           float64         `json:"capeUsed"`
	Stagflation        bool            `json:"stagflation"`
	Reasons            []string        `json:"reasons,omitempty"`
}

// IsBear reports whether the regime is one of the two defensive regimes
// that sell gold first and widen the target-liquidity window.
func (r Regime) IsBear() bool {
	return r == RegimeBearDeep || r == RegimeRecoveryInBear
}

// SpendingPlan is the Spending Planner's one-year output.
type SpendingPlan struct {
	FlexRate        float64 `json:"flexRate"`
	TotalWithdrawal float64 `json:"totalWithdrawal"`
	AlarmActive     bool    `json:"alarmActive"`
}

// SaleSource is one tranche's contribution to a sale.
type SaleSource struct {
	Kind  TrancheKind `json:"kind"`
	Gross float64     `json:"gross"`
	Net   float64     `json:"net"`
	Tax   float64     `json:"tax"`
}

// Uses records where the proceeds of an action went.
type Uses struct {
	ToLiquidity float64 `json:"toLiquidity"`
	ToEquity    float64 `json:"toEquity"`
	ToGold      float64 `json:"toGold"`
}

// TransactionAction is the Action Selector's one-year output.
type TransactionAction struct {
	Kind    ActionKind   `json:"kind"`
	Sources []SaleSource `json:"sources,omitempty"`
	Uses    Uses         `json:"uses"`
	TaxTotal float64     `json:"taxTotal"`
	GrossTotal float64   `json:"grossTotal"`
	NetTotal   float64   `json:"netTotal"`
}

// YearSnapshot is one year's worth of reportable results, emitted by both
// drivers.
type YearSnapshot struct {
	Year  int    `json:"year"`
	Age   uint32 `json:"age"`

	TotalWealth  float64 `json:"totalWealth"`
	Liquidity    float64 `json:"liquidity"`
	EquityLegacy float64 `json:"equityLegacy"`
	EquityNew    float64 `json:"equityNew"`
	CostBasisLegacy float64 `json:"costBasisLegacy"`
	CostBasisNew    float64 `json:"costBasisNew"`
	GoldValue    float64 `json:"goldValue"`

	FlexRate    float64 `json:"flexRate"`
	AlarmActive bool    `json:"alarmActive"`

	RunwayMonths float64      `json:"runwayMonths"`
	RunwayStatus RunwayStatus `json:"runwayStatus"`

	Regime       Regime  `json:"regime"`
	MarketIndex  float64 `json:"marketIndex"`
	InflationPct float64 `json:"inflationPct"`

	ActionKind   ActionKind `json:"actionKind"`
	Withdrawal   float64    `json:"withdrawal"`
	RefillNet    float64    `json:"refillNet"`
}
