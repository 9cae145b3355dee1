// Package montecarlo implements the Monte Carlo Driver (spec §4.7): it
// bootstrap-samples paired (return, inflation) pairs to run many
// independent scenarios of the Year Step, in parallel across a worker
// pool, and reduces the outcomes to a success rate, wealth percentiles,
// and the average years-to-ruin.
package montecarlo

import (
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/engine/yearstep"
)

// Config bundles one Monte Carlo run's parameters.
type Config struct {
	NumSimulations   int
	YearsToSimulate  int
	Returns          []float64
	Inflations       []float64
	// Workers bounds how many scenarios run concurrently; 0 selects a
	// sensible default sized to the host.
	Workers int
	// NewRNG, when set, supplies each scenario's RNG and so makes the run
	// deterministic; when nil, each scenario seeds from the clock. Tests
	// should always set this.
	NewRNG func(scenario int) *rand.Rand
	// Progress, if set, is called from the collecting goroutine after
	// each scenario completes, reporting (completed, total). Callers
	// needing to stream progress (e.g. over a websocket) should not
	// block inside it for long, since it runs on the results-draining
	// path.
	Progress func(completed, total int)
}

// Report is the Monte Carlo driver's reduced output.
type Report struct {
	SuccessRate      float64
	MedianFinalWealth float64
	Percentile5      float64
	Percentile25     float64
	Percentile75     float64
	Percentile95     float64
	RuinProbability  float64
	AvgYearsToRuin   *float64
}

// scenarioResult is one scenario's outcome, produced by a worker.
type scenarioResult struct {
	index       int
	finalWealth float64
	ruined      bool
	yearsToRuin int
}

// Run executes the Monte Carlo driver.
func Run(portfolio domain.PortfolioState, strategy domain.Strategy, cfg Config, engineCfg config.EngineConfig) (Report, error) {
	if len(cfg.Returns) == 0 {
		return Report{}, &domain.ConfigurationError{Message: "no historical returns provided"}
	}
	if len(cfg.Inflations) != len(cfg.Returns) {
		return Report{}, &domain.ConfigurationError{Message: "returns and inflations must have matching length"}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cfg.NumSimulations < workers {
		workers = cfg.NumSimulations
	}
	if workers <= 0 {
		return Report{SuccessRate: 1}, nil
	}

	jobs := make(chan int, cfg.NumSimulations)
	results := make(chan scenarioResult, cfg.NumSimulations)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- runScenario(idx, portfolio, strategy, cfg, engineCfg)
			}
		}()
	}

	for i := 0; i < cfg.NumSimulations; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	scenarios := make([]scenarioResult, cfg.NumSimulations)
	completed := 0
	for r := range results {
		scenarios[r.index] = r
		completed++
		if cfg.Progress != nil {
			cfg.Progress(completed, cfg.NumSimulations)
		}
	}

	return reduce(scenarios), nil
}

// runScenario owns its own RNG so scenarios share no mutable state.
func runScenario(index int, portfolio domain.PortfolioState, strategy domain.Strategy, cfg Config, engineCfg config.EngineConfig) scenarioResult {
	var rng *rand.Rand
	if cfg.NewRNG != nil {
		rng = cfg.NewRNG(index)
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(index)*2654435761))
	}

	p := portfolio
	state := domain.NewGuardrailState(p.Liquidity() + p.EquityLegacy.MarketValue + p.EquityNew.MarketValue + goldValue(p))

	const virtualIndexBase = 100.0
	currentIndex := virtualIndexBase
	athIndex := virtualIndexBase
	yearsSinceATH := 0.0

	for year := 0; year < cfg.YearsToSimulate; year++ {
		sampled := rng.Intn(len(cfg.Returns))
		r := cfg.Returns[sampled]
		infl := cfg.Inflations[sampled]

		newIndex := currentIndex * r
		if newIndex > athIndex {
			athIndex = newIndex
			yearsSinceATH = 0
		} else {
			yearsSinceATH++
		}

		mkt := domain.MarketContext{
			IndexCurrent: newIndex,
			IndexPrior1:  currentIndex,
			AllTimeHigh:  athIndex,
			InflationPct: infl,
		}
		currentIndex = newIndex
		p.Age++

		out := yearstep.Run(yearstep.Input{
			Portfolio: p, Strategy: strategy, Market: mkt,
			YearsSinceATH: yearsSinceATH, CAPE: nil, Year: year,
		}, state, engineCfg)

		state = out.GuardrailState
		p = out.Portfolio

		if out.Snapshot.TotalWealth <= 0 {
			return scenarioResult{index: index, finalWealth: out.Snapshot.TotalWealth, ruined: true, yearsToRuin: year}
		}

		p.EquityLegacy.MarketValue *= r
		p.EquityNew.MarketValue *= r
		if p.Gold.Active {
			p.Gold.MarketValue *= 1 + infl/100
		}
	}

	finalWealth := p.EquityLegacy.MarketValue + p.EquityNew.MarketValue + goldValue(p) + p.Liquidity()
	return scenarioResult{index: index, finalWealth: finalWealth, ruined: false}
}

func goldValue(p domain.PortfolioState) float64 {
	if !p.Gold.Active {
		return 0
	}
	return p.Gold.MarketValue
}

func reduce(scenarios []scenarioResult) Report {
	n := len(scenarios)
	if n == 0 {
		return Report{}
	}

	wealths := make([]float64, n)
	ruinedCount := 0
	var ruinYears []float64

	for i, s := range scenarios {
		wealths[i] = s.finalWealth
		if s.ruined {
			ruinedCount++
			ruinYears = append(ruinYears, float64(s.yearsToRuin))
		}
	}

	sort.Float64s(wealths)

	report := Report{
		SuccessRate:       1 - float64(ruinedCount)/float64(n),
		RuinProbability:   float64(ruinedCount) / float64(n),
		MedianFinalWealth: stat.Quantile(0.50, stat.Empirical, wealths, nil),
		Percentile5:       stat.Quantile(0.05, stat.Empirical, wealths, nil),
		Percentile25:      stat.Quantile(0.25, stat.Empirical, wealths, nil),
		Percentile75:      stat.Quantile(0.75, stat.Empirical, wealths, nil),
		Percentile95:      stat.Quantile(0.95, stat.Empirical, wealths, nil),
	}

	if len(ruinYears) > 0 {
		avg := stat.Mean(ruinYears, nil)
		report.AvgYearsToRuin = &avg
	}

	return report
}
