// Package trend computes a non-authoritative trend diagnostic from a
// historical index series. It is informational only: the Market
// Analyzer never consults it, but reports surface it alongside a
// backtest for a human operator's sanity check.
package trend

import "github.com/markcheno/go-talib"

// Diagnostic reports a simple-moving-average read on the index series.
type Diagnostic struct {
	// SMA is the moving average series, same length as the input
	// (leading entries are zero until the window fills).
	SMA []float64
	// AboveSMA reports whether the final index value sits above its own
	// trailing SMA — a loose "trend intact" signal.
	AboveSMA bool
}

// Analyze computes a window-period SMA over index values. It returns a
// zero Diagnostic if there isn't enough history for one full window.
func Analyze(indexValues []float64, window int) Diagnostic {
	if window <= 0 || len(indexValues) < window {
		return Diagnostic{}
	}

	sma := talib.Sma(indexValues, window)

	last := indexValues[len(indexValues)-1]
	lastSMA := sma[len(sma)-1]

	return Diagnostic{
		SMA:      sma,
		AboveSMA: lastSMA > 0 && last > lastSMA,
	}
}
