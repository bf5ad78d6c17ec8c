// Package analytics derives descriptive statistics from a market snapshot.
// Every statistic is optional: when its inputs are absent the output is
// absent too, never a substituted zero.
package analytics

import (
	"math"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

// Curve classifications derived from the 3M-cash spread.
const (
	CurveContango      = "contango"
	CurveBackwardation = "backwardation"
	CurveNeutral       = "neutral"
	CurveUnknown       = "unknown"
)

// curveTolerance is the absolute spread band treated as a flat curve.
const curveTolerance = 1e-6

// tradingDays scales daily volatility to an annual figure.
const tradingDays = 252

// Summary holds the derived statistics for one snapshot.
type Summary struct {
	// Fraction of historical closes strictly below the current reference
	// price, on a 0-1 scale.
	Percentile *float64 `json:"percentile_1y"`
	// Three-month minus cash, USD per tonne.
	SpreadUSD *float64 `json:"spread_3m_cash_usd_t"`
	// One of contango, backwardation, neutral, unknown.
	Curve string `json:"curve"`
	// Annualized standard deviation of daily log returns.
	VolatilityAnn *float64 `json:"volatility_annualized"`
}

// Compute derives all statistics the snapshot's fields allow.
func Compute(snap *market.Snapshot) Summary {
	s := Summary{Curve: CurveUnknown}

	if ref := snap.ReferenceUSD(); ref != nil && len(snap.History) > 0 {
		p := percentile(snap.History, *ref)
		s.Percentile = &p
	}

	if snap.ThreeMonthUSD != nil && snap.CashUSD != nil {
		spread := *snap.ThreeMonthUSD - *snap.CashUSD
		s.SpreadUSD = &spread
		s.Curve = classifyCurve(spread)
	}

	s.VolatilityAnn = annualizedVolatility(snap.History)
	return s
}

// percentile is the empirical CDF of value within the history, counting
// closes strictly below it.
func percentile(history []market.PricePoint, value float64) float64 {
	below := 0
	for _, p := range history {
		if p.Close < value {
			below++
		}
	}
	return float64(below) / float64(len(history))
}

func classifyCurve(spread float64) string {
	switch {
	case spread > curveTolerance:
		return CurveContango
	case spread < -curveTolerance:
		return CurveBackwardation
	default:
		return CurveNeutral
	}
}

// annualizedVolatility computes the population standard deviation of daily
// log returns scaled by sqrt(252). Non-positive closes cannot produce a log
// return and are skipped; fewer than two valid returns yields absent.
func annualizedVolatility(history []market.PricePoint) *float64 {
	if len(history) < 3 {
		return nil
	}

	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1].Close, history[i].Close
		if prev <= 0 || curr <= 0 {
			continue
		}
		returns = append(returns, math.Log(curr/prev))
	}
	if len(returns) < 2 {
		return nil
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	v := math.Sqrt(variance) * math.Sqrt(tradingDays)
	return &v
}
