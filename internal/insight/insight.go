// Package insight turns a snapshot and its statistics into short qualitative
// purchasing signals. Rules fire only on present inputs; an absent field
// silently skips its rule.
package insight

import (
	"fmt"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/analytics"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

// Stable codes for the signals, usable as dedup and routing keys.
const (
	CodeBuyWindow     = "buy_window"
	CodePriceCaution  = "price_caution"
	CodeAmpleSupply   = "ample_supply"
	CodeTightSupply   = "tight_supply"
	CodeCarryCost     = "carry_cost"
	CodeSpotTightness = "spot_tightness"
	CodeNoSignal      = "no_signal"
)

// Insight is one qualitative signal.
type Insight struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Thresholds tune the rule set.
type Thresholds struct {
	// Percentile at or below which the price counts as historically cheap.
	PercentileLow float64
	// Percentile at or above which the price counts as historically rich.
	PercentileHigh float64
	// Stock level at or above which supply counts as ample, tonnes.
	StockHighTonnes float64
	// Stock level at or below which supply counts as tight, tonnes.
	StockLowTonnes float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PercentileLow:   0.30,
		PercentileHigh:  0.70,
		StockHighTonnes: 500000,
		StockLowTonnes:  250000,
	}
}

// Build evaluates every rule in a fixed order and returns the signals that
// fired. When nothing fires it returns a single no-signal entry so consumers
// never see an empty briefing.
func Build(snap *market.Snapshot, sum analytics.Summary, th Thresholds) []Insight {
	var out []Insight

	if sum.Percentile != nil {
		switch p := *sum.Percentile; {
		case p <= th.PercentileLow:
			out = append(out, Insight{
				Code: CodeBuyWindow,
				Message: fmt.Sprintf("Reference price sits in the cheapest %.0f%% of the last year; favorable buying window.",
					p*100),
			})
		case p >= th.PercentileHigh:
			out = append(out, Insight{
				Code: CodePriceCaution,
				Message: fmt.Sprintf("Reference price is above %.0f%% of the last year's closes; consider deferring non-urgent volume.",
					p*100),
			})
		}
	}

	if snap.StockTonnes != nil {
		switch s := *snap.StockTonnes; {
		case s >= th.StockHighTonnes:
			out = append(out, Insight{
				Code:    CodeAmpleSupply,
				Message: fmt.Sprintf("LME stocks at %.0f t point to a comfortably supplied market.", s),
			})
		case s <= th.StockLowTonnes:
			out = append(out, Insight{
				Code:    CodeTightSupply,
				Message: fmt.Sprintf("LME stocks at %.0f t signal tight availability; expect firmer physical premiums.", s),
			})
		}
	}

	switch sum.Curve {
	case analytics.CurveContango:
		out = append(out, Insight{
			Code:    CodeCarryCost,
			Message: fmt.Sprintf("Forward curve in contango (%+.2f USD/t): spot purchases price below the forward.", spread(sum)),
		})
	case analytics.CurveBackwardation:
		out = append(out, Insight{
			Code:    CodeSpotTightness,
			Message: fmt.Sprintf("Forward curve in backwardation (%+.2f USD/t): nearby material trades at a premium.", spread(sum)),
		})
	}

	if len(out) == 0 {
		out = append(out, Insight{
			Code:    CodeNoSignal,
			Message: "No specific signal from current market data.",
		})
	}
	return out
}

func spread(sum analytics.Summary) float64 {
	if sum.SpreadUSD == nil {
		return 0
	}
	return *sum.SpreadUSD
}
