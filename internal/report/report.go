// Package report renders a snapshot plus its derived statistics, cost
// estimate and insights into a plain-text purchasing briefing. Absent values
// print as "n/a"; nothing is ever substituted.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/analytics"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/cost"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/insight"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

// Render builds the briefing text.
func Render(snap *market.Snapshot, sum analytics.Summary, est cost.Estimate, insights []insight.Insight) string {
	var b strings.Builder

	b.WriteString("===== ALUMINUM PURCHASING BRIEFING =====\n")
	b.WriteString("As of:   " + snap.AsOf.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("Sources: " + usageLine(snap.SourceUsage) + "\n")

	b.WriteString("\n--- Prices (USD/t) ---\n")
	b.WriteString("LME cash:        " + money(snap.CashUSD) + "\n")
	b.WriteString("LME 3M:          " + money(snap.ThreeMonthUSD) + "\n")
	b.WriteString("Alternate spot:  " + money(snap.AltSpotUSD) + "\n")

	b.WriteString("\n--- Stocks & FX ---\n")
	b.WriteString("LME stock (t):   " + tonnes(snap.StockTonnes) + "\n")
	b.WriteString("PTAX BRL/USD:    " + rate(snap.FXRateBRL) + "\n")
	if n := len(snap.History); n > 0 {
		b.WriteString(fmt.Sprintf("History:         %d daily closes (%s to %s)\n",
			n, snap.History[0].Date, snap.History[n-1].Date))
	} else {
		b.WriteString("History:         n/a\n")
	}

	b.WriteString("\n--- Statistics ---\n")
	b.WriteString("1y percentile:   " + percent(sum.Percentile) + "\n")
	b.WriteString("Spread 3M-cash:  " + spread(sum.SpreadUSD) + "\n")
	b.WriteString("Curve:           " + sum.Curve + "\n")
	b.WriteString("Volatility (ann):" + " " + percent(sum.VolatilityAnn) + "\n")

	b.WriteString("\n--- Landed cost ---\n")
	if est.BasisUsed != "" {
		b.WriteString("Basis:           " + est.BasisUsed + "\n")
	} else {
		b.WriteString("Basis:           n/a\n")
	}
	b.WriteString("LME base USD/t:  " + money(est.BaseUSD) + "\n")
	b.WriteString("Total USD/t:     " + money(est.TotalUSD) + "\n")
	b.WriteString("FX used:         " + rate(est.FXRateBRL) + "\n")
	b.WriteString("Total BRL/t:     " + money(est.TotalBRL) + "\n")

	b.WriteString("\n--- Insights ---\n")
	for _, in := range insights {
		b.WriteString("- " + in.Message + "\n")
	}

	if len(snap.Warnings) > 0 || len(est.Warnings) > 0 {
		b.WriteString("\n--- Warnings ---\n")
		for _, w := range snap.Warnings {
			b.WriteString("[data] " + w + "\n")
		}
		for _, w := range est.Warnings {
			b.WriteString("[cost] " + w + "\n")
		}
	}

	return b.String()
}

// usageLine lists each source with whether it contributed data, sorted by
// name so the line is stable.
func usageLine(usage map[string]bool) string {
	if len(usage) == 0 {
		return "none"
	}
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		mark := "no data"
		if usage[name] {
			mark = "ok"
		}
		parts[i] = name + "=" + mark
	}
	return strings.Join(parts, ", ")
}

func money(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func tonnes(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *v)
}

func rate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func spread(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f", *v)
}
