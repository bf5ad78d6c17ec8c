// Command report runs one aggregation and prints the purchasing briefing to
// stdout. Source failures surface as absences and warnings inside the
// briefing, so the exit code stays zero; only flag misuse is an error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/analytics"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/config"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/cost"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/insight"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market/sources"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/report"
)

func main() {
	var (
		premium        = flag.String("premium", "", "regional delivery premium, USD per tonne")
		productPremium = flag.String("product-premium", "", "product premium, USD per tonne")
		freight        = flag.String("freight", "", "freight to destination, USD per tonne")
		basis          = flag.String("basis", "", "cost basis, 3m or cash (default from COST_BASIS)")
		fx             = flag.String("fx", "", "BRL per USD override")
		asJSON         = flag.Bool("json", false, "print snapshot, statistics, cost and insights as JSON")
		timeout        = flag.Duration("timeout", 60*time.Second, "overall run timeout")
	)
	flag.Parse()

	// Logs go to stderr so stdout stays clean for the briefing.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.Load()

	params := cost.Params{Basis: cfg.CostBasis}
	if *basis != "" {
		params.Basis = *basis
	}

	var err error
	if params.RegionalPremiumUSD, err = optFloat("premium", *premium); err != nil {
		fatal(err)
	}
	if params.ProductPremiumUSD, err = optFloat("product-premium", *productPremium); err != nil {
		fatal(err)
	}
	if params.FreightUSD, err = optFloat("freight", *freight); err != nil {
		fatal(err)
	}
	if params.FXRateBRL, err = optFloat("fx", *fx); err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	agg := market.NewAggregator(logger,
		sources.NewWestmetall(logger),
		sources.NewMetalsDev(cfg.MetalsDevAPIKey, logger),
		sources.NewYahoo(cfg.YahooSymbol, logger),
		sources.NewPTAX(logger),
	)

	snap := agg.BuildSnapshot(ctx)
	sum := analytics.Compute(snap)
	est := cost.Compute(snap, params)
	ins := insight.Build(snap, sum, insight.Thresholds{
		PercentileLow:   cfg.PercentileLow,
		PercentileHigh:  cfg.PercentileHigh,
		StockHighTonnes: cfg.StockHighTonnes,
		StockLowTonnes:  cfg.StockLowTonnes,
	})

	if *asJSON {
		out := struct {
			Snapshot  *market.Snapshot  `json:"snapshot"`
			Analytics analytics.Summary `json:"analytics"`
			Cost      cost.Estimate     `json:"cost"`
			Insights  []insight.Insight `json:"insights"`
		}{snap, sum, est, ins}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	_, _ = os.Stdout.WriteString(report.Render(snap, sum, est, ins))
}

// optFloat parses an optional numeric flag, keeping "not supplied" distinct
// from zero so the cost model can flag the substitution.
func optFloat(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s: %q", name, raw)
	}
	return &v, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
