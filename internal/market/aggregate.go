package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/metrics"
)

// fetchTimeout bounds a single source fetch. A source that cannot answer in
// time resolves to absent fields plus a warning, never a hung aggregation.
const fetchTimeout = 10 * time.Second

// Aggregator queries every registered source once per run and merges the
// results into a single Snapshot. Registration order is the merge order, so
// warning order and fallback decisions are deterministic.
type Aggregator struct {
	logger  *slog.Logger
	sources []Source
}

func NewAggregator(logger *slog.Logger, sources ...Source) *Aggregator {
	return &Aggregator{logger: logger, sources: sources}
}

// SourceNames returns the registered source names in merge order.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, len(a.sources))
	for i, src := range a.sources {
		names[i] = src.Name()
	}
	return names
}

type fetchResult struct {
	partial  Partial
	warnings []string
}

// BuildSnapshot runs one aggregation: all sources are fetched concurrently,
// each under its own timeout, then merged single-threaded in registration
// order. It never fails; a source that delivered nothing leaves its fields
// absent and its warnings in the snapshot.
func (a *Aggregator) BuildSnapshot(ctx context.Context) *Snapshot {
	results := make([]fetchResult, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, src)
		}(i, src)
	}
	wg.Wait()

	snap := &Snapshot{
		SourceUsage: make(map[string]bool, len(a.sources)),
		Warnings:    []string{},
		AsOf:        time.Now().UTC(),
	}

	for i, src := range a.sources {
		r := results[i]
		snap.SourceUsage[src.Name()] = snap.apply(r.partial)
		snap.Warnings = append(snap.Warnings, r.warnings...)
	}

	// The alternate spot quote backfills the reference legs the exchange
	// feed could not supply. The failing source already warned, so the
	// substitution itself is silent; SourceUsage records which feed was up.
	if snap.AltSpotUSD != nil {
		if snap.CashUSD == nil {
			v := *snap.AltSpotUSD
			snap.CashUSD = &v
		}
		if snap.ThreeMonthUSD == nil {
			v := *snap.AltSpotUSD
			snap.ThreeMonthUSD = &v
		}
	}

	a.logger.Info("snapshot built",
		"sources", len(a.sources),
		"usage", snap.SourceUsage,
		"warnings", len(snap.Warnings))

	return snap
}

func (a *Aggregator) fetchOne(ctx context.Context, src Source) fetchResult {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	start := time.Now()
	partial, warnings := src.Fetch(fctx)
	elapsed := time.Since(start)

	status := "ok"
	if partial.Empty() {
		status = "empty"
	} else {
		metrics.FetchLastSuccess.WithLabelValues(src.Name()).SetToCurrentTime()
	}
	metrics.FetchTotal.WithLabelValues(src.Name(), status).Inc()
	metrics.FetchDuration.WithLabelValues(src.Name()).Observe(elapsed.Seconds())
	metrics.FetchWarningsTotal.WithLabelValues(src.Name()).Add(float64(len(warnings)))

	if len(warnings) > 0 {
		a.logger.Warn("source degraded", "source", src.Name(), "warnings", warnings)
	} else {
		a.logger.Debug("source fetched", "source", src.Name(), "took", elapsed.Round(time.Millisecond))
	}

	return fetchResult{partial: partial, warnings: warnings}
}

// apply folds one partial into the snapshot. A field already set by an
// earlier source is never overwritten. Returns whether the partial
// contributed at least one non-absent field.
func (s *Snapshot) apply(p Partial) bool {
	contributed := false
	if p.CashUSD != nil && s.CashUSD == nil {
		s.CashUSD = p.CashUSD
		contributed = true
	}
	if p.ThreeMonthUSD != nil && s.ThreeMonthUSD == nil {
		s.ThreeMonthUSD = p.ThreeMonthUSD
		contributed = true
	}
	if p.StockTonnes != nil && s.StockTonnes == nil {
		s.StockTonnes = p.StockTonnes
		contributed = true
	}
	if p.AltSpotUSD != nil && s.AltSpotUSD == nil {
		s.AltSpotUSD = p.AltSpotUSD
		contributed = true
	}
	if p.FXRateBRL != nil && s.FXRateBRL == nil {
		s.FXRateBRL = p.FXRateBRL
		contributed = true
	}
	if len(p.History) > 0 && s.History == nil {
		s.History = p.History
		contributed = true
	}
	return contributed
}
