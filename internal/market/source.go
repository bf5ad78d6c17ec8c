package market

import "context"

// Partial carries the snapshot fields a single source is responsible for.
// Fields outside a source's responsibility stay nil and are ignored by the
// merge.
type Partial struct {
	CashUSD       *float64
	ThreeMonthUSD *float64
	StockTonnes   *float64
	AltSpotUSD    *float64
	FXRateBRL     *float64
	History       []PricePoint
}

// Empty reports whether the partial contributes nothing.
func (p Partial) Empty() bool {
	return p.CashUSD == nil && p.ThreeMonthUSD == nil && p.StockTonnes == nil &&
		p.AltSpotUSD == nil && p.FXRateBRL == nil && len(p.History) == 0
}

// Source wraps exactly one external data provider. To add a provider,
// implement this interface and register it with the Aggregator.
//
// Implementations make at most one outbound attempt per Fetch call and never
// retry. Fetch never returns an error: network failures, timeouts, non-2xx
// responses, malformed payloads, missing credentials and empty datasets all
// degrade to absent fields plus one human-readable warning each. The context
// carries the per-fetch deadline.
type Source interface {
	// Name returns the provenance key for this source (e.g. "westmetall").
	Name() string

	// Fetch queries the provider once and reports what it could supply.
	Fetch(ctx context.Context) (Partial, []string)
}
