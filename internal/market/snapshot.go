package market

import "time"

// Provenance keys used in Snapshot.SourceUsage. Merge order during
// aggregation follows this order: the exchange feed first so the alternate
// spot feed can act as its fallback, then history, then FX.
const (
	SourceWestmetall = "westmetall"
	SourceMetalsDev  = "metalsdev"
	SourceYahoo      = "yahoo"
	SourcePTAX       = "ptax"
)

// PricePoint is one daily close of the futures proxy series.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// Snapshot is the consolidated aluminum market picture for one aggregation
// run. It is immutable once built. An optional field is nil exactly when no
// source could supply it; the reason is always recorded in Warnings. Values
// are never defaulted or interpolated.
type Snapshot struct {
	// LME official cash (spot) price, USD per tonne.
	CashUSD *float64 `json:"lme_cash_usd_t"`
	// LME three-month price, USD per tonne.
	ThreeMonthUSD *float64 `json:"lme_3m_usd_t"`
	// Reported LME warehouse stock, tonnes.
	StockTonnes *float64 `json:"lme_stock_t"`
	// Secondary spot quote, USD per tonne. Kept even when unused so the
	// fallback decision stays auditable.
	AltSpotUSD *float64 `json:"alt_spot_usd_t"`
	// BRL per USD exchange rate (PTAX buy).
	FXRateBRL *float64 `json:"fx_brl_usd"`
	// Daily closes of the futures proxy, chronological, one point per date.
	History []PricePoint `json:"history_usd_t"`

	// SourceUsage marks, per source name, whether that source contributed
	// at least one non-absent field to this snapshot.
	SourceUsage map[string]bool `json:"source_usage"`
	// Warnings lists every reason a field is absent plus non-fatal caveats,
	// in source invocation order. Never deduplicated.
	Warnings []string `json:"warnings"`
	// AsOf is when the snapshot was assembled.
	AsOf time.Time `json:"as_of"`
}

// ReferenceUSD returns the preferred reference price for statistics: the
// three-month leg when present, otherwise cash. Nil when neither is known.
func (s *Snapshot) ReferenceUSD() *float64 {
	if s.ThreeMonthUSD != nil {
		return s.ThreeMonthUSD
	}
	return s.CashUSD
}

// Clone returns a deep copy, so callers can hand out the snapshot without
// sharing its map and slices.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.SourceUsage != nil {
		out.SourceUsage = make(map[string]bool, len(s.SourceUsage))
		for name, used := range s.SourceUsage {
			out.SourceUsage[name] = used
		}
	}
	if s.Warnings != nil {
		out.Warnings = make([]string, len(s.Warnings))
		copy(out.Warnings, s.Warnings)
	}
	if s.History != nil {
		out.History = make([]PricePoint, len(s.History))
		copy(out.History, s.History)
	}
	return &out
}

// Float returns a pointer to v. Convenience for building snapshots by hand.
func Float(v float64) *float64 {
	return &v
}
