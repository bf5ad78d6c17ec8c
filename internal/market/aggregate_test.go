package market

import (
	"context"
	"log/slog"
	"reflect"
	"testing"
)

// stubSource implements Source with canned output.
type stubSource struct {
	name     string
	partial  Partial
	warnings []string

	sawDeadline bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (Partial, []string) {
	_, s.sawDeadline = ctx.Deadline()
	return s.partial, s.warnings
}

func TestBuildSnapshotMergesAllSources(t *testing.T) {
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall, partial: Partial{
			CashUSD:       Float(2450),
			ThreeMonthUSD: Float(2500),
			StockTonnes:   Float(470000),
		}},
		&stubSource{name: SourceMetalsDev, partial: Partial{AltSpotUSD: Float(2480)}},
		&stubSource{name: SourceYahoo, partial: Partial{History: []PricePoint{
			{Date: "2026-08-21", Close: 2440},
			{Date: "2026-08-22", Close: 2460},
		}}},
		&stubSource{name: SourcePTAX, partial: Partial{FXRateBRL: Float(5.43)}},
	)

	snap := agg.BuildSnapshot(context.Background())

	if snap.CashUSD == nil || *snap.CashUSD != 2450 {
		t.Errorf("CashUSD = %v, want 2450", snap.CashUSD)
	}
	if snap.ThreeMonthUSD == nil || *snap.ThreeMonthUSD != 2500 {
		t.Errorf("ThreeMonthUSD = %v, want 2500", snap.ThreeMonthUSD)
	}
	if snap.StockTonnes == nil || *snap.StockTonnes != 470000 {
		t.Errorf("StockTonnes = %v, want 470000", snap.StockTonnes)
	}
	if snap.AltSpotUSD == nil || *snap.AltSpotUSD != 2480 {
		t.Errorf("AltSpotUSD = %v, want 2480", snap.AltSpotUSD)
	}
	if snap.FXRateBRL == nil || *snap.FXRateBRL != 5.43 {
		t.Errorf("FXRateBRL = %v, want 5.43", snap.FXRateBRL)
	}
	if len(snap.History) != 2 {
		t.Errorf("len(History) = %d, want 2", len(snap.History))
	}
	for _, name := range []string{SourceWestmetall, SourceMetalsDev, SourceYahoo, SourcePTAX} {
		if !snap.SourceUsage[name] {
			t.Errorf("SourceUsage[%s] = false, want true", name)
		}
	}
	if len(snap.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", snap.Warnings)
	}
	if snap.AsOf.IsZero() {
		t.Error("AsOf not stamped")
	}
}

func TestBuildSnapshotFallbackToAlternateSpot(t *testing.T) {
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall, warnings: []string{"westmetall: request failed"}},
		&stubSource{name: SourceMetalsDev, partial: Partial{AltSpotUSD: Float(2480)}},
	)

	snap := agg.BuildSnapshot(context.Background())

	if snap.CashUSD == nil || *snap.CashUSD != 2480 {
		t.Errorf("CashUSD = %v, want fallback 2480", snap.CashUSD)
	}
	if snap.ThreeMonthUSD == nil || *snap.ThreeMonthUSD != 2480 {
		t.Errorf("ThreeMonthUSD = %v, want fallback 2480", snap.ThreeMonthUSD)
	}
	if snap.SourceUsage[SourceWestmetall] {
		t.Error("SourceUsage[westmetall] = true, want false")
	}
	if !snap.SourceUsage[SourceMetalsDev] {
		t.Error("SourceUsage[metalsdev] = false, want true")
	}
}

func TestBuildSnapshotPrimaryNotOverwritten(t *testing.T) {
	// Exchange cash present, three-month absent: only the absent leg falls
	// back to the alternate quote.
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall, partial: Partial{CashUSD: Float(2450)},
			warnings: []string{"westmetall: three-month column missing"}},
		&stubSource{name: SourceMetalsDev, partial: Partial{AltSpotUSD: Float(2480)}},
	)

	snap := agg.BuildSnapshot(context.Background())

	if snap.CashUSD == nil || *snap.CashUSD != 2450 {
		t.Errorf("CashUSD = %v, want primary 2450", snap.CashUSD)
	}
	if snap.ThreeMonthUSD == nil || *snap.ThreeMonthUSD != 2480 {
		t.Errorf("ThreeMonthUSD = %v, want fallback 2480", snap.ThreeMonthUSD)
	}
}

func TestBuildSnapshotAllSourcesFail(t *testing.T) {
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall, warnings: []string{"westmetall: request failed"}},
		&stubSource{name: SourceMetalsDev, warnings: []string{"metalsdev: missing API key"}},
		&stubSource{name: SourceYahoo, warnings: []string{"yahoo: empty history"}},
		&stubSource{name: SourcePTAX, warnings: []string{"ptax: no quote for date"}},
	)

	snap := agg.BuildSnapshot(context.Background())

	if snap.CashUSD != nil || snap.ThreeMonthUSD != nil || snap.StockTonnes != nil ||
		snap.AltSpotUSD != nil || snap.FXRateBRL != nil || snap.History != nil {
		t.Error("expected every optional field absent")
	}
	for name, used := range snap.SourceUsage {
		if used {
			t.Errorf("SourceUsage[%s] = true, want false", name)
		}
	}
	if len(snap.Warnings) < 4 {
		t.Errorf("len(Warnings) = %d, want >= 4", len(snap.Warnings))
	}

	want := []string{
		"westmetall: request failed",
		"metalsdev: missing API key",
		"yahoo: empty history",
		"ptax: no quote for date",
	}
	if !reflect.DeepEqual(snap.Warnings, want) {
		t.Errorf("Warnings = %v, want invocation order %v", snap.Warnings, want)
	}
}

func TestBuildSnapshotWarningOrderWithinSource(t *testing.T) {
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall, warnings: []string{"first", "second"}},
		&stubSource{name: SourceMetalsDev, warnings: []string{"third"}},
	)

	snap := agg.BuildSnapshot(context.Background())

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(snap.Warnings, want) {
		t.Errorf("Warnings = %v, want %v", snap.Warnings, want)
	}
}

func TestBuildSnapshotDeterministic(t *testing.T) {
	build := func() *Snapshot {
		agg := NewAggregator(slog.Default(),
			&stubSource{name: SourceWestmetall, partial: Partial{ThreeMonthUSD: Float(2500)},
				warnings: []string{"westmetall: cash column unreadable"}},
			&stubSource{name: SourceMetalsDev, partial: Partial{AltSpotUSD: Float(2480)}},
			&stubSource{name: SourceYahoo, warnings: []string{"yahoo: empty history"}},
			&stubSource{name: SourcePTAX, partial: Partial{FXRateBRL: Float(5.4)}},
		)
		return agg.BuildSnapshot(context.Background())
	}

	a, b := build(), build()
	b.AsOf = a.AsOf // timestamps differ by construction

	if !reflect.DeepEqual(a, b) {
		t.Errorf("snapshots differ:\n%+v\n%+v", a, b)
	}
}

func TestBuildSnapshotAppliesFetchDeadline(t *testing.T) {
	src := &stubSource{name: SourceWestmetall}
	agg := NewAggregator(slog.Default(), src)

	agg.BuildSnapshot(context.Background())

	if !src.sawDeadline {
		t.Error("source fetched without a deadline")
	}
}

func TestSourceNamesInRegistrationOrder(t *testing.T) {
	agg := NewAggregator(slog.Default(),
		&stubSource{name: SourceWestmetall},
		&stubSource{name: SourceMetalsDev},
		&stubSource{name: SourceYahoo},
		&stubSource{name: SourcePTAX},
	)

	want := []string{"westmetall", "metalsdev", "yahoo", "ptax"}
	if got := agg.SourceNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("SourceNames() = %v, want %v", got, want)
	}
}

func TestSnapshotClone(t *testing.T) {
	orig := &Snapshot{
		CashUSD:     Float(2450),
		History:     []PricePoint{{Date: "2026-08-22", Close: 2460}},
		SourceUsage: map[string]bool{SourceWestmetall: true},
		Warnings:    []string{"metalsdev: missing API key"},
	}

	clone := orig.Clone()
	clone.SourceUsage[SourceWestmetall] = false
	clone.Warnings[0] = "changed"
	clone.History[0].Close = 1

	if !orig.SourceUsage[SourceWestmetall] {
		t.Error("clone shares SourceUsage map with original")
	}
	if orig.Warnings[0] != "metalsdev: missing API key" {
		t.Error("clone shares Warnings slice with original")
	}
	if orig.History[0].Close != 2460 {
		t.Error("clone shares History slice with original")
	}

	var nilSnap *Snapshot
	if nilSnap.Clone() != nil {
		t.Error("Clone of nil snapshot should be nil")
	}
}

func TestSnapshotReferenceUSD(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want *float64
	}{
		{"prefers three-month", Snapshot{ThreeMonthUSD: Float(2500), CashUSD: Float(2450)}, Float(2500)},
		{"falls back to cash", Snapshot{CashUSD: Float(2450)}, Float(2450)},
		{"absent when neither", Snapshot{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.snap.ReferenceUSD()
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ReferenceUSD() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("ReferenceUSD() = nil, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("ReferenceUSD() = %v, want %v", *got, *tt.want)
			}
		})
	}
}
