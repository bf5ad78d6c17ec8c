// Package intel runs the periodic aggregation loop and holds the latest
// market state for the API. Archiving, deduplication and alert delivery are
// optional collaborators; the engine keeps working when any of them is
// absent or failing.
package intel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/analytics"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/insight"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/metrics"
)

const (
	defaultInterval = time.Hour

	retentionAge   = 90 * 24 * time.Hour // keep one quarter of runs
	retentionEvery = 6 * time.Hour
)

// Archiver persists completed runs and delivered alerts.
type Archiver interface {
	InsertRun(ctx context.Context, snap *market.Snapshot, sum analytics.Summary) (int64, error)
	InsertAlertLog(ctx context.Context, code, message, channel string) error
	PruneRuns(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Deduper suppresses repeat alerts.
type Deduper interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string)
}

// Notifier delivers alert messages to an external channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Channel() string
	Enabled() bool
}

// alertable lists the insight codes worth pushing out; the rest stay in the
// briefing only.
var alertable = map[string]bool{
	insight.CodeBuyWindow:     true,
	insight.CodePriceCaution:  true,
	insight.CodeTightSupply:   true,
	insight.CodeSpotTightness: true,
}

type Options struct {
	// Interval between refreshes; defaults to one hour.
	Interval time.Duration
	// Thresholds for the insight rules; zero value means defaults.
	Thresholds insight.Thresholds
}

// Engine drives aggregation runs and caches the newest results.
type Engine struct {
	agg        *market.Aggregator
	archive    Archiver
	dedup      Deduper
	notifier   Notifier
	logger     *slog.Logger
	interval   time.Duration
	thresholds insight.Thresholds
	started    time.Time

	mu        sync.RWMutex
	latest    *market.Snapshot
	summary   analytics.Summary
	insights  []insight.Insight
	refreshes int64
	lastRun   time.Time
}

// NewEngine wires the engine. archive, dd and notifier may be nil; the
// matching feature is then disabled.
func NewEngine(agg *market.Aggregator, archive Archiver, dd Deduper, notifier Notifier, logger *slog.Logger, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Thresholds == (insight.Thresholds{}) {
		opts.Thresholds = insight.DefaultThresholds()
	}
	return &Engine{
		agg:        agg,
		archive:    archive,
		dedup:      dd,
		notifier:   notifier,
		logger:     logger,
		interval:   opts.Interval,
		thresholds: opts.Thresholds,
		started:    time.Now(),
	}
}

// Run refreshes immediately and then on every tick until ctx ends.
func (e *Engine) Run(ctx context.Context) {
	if e.archive != nil {
		go e.retentionLoop(ctx)
	}

	e.Refresh(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return
		case <-ticker.C:
			e.Refresh(ctx)
		}
	}
}

func (e *Engine) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(retentionEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := e.archive.PruneRuns(ctx, retentionAge)
			if err != nil {
				e.logger.Error("prune old runs failed", "error", err)
			} else if deleted > 0 {
				e.logger.Info("pruned old runs", "deleted", deleted)
			}
		}
	}
}

// Refresh runs one aggregation, recomputes statistics and insights, caches
// everything, and kicks off archiving and alerting. It never fails; service
// collaborator errors are logged and absorbed.
func (e *Engine) Refresh(ctx context.Context) *market.Snapshot {
	snap := e.agg.BuildSnapshot(ctx)
	sum := analytics.Compute(snap)
	ins := insight.Build(snap, sum, e.thresholds)

	e.mu.Lock()
	e.latest = snap
	e.summary = sum
	e.insights = ins
	e.refreshes++
	e.lastRun = snap.AsOf
	e.mu.Unlock()

	exportSnapshotGauges(snap)
	metrics.SnapshotRefreshTotal.Inc()
	metrics.SnapshotLastRefresh.SetToCurrentTime()

	if e.archive != nil {
		if _, err := e.archive.InsertRun(ctx, snap, sum); err != nil {
			e.logger.Error("archive run failed", "error", err)
		}
	}

	e.dispatchAlerts(ctx, snap, ins)

	e.logger.Info("refresh complete",
		"warnings", len(snap.Warnings),
		"insights", len(ins))
	return snap
}

// dispatchAlerts pushes actionable insights to the notifier, at most once
// per code per snapshot day.
func (e *Engine) dispatchAlerts(ctx context.Context, snap *market.Snapshot, ins []insight.Insight) {
	if e.notifier == nil || !e.notifier.Enabled() {
		return
	}

	day := snap.AsOf.UTC().Format("2006-01-02")
	for _, in := range ins {
		if !alertable[in.Code] {
			continue
		}

		key := fmt.Sprintf("insight:%s:%s", in.Code, day)
		if e.dedup != nil && e.dedup.AlreadySent(ctx, key) {
			metrics.AlertsDeduplicatedTotal.WithLabelValues(in.Code).Inc()
			continue
		}

		if err := e.notifier.Send(ctx, in.Message); err != nil {
			metrics.AlertsFailedTotal.WithLabelValues(in.Code).Inc()
			e.logger.Error("send alert failed", "code", in.Code, "error", err)
			continue
		}
		metrics.AlertsSentTotal.WithLabelValues(in.Code).Inc()
		e.logger.Info("alert sent", "code", in.Code, "channel", e.notifier.Channel())

		if e.dedup != nil {
			e.dedup.Record(ctx, key)
		}
		if e.archive != nil {
			if err := e.archive.InsertAlertLog(ctx, in.Code, in.Message, e.notifier.Channel()); err != nil {
				e.logger.Error("log alert failed", "code", in.Code, "error", err)
			}
		}
	}
}

// Latest returns a copy of the newest snapshot, or nil before the first
// refresh completes.
func (e *Engine) Latest() *market.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest.Clone()
}

// Summary returns the newest derived statistics. ok is false before the
// first refresh.
func (e *Engine) Summary() (analytics.Summary, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary, e.latest != nil
}

// Insights returns a copy of the newest insight list.
func (e *Engine) Insights() []insight.Insight {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]insight.Insight, len(e.insights))
	copy(out, e.insights)
	return out
}

// SourceNames returns the aggregator's sources in merge order.
func (e *Engine) SourceNames() []string {
	return e.agg.SourceNames()
}

// Status describes the running service.
type Status struct {
	StartedAt       time.Time  `json:"started_at"`
	Uptime          string     `json:"uptime"`
	RefreshCount    int64      `json:"refresh_count"`
	LastRefresh     *time.Time `json:"last_refresh,omitempty"`
	RefreshInterval string     `json:"refresh_interval"`
	Sources         []string   `json:"sources"`
	ArchiveEnabled  bool       `json:"archive_enabled"`
	AlertsEnabled   bool       `json:"alerts_enabled"`
}

func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		StartedAt:       e.started,
		Uptime:          time.Since(e.started).Round(time.Second).String(),
		RefreshCount:    e.refreshes,
		RefreshInterval: e.interval.String(),
		Sources:         e.agg.SourceNames(),
		ArchiveEnabled:  e.archive != nil,
		AlertsEnabled:   e.notifier != nil && e.notifier.Enabled(),
	}
	if !e.lastRun.IsZero() {
		t := e.lastRun
		st.LastRefresh = &t
	}
	return st
}

// exportSnapshotGauges publishes the scalar snapshot fields and counts how
// many optional fields came up absent.
func exportSnapshotGauges(snap *market.Snapshot) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"lme_cash_usd_t", snap.CashUSD},
		{"lme_3m_usd_t", snap.ThreeMonthUSD},
		{"lme_stock_t", snap.StockTonnes},
		{"alt_spot_usd_t", snap.AltSpotUSD},
		{"fx_brl_usd", snap.FXRateBRL},
	}

	absent := 0
	for _, f := range fields {
		if f.value == nil {
			absent++
			continue
		}
		metrics.SnapshotFieldValue.WithLabelValues(f.name).Set(*f.value)
	}
	if len(snap.History) == 0 {
		absent++
	}
	metrics.SnapshotFieldsAbsent.Set(float64(absent))
}
