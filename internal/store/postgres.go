// Package store archives completed aggregation runs and delivered alerts in
// PostgreSQL. The archive is an audit surface: the engine only writes to it,
// the API only reads from it, and nothing here ever feeds back into
// aggregation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/analytics"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Snapshot runs ---

// Run is one archived aggregation run: the headline numbers extracted into
// columns for querying, plus the full snapshot as JSON.
type Run struct {
	ID            int64           `json:"id"`
	CashUSD       *float64        `json:"lme_cash_usd_t"`
	ThreeMonthUSD *float64        `json:"lme_3m_usd_t"`
	StockTonnes   *float64        `json:"lme_stock_t"`
	AltSpotUSD    *float64        `json:"alt_spot_usd_t"`
	FXRateBRL     *float64        `json:"fx_brl_usd"`
	Percentile    *float64        `json:"percentile_1y"`
	SpreadUSD     *float64        `json:"spread_3m_cash_usd_t"`
	Curve         string          `json:"curve"`
	VolatilityAnn *float64        `json:"volatility_annualized"`
	WarningCount  int             `json:"warning_count"`
	Snapshot      json.RawMessage `json:"snapshot"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InsertRun archives one snapshot with its derived summary.
func (s *Store) InsertRun(ctx context.Context, snap *market.Snapshot, sum analytics.Summary) (int64, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO snapshot_runs (
			lme_cash_usd_t, lme_3m_usd_t, lme_stock_t, alt_spot_usd_t, fx_brl_usd,
			percentile_1y, spread_3m_cash_usd_t, curve, volatility_annualized,
			warning_count, snapshot
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		snap.CashUSD, snap.ThreeMonthUSD, snap.StockTonnes, snap.AltSpotUSD, snap.FXRateBRL,
		sum.Percentile, sum.SpreadUSD, sum.Curve, sum.VolatilityAnn,
		len(snap.Warnings), raw).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent archived runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lme_cash_usd_t, lme_3m_usd_t, lme_stock_t, alt_spot_usd_t, fx_brl_usd,
		       percentile_1y, spread_3m_cash_usd_t, curve, volatility_annualized,
		       warning_count, snapshot, created_at
		FROM snapshot_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CashUSD, &r.ThreeMonthUSD, &r.StockTonnes, &r.AltSpotUSD,
			&r.FXRateBRL, &r.Percentile, &r.SpreadUSD, &r.Curve, &r.VolatilityAnn,
			&r.WarningCount, &r.Snapshot, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of archived runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM snapshot_runs`).Scan(&count)
	return count, err
}

// PruneRuns deletes runs older than maxAge and returns how many went.
func (s *Store) PruneRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM snapshot_runs WHERE created_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Alert log ---

// InsertAlertLog records one delivered alert for audit.
func (s *Store) InsertAlertLog(ctx context.Context, code, message, channel string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alert_log (code, message, channel)
		VALUES ($1, $2, $3)`, code, message, channel)
	return err
}
