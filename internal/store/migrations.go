package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS snapshot_runs (
    id BIGSERIAL PRIMARY KEY,
    lme_cash_usd_t DOUBLE PRECISION,
    lme_3m_usd_t DOUBLE PRECISION,
    lme_stock_t DOUBLE PRECISION,
    alt_spot_usd_t DOUBLE PRECISION,
    fx_brl_usd DOUBLE PRECISION,
    percentile_1y DOUBLE PRECISION,
    spread_3m_cash_usd_t DOUBLE PRECISION,
    curve TEXT NOT NULL DEFAULT 'unknown',
    volatility_annualized DOUBLE PRECISION,
    warning_count INT NOT NULL DEFAULT 0,
    snapshot JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshot_runs_created_at
    ON snapshot_runs (created_at DESC);

CREATE TABLE IF NOT EXISTS alert_log (
    id BIGSERIAL PRIMARY KEY,
    code TEXT NOT NULL,
    message TEXT NOT NULL,
    channel TEXT NOT NULL DEFAULT '',
    sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alert_log_sent_at
    ON alert_log (sent_at DESC);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
