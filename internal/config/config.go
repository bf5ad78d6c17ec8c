package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	FrontendOrigin string

	// DatabaseURL enables the snapshot archive when set.
	DatabaseURL string
	// RedisURL enables alert deduplication when set.
	RedisURL      string
	RedisPassword string
	// WebhookURL enables insight alerts (Slack or Discord) when set.
	WebhookURL string

	MetalsDevAPIKey string
	YahooSymbol     string

	RefreshInterval time.Duration
	CostBasis       string

	// Insight rule thresholds.
	PercentileLow   float64
	PercentileHigh  float64
	StockHighTonnes float64
	StockLowTonnes  float64
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),

		MetalsDevAPIKey: os.Getenv("METALS_DEV_API_KEY"),
		YahooSymbol:     envOr("YAHOO_SYMBOL", "ALI=F"),

		RefreshInterval: envDuration("REFRESH_INTERVAL", time.Hour),
		CostBasis:       envOr("COST_BASIS", "3m"),

		PercentileLow:   envFloat("PERCENTILE_LOW", 0.30),
		PercentileHigh:  envFloat("PERCENTILE_HIGH", 0.70),
		StockHighTonnes: envFloat("STOCK_HIGH_TONNES", 500_000),
		StockLowTonnes:  envFloat("STOCK_LOW_TONNES", 250_000),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"METALS_DEV_API_KEY": &cfg.MetalsDevAPIKey,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"WEBHOOK_URL":        &cfg.WebhookURL,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("invalid float in environment, using fallback", "key", key, "value", v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		slog.Warn("invalid duration in environment, using fallback", "key", key, "value", v)
	}
	return fallback
}
