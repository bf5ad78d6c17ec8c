package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

const metalsDevAPI = "https://api.metals.dev"

type metalsDevResponse struct {
	Status string `json:"status"`
	Data   struct {
		Price *float64 `json:"price"`
	} `json:"data"`
}

// MetalsDev fetches the aluminum spot quote from the Metals.Dev API. The
// quote serves as the fallback for the exchange reference prices. A missing
// API key skips the request entirely and surfaces as a single warning.
type MetalsDev struct {
	baseURL string
	apiKey  string
	client  *resty.Client
	logger  *slog.Logger
}

func NewMetalsDev(apiKey string, logger *slog.Logger) *MetalsDev {
	return &MetalsDev{
		baseURL: metalsDevAPI,
		apiKey:  apiKey,
		client:  resty.New().SetTimeout(10 * time.Second),
		logger:  logger,
	}
}

func (m *MetalsDev) Name() string { return market.SourceMetalsDev }

func (m *MetalsDev) Fetch(ctx context.Context) (market.Partial, []string) {
	if m.apiKey == "" {
		return market.Partial{}, []string{"metalsdev: METALS_DEV_API_KEY not configured, spot quote unavailable"}
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  m.apiKey,
			"metal":    "aluminum",
			"currency": "USD",
		}).
		Get(m.baseURL + "/v1/metal/spot")
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("metalsdev: request failed: %v", err)}
	}
	if resp.StatusCode() != http.StatusOK {
		return market.Partial{}, []string{fmt.Sprintf("metalsdev: unexpected status %d", resp.StatusCode())}
	}

	var payload metalsDevResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return market.Partial{}, []string{fmt.Sprintf("metalsdev: malformed response: %v", err)}
	}
	if payload.Status != "" && payload.Status != "success" {
		return market.Partial{}, []string{fmt.Sprintf("metalsdev: provider reported status %q", payload.Status)}
	}
	if payload.Data.Price == nil {
		return market.Partial{}, []string{"metalsdev: response carries no price"}
	}

	m.logger.Debug("fetched metals.dev spot", "price", *payload.Data.Price)
	return market.Partial{AltSpotUSD: payload.Data.Price}, nil
}
