package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

const yahooChartAPI = "https://query1.finance.yahoo.com/v8/finance/chart"

// Yahoo rejects requests without a browser-ish user agent.
const userAgent = "Mozilla/5.0 (compatible; aluminum-intel/1.0)"

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Yahoo fetches one year of daily closes for the aluminum futures proxy
// from the Yahoo Finance chart API.
type Yahoo struct {
	baseURL string
	symbol  string
	client  *http.Client
	logger  *slog.Logger
}

func NewYahoo(symbol string, logger *slog.Logger) *Yahoo {
	return &Yahoo{
		baseURL: yahooChartAPI,
		symbol:  symbol,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (y *Yahoo) Name() string { return market.SourceYahoo }

func (y *Yahoo) Fetch(ctx context.Context) (market.Partial, []string) {
	u := fmt.Sprintf("%s/%s?range=1y&interval=1d", y.baseURL, url.PathEscape(y.symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: build request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: unexpected status %d", resp.StatusCode)}
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: malformed response: %v", err)}
	}
	if payload.Chart.Error != nil {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: chart error: %s", payload.Chart.Error.Description)}
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: no chart data for %s", y.symbol)}
	}

	res := payload.Chart.Result[0]
	history := pairHistory(res.Timestamp, res.Indicators.Quote[0].Close)
	if len(history) == 0 {
		return market.Partial{}, []string{fmt.Sprintf("yahoo: empty close history for %s", y.symbol)}
	}

	y.logger.Debug("fetched yahoo history", "symbol", y.symbol, "points", len(history))
	return market.Partial{History: history}, nil
}

// pairHistory joins timestamps with closes, drops null closes, keeps the
// last value seen per calendar date and returns the points in chronological
// order. The result is strictly increasing by date.
func pairHistory(timestamps []int64, closes []*float64) []market.PricePoint {
	byDate := make(map[string]float64)
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		date := time.Unix(ts, 0).UTC().Format("2006-01-02")
		byDate[date] = *closes[i]
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	history := make([]market.PricePoint, len(dates))
	for i, d := range dates {
		history[i] = market.PricePoint{Date: d, Close: byDate[d]}
	}
	return history
}
