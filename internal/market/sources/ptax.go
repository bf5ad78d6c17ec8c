package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

const ptaxAPI = "https://olinda.bcb.gov.br/olinda/servico/PTAX/versao/v1/odata"

type ptaxResponse struct {
	Value []struct {
		Buy   *float64 `json:"cotacaoCompra"`
		Sell  *float64 `json:"cotacaoVenda"`
		Stamp string   `json:"dataHoraCotacao"`
	} `json:"value"`
}

// PTAX fetches the official BRL per USD rate (buy side) from the Brazilian
// central bank's Olinda OData service. The bank only publishes on business
// days; weekend dates are skipped locally and a holiday shows up as an empty
// result set, which maps to absent plus a warning.
type PTAX struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewPTAX(logger *slog.Logger) *PTAX {
	return &PTAX{
		baseURL: ptaxAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (p *PTAX) Name() string { return market.SourcePTAX }

func (p *PTAX) Fetch(ctx context.Context) (market.Partial, []string) {
	date := lastBusinessDay(time.Now()).Format("01-02-2006")
	u := fmt.Sprintf("%s/CotacaoDolarDia(dataCotacao=@dataCotacao)?@dataCotacao='%s'&$format=json", p.baseURL, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("ptax: build request: %v", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("ptax: request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return market.Partial{}, []string{fmt.Sprintf("ptax: unexpected status %d", resp.StatusCode)}
	}

	var payload ptaxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return market.Partial{}, []string{fmt.Sprintf("ptax: malformed response: %v", err)}
	}
	if len(payload.Value) == 0 {
		return market.Partial{}, []string{fmt.Sprintf("ptax: no quote published for %s", date)}
	}
	if payload.Value[0].Buy == nil {
		return market.Partial{}, []string{fmt.Sprintf("ptax: quote for %s carries no buy rate", date)}
	}

	p.logger.Debug("fetched ptax rate", "date", date, "rate", *payload.Value[0].Buy)
	return market.Partial{FXRateBRL: payload.Value[0].Buy}, nil
}

// lastBusinessDay walks back from t to the most recent weekday.
func lastBusinessDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
