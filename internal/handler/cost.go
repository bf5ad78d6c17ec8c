package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/cost"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
)

// Cost estimates the landed cost against the latest snapshot. Buyer inputs
// come from the query string; a parameter left out stays absent so the cost
// model can flag the substitution.
func Cost(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseCostParams(r.URL.Query())
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
			return
		}

		snap := engine.Latest()
		if snap == nil {
			http.Error(w, `{"error":"no snapshot available yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cost.Compute(snap, params))
	}
}

func parseCostParams(q url.Values) (cost.Params, error) {
	p := cost.Params{Basis: q.Get("basis")}

	var err error
	if p.RegionalPremiumUSD, err = optFloat(q, "premium"); err != nil {
		return p, err
	}
	if p.ProductPremiumUSD, err = optFloat(q, "product_premium"); err != nil {
		return p, err
	}
	if p.FreightUSD, err = optFloat(q, "freight"); err != nil {
		return p, err
	}
	if p.FXRateBRL, err = optFloat(q, "fx"); err != nil {
		return p, err
	}
	return p, nil
}

func optFloat(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}
