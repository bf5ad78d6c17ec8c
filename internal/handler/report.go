package handler

import (
	"fmt"
	"net/http"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/cost"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/report"
)

// Report renders the plain-text purchasing briefing. It accepts the same
// query parameters as the cost endpoint.
func Report(engine *intel.Engine) http.HandlerFunc {
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

		sum, _ := engine.Summary()
		est := cost.Compute(snap, params)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report.Render(snap, sum, est, engine.Insights())))
	}
}
