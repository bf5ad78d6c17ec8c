package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
)

func Analytics(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, ok := engine.Summary()
		if !ok {
			http.Error(w, `{"error":"no snapshot available yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

func Insights(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := engine.Summary(); !ok {
			http.Error(w, `{"error":"no snapshot available yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(engine.Insights())
	}
}
