package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
)

func Snapshot(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := engine.Latest()
		if snap == nil {
			http.Error(w, `{"error":"no snapshot available yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// Refresh triggers an immediate aggregation run and returns its snapshot.
func Refresh(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := engine.Refresh(r.Context())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}
