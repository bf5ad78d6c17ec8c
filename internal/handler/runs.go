package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/store"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// Runs lists archived aggregation runs, newest first.
func Runs(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}
		if limit > maxRunsLimit {
			limit = maxRunsLimit
		}

		if s == nil {
			http.Error(w, `{"error":"archive disabled"}`, http.StatusServiceUnavailable)
			return
		}

		runs, err := s.ListRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"failed to list runs"}`, http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []store.Run{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runs)
	}
}
