package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
)

func Status(engine *intel.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(engine.Status())
	}
}
