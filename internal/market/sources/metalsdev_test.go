package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetalsDevFetchSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			http.Error(w, `{"status":"failure"}`, http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("metal"); got != "aluminum" {
			t.Errorf("metal = %q, want aluminum", got)
		}
		w.Write([]byte(`{"status":"success","data":{"price":2480.25}}`))
	}))
	defer srv.Close()

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if partial.AltSpotUSD == nil || *partial.AltSpotUSD != 2480.25 {
		t.Errorf("AltSpotUSD = %v, want 2480.25", partial.AltSpotUSD)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestMetalsDevFetchMissingKey(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	m := NewMetalsDev("", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "METALS_DEV_API_KEY") {
		t.Errorf("warnings = %v, want single credential warning", warnings)
	}
	if requests != 0 {
		t.Errorf("made %d requests without a credential, want 0", requests)
	}
}

func TestMetalsDevFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "429") {
		t.Errorf("warnings = %v, want single status warning", warnings)
	}
}

func TestMetalsDevFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "malformed") {
		t.Errorf("warnings = %v, want single malformed-payload warning", warnings)
	}
}

func TestMetalsDevFetchProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failure","error_code":1101}`))
	}))
	defer srv.Close()

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "failure") {
		t.Errorf("warnings = %v, want single provider-status warning", warnings)
	}
}

func TestMetalsDevFetchMissingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer srv.Close()

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if partial.AltSpotUSD != nil {
		t.Errorf("AltSpotUSD = %v, want nil", *partial.AltSpotUSD)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "no price") {
		t.Errorf("warnings = %v, want single missing-price warning", warnings)
	}
}

func TestMetalsDevFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	m := NewMetalsDev("test-key", slog.Default())
	m.baseURL = srv.URL

	partial, warnings := m.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "request failed") {
		t.Errorf("warnings = %v, want single transport warning", warnings)
	}
}
