package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestYahooFetchHistory(t *testing.T) {
	ts1 := time.Date(2026, 8, 19, 14, 30, 0, 0, time.UTC).Unix()
	ts2 := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC).Unix()
	ts2b := time.Date(2026, 8, 20, 20, 0, 0, 0, time.UTC).Unix() // same date, later print
	ts3 := time.Date(2026, 8, 21, 14, 30, 0, 0, time.UTC).Unix() // null close

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "ALI=F") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d,%d],
			"indicators":{"quote":[{"close":[2440.0,2460.0,2465.0,null]}]}}],"error":null}}`,
			ts1, ts2, ts2b, ts3)
	}))
	defer srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	partial, warnings := y.Fetch(context.Background())

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	want := []struct {
		date  string
		close float64
	}{
		{"2026-08-19", 2440},
		{"2026-08-20", 2465}, // last print for the date wins
	}
	if len(partial.History) != len(want) {
		t.Fatalf("len(History) = %d, want %d: %+v", len(partial.History), len(want), partial.History)
	}
	for i, w := range want {
		got := partial.History[i]
		if got.Date != w.date || got.Close != w.close {
			t.Errorf("History[%d] = %+v, want {%s %v}", i, got, w.date, w.close)
		}
	}
}

func TestYahooFetchChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	partial, warnings := y.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "delisted") {
		t.Errorf("warnings = %v, want single chart-error warning", warnings)
	}
}

func TestYahooFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	partial, warnings := y.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "no chart data") {
		t.Errorf("warnings = %v, want single no-data warning", warnings)
	}
}

func TestYahooFetchAllClosesNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1755600000,1755686400],
			"indicators":{"quote":[{"close":[null,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	partial, warnings := y.Fetch(context.Background())

	if partial.History != nil {
		t.Errorf("History = %v, want nil", partial.History)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "empty close history") {
		t.Errorf("warnings = %v, want single empty-history warning", warnings)
	}
}

func TestYahooFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	_, warnings := y.Fetch(context.Background())

	if len(warnings) != 1 || !strings.Contains(warnings[0], "429") {
		t.Errorf("warnings = %v, want single status warning", warnings)
	}
}

func TestYahooFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	y := NewYahoo("ALI=F", slog.Default())
	y.baseURL = srv.URL

	partial, warnings := y.Fetch(context.Background())

	if !partial.Empty() {
		t.Errorf("partial = %+v, want empty", partial)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "request failed") {
		t.Errorf("warnings = %v, want single transport warning", warnings)
	}
}

func TestPairHistoryOrdersAndDedups(t *testing.T) {
	// Deliberately unordered input with a duplicate date.
	ts := []int64{
		time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC).Unix(),
		time.Date(2026, 8, 19, 15, 0, 0, 0, time.UTC).Unix(),
		time.Date(2026, 8, 19, 20, 0, 0, 0, time.UTC).Unix(),
	}
	c1, c2, c3 := 2470.0, 2440.0, 2445.0
	history := pairHistory(ts, []*float64{&c1, &c2, &c3})

	if len(history) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(history), history)
	}
	if history[0].Date != "2026-08-19" || history[0].Close != 2445 {
		t.Errorf("history[0] = %+v, want {2026-08-19 2445}", history[0])
	}
	if history[1].Date != "2026-08-21" || history[1].Close != 2470 {
		t.Errorf("history[1] = %+v, want {2026-08-21 2470}", history[1])
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].Date >= history[i].Date {
			t.Errorf("dates not strictly increasing: %s then %s", history[i-1].Date, history[i].Date)
		}
	}
}
