package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

const westmetallURL = "https://www.westmetall.com/en/markdaten.php?action=table&field=LME_Al_cash"

// westmetallTable is the header row plus the most recent data row of the
// LME aluminum table, as extracted in the browser.
type westmetallTable struct {
	Headers []string `json:"headers"`
	Row     []string `json:"row"`
}

// scrapeFunc fetches the rendered price table. Swapped out in tests so they
// run without Chrome.
type scrapeFunc func(ctx context.Context) (westmetallTable, error)

// Westmetall reads the LME aluminum cash settlement, three-month quote and
// warehouse stock from the WestMetall market data table, driving headless
// Chrome to get the rendered page.
type Westmetall struct {
	logger *slog.Logger
	scrape scrapeFunc
}

func NewWestmetall(logger *slog.Logger) *Westmetall {
	w := &Westmetall{logger: logger}
	w.scrape = w.scrapeChrome
	return w
}

func (w *Westmetall) Name() string { return market.SourceWestmetall }

// Fetch scrapes the table once. Every failure path, from Chrome startup to
// an unreadable cell, degrades to absent fields plus a warning.
func (w *Westmetall) Fetch(ctx context.Context) (market.Partial, []string) {
	table, err := w.scrape(ctx)
	if err != nil {
		return market.Partial{}, []string{fmt.Sprintf("westmetall: fetch failed: %v", err)}
	}
	if len(table.Row) == 0 {
		return market.Partial{}, []string{"westmetall: price table has no data rows"}
	}

	var partial market.Partial
	var warnings []string

	partial.CashUSD = w.column(table, "cash", &warnings)
	partial.ThreeMonthUSD = w.column(table, "3 month", &warnings)
	partial.StockTonnes = w.column(table, "stock", &warnings)

	return partial, warnings
}

// column locates the header containing key (case-insensitive, hyphens
// treated as spaces) and parses the matching cell of the data row. A missing
// column or unreadable cell yields nil plus a warning, never a guessed zero.
func (w *Westmetall) column(table westmetallTable, key string, warnings *[]string) *float64 {
	for i, h := range table.Headers {
		norm := strings.ToLower(strings.ReplaceAll(h, "-", " "))
		if !strings.Contains(norm, key) {
			continue
		}
		if i >= len(table.Row) {
			*warnings = append(*warnings, fmt.Sprintf("westmetall: no cell under %q column", key))
			return nil
		}
		v, err := parseDecimal(table.Row[i])
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("westmetall: unreadable %q value %q", key, table.Row[i]))
			return nil
		}
		return &v
	}
	*warnings = append(*warnings, fmt.Sprintf("westmetall: %q column not found", key))
	return nil
}

// scrapeChrome renders the page headless and pulls the table out of the DOM.
// The caller's context carries the fetch deadline.
func (w *Westmetall) scrapeChrome(ctx context.Context) (westmetallTable, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crash-reporter", true),
		chromedp.Flag("crash-dumps-dir", "/tmp"),
		chromedp.UserDataDir("/tmp/chromedp-profile"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	cctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var tableJSON string
	if err := chromedp.Run(cctx,
		chromedp.Navigate(westmetallURL),
		chromedp.WaitVisible(`table tbody tr`, chromedp.ByQuery),
		chromedp.Evaluate(westmetallExtractJS, &tableJSON),
	); err != nil {
		return westmetallTable{}, fmt.Errorf("chromedp: %w", err)
	}

	var table westmetallTable
	if err := json.Unmarshal([]byte(tableJSON), &table); err != nil {
		return westmetallTable{}, fmt.Errorf("parse table: %w", err)
	}

	w.logger.Debug("scraped westmetall table", "headers", len(table.Headers), "cells", len(table.Row))
	return table, nil
}

// westmetallExtractJS is evaluated in the browser to pull the header row and
// the newest data row from the rendered LME table.
const westmetallExtractJS = `
(() => {
	const table = document.querySelector('table');
	if (!table) return JSON.stringify({headers: [], row: []});
	const headers = Array.from(table.querySelectorAll('thead th, tr:first-child th'))
		.map(th => (th.textContent || '').trim());
	const firstRow = table.querySelector('tbody tr');
	const row = firstRow
		? Array.from(firstRow.querySelectorAll('th, td')).map(c => (c.textContent || '').trim())
		: [];
	return JSON.stringify({headers: headers, row: row});
})()
`

// parseDecimal reads a number the way market data portals print them,
// tolerating thousands separators and currency suffixes.
func parseDecimal(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', ' ', '$':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(cleaned, 64)
}
