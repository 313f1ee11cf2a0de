// Package fmp provides a client for the Financial Modeling Prep API
// and maps its statement payloads into a fundamentals bundle.
package fmp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/stocklens/stocklens/internal/model"
)

// ErrTickerNotFound is returned when FMP has no profile or quote for a
// symbol.
var ErrTickerNotFound = eris.New("fmp: ticker not found")

// Client fetches primary fundamentals for a ticker.
type Client interface {
	// FetchStockData pulls the profile, quote, key metrics, and annual
	// statements for a ticker and assembles them into a bundle.
	FetchStockData(ctx context.Context, ticker string) (*model.FundamentalsBundle, error)
}

// Option configures the FMP client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithAnnualPeriods sets how many fiscal years of statements to fetch.
func WithAnnualPeriods(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.periods = n
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	periods int
	http    *http.Client
}

// NewClient creates a new FMP client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://financialmodelingprep.com/api/v3",
		periods: 10,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchStockData(ctx context.Context, ticker string) (*model.FundamentalsBundle, error) {
	var (
		profiles []Profile
		quotes   []Quote
		metrics  []KeyMetrics
		income   []IncomeStatement
		balance  []BalanceSheet
		cashflow []CashFlow
	)

	limit := strconv.Itoa(c.periods)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "profile/"+ticker, nil, &profiles) })
	g.Go(func() error { return c.get(gctx, "quote/"+ticker, nil, &quotes) })
	g.Go(func() error { return c.get(gctx, "key-metrics/"+ticker, url.Values{"limit": {"1"}}, &metrics) })
	g.Go(func() error {
		return c.get(gctx, "income-statement/"+ticker, url.Values{"limit": {limit}}, &income)
	})
	g.Go(func() error {
		return c.get(gctx, "balance-sheet-statement/"+ticker, url.Values{"limit": {limit}}, &balance)
	})
	g.Go(func() error {
		return c.get(gctx, "cash-flow-statement/"+ticker, url.Values{"limit": {limit}}, &cashflow)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(profiles) == 0 && len(quotes) == 0 {
		return nil, eris.Wrapf(ErrTickerNotFound, "fmp: no profile or quote for %q", ticker)
	}

	return assembleBundle(ticker, profiles, quotes, metrics, income, balance, cashflow), nil
}

// get fetches one endpoint and decodes the JSON array FMP returns.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrapf(err, "fmp: create request for %s", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fmp: request %s failed", path)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "fmp: read %s response body", path)
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fmp: %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fmp: unmarshal %s response", path)
	}
	return nil
}
