package search

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stocklens/stocklens/internal/resilience"
	"github.com/stocklens/stocklens/pkg/tavily"
)

// circuitBreaker tracks consecutive failures to skip a flaky upstream.
type circuitBreaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time
	threshold   int           // consecutive failures to trip
	window      time.Duration // failures must occur within this window
	cooldown    time.Duration // how long the circuit stays open
}

func newCircuitBreaker(threshold int, window, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{threshold: threshold, window: window, cooldown: cooldown}
}

func (cb *circuitBreaker) isOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return time.Now().Before(cb.openUntil)
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	if now.Sub(cb.lastFailure) > cb.window {
		cb.failures = 0
	}
	cb.failures++
	cb.lastFailure = now
	if cb.failures >= cb.threshold {
		cb.openUntil = now.Add(cb.cooldown)
		zap.L().Warn("search: tavily circuit breaker opened",
			zap.Int("failures", cb.failures),
			zap.Duration("cooldown", cb.cooldown),
		)
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
}

// TavilyAdapter exposes the Tavily API as a Searcher. It rate-limits
// outbound queries and trips a circuit breaker on consecutive failures
// so a dead upstream fails fast instead of burning the request deadline.
type TavilyAdapter struct {
	client   tavily.Client
	breaker  *circuitBreaker
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	maxDocs  int
}

// AdapterOption customizes a TavilyAdapter.
type AdapterOption func(*TavilyAdapter)

// WithRateLimit sets queries per second and burst.
func WithRateLimit(qps float64, burst int) AdapterOption {
	return func(a *TavilyAdapter) { a.limiter = rate.NewLimiter(rate.Limit(qps), burst) }
}

// WithMaxDocs caps documents returned per query.
func WithMaxDocs(n int) AdapterOption {
	return func(a *TavilyAdapter) { a.maxDocs = n }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) AdapterOption {
	return func(a *TavilyAdapter) { a.retry = cfg }
}

// NewTavilyAdapter wraps a Tavily client. Breaker defaults: 3
// consecutive failures within 30s open the circuit for 60s.
func NewTavilyAdapter(client tavily.Client, opts ...AdapterOption) *TavilyAdapter {
	a := &TavilyAdapter{
		client:  client,
		breaker: newCircuitBreaker(3, 30*time.Second, 60*time.Second),
		limiter: rate.NewLimiter(rate.Limit(4), 8),
		retry:   resilience.DefaultRetryConfig(),
		maxDocs: 3,
	}
	a.retry.OnRetry = resilience.RetryLogger("tavily", "search")
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search runs one query through the limiter, breaker, and retry policy.
func (a *TavilyAdapter) Search(ctx context.Context, query string) ([]Document, error) {
	if a.breaker.isOpen() {
		return nil, eris.New("search: tavily circuit breaker open")
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "search: rate limit wait")
	}

	resp, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*tavily.SearchResponse, error) {
		return a.client.Search(ctx, tavily.SearchRequest{
			Query:      query,
			MaxResults: a.maxDocs,
		})
	})
	if err != nil {
		a.breaker.recordFailure()
		return nil, err
	}

	a.breaker.recordSuccess()

	docs := make([]Document, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Content == "" {
			continue
		}
		docs = append(docs, Document{URL: r.URL, Title: r.Title, Content: r.Content})
		if len(docs) == a.maxDocs {
			break
		}
	}
	return docs, nil
}
