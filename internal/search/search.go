// Package search defines the web search boundary the imputation
// pipeline depends on. The orchestrator only sees the Searcher
// interface; the concrete Tavily adapter, its circuit breaker, and its
// rate limiter live behind it.
package search

import "context"

// Document is one search hit with its page content.
type Document struct {
	URL     string
	Title   string
	Content string
}

// Searcher runs one query and returns scored documents, best first.
// Implementations must be safe for concurrent use; any returned error
// means the search capability is unavailable for this query, which the
// caller logs and skips.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Document, error)
}

// Func adapts a function to the Searcher interface.
type Func func(ctx context.Context, query string) ([]Document, error)

// Search implements Searcher.
func (f Func) Search(ctx context.Context, query string) ([]Document, error) {
	return f(ctx, query)
}
