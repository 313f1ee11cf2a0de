// Package store persists fetched fundamentals bundles and finished
// analysis results. Both backends cache with TTLs so repeated analyses
// of the same ticker skip the upstream fetch.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stocklens/stocklens/internal/model"
)

// ErrNotFound is returned when a requested record does not exist or
// has expired.
var ErrNotFound = eris.New("store: not found")

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	Ticker   string         `json:"ticker,omitempty"`
	Strategy model.Strategy `json:"strategy,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// AnalysisRecord is a stored analysis with its persistence metadata.
type AnalysisRecord struct {
	ID        string                `json:"id"`
	Ticker    string                `json:"ticker"`
	Strategy  model.Strategy        `json:"strategy"`
	Result    *model.AnalysisResult `json:"result"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Store defines the persistence interface for the analysis pipeline.
type Store interface {
	// Bundle cache. GetCachedBundle returns nil, nil on a miss or an
	// expired entry.
	GetCachedBundle(ctx context.Context, ticker string) (*model.FundamentalsBundle, error)
	SetCachedBundle(ctx context.Context, bundle *model.FundamentalsBundle, ttl time.Duration) error

	// Analyses
	SaveAnalysis(ctx context.Context, result *model.AnalysisResult, ttl time.Duration) (*AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)
	LatestAnalysis(ctx context.Context, ticker string, strategy model.Strategy) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error)

	// Maintenance
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
