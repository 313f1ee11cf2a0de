package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/internal/analyzer"
	"github.com/stocklens/stocklens/internal/catalog"
	"github.com/stocklens/stocklens/internal/credibility"
	"github.com/stocklens/stocklens/internal/query"
	"github.com/stocklens/stocklens/internal/search"
	"github.com/stocklens/stocklens/internal/store"
	"github.com/stocklens/stocklens/pkg/fmp"
	"github.com/stocklens/stocklens/pkg/tavily"
)

// analysisEnv holds the initialized store, catalog, and orchestrator
// shared by the analyze/fields/serve commands.
type analysisEnv struct {
	Store        store.Store
	Catalog      *catalog.Catalog
	Orchestrator *analyzer.Orchestrator
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv wires the store, API clients, requirement catalog, and
// orchestrator from config. Callers should defer env.Close().
func initEnv(ctx context.Context) (*analysisEnv, error) {
	if cfg.FMP.Key == "" {
		return nil, eris.New("STOCKLENS_FMP_KEY is required")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	fetcher := fmp.NewClient(cfg.FMP.Key,
		fmp.WithBaseURL(cfg.FMP.BaseURL),
		fmp.WithAnnualPeriods(cfg.FMP.AnnualPeriods),
	)

	// Web search is optional: without a Tavily key the pipeline still
	// runs, it just cannot impute gaps.
	var searcher search.Searcher
	if cfg.Tavily.Key != "" {
		tavilyClient := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
		searcher = search.NewTavilyAdapter(tavilyClient,
			search.WithRateLimit(cfg.Tavily.RateLimit, cfg.Tavily.RateBurst),
			search.WithMaxDocs(cfg.Imputation.MaxDocsPerQuery),
		)
		zap.L().Info("web imputation enabled")
	} else {
		zap.L().Warn("STOCKLENS_TAVILY_KEY not set, web imputation disabled")
	}

	scorer := credibility.NewScorer(credibility.Weights{
		Domain:       cfg.Credibility.DomainWeight,
		Content:      cfg.Credibility.ContentWeight,
		Recency:      cfg.Credibility.RecencyWeight,
		Presentation: cfg.Credibility.PresentationWeight,
	})

	orch := analyzer.New(analyzer.Params{
		Fetcher:    fetcher,
		Gaps:       analyzer.NewGapAnalyzer(cat, query.NewGenerator(cfg.Imputation.MaxQueriesPerField)),
		Searcher:   searcher,
		Scorer:     scorer,
		Store:      st,
		Imputation: cfg.Imputation,
		BundleTTL:  time.Duration(cfg.Store.BundleTTLHours) * time.Hour,
		ResultTTL:  time.Duration(cfg.Store.ResultTTLHours) * time.Hour,
	})

	return &analysisEnv{Store: st, Catalog: cat, Orchestrator: orch}, nil
}

// initStore opens the configured cache backend. An empty driver runs
// without persistence.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "", "none":
		zap.L().Warn("store driver not set, caching disabled")
		return nil, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
