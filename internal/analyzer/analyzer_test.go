package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/catalog"
	"github.com/stocklens/stocklens/internal/config"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/query"
	"github.com/stocklens/stocklens/internal/search"
)

type stubFetcher struct {
	mu         sync.Mutex
	lastTicker string
	bundle     *model.FundamentalsBundle
	err        error
}

func (s *stubFetcher) FetchStockData(_ context.Context, ticker string) (*model.FundamentalsBundle, error) {
	s.mu.Lock()
	s.lastTicker = ticker
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

// fullBundle satisfies every phil_town requirement from scalars alone.
func fullBundle(omit ...string) *model.FundamentalsBundle {
	b := &model.FundamentalsBundle{
		Ticker:    "AAPL",
		Fields:    map[string]model.FieldValue{},
		Series:    map[string][]model.AnnualValue{},
		FetchedAt: time.Now(),
	}
	fields := map[string]float64{
		"ebit":                     120e9,
		"total_stockholder_equity": 60e9,
		"diluted_eps":              6.1,
		"total_revenue":            394e9,
		"long_term_debt":           95e9,
		"operating_cash_flow":      110e9,
		"capital_expenditure":      -11e9,
		"insider_ownership":        0.07,
		"dividend_yield":           0.005,
	}
	skip := map[string]bool{}
	for _, f := range omit {
		skip[f] = true
	}
	for name, v := range fields {
		if skip[name] {
			continue
		}
		b.Fields[name] = model.FieldValue{Value: model.Float(v), Source: model.SourcePrimary, Confidence: 1}
	}
	return b
}

func newOrchestrator(fetcher *stubFetcher, searcher search.Searcher) *Orchestrator {
	gaps := NewGapAnalyzer(catalog.Default(), query.NewGenerator(4))
	return New(Params{
		Fetcher:    fetcher,
		Gaps:       gaps,
		Searcher:   searcher,
		Imputation: config.ImputationConfig{Enabled: true},
	})
}

func TestAnalyzeNoGapsSkipsImputation(t *testing.T) {
	var searches atomic.Int64
	searcher := search.Func(func(context.Context, string) ([]search.Document, error) {
		searches.Add(1)
		return nil, nil
	})

	o := newOrchestrator(&stubFetcher{bundle: fullBundle()}, searcher)
	res, err := o.Analyze(context.Background(), "AAPL", model.StrategyPhilTown, true)
	require.NoError(t, err)

	assert.False(t, res.ImputationAttempted)
	assert.Empty(t, res.MissingCriticalFields)
	assert.Zero(t, searches.Load())
	assert.Equal(t, 1.0, res.PrimaryDataQuality.Completeness)
	assert.Equal(t, 1.0, res.PrimaryDataQuality.Reliability)
	assert.Equal(t, "fmp", res.DataSources.Primary)
	assert.NotEmpty(t, res.FinalMetrics.Metrics)
	assert.NotEmpty(t, res.AnalysisSummary)
}

func TestAnalyzeImputesMissingCritical(t *testing.T) {
	searcher := search.Func(func(context.Context, string) ([]search.Document, error) {
		return []search.Document{{
			URL:     "https://www.sec.gov/cgi-bin/filing",
			Title:   "Annual Report",
			Content: "Annual report, fiscal year 2024. Total Revenue: $394.3B per the income statement.",
		}}, nil
	})

	o := newOrchestrator(&stubFetcher{bundle: fullBundle("total_revenue")}, searcher)
	res, err := o.Analyze(context.Background(), "AAPL", model.StrategyPhilTown, true)
	require.NoError(t, err)

	assert.True(t, res.ImputationAttempted)
	assert.Contains(t, res.MissingCriticalFields, "total_revenue")

	vr, ok := res.ImputationResults["total_revenue"]
	require.True(t, ok)
	require.NotNil(t, vr.BestValue)
	assert.InDelta(t, 394.3e9, *vr.BestValue, 1)
	assert.Contains(t, res.DataSources.Web, "https://www.sec.gov/cgi-bin/filing")
}

func TestAnalyzeWebDisabledLeavesGaps(t *testing.T) {
	var searches atomic.Int64
	searcher := search.Func(func(context.Context, string) ([]search.Document, error) {
		searches.Add(1)
		return nil, nil
	})

	o := newOrchestrator(&stubFetcher{bundle: fullBundle("total_revenue")}, searcher)
	res, err := o.Analyze(context.Background(), "AAPL", model.StrategyPhilTown, false)
	require.NoError(t, err)

	assert.False(t, res.ImputationAttempted)
	assert.Zero(t, searches.Load())
	assert.Contains(t, res.MissingCriticalFields, "total_revenue")
}

func TestAnalyzeSearchFailuresAreNotFatal(t *testing.T) {
	searcher := search.Func(func(context.Context, string) ([]search.Document, error) {
		return nil, eris.New("search: provider unavailable")
	})

	o := newOrchestrator(&stubFetcher{bundle: fullBundle("total_revenue")}, searcher)
	res, err := o.Analyze(context.Background(), "AAPL", model.StrategyPhilTown, true)
	require.NoError(t, err)

	assert.True(t, res.ImputationAttempted)
	vr, ok := res.ImputationResults["total_revenue"]
	require.True(t, ok)
	assert.Nil(t, vr.BestValue)
	assert.Empty(t, res.DataSources.Web)
}

func TestAnalyzeFetchErrorPropagates(t *testing.T) {
	fetchErr := eris.New("fmp: boom")
	o := newOrchestrator(&stubFetcher{err: fetchErr}, nil)

	_, err := o.Analyze(context.Background(), "AAPL", model.StrategyPhilTown, true)
	assert.ErrorIs(t, err, fetchErr)
}

func TestAnalyzeValidatesInput(t *testing.T) {
	o := newOrchestrator(&stubFetcher{bundle: fullBundle()}, nil)

	_, err := o.Analyze(context.Background(), "   ", model.StrategyPhilTown, true)
	assert.Error(t, err)

	_, err = o.Analyze(context.Background(), "AAPL", model.Strategy("momentum"), true)
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
}

func TestAnalyzeNormalizesTicker(t *testing.T) {
	fetcher := &stubFetcher{bundle: fullBundle()}
	o := newOrchestrator(fetcher, nil)

	res, err := o.Analyze(context.Background(), " aapl ", model.StrategyPhilTown, true)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, "AAPL", fetcher.lastTicker)
}

func TestGapAnalyzerFallbackCoverage(t *testing.T) {
	gaps := NewGapAnalyzer(catalog.Default(), query.NewGenerator(4))

	b := fullBundle("ebit")
	b.Fields["operating_income"] = model.FieldValue{Value: model.Float(119e9), Source: model.SourcePrimary, Confidence: 1}

	report, err := gaps.Analyze(b, model.StrategyPhilTown)
	require.NoError(t, err)
	assert.NotContains(t, report.Critical, "ebit", "fallback field covers the requirement")
}

func TestGapAnalyzerQueriesOnlySearchableTiers(t *testing.T) {
	gaps := NewGapAnalyzer(catalog.Default(), query.NewGenerator(4))

	report, err := gaps.Analyze(fullBundle("total_revenue", "insider_ownership", "dividend_yield"), model.StrategyPhilTown)
	require.NoError(t, err)

	assert.Contains(t, report.Critical, "total_revenue")
	assert.Contains(t, report.Important, "insider_ownership")
	assert.Contains(t, report.Optional, "dividend_yield")

	assert.NotEmpty(t, report.Queries["total_revenue"])
	assert.NotEmpty(t, report.Queries["insider_ownership"])
	_, optionalQueried := report.Queries["dividend_yield"]
	assert.False(t, optionalQueried, "optional gaps are reported but never searched")
}

func TestQualityPenalties(t *testing.T) {
	gaps := NewGapAnalyzer(catalog.Default(), query.NewGenerator(4))

	stale := &model.FundamentalsBundle{Ticker: "AAPL"}
	report := &model.GapReport{
		Critical:  []string{"total_revenue"},
		Important: []string{"long_term_debt"},
		Optional:  []string{"dividend_yield"},
	}
	q := gaps.Quality(report, stale)
	assert.InDelta(t, 0.74, q.Completeness, 1e-9)
	assert.InDelta(t, 0.7, q.Reliability, 1e-9)

	fresh := &model.FundamentalsBundle{Ticker: "AAPL", FetchedAt: time.Now()}
	q = gaps.Quality(&model.GapReport{}, fresh)
	assert.Equal(t, 1.0, q.Completeness)
	assert.Equal(t, 1.0, q.Reliability)
}
