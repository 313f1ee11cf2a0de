package analyzer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stocklens/stocklens/internal/config"
	"github.com/stocklens/stocklens/internal/credibility"
	"github.com/stocklens/stocklens/internal/extract"
	"github.com/stocklens/stocklens/internal/metrics"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/search"
	"github.com/stocklens/stocklens/internal/store"
	"github.com/stocklens/stocklens/internal/validate"
	"github.com/stocklens/stocklens/pkg/fmp"
)

// primarySource names the primary provider in result provenance.
const primarySource = "fmp"

// Params wires an Orchestrator. Fetcher and Gaps are required. A nil
// Searcher disables web imputation; a nil Store disables caching and
// persistence. A nil Scorer gets the default credibility weights.
type Params struct {
	Fetcher    fmp.Client
	Gaps       *GapAnalyzer
	Searcher   search.Searcher
	Scorer     *credibility.Scorer
	Store      store.Store
	Imputation config.ImputationConfig
	BundleTTL  time.Duration
	ResultTTL  time.Duration
}

// Orchestrator runs one analysis end to end.
type Orchestrator struct {
	fetcher   fmp.Client
	gaps      *GapAnalyzer
	searcher  search.Searcher
	extractor *extract.Extractor
	scorer    *credibility.Scorer
	validator *validate.Validator
	store     store.Store
	cfg       config.ImputationConfig
	bundleTTL time.Duration
	resultTTL time.Duration
	now       func() time.Time
}

// New builds an Orchestrator, filling unset limits with the same
// defaults the config layer uses.
func New(p Params) *Orchestrator {
	cfg := p.Imputation
	if cfg.DeadlineSecs <= 0 {
		cfg.DeadlineSecs = 20
	}
	if cfg.MaxQueriesPerField <= 0 {
		cfg.MaxQueriesPerField = 4
	}
	if cfg.MaxDocsPerQuery <= 0 {
		cfg.MaxDocsPerQuery = 3
	}
	if cfg.MaxConcurrentFields <= 0 {
		cfg.MaxConcurrentFields = 4
	}
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = 6
	}
	if cfg.LowConfidenceThreshold <= 0 {
		cfg.LowConfidenceThreshold = 0.5
	}

	scorer := p.Scorer
	if scorer == nil {
		scorer = credibility.NewScorer(credibility.DefaultWeights())
	}

	bundleTTL := p.BundleTTL
	if bundleTTL <= 0 {
		bundleTTL = 24 * time.Hour
	}
	resultTTL := p.ResultTTL
	if resultTTL <= 0 {
		resultTTL = 6 * time.Hour
	}

	return &Orchestrator{
		fetcher:   p.Fetcher,
		gaps:      p.Gaps,
		searcher:  p.Searcher,
		extractor: extract.NewExtractor(),
		scorer:    scorer,
		validator: validate.NewValidator(cfg.ClusterTolerance),
		store:     p.Store,
		cfg:       cfg,
		bundleTTL: bundleTTL,
		resultTTL: resultTTL,
		now:       time.Now,
	}
}

// Analyze runs the full pipeline for one ticker and strategy. Web
// imputation runs only when the caller enabled it, the config allows
// it, a searcher is wired, and the primary bundle has critical gaps.
func (o *Orchestrator) Analyze(ctx context.Context, ticker string, strategy model.Strategy, webEnabled bool) (*model.AnalysisResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, eris.New("analyzer: empty ticker")
	}
	if _, err := model.ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("request_id", uuid.New().String()),
		zap.String("ticker", ticker),
		zap.String("strategy", string(strategy)),
	)

	bundle, err := o.loadBundle(ctx, log, ticker)
	if err != nil {
		return nil, err
	}

	report, err := o.gaps.Analyze(bundle, strategy)
	if err != nil {
		return nil, err
	}

	result := &model.AnalysisResult{
		Ticker:                ticker,
		Strategy:              strategy,
		PrimaryDataQuality:    o.gaps.Quality(report, bundle),
		MissingCriticalFields: report.Critical,
		ConfidenceScores:      map[string]float64{},
		DataSources:           model.DataSources{Primary: primarySource},
	}

	working := bundle
	switch {
	case report.HasCriticalGaps() && webEnabled && o.cfg.Enabled && o.searcher != nil:
		result.ImputationAttempted = true
		imputed := o.impute(ctx, log, report)
		if len(imputed) > 0 {
			result.ImputationResults = imputed
			for _, field := range sortedKeys(imputed) {
				working = working.MergeValidation(imputed[field])
			}
			result.DataSources.Web = webSources(imputed)
		}
	case report.HasCriticalGaps():
		log.Info("critical gaps present, web imputation not attempted",
			zap.Strings("fields", report.Critical))
	}

	ms, err := metrics.NewCalculator(working).Compute(strategy)
	if err != nil {
		return nil, err
	}
	result.FinalMetrics = ms

	for name, m := range ms.Metrics {
		result.ConfidenceScores[name] = m.Confidence
		if m.Confidence < o.cfg.LowConfidenceThreshold {
			result.LowConfidenceMetrics = append(result.LowConfidenceMetrics, name)
		}
	}
	sort.Strings(result.LowConfidenceMetrics)

	result.AnalysisSummary = buildSummary(result)
	result.Recommendations = buildRecommendations(strategy, ms)

	if o.store != nil {
		if _, err := o.store.SaveAnalysis(ctx, result, o.resultTTL); err != nil {
			log.Warn("failed to persist analysis", zap.Error(err))
		}
	}

	log.Info("analysis complete",
		zap.Int("metrics", len(ms.Metrics)),
		zap.Bool("imputation_attempted", result.ImputationAttempted),
		zap.Float64("completeness", result.PrimaryDataQuality.Completeness),
	)
	return result, nil
}

// loadBundle serves the bundle from cache when possible, otherwise
// fetches from the primary provider and caches the result. Cache
// failures degrade to a fetch rather than failing the analysis.
func (o *Orchestrator) loadBundle(ctx context.Context, log *zap.Logger, ticker string) (*model.FundamentalsBundle, error) {
	if o.store != nil {
		cached, err := o.store.GetCachedBundle(ctx, ticker)
		if err != nil {
			log.Warn("bundle cache read failed", zap.Error(err))
		} else if cached != nil {
			log.Debug("bundle cache hit")
			return cached, nil
		}
	}

	bundle, err := o.fetcher.FetchStockData(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		if err := o.store.SetCachedBundle(ctx, bundle, o.bundleTTL); err != nil {
			log.Warn("bundle cache write failed", zap.Error(err))
		}
	}
	return bundle, nil
}

// impute fans out over missing fields under one deadline. Per-field
// failures never cancel sibling fields; a field whose searches all
// failed simply reconciles to a nil best value.
func (o *Orchestrator) impute(ctx context.Context, log *zap.Logger, report *model.GapReport) map[string]model.ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.DeadlineSecs)*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]model.ValidationResult)
	)

	g := &errgroup.Group{}
	g.SetLimit(o.cfg.MaxConcurrentFields)
	for _, field := range report.SearchFields() {
		g.Go(func() error {
			cands := o.collect(ctx, log, field, report.Queries[field])
			vr := o.validator.Reconcile(field, cands)
			mu.Lock()
			results[field] = vr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// collect runs a field's queries concurrently and turns every document
// into scored candidates. Search errors mean the capability is
// unavailable for that query: logged, skipped, never fatal.
func (o *Orchestrator) collect(ctx context.Context, log *zap.Logger, field string, queries []string) []model.SearchCandidate {
	if len(queries) > o.cfg.MaxQueriesPerField {
		queries = queries[:o.cfg.MaxQueriesPerField]
	}

	var (
		mu    sync.Mutex
		cands []model.SearchCandidate
	)

	g := &errgroup.Group{}
	g.SetLimit(o.cfg.MaxConcurrentSearches)
	for _, q := range queries {
		g.Go(func() error {
			docs, err := o.searcher.Search(ctx, q)
			if err != nil {
				log.Warn("search unavailable, skipping query",
					zap.String("field", field),
					zap.String("query", q),
					zap.Error(err),
				)
				return nil
			}
			if len(docs) > o.cfg.MaxDocsPerQuery {
				docs = docs[:o.cfg.MaxDocsPerQuery]
			}

			now := o.now()
			var local []model.SearchCandidate
			for _, doc := range docs {
				matches := o.extractor.Extract(field, doc.Content)
				if len(matches) == 0 {
					continue
				}
				cred := o.scorer.Score(doc.URL, doc.Content)
				domain := credibility.Domain(doc.URL)
				for _, m := range matches {
					local = append(local, model.SearchCandidate{
						Field:                field,
						RawText:              m.Raw,
						Value:                m.Value,
						Unit:                 m.Unit,
						SourceURL:            doc.URL,
						SourceDomain:         domain,
						RetrievedAt:          now,
						ExtractionConfidence: m.Confidence,
						Credibility:          cred,
					})
				}
			}

			mu.Lock()
			cands = append(cands, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return cands
}

func sortedKeys(m map[string]model.ValidationResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// webSources returns the sorted distinct URLs that contributed a
// resolved value.
func webSources(results map[string]model.ValidationResult) []string {
	seen := map[string]bool{}
	for _, vr := range results {
		if vr.BestValue == nil {
			continue
		}
		for _, src := range vr.Sources {
			seen[src] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
