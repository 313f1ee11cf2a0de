// Package analyzer drives the full analysis pipeline: fetch primary
// fundamentals, detect missing strategy fields, recover what it can
// from web search, and compute the strategy's metric set.
package analyzer

import (
	"time"

	"github.com/stocklens/stocklens/internal/catalog"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/query"
)

// Completeness penalties per missing field, by tier.
const (
	criticalPenalty  = 0.15
	importantPenalty = 0.08
	optionalPenalty  = 0.03
)

// Reliability scoring for the primary provider.
const (
	baseReliability = 0.7
	freshnessBonus  = 0.2
	coverageBonus   = 0.1
	freshWithin     = 24 * time.Hour
)

// GapAnalyzer maps a bundle against a strategy's requirement catalog
// and seeds search queries for whatever is missing.
type GapAnalyzer struct {
	catalog *catalog.Catalog
	queries *query.Generator
}

// NewGapAnalyzer builds a GapAnalyzer over a requirement catalog.
func NewGapAnalyzer(cat *catalog.Catalog, gen *query.Generator) *GapAnalyzer {
	return &GapAnalyzer{catalog: cat, queries: gen}
}

// Analyze buckets the strategy's unsatisfied requirements by tier and
// attaches search queries for the searchable ones. A requirement
// covered by one of its fallback fields is not a gap.
func (a *GapAnalyzer) Analyze(b *model.FundamentalsBundle, strategy model.Strategy) (*model.GapReport, error) {
	set, err := a.catalog.For(strategy)
	if err != nil {
		return nil, err
	}

	report := &model.GapReport{
		Ticker:   b.Ticker,
		Strategy: strategy,
		Queries:  map[string][]string{},
	}
	for _, r := range set.Requirements {
		if set.Satisfied(r, b) {
			continue
		}
		switch r.Tier {
		case catalog.TierCritical:
			report.Critical = append(report.Critical, r.Field)
		case catalog.TierImportant:
			report.Important = append(report.Important, r.Field)
		default:
			report.Optional = append(report.Optional, r.Field)
		}
	}

	for _, field := range report.SearchFields() {
		qs, err := a.queries.Generate(b.Ticker, strategy, field)
		if err != nil {
			return nil, err
		}
		report.Queries[field] = qs
	}
	return report, nil
}

// Quality scores the primary bundle before any imputation.
// Completeness starts at 1 and loses a fixed penalty per gap by tier;
// reliability starts at the provider baseline and earns bonuses for a
// fresh fetch and full critical coverage.
func (a *GapAnalyzer) Quality(report *model.GapReport, b *model.FundamentalsBundle) model.DataQuality {
	completeness := 1.0 -
		criticalPenalty*float64(len(report.Critical)) -
		importantPenalty*float64(len(report.Important)) -
		optionalPenalty*float64(len(report.Optional))
	if completeness < 0 {
		completeness = 0
	}

	reliability := baseReliability
	if !b.FetchedAt.IsZero() && time.Since(b.FetchedAt) <= freshWithin {
		reliability += freshnessBonus
	}
	if len(report.Critical) == 0 {
		reliability += coverageBonus
	}
	if reliability > 1 {
		reliability = 1
	}

	return model.DataQuality{Completeness: completeness, Reliability: reliability}
}
