// Package validate reconciles conflicting extracted candidates for one
// field into a single best value with a confidence score. Candidates
// that agree within a relative tolerance form clusters; the cluster with
// the most aggregate source credibility wins, so one SEC filing beats a
// pile of forum posts.
package validate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/stocklens/stocklens/internal/model"
)

// DefaultTolerance is the relative agreement window for clustering.
const DefaultTolerance = 0.02

// sanityRanges bound ratio-style fields. Values outside their field's
// range are demoted to alternatives, never selected. Magnitude fields
// (revenue, debt, equity) have no universal bound and are not listed.
var sanityRanges = map[string][2]float64{
	"roic":              {-1, 2},
	"roe":               {-1, 2},
	"eps_growth":        {-1, 5},
	"sales_growth":      {-1, 5},
	"pe_ratio":          {0, 1000},
	"psr_ratio":         {0, 10000},
	"net_margin":        {-1, 1},
	"insider_ownership": {0, 1},
	"dividend_yield":    {0, 1},
}

// Validator reconciles candidates. Safe for concurrent use.
type Validator struct {
	tolerance float64
	now       func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithNow overrides the clock stamped on results.
func WithNow(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator builds a Validator. A non-positive tolerance uses
// DefaultTolerance.
func NewValidator(tolerance float64, opts ...Option) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	v := &Validator{tolerance: tolerance, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type cluster struct {
	members []model.SearchCandidate
	score   float64 // sum of member credibility, one count per source URL
	latest  time.Time
	urls    map[string]struct{}
}

// Reconcile selects the best value for a field from its candidates.
// The result is identical for any permutation of the input. No
// candidates, or none passing sanity checks, yields a nil BestValue
// with zero confidence; that is a normal outcome, not an error.
func (v *Validator) Reconcile(field string, candidates []model.SearchCandidate) model.ValidationResult {
	res := model.ValidationResult{Field: field, ResolvedAt: v.now()}

	if len(candidates) == 0 {
		res.Notes = "no data points extracted from search results"
		return res
	}

	valid, demoted := v.applySanity(field, candidates)
	for _, d := range demoted {
		res.Alternatives = append(res.Alternatives, model.Alternative{Value: d.Value, Source: d.SourceDomain})
	}
	if len(valid) == 0 {
		res.Notes = fmt.Sprintf("all %d extracted values failed sanity checks", len(candidates))
		sortAlternatives(res.Alternatives)
		return res
	}

	clusters := v.cluster(valid)

	// Winner: max aggregate credibility, then most recent, then lowest
	// representative value, then domain. The trailing keys make the
	// ordering total so permuted inputs cannot flip the result.
	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].score != clusters[j].score {
			return clusters[i].score > clusters[j].score
		}
		if !clusters[i].latest.Equal(clusters[j].latest) {
			return clusters[i].latest.After(clusters[j].latest)
		}
		if clusters[i].members[0].Value != clusters[j].members[0].Value {
			return clusters[i].members[0].Value < clusters[j].members[0].Value
		}
		return clusters[i].members[0].SourceDomain < clusters[j].members[0].SourceDomain
	})

	winner := clusters[0]
	best := bestMember(winner.members)

	value := best.Value
	res.BestValue = &value
	res.Confidence = confidence(winner, best)
	res.Sources = distinctSources(winner.members)

	for _, c := range clusters[1:] {
		rep := bestMember(c.members)
		res.Alternatives = append(res.Alternatives, model.Alternative{Value: rep.Value, Source: rep.SourceDomain})
	}
	sortAlternatives(res.Alternatives)

	res.Notes = fmt.Sprintf("%d of %d values agreed within tolerance across %d sources",
		len(winner.members), len(candidates), len(res.Sources))

	zap.L().Debug("reconciled field",
		zap.String("field", field),
		zap.Float64("value", value),
		zap.Float64("confidence", res.Confidence),
		zap.Int("candidates", len(candidates)),
		zap.Int("clusters", len(clusters)))

	return res
}

// applySanity splits candidates into in-range and demoted sets.
func (v *Validator) applySanity(field string, candidates []model.SearchCandidate) (valid, demoted []model.SearchCandidate) {
	bounds, bounded := sanityRanges[field]
	for _, c := range candidates {
		if bounded && (c.Value < bounds[0] || c.Value > bounds[1]) {
			demoted = append(demoted, c)
			continue
		}
		valid = append(valid, c)
	}
	return valid, demoted
}

// cluster groups candidates whose values agree within the relative
// tolerance of the cluster's anchor (its smallest value). Sorting by
// value first makes the grouping order-independent.
func (v *Validator) cluster(candidates []model.SearchCandidate) []cluster {
	sorted := make([]model.SearchCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value < sorted[j].Value
		}
		if sorted[i].SourceDomain != sorted[j].SourceDomain {
			return sorted[i].SourceDomain < sorted[j].SourceDomain
		}
		return sorted[i].SourceURL < sorted[j].SourceURL
	})

	var clusters []cluster
	for _, c := range sorted {
		n := len(clusters)
		if n > 0 && withinTolerance(clusters[n-1].members[0].Value, c.Value, v.tolerance) {
			cl := &clusters[n-1]
			cl.members = append(cl.members, c)
			// Two phrasings of the same figure on one page are not
			// independent corroboration; each URL counts once.
			if _, dup := cl.urls[c.SourceURL]; !dup {
				cl.urls[c.SourceURL] = struct{}{}
				cl.score += c.Credibility
			}
			if c.RetrievedAt.After(cl.latest) {
				cl.latest = c.RetrievedAt
			}
			continue
		}
		clusters = append(clusters, cluster{
			members: []model.SearchCandidate{c},
			score:   c.Credibility,
			latest:  c.RetrievedAt,
			urls:    map[string]struct{}{c.SourceURL: {}},
		})
	}
	return clusters
}

func withinTolerance(anchor, v, tol float64) bool {
	scale := math.Max(math.Abs(anchor), math.Abs(v))
	if scale == 0 {
		return true
	}
	return math.Abs(anchor-v)/scale <= tol
}

// bestMember picks the cluster's representative: highest combined
// extraction confidence and credibility, ties broken deterministically.
func bestMember(members []model.SearchCandidate) model.SearchCandidate {
	best := members[0]
	bestScore := memberScore(best)
	for _, m := range members[1:] {
		s := memberScore(m)
		switch {
		case s > bestScore:
			best, bestScore = m, s
		case s == bestScore && (m.SourceDomain < best.SourceDomain ||
			(m.SourceDomain == best.SourceDomain && m.Value < best.Value)):
			best = m
		}
	}
	return best
}

func memberScore(c model.SearchCandidate) float64 {
	return 0.4*c.ExtractionConfidence + 0.4*c.Credibility + 0.2
}

// confidence rates the winning value. Corroboration across distinct
// domains earns a boost; a lone source caps out at its own score.
func confidence(winner cluster, best model.SearchCandidate) float64 {
	conf := memberScore(best)
	if len(distinctSources(winner.members)) > 1 {
		conf *= 1.1
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

func distinctSources(members []model.SearchCandidate) []string {
	seen := make(map[string]struct{}, len(members))
	var out []string
	for _, m := range members {
		if _, ok := seen[m.SourceURL]; ok {
			continue
		}
		seen[m.SourceURL] = struct{}{}
		out = append(out, m.SourceURL)
	}
	sort.Strings(out)
	return out
}

func sortAlternatives(alts []model.Alternative) {
	sort.SliceStable(alts, func(i, j int) bool {
		if alts[i].Value != alts[j].Value {
			return alts[i].Value < alts[j].Value
		}
		return alts[i].Source < alts[j].Source
	})
}
