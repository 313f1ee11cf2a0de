package validate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(DefaultTolerance, WithNow(func() time.Time { return fixedNow }))
}

func cand(value float64, url, domain string, extraction, credibility float64) model.SearchCandidate {
	return model.SearchCandidate{
		Field:                "total_revenue",
		Value:                value,
		SourceURL:            url,
		SourceDomain:         domain,
		RetrievedAt:          fixedNow,
		ExtractionConfidence: extraction,
		Credibility:          credibility,
	}
}

func TestReconcileNoCandidates(t *testing.T) {
	v := newTestValidator()

	res := v.Reconcile("total_revenue", nil)
	assert.Nil(t, res.BestValue)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "no data points extracted from search results", res.Notes)
	assert.Equal(t, fixedNow, res.ResolvedAt)
}

func TestReconcileAgreementWins(t *testing.T) {
	v := newTestValidator()

	candidates := []model.SearchCandidate{
		cand(394e9, "https://sec.gov/a", "sec.gov", 0.8, 0.9),
		cand(395e9, "https://bloomberg.com/b", "bloomberg.com", 0.7, 0.8), // within 2% of 394e9
		cand(120e9, "https://reddit.com/c", "reddit.com", 0.6, 0.3),
	}

	res := v.Reconcile("total_revenue", candidates)
	require.NotNil(t, res.BestValue)
	assert.InDelta(t, 394e9, *res.BestValue, 1)
	assert.Len(t, res.Sources, 2)
	assert.Len(t, res.Alternatives, 1)
	assert.InDelta(t, 120e9, res.Alternatives[0].Value, 1)
}

func TestReconcileCredibleSourceBeatsForumPile(t *testing.T) {
	v := newTestValidator()

	candidates := []model.SearchCandidate{
		cand(100e9, "https://sec.gov/filing", "sec.gov", 0.8, 0.95),
		cand(250e9, "https://reddit.com/1", "reddit.com", 0.6, 0.25),
		cand(251e9, "https://reddit.com/2", "reddit.com", 0.6, 0.25),
		cand(252e9, "https://quora.com/3", "quora.com", 0.6, 0.22),
	}

	res := v.Reconcile("total_revenue", candidates)
	require.NotNil(t, res.BestValue)
	assert.InDelta(t, 100e9, *res.BestValue, 1, "one filing should outrank agreeing forum posts")
}

func TestReconcileSameSourceCountsOnce(t *testing.T) {
	v := newTestValidator()

	// Two phrasings of the same wrong figure on one page must not
	// outvote a single independent filing.
	candidates := []model.SearchCandidate{
		cand(100e9, "https://sec.gov/filing", "sec.gov", 0.8, 0.9),
		cand(250e9, "https://fool.com/article", "fool.com", 0.7, 0.5),
		cand(250e9, "https://fool.com/article", "fool.com", 0.6, 0.5),
	}

	res := v.Reconcile("total_revenue", candidates)
	require.NotNil(t, res.BestValue)
	assert.InDelta(t, 100e9, *res.BestValue, 1)
}

func TestReconcileOrderInvariant(t *testing.T) {
	v := newTestValidator()

	candidates := []model.SearchCandidate{
		cand(394e9, "https://sec.gov/a", "sec.gov", 0.8, 0.9),
		cand(395e9, "https://bloomberg.com/b", "bloomberg.com", 0.7, 0.8),
		cand(120e9, "https://reddit.com/c", "reddit.com", 0.6, 0.3),
		cand(118e9, "https://fool.com/d", "fool.com", 0.5, 0.5),
	}

	baseline := v.Reconcile("total_revenue", candidates)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]model.SearchCandidate, len(candidates))
		copy(shuffled, candidates)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		res := v.Reconcile("total_revenue", shuffled)
		require.NotNil(t, res.BestValue)
		assert.Equal(t, *baseline.BestValue, *res.BestValue)
		assert.Equal(t, baseline.Confidence, res.Confidence)
		assert.Equal(t, baseline.Sources, res.Sources)
		assert.Equal(t, baseline.Alternatives, res.Alternatives)
	}
}

func TestReconcileSanityDemotion(t *testing.T) {
	v := newTestValidator()

	candidates := []model.SearchCandidate{
		{Field: "roic", Value: 0.25, SourceURL: "https://sec.gov/a", SourceDomain: "sec.gov", RetrievedAt: fixedNow, ExtractionConfidence: 0.8, Credibility: 0.9},
		{Field: "roic", Value: 25.0, SourceURL: "https://blog.example.com/b", SourceDomain: "blog.example.com", RetrievedAt: fixedNow, ExtractionConfidence: 0.9, Credibility: 0.9},
	}

	res := v.Reconcile("roic", candidates)
	require.NotNil(t, res.BestValue)
	assert.InDelta(t, 0.25, *res.BestValue, 1e-9)
	require.Len(t, res.Alternatives, 1)
	assert.InDelta(t, 25.0, res.Alternatives[0].Value, 1e-9)
}

func TestReconcileAllFailSanity(t *testing.T) {
	v := newTestValidator()

	candidates := []model.SearchCandidate{
		{Field: "roic", Value: 30, SourceURL: "https://a.example.com", SourceDomain: "a.example.com", RetrievedAt: fixedNow, Credibility: 0.5},
	}

	res := v.Reconcile("roic", candidates)
	assert.Nil(t, res.BestValue)
	assert.Zero(t, res.Confidence)
	assert.Len(t, res.Alternatives, 1)
	assert.Contains(t, res.Notes, "failed sanity checks")
}

func TestCorroborationBoost(t *testing.T) {
	v := newTestValidator()

	single := v.Reconcile("total_revenue", []model.SearchCandidate{
		cand(100e9, "https://sec.gov/a", "sec.gov", 0.8, 0.9),
	})
	corroborated := v.Reconcile("total_revenue", []model.SearchCandidate{
		cand(100e9, "https://sec.gov/a", "sec.gov", 0.8, 0.9),
		cand(100.5e9, "https://bloomberg.com/b", "bloomberg.com", 0.8, 0.9),
	})

	require.NotNil(t, single.BestValue)
	require.NotNil(t, corroborated.BestValue)
	assert.Greater(t, corroborated.Confidence, single.Confidence)
	assert.LessOrEqual(t, corroborated.Confidence, 1.0)
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, withinTolerance(100, 101, 0.02))
	assert.False(t, withinTolerance(100, 105, 0.02))
	assert.True(t, withinTolerance(0, 0, 0.02))
	assert.True(t, withinTolerance(-100, -101, 0.02))
}
