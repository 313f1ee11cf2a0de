package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

func TestGenerateTickerHandling(t *testing.T) {
	g := NewGenerator(0)

	queries, err := g.Generate(" aapl ", model.StrategyPhilTown, "ebit")
	require.NoError(t, err)
	require.NotEmpty(t, queries)
	for _, q := range queries {
		assert.Contains(t, q, "AAPL")
		assert.NotContains(t, q, "{ticker}")
	}
}

func TestGenerateEmptyTicker(t *testing.T) {
	g := NewGenerator(4)

	_, err := g.Generate("   ", model.StrategyPhilTown, "ebit")
	assert.ErrorIs(t, err, ErrEmptyTicker)
}

func TestGenerateCap(t *testing.T) {
	g := NewGenerator(2)

	queries, err := g.Generate("MSFT", model.StrategyPhilTown, "diluted_eps")
	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestGenerateGenericFallback(t *testing.T) {
	g := NewGenerator(4)

	queries, err := g.Generate("TSLA", model.StrategyHighGrowth, "shares_outstanding")
	require.NoError(t, err)
	require.Len(t, queries, 4)
	for _, q := range queries {
		assert.Contains(t, q, "shares outstanding")
	}
}

func TestGenerateSiteFiltersSurvive(t *testing.T) {
	g := NewGenerator(4)

	queries, err := g.Generate("NVDA", model.StrategyPhilTown, "ebit")
	require.NoError(t, err)

	found := false
	for _, q := range queries {
		if strings.Contains(q, "site:sec.gov") {
			found = true
		}
	}
	assert.True(t, found, "targeted site filter should survive expansion")
}
