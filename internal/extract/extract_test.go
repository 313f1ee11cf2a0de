package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		value float64
		unit  string
		ok    bool
	}{
		{"plain", "123", 123, "", true},
		{"decimal", "42.5", 42.5, "", true},
		{"billions", "2.5B", 2.5e9, "B", true},
		{"millions lowercase", "850m", 850e6, "M", true},
		{"thousands", "12K", 12e3, "K", true},
		{"trillions with dollar", "$1.2T", 1.2e12, "T", true},
		{"commas stripped", "1,234,567", 1234567, "", true},
		{"commas and suffix", "$1,234.5M", 1.2345e9, "M", true},
		{"percent", "15.3%", 0.153, "%", true},
		{"percent with space", "7 %", 0.07, "%", true},
		{"dash rejected", "-", 0, "", false},
		{"na rejected", "n/a", 0, "", false},
		{"empty rejected", "", 0, "", false},
		{"garbage rejected", "abc", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, unit, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.value, value, 1e-9)
				assert.Equal(t, tt.unit, unit)
			}
		})
	}
}

func TestExtractLabeledRevenue(t *testing.T) {
	e := NewExtractor()

	matches := e.Extract("total_revenue", "From the annual report: Total Revenue: $394.3B for fiscal year 2024.")
	require.NotEmpty(t, matches)

	assert.InDelta(t, 394.3e9, matches[0].Value, 1)
	// Specific pattern plus positive context: 0.5 + 0.2 + 0.1.
	assert.InDelta(t, 0.8, matches[0].Confidence, 1e-9)
}

func TestExtractPercentField(t *testing.T) {
	e := NewExtractor()

	matches := e.Extract("roic", "The SEC filing shows ROIC of 25.2% for the year.")
	require.NotEmpty(t, matches)
	assert.InDelta(t, 0.252, matches[0].Value, 1e-9)
}

func TestExtractNegativeContextScoresLower(t *testing.T) {
	e := NewExtractor()

	reported := e.Extract("net_income", "Net Income: $96.9B per the income statement.")
	projected := e.Extract("net_income", "Analyst consensus forecast puts Net Income: $96.9B next year.")
	require.NotEmpty(t, reported)
	require.NotEmpty(t, projected)

	assert.Greater(t, reported[0].Confidence, projected[0].Confidence)
}

func TestExtractWindowHandlesMultibyteText(t *testing.T) {
	e := NewExtractor()

	// Lowercasing U+0130 grows it from two bytes to three, so the
	// context window must be cut from the original text before folding;
	// offsets applied to a pre-lowercased copy would miss the
	// fiscal-year indicator that follows the figure.
	doc := strings.Repeat("İ", 60) + "Total Revenue: $394.3B" + strings.Repeat(".", 50) + "fiscal year results"
	matches := e.Extract("total_revenue", doc)
	require.NotEmpty(t, matches)

	assert.InDelta(t, 394.3e9, matches[0].Value, 1)
	// Specific pattern plus positive context: 0.5 + 0.2 + 0.1.
	assert.InDelta(t, 0.8, matches[0].Confidence, 1e-9)
}

func TestExtractUnknownFieldOrEmptyContent(t *testing.T) {
	e := NewExtractor()

	assert.Empty(t, e.Extract("no_such_field", "Revenue: $1B"))
	assert.Empty(t, e.Extract("total_revenue", ""))
	assert.Empty(t, e.Extract("total_revenue", "no numbers here"))
}

func TestExtractDeduplicatesAndSorts(t *testing.T) {
	e := NewExtractor()

	content := "Total Revenue: $10B. Later the filing repeats Total Revenue: $10B and mentions Revenue: $9.8B."
	matches := e.Extract("total_revenue", content)
	require.GreaterOrEqual(t, len(matches), 2)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}

	seen := map[float64]int{}
	for _, m := range matches {
		seen[m.Value]++
	}
	assert.Equal(t, 1, seen[10e9], "repeated identical figure should collapse")
}

func TestSupportedFieldsCoversStrategyCriticals(t *testing.T) {
	fields := SupportedFields()
	set := map[string]bool{}
	for _, f := range fields {
		set[f] = true
	}
	for _, f := range []string{"ebit", "total_revenue", "diluted_eps", "total_stockholder_equity", "net_income", "ebitda"} {
		assert.True(t, set[f], f)
	}
}
