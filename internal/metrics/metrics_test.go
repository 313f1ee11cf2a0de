package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

func newBundle() *model.FundamentalsBundle {
	return &model.FundamentalsBundle{
		Ticker: "TEST",
		Fields: map[string]model.FieldValue{},
		Series: map[string][]model.AnnualValue{},
	}
}

func setField(b *model.FundamentalsBundle, name string, value, conf float64) {
	b.Fields[name] = model.FieldValue{Value: model.Float(value), Source: model.SourcePrimary, Confidence: conf}
}

func setSeries(b *model.FundamentalsBundle, name string, byYear map[int]float64) {
	var s []model.AnnualValue
	for y, v := range byYear {
		s = append(s, model.AnnualValue{Year: y, Value: v})
	}
	b.Series[name] = s
}

func TestCAGR(t *testing.T) {
	series := func(byYear map[int]float64) []model.AnnualValue {
		var s []model.AnnualValue
		for y, v := range byYear {
			s = append(s, model.AnnualValue{Year: y, Value: v})
		}
		return s
	}

	t.Run("single point", func(t *testing.T) {
		assert.Nil(t, CAGR(series(map[int]float64{2023: 100}), 10))
	})

	t.Run("zero start", func(t *testing.T) {
		assert.Nil(t, CAGR(series(map[int]float64{2022: 0, 2023: 100}), 10))
	})

	t.Run("sign change", func(t *testing.T) {
		assert.Nil(t, CAGR(series(map[int]float64{2022: -50, 2023: 100}), 10))
		assert.Nil(t, CAGR(series(map[int]float64{2022: 50, 2023: -100}), 10))
	})

	t.Run("steady growth", func(t *testing.T) {
		rate := CAGR(series(map[int]float64{2020: 100, 2021: 110, 2022: 121, 2023: 133.1}), 10)
		require.NotNil(t, rate)
		assert.InDelta(t, 0.10, *rate, 1e-9)
	})

	t.Run("window trims oldest years", func(t *testing.T) {
		// With years=2 only the last three points count, so the jump
		// from 50 to 100 is out of the window.
		rate := CAGR(series(map[int]float64{2020: 50, 2021: 100, 2022: 110, 2023: 121}), 2)
		require.NotNil(t, rate)
		assert.InDelta(t, 0.10, *rate, 1e-9)
	})

	t.Run("negative throughout", func(t *testing.T) {
		rate := CAGR(series(map[int]float64{2022: -100, 2023: -50}), 10)
		require.NotNil(t, rate)
		assert.InDelta(t, -0.5, *rate, 1e-9)
	})
}

func TestROICFromSeries(t *testing.T) {
	b := newBundle()
	setSeries(b, "ebit", map[int]float64{2022: 100, 2023: 200})
	setSeries(b, "total_stockholder_equity", map[int]float64{2022: 400, 2023: 800})
	setSeries(b, "long_term_debt", map[int]float64{2022: 100, 2023: 200})

	m := NewCalculator(b).PhilTown().Metrics["roic"]
	require.NotNil(t, m.Value)
	// Both years: EBIT * (1 - 0.21) / (equity + LTD) = 0.158.
	assert.InDelta(t, 0.158, *m.Value, 1e-9)
	assert.Equal(t, 1.0, m.Confidence)
}

func TestROICEBITFallbackAndEffectiveTax(t *testing.T) {
	b := newBundle()
	setSeries(b, "net_income", map[int]float64{2023: 150})
	setSeries(b, "interest_expense", map[int]float64{2023: 30})
	setSeries(b, "tax_provision", map[int]float64{2023: 20})
	setSeries(b, "pretax_income", map[int]float64{2023: 170})
	setSeries(b, "total_stockholder_equity", map[int]float64{2023: 800})
	setSeries(b, "long_term_debt", map[int]float64{2023: 200})

	m := NewCalculator(b).PhilTown().Metrics["roic"]
	require.NotNil(t, m.Value)
	// EBIT = 150 + 30 + 20 = 200; effective rate 20/170.
	want := 200 * (1 - 20.0/170.0) / 1000
	assert.InDelta(t, want, *m.Value, 1e-9)
}

func TestROICScalarFallback(t *testing.T) {
	b := newBundle()
	setField(b, "ebit", 200, 1)
	setField(b, "total_stockholder_equity", 800, 0.6)
	setField(b, "long_term_debt", 200, 1)

	m := NewCalculator(b).PhilTown().Metrics["roic"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 200*(1-DefaultTaxRate)/1000, *m.Value, 1e-9)
	assert.Equal(t, 0.6, m.Confidence, "weakest input confidence propagates")
}

func TestROICMissing(t *testing.T) {
	m := NewCalculator(newBundle()).PhilTown().Metrics["roic"]
	assert.Nil(t, m.Value)
	assert.Zero(t, m.Confidence)
	assert.NotEmpty(t, m.Note)
}

func TestGrowthMetricSignChange(t *testing.T) {
	b := newBundle()
	setSeries(b, "total_revenue", map[int]float64{2022: -100, 2023: 100})

	m := NewCalculator(b).PhilTown().Metrics["sales_growth"]
	assert.Nil(t, m.Value)
	assert.Equal(t, "insufficient history for a growth rate", m.Note)
}

func TestDebtPayoffYears(t *testing.T) {
	b := newBundle()
	setSeries(b, "long_term_debt", map[int]float64{2022: 600, 2023: 500})
	setSeries(b, "operating_cash_flow", map[int]float64{2023: 200})
	setSeries(b, "capital_expenditure", map[int]float64{2023: -100})

	m := NewCalculator(b).PhilTown().Metrics["debt_payoff_years"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 5.0, *m.Value, 1e-9)
}

func TestDebtPayoffNegativeFCF(t *testing.T) {
	b := newBundle()
	setSeries(b, "long_term_debt", map[int]float64{2023: 500})
	setSeries(b, "operating_cash_flow", map[int]float64{2023: 50})
	setSeries(b, "capital_expenditure", map[int]float64{2023: -100})

	m := NewCalculator(b).PhilTown().Metrics["debt_payoff_years"]
	assert.Nil(t, m.Value)
	assert.Equal(t, "free cash flow not positive", m.Note)
}

func TestStickerPriceKnownValue(t *testing.T) {
	b := newBundle()
	setField(b, "trailing_eps", 5, 1)
	setField(b, "earnings_growth", 0.10, 1)
	setField(b, "trailing_pe", 25, 1)
	setField(b, "current_price", 40, 1)

	metrics := NewCalculator(b).PhilTown().Metrics

	sticker := metrics["sticker_price"]
	require.NotNil(t, sticker.Value)
	// Future P/E is 2 * growth * 100 = 20, below both the trailing
	// multiple and the cap.
	want := 5 * math.Pow(1.10, YearsToProject) * 20 / math.Pow(1+MinAcceptableReturn, YearsToProject)
	assert.InDelta(t, want, *sticker.Value, 1e-6)

	mos := metrics["margin_of_safety"]
	require.NotNil(t, mos.Value)
	assert.InDelta(t, want/2, *mos.Value, 1e-6)
	assert.NotEmpty(t, mos.Note)

	price := metrics["current_price"]
	require.NotNil(t, price.Value)
	assert.Equal(t, 40.0, *price.Value)
}

func TestStickerPriceGrowthCapped(t *testing.T) {
	b := newBundle()
	setField(b, "trailing_eps", 5, 1)
	setField(b, "earnings_growth", 0.40, 1)

	m := NewCalculator(b).PhilTown().Metrics["sticker_price"]
	require.NotNil(t, m.Value)
	// Growth capped at 0.15, future P/E at 2 * 0.15 * 100 capped to 30.
	want := 5 * math.Pow(1+GrowthRateCap, YearsToProject) * FuturePECap / math.Pow(1+MinAcceptableReturn, YearsToProject)
	assert.InDelta(t, want, *m.Value, 1e-6)
}

func TestStickerPriceNegativeEPS(t *testing.T) {
	b := newBundle()
	setField(b, "trailing_eps", -1.5, 1)

	metrics := NewCalculator(b).PhilTown().Metrics
	assert.Nil(t, metrics["sticker_price"].Value)
	assert.Nil(t, metrics["margin_of_safety"].Value)
	assert.Equal(t, "current EPS not positive, valuation unsuitable", metrics["sticker_price"].Note)
}

func TestNetMarginTrend(t *testing.T) {
	b := newBundle()
	setSeries(b, "net_income", map[int]float64{2021: 10, 2022: 15, 2023: 20})
	setSeries(b, "total_revenue", map[int]float64{2021: 100, 2022: 100, 2023: 100})

	m := NewCalculator(b).HighGrowth().Metrics["net_margin"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 0.20, *m.Value, 1e-9)
	assert.Contains(t, m.Note, TrendExpanding)

	setSeries(b, "net_income", map[int]float64{2021: 20, 2022: 15, 2023: 10})
	m = NewCalculator(b).HighGrowth().Metrics["net_margin"]
	require.NotNil(t, m.Value)
	assert.Contains(t, m.Note, TrendContracting)
}

func TestNetMarginScalarFallback(t *testing.T) {
	b := newBundle()
	setField(b, "net_income", 25, 0.55)
	setField(b, "total_revenue", 100, 1)

	m := NewCalculator(b).HighGrowth().Metrics["net_margin"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 0.25, *m.Value, 1e-9)
	assert.Equal(t, 0.55, m.Confidence)
}

func TestROEZeroEquity(t *testing.T) {
	b := newBundle()
	setSeries(b, "net_income", map[int]float64{2023: 100})
	setSeries(b, "total_stockholder_equity", map[int]float64{2023: 0})

	m := NewCalculator(b).HighGrowth().Metrics["roe"]
	assert.Nil(t, m.Value)
	assert.Equal(t, "equity is zero", m.Note)
}

func TestNetDebtToEBITDA(t *testing.T) {
	b := newBundle()
	setField(b, "total_debt", 300, 1)
	setField(b, "cash_and_cash_equivalents", 100, 1)
	setField(b, "ebitda", 100, 1)

	m := NewCalculator(b).HighGrowth().Metrics["net_debt_to_ebitda"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 2.0, *m.Value, 1e-9)
}

func TestPSRFallsBackToMarketCapOverRevenue(t *testing.T) {
	b := newBundle()
	setField(b, "market_cap", 1000, 1)
	setSeries(b, "total_revenue", map[int]float64{2022: 400, 2023: 500})

	m := NewCalculator(b).HighGrowth().Metrics["psr_ratio"]
	require.NotNil(t, m.Value)
	assert.InDelta(t, 2.0, *m.Value, 1e-9)
}

func TestComputeUnknownStrategy(t *testing.T) {
	_, err := NewCalculator(newBundle()).Compute(model.Strategy("momentum"))
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
}
