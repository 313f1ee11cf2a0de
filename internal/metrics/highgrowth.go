package metrics

import (
	"fmt"
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

// Margin trend labels over the trend window.
const (
	TrendExpanding   = "Expanding"
	TrendContracting = "Contracting"
	TrendStable      = "Stable"
)

// HighGrowth computes the growth-quality metric set: short-window sales
// growth, net margin level and trend, returns, leverage, and the
// valuation multiples.
func (c *Calculator) HighGrowth() model.StrategyMetricSet {
	set := model.StrategyMetricSet{
		Strategy: model.StrategyHighGrowth,
		Metrics:  make(map[string]model.Metric),
	}

	set.Metrics["sales_growth"] = c.growthMetric("sales_growth", "Sales",
		c.b.SeriesFor("total_revenue"), YearsForTrend, "total_revenue")

	c.netMarginMetrics(set.Metrics)
	set.Metrics["roe"] = c.roeMetric()
	set.Metrics["roic"] = c.roicMetric()
	set.Metrics["net_debt_to_ebitda"] = c.netDebtToEBITDAMetric()
	set.Metrics["psr_ratio"] = c.psrMetric()
	set.Metrics["per_ratio"] = c.perMetric()
	set.Metrics["ev_to_ebitda"] = c.evToEBITDAMetric()
	set.Metrics["insider_ownership"] = c.insiderOwnershipMetric()
	set.Metrics["dividend_yield"] = c.dividendYieldMetric()

	return set
}

// netMarginMetrics derives annual net margins from the income series
// and labels the direction over the trend window.
func (c *Calculator) netMarginMetrics(out map[string]model.Metric) {
	inputs := []string{"net_income", "total_revenue"}

	margins := c.netMarginSeries()
	if len(margins) == 0 {
		// One-year margin from scalars covers the imputed-data shape.
		ni, _, niOK := c.scalar("net_income")
		rev, _, revOK := c.scalar("total_revenue")
		if niOK && revOK && rev != 0 {
			m := ni / rev
			out["net_margin"] = metric("net_margin", &m,
				c.minConfidence(inputs...), interpretMargin(m), inputs...)
			return
		}
		out["net_margin"] = missing("net_margin", "net income or revenue unavailable", inputs...)
		return
	}

	// Newest margin is the level; first vs last over the window is the
	// trend.
	windowed := margins
	if len(windowed) > YearsForTrend {
		windowed = windowed[len(windowed)-YearsForTrend:]
	}
	current := windowed[len(windowed)-1].Value

	note := interpretMargin(current)
	if len(windowed) >= 2 {
		first, last := windowed[0].Value, windowed[len(windowed)-1].Value
		trend := TrendStable
		switch {
		case last > first:
			trend = TrendExpanding
		case last < first:
			trend = TrendContracting
		}
		note = fmt.Sprintf("%s (%s)", interpretMargin(current), trend)
	}

	out["net_margin"] = metric("net_margin", &current, c.minConfidence(inputs...), note, inputs...)
}

func (c *Calculator) netMarginSeries() []model.AnnualValue {
	ni := seriesByYear(c.b.SeriesFor("net_income"))
	rev := seriesByYear(c.b.SeriesFor("total_revenue"))

	var out []model.AnnualValue
	for year, n := range ni {
		if r, ok := rev[year]; ok && r != 0 {
			out = append(out, model.AnnualValue{Year: year, Value: n / r})
		}
	}
	sortByYear(out)
	return out
}

func (c *Calculator) roeMetric() model.Metric {
	inputs := []string{"net_income", "total_stockholder_equity"}

	ni, niOK := latest(c.b.SeriesFor("net_income"))
	if !niOK {
		var s bool
		ni, _, s = c.scalar("net_income")
		niOK = s
	}
	eq, eqOK := latest(c.b.SeriesFor("total_stockholder_equity"))
	if !eqOK {
		var s bool
		eq, _, s = c.scalar("total_stockholder_equity")
		eqOK = s
	}

	if !niOK || !eqOK {
		return missing("roe", "net income or equity unavailable", inputs...)
	}
	if eq == 0 {
		return missing("roe", "equity is zero", inputs...)
	}

	roe := ni / eq
	return metric("roe", &roe, c.minConfidence(inputs...), interpretROE(roe), inputs...)
}

func (c *Calculator) netDebtToEBITDAMetric() model.Metric {
	inputs := []string{"total_debt", "cash_and_cash_equivalents", "ebitda"}

	debt, _, debtOK := c.scalar("total_debt", "long_term_debt")
	if !debtOK {
		if v, ok := latest(c.b.SeriesFor("total_debt")); ok {
			debt, debtOK = v, true
		}
	}
	cash, _, cashOK := c.scalar("cash_and_cash_equivalents")
	if !cashOK {
		if v, ok := latest(c.b.SeriesFor("cash_and_cash_equivalents")); ok {
			cash, cashOK = v, true
		}
	}
	if !debtOK || !cashOK {
		return missing("net_debt_to_ebitda", "debt or cash position unavailable", inputs...)
	}

	ebitda, _, ok := c.scalar("ebitda", "ebit")
	if !ok {
		return missing("net_debt_to_ebitda", "EBITDA unavailable", inputs...)
	}
	if ebitda == 0 {
		return missing("net_debt_to_ebitda", "EBITDA is zero", inputs...)
	}

	ratio := (debt - cash) / ebitda
	return metric("net_debt_to_ebitda", &ratio, c.minConfidence(inputs...), interpretDebtRatio(ratio), inputs...)
}

func (c *Calculator) psrMetric() model.Metric {
	if v, _, ok := c.scalar("psr_ratio"); ok {
		return metric("psr_ratio", &v, c.minConfidence("psr_ratio"),
			interpretValuation(v, "PSR"), "psr_ratio")
	}

	inputs := []string{"market_cap", "total_revenue"}
	mc, _, mcOK := c.scalar("market_cap")
	rev, revOK := latest(c.b.SeriesFor("total_revenue"))
	if !revOK {
		var s bool
		rev, _, s = c.scalar("total_revenue")
		revOK = s
	}
	if !mcOK || !revOK {
		return missing("psr_ratio", "market cap or revenue unavailable", inputs...)
	}
	if rev == 0 {
		return missing("psr_ratio", "revenue is zero", inputs...)
	}

	psr := mc / rev
	return metric("psr_ratio", &psr, c.minConfidence(inputs...), interpretValuation(psr, "PSR"), inputs...)
}

func (c *Calculator) perMetric() model.Metric {
	v, _, ok := c.scalar("trailing_pe", "pe_ratio")
	if !ok {
		return missing("per_ratio", "trailing P/E unavailable", "trailing_pe")
	}
	return metric("per_ratio", &v, c.minConfidence("trailing_pe", "pe_ratio"),
		interpretValuation(v, "P/E"), "trailing_pe")
}

func (c *Calculator) evToEBITDAMetric() model.Metric {
	v, _, ok := c.scalar("ev_to_ebitda")
	if !ok {
		return missing("ev_to_ebitda", "enterprise multiple unavailable", "ev_to_ebitda")
	}
	return metric("ev_to_ebitda", &v, c.minConfidence("ev_to_ebitda"),
		interpretValuation(v, "EV/EBITDA"), "ev_to_ebitda")
}

func (c *Calculator) dividendYieldMetric() model.Metric {
	v, _, ok := c.scalar("dividend_yield")
	if !ok {
		return missing("dividend_yield", "dividend yield unavailable", "dividend_yield")
	}
	return metric("dividend_yield", &v, c.minConfidence("dividend_yield"),
		interpretDividendYield(v), "dividend_yield")
}

func sortByYear(series []model.AnnualValue) {
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
}
