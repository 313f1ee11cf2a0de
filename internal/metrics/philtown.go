package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

// PhilTown computes the Rule #1 value-investing metric set: average
// ROIC, the four growth rates, debt payoff capability, insider
// ownership, and the sticker price / margin of safety valuation.
func (c *Calculator) PhilTown() model.StrategyMetricSet {
	set := model.StrategyMetricSet{
		Strategy: model.StrategyPhilTown,
		Metrics:  make(map[string]model.Metric),
	}

	set.Metrics["roic"] = c.roicMetric()

	set.Metrics["eps_growth"] = c.growthMetric("eps_growth", "EPS",
		c.seriesFirst("diluted_eps", "basic_eps"), YearsOfData, "diluted_eps")
	set.Metrics["sales_growth"] = c.growthMetric("sales_growth", "Sales",
		c.b.SeriesFor("total_revenue"), YearsOfData, "total_revenue")
	set.Metrics["bvps_growth"] = c.growthMetric("bvps_growth", "Book Value",
		c.bvpsSeries(), YearsOfData, "total_stockholder_equity")
	set.Metrics["fcf_growth"] = c.growthMetric("fcf_growth", "Free Cash Flow",
		c.fcfSeries(), YearsOfData, "operating_cash_flow", "capital_expenditure")

	set.Metrics["debt_payoff_years"] = c.debtPayoffMetric()
	set.Metrics["insider_ownership"] = c.insiderOwnershipMetric()

	c.marginOfSafety(set.Metrics)

	return set
}

// roicMetric averages NOPAT / invested capital over the last ten
// statement years. EBIT falls back to net income plus interest and tax,
// then to operating income; the effective tax rate is used when it lies
// in [0, 0.60], otherwise the statutory default applies.
func (c *Calculator) roicMetric() model.Metric {
	inputs := []string{"ebit", "total_stockholder_equity", "long_term_debt"}

	annual := c.annualROIC()
	if len(annual) == 0 {
		if r, ok := c.singleYearROIC(); ok {
			return metric("roic", &r,
				c.minConfidence("ebit", "operating_income", "total_stockholder_equity", "long_term_debt"),
				interpretROIC(r), inputs...)
		}
		return missing("roic", "insufficient data to compute invested capital returns", inputs...)
	}

	sum := 0.0
	for _, r := range annual {
		sum += r
	}
	avg := sum / float64(len(annual))
	return metric("roic", &avg, c.minConfidence(inputs...), interpretROIC(avg), inputs...)
}

// annualROIC computes per-year ROIC from the statement series.
func (c *Calculator) annualROIC() []float64 {
	equity := seriesByYear(c.b.SeriesFor("total_stockholder_equity"))
	if len(equity) == 0 {
		return nil
	}

	ebit := seriesByYear(c.b.SeriesFor("ebit"))
	netIncome := seriesByYear(c.b.SeriesFor("net_income"))
	interest := seriesByYear(c.b.SeriesFor("interest_expense"))
	taxProv := seriesByYear(c.b.SeriesFor("tax_provision"))
	pretax := seriesByYear(c.b.SeriesFor("pretax_income"))
	opIncome := seriesByYear(c.b.SeriesFor("operating_income"))
	ltd := seriesByYear(c.b.SeriesFor("long_term_debt"))
	totalDebt := seriesByYear(c.b.SeriesFor("total_debt"))
	currentDebt := seriesByYear(c.b.SeriesFor("current_debt"))

	years := recentYears(equity, YearsOfData)

	var out []float64
	for _, y := range years {
		e, ok := ebit[y]
		if !ok {
			ni, niOK := netIncome[y]
			ie, ieOK := interest[y]
			tp, tpOK := taxProv[y]
			if niOK && ieOK && tpOK {
				e = ni + ie + tp
			} else if oi, oiOK := opIncome[y]; oiOK {
				e = oi
			} else {
				continue
			}
		}

		taxRate := DefaultTaxRate
		if pt, ptOK := pretax[y]; ptOK && pt != 0 {
			if tp, tpOK := taxProv[y]; tpOK {
				if eff := tp / pt; eff >= 0 && eff <= 0.60 {
					taxRate = eff
				}
			}
		}
		nopat := e * (1 - taxRate)

		debt, ok := ltd[y]
		if !ok {
			td, tdOK := totalDebt[y]
			cd, cdOK := currentDebt[y]
			switch {
			case tdOK && cdOK:
				debt = td - cd
			case tdOK:
				debt = td
			default:
				debt = 0
			}
		}

		invested := equity[y] + debt
		if invested == 0 {
			continue
		}
		r := nopat / invested
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// singleYearROIC falls back to scalar fields when no statement series
// exist, which is the shape imputed values arrive in.
func (c *Calculator) singleYearROIC() (float64, bool) {
	ebit, _, ok := c.scalar("ebit", "operating_income")
	if !ok {
		return 0, false
	}
	equity, _, ok := c.scalar("total_stockholder_equity")
	if !ok {
		return 0, false
	}
	debt, _, _ := c.scalar("long_term_debt", "total_debt")
	invested := equity + debt
	if invested == 0 {
		return 0, false
	}
	return ebit * (1 - DefaultTaxRate) / invested, true
}

func (c *Calculator) growthMetric(name, label string, series []model.AnnualValue, years int, inputs ...string) model.Metric {
	rate := CAGR(series, years)
	if rate == nil {
		return missing(name, "insufficient history for a growth rate", inputs...)
	}
	return metric(name, rate, c.minConfidence(inputs...), interpretGrowth(*rate, label), inputs...)
}

// bvpsSeries divides equity by share count for the years both exist.
func (c *Calculator) bvpsSeries() []model.AnnualValue {
	equity := seriesByYear(c.b.SeriesFor("total_stockholder_equity"))
	shares := seriesByYear(c.seriesFirst("diluted_average_shares", "basic_average_shares"))

	var out []model.AnnualValue
	for year, eq := range equity {
		if sh, ok := shares[year]; ok && sh != 0 {
			out = append(out, model.AnnualValue{Year: year, Value: eq / sh})
		}
	}
	return out
}

// fcfSeries sums operating cash flow and capital expenditure for the
// years both exist. Capital expenditure is reported as a negative
// outflow, so addition yields free cash flow.
func (c *Calculator) fcfSeries() []model.AnnualValue {
	ocf := seriesByYear(c.b.SeriesFor("operating_cash_flow"))
	capex := seriesByYear(c.b.SeriesFor("capital_expenditure"))

	var out []model.AnnualValue
	for year, o := range ocf {
		if ce, ok := capex[year]; ok {
			out = append(out, model.AnnualValue{Year: year, Value: o + ce})
		}
	}
	return out
}

func (c *Calculator) debtPayoffMetric() model.Metric {
	inputs := []string{"long_term_debt", "operating_cash_flow", "capital_expenditure"}

	debt, ok := c.latestLongTermDebt()
	if !ok {
		return missing("debt_payoff_years", "long-term debt unavailable", inputs...)
	}

	fcf, ok := c.latestFCF()
	if !ok {
		return missing("debt_payoff_years", "free cash flow unavailable", inputs...)
	}
	if fcf <= 0 {
		return missing("debt_payoff_years", "free cash flow not positive", inputs...)
	}

	years := debt / fcf
	return metric("debt_payoff_years", &years, c.minConfidence(inputs...), interpretDebtPayoff(years), inputs...)
}

func (c *Calculator) latestLongTermDebt() (float64, bool) {
	if v, ok := latest(c.b.SeriesFor("long_term_debt")); ok {
		return v, true
	}
	if v, _, ok := c.scalar("long_term_debt"); ok {
		return v, true
	}
	td, tdOK := latest(c.b.SeriesFor("total_debt"))
	if !tdOK {
		tdScalar, _, sOK := c.scalar("total_debt")
		if !sOK {
			return 0, false
		}
		td = tdScalar
	}
	if cd, ok := latest(c.b.SeriesFor("current_debt")); ok {
		return td - cd, true
	}
	return td, true
}

func (c *Calculator) latestFCF() (float64, bool) {
	if fcf, ok := latest(c.fcfSeries()); ok {
		return fcf, true
	}
	ocf, _, ocfOK := c.scalar("operating_cash_flow")
	capex, _, capexOK := c.scalar("capital_expenditure")
	if ocfOK && capexOK {
		return ocf + capex, true
	}
	return 0, false
}

func (c *Calculator) insiderOwnershipMetric() model.Metric {
	v, _, ok := c.scalar("insider_ownership")
	if !ok {
		return missing("insider_ownership", "insider ownership unavailable", "insider_ownership")
	}
	return metric("insider_ownership", &v, c.minConfidence("insider_ownership"),
		interpretInsiderOwnership(v), "insider_ownership")
}

// marginOfSafety projects EPS forward, applies a bounded multiple, and
// discounts back at the minimum acceptable return. The margin of safety
// price is half the sticker price.
func (c *Calculator) marginOfSafety(out map[string]model.Metric) {
	inputs := []string{"trailing_eps", "diluted_eps", "earnings_growth", "trailing_pe"}

	currentEPS, _, ok := c.scalar("trailing_eps")
	if !ok {
		if v, lok := latest(c.seriesFirst("diluted_eps", "basic_eps")); lok {
			currentEPS, ok = v, true
		}
	}
	if !ok || currentEPS <= 0 {
		note := "current EPS not positive, valuation unsuitable"
		out["sticker_price"] = missing("sticker_price", note, inputs...)
		out["margin_of_safety"] = missing("margin_of_safety", note, inputs...)
		return
	}

	histGrowth := CAGR(c.seriesFirst("diluted_eps", "basic_eps"), YearsOfData)
	var growthOptions []float64
	if histGrowth != nil {
		growthOptions = append(growthOptions, *histGrowth)
	}
	if g, _, gok := c.scalar("earnings_growth"); gok {
		growthOptions = append(growthOptions, g)
	}
	if len(growthOptions) == 0 {
		note := "no reliable EPS growth rate available"
		out["sticker_price"] = missing("sticker_price", note, inputs...)
		out["margin_of_safety"] = missing("margin_of_safety", note, inputs...)
		return
	}

	growth := growthOptions[0]
	for _, g := range growthOptions[1:] {
		if g < growth {
			growth = g
		}
	}
	if growth > GrowthRateCap {
		growth = GrowthRateCap
	}
	if growth < 0 {
		growth = 0
	}

	futureEPS := currentEPS * math.Pow(1+growth, YearsToProject)

	futurePE := 2 * growth * 100
	if pe, _, peOK := c.scalar("trailing_pe"); peOK && pe > 0 && pe < futurePE {
		futurePE = pe
	}
	if futurePE > FuturePECap {
		futurePE = FuturePECap
	}
	if futurePE <= 0 {
		if fpe, _, fpeOK := c.scalar("forward_pe"); fpeOK && fpe > 0 {
			futurePE = fpe
		} else {
			futurePE = 15
		}
	}

	sticker := futureEPS * futurePE / math.Pow(1+MinAcceptableReturn, YearsToProject)
	mos := sticker * 0.5
	conf := c.minConfidence("trailing_eps", "diluted_eps", "earnings_growth", "trailing_pe")

	out["sticker_price"] = metric("sticker_price", &sticker, conf,
		fmt.Sprintf("projected EPS %.2f at %.1fx in %d years", futureEPS, futurePE, YearsToProject), inputs...)

	var mosNote string
	if price, _, pok := c.scalar("current_price"); pok {
		mosNote = interpretMarginOfSafety(price, mos, sticker)
		out["current_price"] = metric("current_price", &price, c.minConfidence("current_price"), "", "current_price")
	}
	out["margin_of_safety"] = metric("margin_of_safety", &mos, conf, mosNote, inputs...)
}

// seriesFirst returns the first non-empty series among the names.
func (c *Calculator) seriesFirst(names ...string) []model.AnnualValue {
	for _, n := range names {
		if s := c.b.SeriesFor(n); len(s) > 0 {
			return s
		}
	}
	return nil
}

func seriesByYear(series []model.AnnualValue) map[int]float64 {
	out := make(map[int]float64, len(series))
	for _, av := range series {
		out[av.Year] = av.Value
	}
	return out
}

// recentYears returns the most recent n years present, newest first.
func recentYears(byYear map[int]float64, n int) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if len(years) > n {
		years = years[:n]
	}
	return years
}
