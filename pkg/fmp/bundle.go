package fmp

import (
	"time"

	"github.com/stocklens/stocklens/internal/model"
)

// assembleBundle merges the six FMP payloads into one bundle. Scalar
// fields carry full confidence; zero values are treated as absent
// because FMP reports missing data points as 0.
func assembleBundle(ticker string, profiles []Profile, quotes []Quote, metrics []KeyMetrics,
	income []IncomeStatement, balance []BalanceSheet, cashflow []CashFlow) *model.FundamentalsBundle {

	now := time.Now().UTC()
	b := &model.FundamentalsBundle{
		Ticker:    ticker,
		Fields:    map[string]model.FieldValue{},
		Series:    map[string][]model.AnnualValue{},
		FetchedAt: now,
	}

	set := func(field string, v float64) {
		if v == 0 {
			return
		}
		b.Fields[field] = model.FieldValue{
			Value:      model.Float(v),
			Source:     model.SourcePrimary,
			Confidence: 1.0,
			AsOf:       &now,
		}
	}

	if len(profiles) > 0 {
		p := profiles[0]
		set("market_cap", p.MktCap)
		set("current_price", p.Price)
		if p.Price > 0 {
			set("dividend_yield", p.LastDiv/p.Price)
		}
	}

	// Quote values win over profile values for overlapping fields.
	if len(quotes) > 0 {
		q := quotes[0]
		set("current_price", q.Price)
		set("market_cap", q.MarketCap)
		set("trailing_pe", q.PE)
		set("trailing_eps", q.EPS)
		set("shares_outstanding", q.SharesOutstanding)
	}

	if len(metrics) > 0 {
		m := metrics[0]
		set("pe_ratio", m.PERatio)
		if _, ok := b.Field("trailing_pe"); !ok {
			set("trailing_pe", m.PERatio)
		}
		set("psr_ratio", m.PriceToSalesRatio)
		set("ev_to_ebitda", m.EVToEBITDA)
		set("insider_ownership", m.InsiderOwnership)
		set("dividend_yield", m.DividendYield)
	}

	for _, is := range income {
		year, ok := fiscalYear(is.Date)
		if !ok {
			continue
		}
		addSeries(b, year, "total_revenue", is.Revenue)
		addSeries(b, year, "operating_income", is.OperatingIncome)
		addSeries(b, year, "ebitda", is.EBITDA)
		addSeries(b, year, "interest_expense", is.InterestExpense)
		addSeries(b, year, "pretax_income", is.IncomeBeforeTax)
		addSeries(b, year, "tax_provision", is.IncomeTaxExpense)
		addSeries(b, year, "net_income", is.NetIncome)
		addSeries(b, year, "basic_eps", is.EPS)
		addSeries(b, year, "diluted_eps", is.EPSDiluted)
		addSeries(b, year, "basic_average_shares", is.WeightedAvgShs)
		addSeries(b, year, "diluted_average_shares", is.WeightedAvgShsDil)
	}

	for _, bs := range balance {
		year, ok := fiscalYear(bs.Date)
		if !ok {
			continue
		}
		addSeries(b, year, "cash_and_cash_equivalents", bs.CashAndCashEquivalents)
		addSeries(b, year, "current_debt", bs.ShortTermDebt)
		addSeries(b, year, "long_term_debt", bs.LongTermDebt)
		addSeries(b, year, "total_stockholder_equity", bs.TotalStockholdersEquity)
		addSeries(b, year, "total_debt", bs.TotalDebt)
	}

	for _, cf := range cashflow {
		year, ok := fiscalYear(cf.Date)
		if !ok {
			continue
		}
		addSeries(b, year, "operating_cash_flow", cf.OperatingCashFlow)
		addSeries(b, year, "capital_expenditure", cf.CapitalExpenditure)
	}

	// Surface the most recent statement values as scalars so gap
	// analysis sees them alongside the quote fields.
	for _, key := range []string{
		"total_revenue", "operating_income", "ebitda", "net_income",
		"total_stockholder_equity", "long_term_debt", "total_debt",
		"cash_and_cash_equivalents", "operating_cash_flow", "capital_expenditure",
	} {
		if v, ok := latestSeriesValue(b, key); ok {
			set(key, v)
		}
	}

	return b
}

// addSeries appends one fiscal-year data point, newest statements first
// as FMP returns them.
func addSeries(b *model.FundamentalsBundle, year int, key string, v float64) {
	b.Series[key] = append(b.Series[key], model.AnnualValue{Year: year, Value: v})
}

func latestSeriesValue(b *model.FundamentalsBundle, key string) (float64, bool) {
	var (
		best  model.AnnualValue
		found bool
	)
	for _, av := range b.Series[key] {
		if !found || av.Year > best.Year {
			best = av
			found = true
		}
	}
	if !found || best.Value == 0 {
		return 0, false
	}
	return best.Value, true
}

// fiscalYear parses the year out of an FMP statement date (YYYY-MM-DD).
func fiscalYear(date string) (int, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}
