// Package query turns a (ticker, strategy, field) gap into a bounded
// list of web search queries. Templates are tuned per strategy where the
// field's phrasing differs; fields without a tuned list fall back to
// generic filing-oriented queries.
package query

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/stocklens/stocklens/internal/model"
)

// ErrEmptyTicker rejects query generation without a ticker symbol.
var ErrEmptyTicker = eris.New("query: empty ticker")

// DefaultMaxQueries caps queries issued per field.
const DefaultMaxQueries = 4

// templates are ordered most-targeted first; the cap trims from the tail.
var templates = map[model.Strategy]map[string][]string{
	model.StrategyPhilTown: {
		"ebit": {
			"{ticker} EBIT operating income annual",
			"{ticker} 10-K SEC filing operating income",
			"site:sec.gov {ticker} annual report operating income",
			"{ticker} earnings before interest and taxes",
		},
		"diluted_eps": {
			"{ticker} diluted EPS historical trend",
			"{ticker} earnings per share growth rate historical",
			"site:finance.yahoo.com {ticker} earnings growth",
			"{ticker} EPS CAGR 5 year 10 year analysis",
		},
		"total_revenue": {
			"{ticker} revenue growth CAGR historical",
			"{ticker} total revenue annual quarterly",
			"{ticker} top line growth analysis",
			"site:morningstar.com {ticker} revenue trend",
		},
		"total_stockholder_equity": {
			"{ticker} total stockholders equity balance sheet",
			"{ticker} book value equity historical",
			"site:sec.gov {ticker} balance sheet equity",
			"{ticker} shareholders equity annual report",
		},
		"long_term_debt": {
			"{ticker} long term debt free cash flow ratio",
			"{ticker} balance sheet debt cash flow statement",
			"{ticker} debt payoff capability years FCF",
			"site:morningstar.com {ticker} debt analysis",
		},
		"operating_cash_flow": {
			"{ticker} operating cash flow annual",
			"{ticker} cash flow statement operations",
			"site:morningstar.com {ticker} cash flow",
			"{ticker} cash from operations 10-K",
		},
		"capital_expenditure": {
			"{ticker} capital expenditure capex annual",
			"{ticker} capex cash flow statement",
			"{ticker} property plant equipment purchases",
			"site:morningstar.com {ticker} capital spending",
		},
		"insider_ownership": {
			"{ticker} insider ownership percentage management",
			"{ticker} insider trading ownership stake",
			"site:finviz.com {ticker} insider ownership",
			"{ticker} management ownership shares",
		},
	},
	model.StrategyHighGrowth: {
		"total_revenue": {
			"{ticker} revenue growth CAGR compound annual",
			"{ticker} sales growth rate quarterly annual",
			"{ticker} top line growth acceleration",
			"site:seekingalpha.com {ticker} revenue growth",
		},
		"net_income": {
			"{ticker} net income profit margin trend 5 years",
			"{ticker} profitability margins expanding contracting",
			"{ticker} quarterly earnings margin analysis",
			"site:bloomberg.com {ticker} net income",
		},
		"total_stockholder_equity": {
			"{ticker} return on equity ROE trend",
			"{ticker} stockholders equity balance sheet",
			"site:morningstar.com {ticker} ROE metrics",
			"{ticker} equity returns profitability",
		},
		"ebitda": {
			"{ticker} EBITDA annual trailing twelve months",
			"{ticker} net debt EBITDA coverage",
			"{ticker} leverage ratio debt analysis",
			"{ticker} EBITDA margin metrics",
		},
		"total_debt": {
			"{ticker} total debt balance sheet",
			"{ticker} debt to EBITDA ratio",
			"{ticker} net debt leverage analysis",
			"{ticker} financial leverage metrics",
		},
		"cash_and_cash_equivalents": {
			"{ticker} cash and cash equivalents balance sheet",
			"{ticker} cash position liquidity",
			"site:finance.yahoo.com {ticker} balance sheet cash",
			"{ticker} cash reserves quarterly",
		},
		"market_cap": {
			"{ticker} market capitalization",
			"{ticker} market cap valuation",
			"site:finviz.com {ticker} market cap",
			"{ticker} price to sales ratio PSR",
		},
		"insider_ownership": {
			"{ticker} insider ownership percentage management",
			"site:finviz.com {ticker} insider ownership",
			"{ticker} management ownership shares",
			"{ticker} insider holdings stake",
		},
		"dividend_yield": {
			"{ticker} dividend yield percentage annual",
			"{ticker} dividend payments yield analysis",
			"{ticker} dividend history yield trend",
			"site:dividend.com {ticker} yield",
		},
	},
}

// Generator expands query templates for missing fields.
type Generator struct {
	maxQueries int
}

// NewGenerator builds a Generator. A non-positive cap uses
// DefaultMaxQueries.
func NewGenerator(maxQueries int) *Generator {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	return &Generator{maxQueries: maxQueries}
}

// Generate returns up to the configured number of queries for one field,
// most-targeted first. Unknown fields get the generic fallback set; the
// result is never empty for a valid ticker.
func (g *Generator) Generate(ticker string, strategy model.Strategy, field string) ([]string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrEmptyTicker
	}

	tpls := templates[strategy][field]
	if len(tpls) == 0 {
		tpls = genericTemplates(field)
	}

	queries := make([]string, 0, g.maxQueries)
	for _, t := range tpls {
		queries = append(queries, strings.ReplaceAll(t, "{ticker}", ticker))
		if len(queries) == g.maxQueries {
			break
		}
	}
	return queries, nil
}

func genericTemplates(field string) []string {
	name := strings.ReplaceAll(field, "_", " ")
	return []string{
		"{ticker} " + name + " financial data",
		"{ticker} annual report " + name,
		"{ticker} 10-K " + name + " SEC filing",
		"{ticker} " + name + " calculation",
	}
}
