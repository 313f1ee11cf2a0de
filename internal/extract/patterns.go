package extract

import "regexp"

// magnitude matches a dollar-style figure with optional thousands
// separators and a K/M/B/T shorthand suffix; percent matches a ratio
// figure with an optional percent sign. The suffix stays inside the
// capture group so normalization can apply it.
const (
	magnitude = `\$?(\d+(?:,\d{3})*(?:\.\d+)?\s?[KMBTkmbt]?)`
	percent   = `(\d+(?:\.\d+)?\s?%?)`
	percentRq = `(\d+(?:\.\d+)?\s?%)`
)

// pattern is one compiled extraction rule. Specific rules are tightly
// labeled forms ("EBIT: $x") and earn a confidence bonus over loose
// prose matches.
type pattern struct {
	re       *regexp.Regexp
	specific bool
}

func loose(expr string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr)}
}

func specific(expr string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr), specific: true}
}

// patternSets maps bundle field names to their ordered rule lists.
// Order matters only for readability; every rule runs against every
// document and matches are ranked by confidence.
var patternSets = map[string][]pattern{
	"ebit": {
		specific(`EBIT:\s*` + magnitude),
		specific(`Operating\s+Income:\s*` + magnitude),
		loose(`EBIT[:\s]+` + magnitude),
		loose(`Operating\s+Income[:\s]+` + magnitude),
		loose(`Earnings\s+before\s+interest\s+and\s+taxes[:\s]+` + magnitude),
	},
	"net_income": {
		specific(`Net\s+Income:\s*` + magnitude),
		loose(`Net\s+Income[:\s]+` + magnitude),
		loose(`Net\s+Earnings[:\s]+` + magnitude),
		loose(`Net\s+Profit[:\s]+` + magnitude),
	},
	"ebitda": {
		specific(`EBITDA:\s*` + magnitude),
		loose(`EBITDA[:\s]+` + magnitude),
		loose(`Adjusted\s+EBITDA[:\s]+` + magnitude),
	},
	"total_revenue": {
		specific(`Total\s+Revenue:\s*` + magnitude),
		specific(`Revenue:\s*` + magnitude),
		loose(`Total\s+Revenue[:\s]+` + magnitude),
		loose(`Revenue[:\s]+` + magnitude),
		loose(`Net\s+Sales[:\s]+` + magnitude),
	},
	"diluted_eps": {
		specific(`Diluted\s+EPS:\s*` + magnitude),
		loose(`Diluted\s+EPS[:\s]+` + magnitude),
		loose(`Diluted\s+earnings\s+per\s+share[:\s]+` + magnitude),
		loose(`EPS\s+\(diluted\)[:\s]+` + magnitude),
	},
	"total_stockholder_equity": {
		specific(`Total\s+Stockholders.?\s+Equity:\s*` + magnitude),
		loose(`Total\s+Stockholders.?\s+Equity[:\s]+` + magnitude),
		loose(`Total\s+Shareholders.?\s+Equity[:\s]+` + magnitude),
		loose(`Total\s+Equity[:\s]+` + magnitude),
		loose(`Book\s+Value[:\s]+` + magnitude),
	},
	"long_term_debt": {
		specific(`Long[-\s]Term\s+Debt:\s*` + magnitude),
		loose(`Long[-\s]term\s+Debt[:\s]+` + magnitude),
		loose(`LT\s+Debt[:\s]+` + magnitude),
	},
	"total_debt": {
		specific(`Total\s+Debt:\s*` + magnitude),
		loose(`Total\s+Debt[:\s]+` + magnitude),
		loose(`Net\s+Debt[:\s]+` + magnitude),
		loose(`Long[-\s]term\s+Debt[:\s]+` + magnitude),
	},
	"cash_and_cash_equivalents": {
		specific(`Cash\s+and\s+Cash\s+Equivalents:\s*` + magnitude),
		loose(`Cash\s+and\s+Cash\s+Equivalents[:\s]+` + magnitude),
		loose(`Cash\s+&\s+Equivalents[:\s]+` + magnitude),
		loose(`Total\s+Cash[:\s]+` + magnitude),
	},
	"operating_cash_flow": {
		specific(`Operating\s+Cash\s+Flow:\s*` + magnitude),
		loose(`Operating\s+Cash\s+Flow[:\s]+` + magnitude),
		loose(`Cash\s+from\s+Operations[:\s]+` + magnitude),
		loose(`Cash\s+Flow\s+from\s+Operating\s+Activities[:\s]+` + magnitude),
	},
	"capital_expenditure": {
		specific(`Capital\s+Expenditures?:\s*` + magnitude),
		loose(`Capital\s+Expenditures?[:\s]+` + magnitude),
		loose(`CapEx[:\s]+` + magnitude),
	},
	"market_cap": {
		specific(`Market\s+Cap:\s*` + magnitude),
		loose(`Market\s+Cap[:\s]+` + magnitude),
		loose(`Market\s+Capitalization[:\s]+` + magnitude),
		loose(`Mkt\s+Cap[:\s]+` + magnitude),
	},
	"shares_outstanding": {
		specific(`Shares\s+Outstanding:\s*` + magnitude),
		loose(`Shares\s+Outstanding[:\s]+` + magnitude),
		loose(`Outstanding\s+Shares[:\s]+` + magnitude),
	},
	"insider_ownership": {
		specific(`Insider\s+Ownership:\s*` + percent),
		specific(`Insider\s+Owned:\s*` + percent),
		loose(`Insider\s+Ownership[:\s]+` + percent),
		loose(`Insiders\s+Own[:\s]+` + percent),
		loose(`Management\s+Ownership[:\s]+` + percent),
	},
	"dividend_yield": {
		specific(`Dividend\s+Yield:\s*` + percent),
		loose(`Dividend\s+Yield[:\s]+` + percent),
		loose(`Annual\s+Yield[:\s]+` + percent),
		loose(`Yield[:\s]+` + percentRq),
	},
	"roic": {
		specific(`ROIC:\s*` + percentRq),
		specific(`ROIC\s+of\s+` + percent),
		loose(`ROIC[:\s]+` + percent),
		loose(`Return\s+on\s+Invested\s+Capital[:\s]+` + percent),
	},
	"roe": {
		specific(`ROE:\s*` + percent),
		loose(`ROE[:\s]+` + percent),
		loose(`Return\s+on\s+Equity[:\s]+` + percent),
	},
	"pe_ratio": {
		loose(`P/E\s+Ratio[:\s]+(\d+(?:\.\d+)?)`),
		loose(`Trailing\s+P/E[:\s]+(\d+(?:\.\d+)?)`),
		loose(`Price[-\s]to[-\s]Earnings[:\s]+(\d+(?:\.\d+)?)`),
	},
	"psr_ratio": {
		loose(`P/S\s+Ratio[:\s]+(\d+(?:\.\d+)?)`),
		loose(`PSR[:\s]+(\d+(?:\.\d+)?)`),
		loose(`Price[-\s]to[-\s]Sales[:\s]+(\d+(?:\.\d+)?)`),
		loose(`Price/Sales[:\s]+(\d+(?:\.\d+)?)`),
	},
}

// SupportedFields lists every field with a dedicated pattern set.
func SupportedFields() []string {
	out := make([]string, 0, len(patternSets))
	for f := range patternSets {
		out = append(out, f)
	}
	return out
}
