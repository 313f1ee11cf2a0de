package analyzer

import (
	"fmt"
	"strings"

	"github.com/stocklens/stocklens/internal/metrics"
	"github.com/stocklens/stocklens/internal/model"
)

// buildSummary condenses the result into a few sentences: coverage,
// imputation outcome, and confidence caveats.
func buildSummary(r *model.AnalysisResult) string {
	total := len(r.FinalMetrics.Metrics)
	computed := 0
	var confSum float64
	for _, m := range r.FinalMetrics.Metrics {
		if m.Value != nil {
			computed++
			confSum += m.Confidence
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %d of %d metrics computed", r.Ticker, r.Strategy, computed, total)
	if computed > 0 {
		fmt.Fprintf(&b, ", average confidence %.2f", confSum/float64(computed))
	}
	b.WriteString(".")

	if n := len(r.MissingCriticalFields); n > 0 {
		if r.ImputationAttempted {
			recovered := 0
			for _, f := range r.MissingCriticalFields {
				if vr, ok := r.ImputationResults[f]; ok && vr.BestValue != nil {
					recovered++
				}
			}
			fmt.Fprintf(&b, " Web imputation recovered %d of %d missing critical fields.", recovered, n)
		} else {
			fmt.Fprintf(&b, " %d critical fields missing from primary data; web imputation not attempted.", n)
		}
	}

	if len(r.LowConfidenceMetrics) > 0 {
		fmt.Fprintf(&b, " Low confidence: %s.", strings.Join(r.LowConfidenceMetrics, ", "))
	}
	return b.String()
}

// buildRecommendations turns the computed metrics into plain-language
// takeaways. Thresholds mirror the interpretation bands the metric
// notes use.
func buildRecommendations(strategy model.Strategy, ms model.StrategyMetricSet) []string {
	val := func(name string) (float64, bool) {
		m, ok := ms.Metrics[name]
		if !ok || m.Value == nil {
			return 0, false
		}
		return *m.Value, true
	}

	var recs []string
	switch strategy {
	case model.StrategyPhilTown:
		if v, ok := val("roic"); ok {
			if v > 0.15 {
				recs = append(recs, "Strong ROIC indicates an efficient, defensible business.")
			} else if v < 0.08 {
				recs = append(recs, "Low ROIC suggests weak returns on invested capital.")
			}
		}
		if avg, ok := averageGrowth(val); ok {
			if avg > 0.10 {
				recs = append(recs, "Consistent double-digit growth across the big four numbers.")
			} else if avg < 0.03 {
				recs = append(recs, "Growth rates are weak across the big four numbers.")
			}
		}
		if price, ok := val("current_price"); ok {
			if mos, ok := val("margin_of_safety"); ok {
				if price <= mos {
					recs = append(recs, "Price is at or below the margin of safety; candidate for purchase.")
				} else {
					recs = append(recs, "Price is above the margin of safety; wait for a better entry.")
				}
			}
		}
		if v, ok := val("insider_ownership"); ok && v > 0.10 {
			recs = append(recs, "High insider ownership aligns management with shareholders.")
		}
		if v, ok := val("debt_payoff_years"); ok && v > 3 {
			recs = append(recs, "Long-term debt would take over three years of free cash flow to retire.")
		}

	case model.StrategyHighGrowth:
		if v, ok := val("sales_growth"); ok {
			if v > 0.15 {
				recs = append(recs, "Revenue is compounding above 15% annually.")
			} else if v < 0.05 {
				recs = append(recs, "Revenue growth below 5% is slow for a growth thesis.")
			}
		}
		if m, ok := ms.Metrics["net_margin"]; ok && m.Value != nil {
			if strings.Contains(m.Note, metrics.TrendExpanding) {
				recs = append(recs, "Net margins are expanding alongside revenue growth.")
			} else if strings.Contains(m.Note, metrics.TrendContracting) {
				recs = append(recs, "Net margins are contracting; growth is getting more expensive.")
			}
		}
		if v, ok := val("net_debt_to_ebitda"); ok {
			if v < 2 {
				recs = append(recs, "Balance sheet is lightly levered relative to EBITDA.")
			} else if v > 4 {
				recs = append(recs, "Leverage above 4x EBITDA is a risk to the growth story.")
			}
		}
		if v, ok := val("psr_ratio"); ok {
			if v < 2 {
				recs = append(recs, "Price-to-sales is modest for a growth name.")
			} else if v > 5 {
				recs = append(recs, "Price-to-sales above 5 prices in years of flawless execution.")
			}
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Insufficient data to form a recommendation; review the metric notes.")
	}
	return recs
}

// averageGrowth averages whichever of the big four growth rates were
// computable.
func averageGrowth(val func(string) (float64, bool)) (float64, bool) {
	var sum float64
	n := 0
	for _, name := range []string{"eps_growth", "sales_growth", "bvps_growth", "fcf_growth"} {
		if v, ok := val(name); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
