// Package metrics computes per-strategy financial metrics from a
// fundamentals bundle. Every computation is a pure function of the
// bundle: a ratio whose inputs are missing or whose math is undefined
// (zero denominator, sign change across a growth window) yields a nil
// value with an explanatory note, never an error and never a partial
// number.
package metrics

import (
	"math"
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

const (
	// YearsOfData bounds long-window growth calculations.
	YearsOfData = 10
	// YearsForTrend bounds short-window trend calculations.
	YearsForTrend = 5
	// YearsToProject is the sticker price projection horizon.
	YearsToProject = 10
	// MinAcceptableReturn discounts projected earnings back to today.
	MinAcceptableReturn = 0.15
	// DefaultTaxRate applies when the effective rate is unavailable.
	DefaultTaxRate = 0.21
	// GrowthRateCap bounds projected EPS growth.
	GrowthRateCap = 0.15
	// FuturePECap bounds the projected earnings multiple.
	FuturePECap = 30.0
)

// Calculator computes metric sets from one bundle. Stateless beyond the
// bundle reference and safe for concurrent use.
type Calculator struct {
	b *model.FundamentalsBundle
}

// NewCalculator wraps a bundle for metric computation.
func NewCalculator(b *model.FundamentalsBundle) *Calculator {
	return &Calculator{b: b}
}

// Compute returns the metric set for a strategy.
func (c *Calculator) Compute(strategy model.Strategy) (model.StrategyMetricSet, error) {
	switch strategy {
	case model.StrategyPhilTown:
		return c.PhilTown(), nil
	case model.StrategyHighGrowth:
		return c.HighGrowth(), nil
	default:
		return model.StrategyMetricSet{}, model.ErrUnknownStrategy
	}
}

// CAGR computes the compound annual growth rate over the most recent
// years of a series. Returns nil when fewer than two points exist, the
// window starts at zero, or the sign flips across the window; a growth
// rate through a sign change is not meaningful.
func CAGR(series []model.AnnualValue, years int) *float64 {
	if len(series) < 2 {
		return nil
	}
	sorted := make([]model.AnnualValue, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	if len(sorted) > years+1 {
		sorted = sorted[len(sorted)-(years+1):]
	}

	start, end := sorted[0].Value, sorted[len(sorted)-1].Value
	periods := float64(len(sorted) - 1)
	if start == 0 || periods == 0 {
		return nil
	}
	if (end > 0 && start < 0) || (end < 0 && start > 0) {
		return nil
	}
	if start < 0 && end >= 0 {
		return nil
	}

	rate := math.Pow(end/start, 1/periods) - 1
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil
	}
	return &rate
}

// latest returns the most recent value of a series.
func latest(series []model.AnnualValue) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	best := series[0]
	for _, av := range series[1:] {
		if av.Year > best.Year {
			best = av
		}
	}
	return best.Value, true
}

// scalar reads a field value, falling back through alternates in order.
func (c *Calculator) scalar(fields ...string) (float64, string, bool) {
	for _, f := range fields {
		if fv, ok := c.b.Field(f); ok {
			return *fv.Value, f, true
		}
	}
	return 0, "", false
}

// minConfidence propagates the weakest input confidence into a metric.
// Fields absent from the bundle's scalar map (series-only inputs) are
// treated as primary and do not lower the result.
func (c *Calculator) minConfidence(fields ...string) float64 {
	conf := 1.0
	for _, f := range fields {
		if fv, ok := c.b.Field(f); ok && fv.Confidence < conf {
			conf = fv.Confidence
		}
	}
	return conf
}

func metric(name string, value *float64, conf float64, note string, inputs ...string) model.Metric {
	if value == nil {
		conf = 0
	}
	return model.Metric{Name: name, Value: value, Confidence: conf, Note: note, Inputs: inputs}
}

func missing(name, note string, inputs ...string) model.Metric {
	return model.Metric{Name: name, Note: note, Inputs: inputs}
}
