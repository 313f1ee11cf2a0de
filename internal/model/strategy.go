package model

import "github.com/rotisserie/eris"

// Strategy is a closed set of supported analysis methodologies. Strategy
// names arrive as strings at the JSON/CLI boundary and are validated once
// via ParseStrategy; everything downstream works with the typed value.
type Strategy string

const (
	// StrategyPhilTown is the Phil Town Rule #1 value methodology
	// (ROIC, growth rates, sticker price, margin of safety).
	StrategyPhilTown Strategy = "phil_town"
	// StrategyHighGrowth is the high-growth quality methodology
	// (sales growth, margin trend, ROE, leverage, valuation multiples).
	StrategyHighGrowth Strategy = "high_growth"
)

// ErrUnknownStrategy is the configuration error for a strategy name
// outside the supported set. It aborts the request.
var ErrUnknownStrategy = eris.New("unknown analysis strategy")

// ParseStrategy validates a strategy name from the request boundary.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPhilTown, StrategyHighGrowth:
		return Strategy(s), nil
	default:
		return "", eris.Wrapf(ErrUnknownStrategy, "%q", s)
	}
}

// Strategies returns all supported strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyPhilTown, StrategyHighGrowth}
}
