package catalog

import (
	"github.com/rotisserie/eris"

	"github.com/stocklens/stocklens/internal/model"
)

// Tier classifies how much a missing field hurts a strategy's analysis.
type Tier string

const (
	// TierCritical fields make their metrics impossible to compute.
	TierCritical Tier = "critical"
	// TierImportant fields degrade accuracy but leave metrics computable.
	TierImportant Tier = "important"
	// TierOptional fields only add color. Never searched.
	TierOptional Tier = "optional"
)

// Requirement is one field a strategy needs, with its tier and the
// alternate bundle fields that can stand in for it.
type Requirement struct {
	Field     string   `yaml:"field" json:"field"`
	Tier      Tier     `yaml:"tier" json:"tier"`
	Impact    string   `yaml:"impact,omitempty" json:"impact,omitempty"`
	Fallbacks []string `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
}

// StrategySet is the indexed requirement list for one strategy.
type StrategySet struct {
	Strategy     model.Strategy
	Requirements []Requirement
	byField      map[string]*Requirement
}

func newStrategySet(s model.Strategy, reqs []Requirement) *StrategySet {
	set := &StrategySet{
		Strategy:     s,
		Requirements: reqs,
		byField:      make(map[string]*Requirement, len(reqs)),
	}
	for i := range set.Requirements {
		r := &set.Requirements[i]
		set.byField[r.Field] = r
	}
	return set
}

// ByField returns the requirement for a field, or nil when the strategy
// does not use it.
func (s *StrategySet) ByField(field string) *Requirement {
	return s.byField[field]
}

// Tier returns all requirements of one tier, in declaration order.
func (s *StrategySet) Tier(t Tier) []Requirement {
	var out []Requirement
	for _, r := range s.Requirements {
		if r.Tier == t {
			out = append(out, r)
		}
	}
	return out
}

// Fields returns every required field name in declaration order.
func (s *StrategySet) Fields() []string {
	out := make([]string, len(s.Requirements))
	for i, r := range s.Requirements {
		out[i] = r.Field
	}
	return out
}

// Satisfied reports whether the bundle covers a requirement, either
// directly or through one of its fallbacks.
func (s *StrategySet) Satisfied(r Requirement, b *model.FundamentalsBundle) bool {
	if _, ok := b.Field(r.Field); ok {
		return true
	}
	for _, fb := range r.Fallbacks {
		if _, ok := b.Field(fb); ok {
			return true
		}
	}
	return false
}

// Catalog maps strategies to their requirement sets. Built once at
// startup and read-only afterwards.
type Catalog struct {
	sets map[model.Strategy]*StrategySet
}

// For returns the requirement set for a strategy.
func (c *Catalog) For(s model.Strategy) (*StrategySet, error) {
	set, ok := c.sets[s]
	if !ok {
		return nil, eris.Wrapf(model.ErrUnknownStrategy, "catalog: %q", s)
	}
	return set, nil
}

// Default returns the built-in requirement catalog.
func Default() *Catalog {
	return &Catalog{sets: map[model.Strategy]*StrategySet{
		model.StrategyPhilTown: newStrategySet(model.StrategyPhilTown, []Requirement{
			{Field: "ebit", Tier: TierCritical, Impact: "ROIC cannot be computed", Fallbacks: []string{"operating_income"}},
			{Field: "total_stockholder_equity", Tier: TierCritical, Impact: "ROIC and equity growth unavailable"},
			{Field: "diluted_eps", Tier: TierCritical, Impact: "EPS growth and sticker price unavailable"},
			{Field: "total_revenue", Tier: TierCritical, Impact: "sales growth unavailable"},
			{Field: "long_term_debt", Tier: TierImportant, Impact: "debt payoff time assumes zero debt"},
			{Field: "operating_cash_flow", Tier: TierImportant, Impact: "free cash flow growth degraded"},
			{Field: "capital_expenditure", Tier: TierImportant, Impact: "free cash flow overstated"},
			{Field: "insider_ownership", Tier: TierImportant, Impact: "management alignment unscored"},
			{Field: "dividend_yield", Tier: TierOptional, Impact: "income component omitted"},
		}),
		model.StrategyHighGrowth: newStrategySet(model.StrategyHighGrowth, []Requirement{
			{Field: "total_revenue", Tier: TierCritical, Impact: "sales growth unavailable"},
			{Field: "net_income", Tier: TierCritical, Impact: "margin trend and ROE unavailable"},
			{Field: "total_stockholder_equity", Tier: TierCritical, Impact: "ROE unavailable"},
			{Field: "ebitda", Tier: TierImportant, Impact: "leverage and EV multiple degraded", Fallbacks: []string{"ebit"}},
			{Field: "total_debt", Tier: TierImportant, Impact: "net debt understated", Fallbacks: []string{"long_term_debt"}},
			{Field: "cash_and_cash_equivalents", Tier: TierImportant, Impact: "net debt overstated"},
			{Field: "market_cap", Tier: TierImportant, Impact: "valuation multiples unavailable"},
			{Field: "shares_outstanding", Tier: TierOptional, Impact: "per-share checks omitted"},
			{Field: "insider_ownership", Tier: TierOptional, Impact: "management alignment unscored"},
		}),
	}}
}
