package model

import "time"

// ValueSource identifies where a field value came from.
type ValueSource string

const (
	// SourcePrimary marks values delivered by the primary fundamentals provider.
	SourcePrimary ValueSource = "primary"
	// SourceImputed marks values recovered from web search by the validator.
	SourceImputed ValueSource = "imputed"
)

// FieldValue is a single fundamentals data point with provenance and trust.
// Primary values carry confidence 1.0 unless the provider itself flagged
// uncertainty; imputed confidence is always computed by the validator.
type FieldValue struct {
	Value      *float64    `json:"value"`
	Source     ValueSource `json:"source"`
	Confidence float64     `json:"confidence"`
	AsOf       *time.Time  `json:"as_of,omitempty"`
}

// AnnualValue is one year of a statement line item.
type AnnualValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// FundamentalsBundle is the per-ticker snapshot produced by the primary
// provider. Scalar fields live in Fields; multi-year statement lines
// (revenue, EPS, FCF inputs) live in Series so growth metrics can be
// computed. Bundles are immutable once fetched: merge operations return
// a new bundle rather than mutating the original.
type FundamentalsBundle struct {
	Ticker    string                   `json:"ticker"`
	Fields    map[string]FieldValue    `json:"fields"`
	Series    map[string][]AnnualValue `json:"series"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// Field returns the named field value and whether it is present with a
// non-nil value.
func (b *FundamentalsBundle) Field(name string) (FieldValue, bool) {
	fv, ok := b.Fields[name]
	if !ok || fv.Value == nil {
		return FieldValue{}, false
	}
	return fv, true
}

// FieldConfidence returns the confidence of a field, or 0 when the field
// is absent or null.
func (b *FundamentalsBundle) FieldConfidence(name string) float64 {
	if fv, ok := b.Field(name); ok {
		return fv.Confidence
	}
	return 0
}

// SeriesFor returns the annual series for a statement line, or nil when
// not available. Order is not guaranteed; consumers sort by year.
func (b *FundamentalsBundle) SeriesFor(name string) []AnnualValue {
	return b.Series[name]
}

// Clone returns a deep copy of the bundle. Merge works on clones so the
// fetched bundle stays untouched for the request's lifetime.
func (b *FundamentalsBundle) Clone() *FundamentalsBundle {
	out := &FundamentalsBundle{
		Ticker:    b.Ticker,
		Fields:    make(map[string]FieldValue, len(b.Fields)),
		Series:    make(map[string][]AnnualValue, len(b.Series)),
		FetchedAt: b.FetchedAt,
	}
	for k, v := range b.Fields {
		if v.Value != nil {
			val := *v.Value
			v.Value = &val
		}
		out.Fields[k] = v
	}
	for k, s := range b.Series {
		cp := make([]AnnualValue, len(s))
		copy(cp, s)
		out.Series[k] = cp
	}
	return out
}

// MergeValidation folds a validation result into a copy of the bundle.
// Fields that resolved to a value arrive as source=imputed with the
// validator's confidence; unresolved results leave the bundle unchanged.
func (b *FundamentalsBundle) MergeValidation(vr ValidationResult) *FundamentalsBundle {
	out := b.Clone()
	if vr.BestValue == nil {
		return out
	}
	val := *vr.BestValue
	now := vr.ResolvedAt
	out.Fields[vr.Field] = FieldValue{
		Value:      &val,
		Source:     SourceImputed,
		Confidence: vr.Confidence,
		AsOf:       &now,
	}
	return out
}

// Float is a convenience constructor for optional float fields.
func Float(v float64) *float64 { return &v }
