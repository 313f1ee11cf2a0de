package model

import "time"

// GapReport buckets a strategy's required fields that are missing from a
// fundamentals bundle, by criticality tier, together with the search
// queries seeded for each. Created per request, consumed once by the
// orchestrator.
type GapReport struct {
	Ticker    string              `json:"ticker"`
	Strategy  Strategy            `json:"strategy"`
	Critical  []string            `json:"critical"`
	Important []string            `json:"important"`
	Optional  []string            `json:"optional"`
	Queries   map[string][]string `json:"queries"`
}

// HasCriticalGaps reports whether imputation should run at all.
func (g *GapReport) HasCriticalGaps() bool { return len(g.Critical) > 0 }

// SearchFields returns the fields worth imputing: critical first, then
// important. Optional gaps are reported but never searched.
func (g *GapReport) SearchFields() []string {
	out := make([]string, 0, len(g.Critical)+len(g.Important))
	out = append(out, g.Critical...)
	out = append(out, g.Important...)
	return out
}

// DataQuality summarizes how complete and trustworthy the primary bundle
// is before any imputation.
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Reliability  float64 `json:"reliability"`
}

// SearchCandidate is one unvalidated numeric extraction from one document
// for one field. Ephemeral: produced by the extractor, consumed by the
// validator.
type SearchCandidate struct {
	Field                string    `json:"field"`
	RawText              string    `json:"raw_text"`
	Value                float64   `json:"value"`
	Unit                 string    `json:"unit"`
	SourceURL            string    `json:"source_url"`
	SourceDomain         string    `json:"source_domain"`
	RetrievedAt          time.Time `json:"retrieved_at"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	Credibility          float64   `json:"credibility"`
}

// Alternative is a candidate value that lost reconciliation but is kept
// for transparency.
type Alternative struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// ValidationResult is the terminal artifact of imputing one field.
// BestValue == nil with Confidence == 0 is the valid "no data found"
// outcome, not an error.
type ValidationResult struct {
	Field        string        `json:"field"`
	BestValue    *float64      `json:"best_value"`
	Confidence   float64       `json:"confidence"`
	Sources      []string      `json:"sources"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	ResolvedAt   time.Time     `json:"resolved_at"`
}

// Metric is one computed strategy metric. A nil Value with a Note is the
// expected shape for undefined ratios (zero denominator, negative
// domain); Confidence is the minimum confidence among the field values
// the metric consumed.
type Metric struct {
	Name       string   `json:"name"`
	Value      *float64 `json:"value"`
	Confidence float64  `json:"confidence"`
	Note       string   `json:"note,omitempty"`
	Inputs     []string `json:"inputs,omitempty"`
}

// StrategyMetricSet is the named collection of metrics computed for one
// strategy. Recomputed per request, never persisted.
type StrategyMetricSet struct {
	Strategy Strategy          `json:"strategy"`
	Metrics  map[string]Metric `json:"metrics"`
}

// DataSources lists where the analysis drew its inputs from.
type DataSources struct {
	Primary string   `json:"primary"`
	Web     []string `json:"web,omitempty"`
}

// AnalysisResult is the full JSON shape returned to the REST layer.
type AnalysisResult struct {
	Ticker                string                      `json:"ticker"`
	Strategy              Strategy                    `json:"strategy"`
	PrimaryDataQuality    DataQuality                 `json:"primary_data_quality"`
	MissingCriticalFields []string                    `json:"missing_critical_fields"`
	ImputationAttempted   bool                        `json:"imputation_attempted"`
	ImputationResults     map[string]ValidationResult `json:"imputation_results,omitempty"`
	FinalMetrics          StrategyMetricSet           `json:"final_metrics"`
	ConfidenceScores      map[string]float64          `json:"confidence_scores"`
	LowConfidenceMetrics  []string                    `json:"low_confidence_metrics,omitempty"`
	AnalysisSummary       string                      `json:"analysis_summary"`
	Recommendations       []string                    `json:"recommendations"`
	DataSources           DataSources                 `json:"data_sources"`
}
