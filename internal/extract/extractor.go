// Package extract pulls numeric field candidates out of raw web text
// using per-field regex pattern sets, and scores each match by how
// trustworthy its surrounding context looks.
package extract

import (
	"sort"
	"strings"
)

const (
	baseConfidence     = 0.5
	specificBonus      = 0.2
	positiveContext    = 0.1
	negativeContext    = 0.15
	minConfidence      = 0.1
	maxConfidence      = 1.0
	contextWindowBytes = 100
)

// positiveIndicators mark text that reads like primary financial
// reporting; negativeIndicators mark forward-looking analyst language,
// whose figures are projections rather than reported values.
var (
	positiveIndicators = []string{
		"financial", "earnings", "annual report", "sec filing",
		"income statement", "balance sheet", "cash flow",
		"investor relations", "quarterly", "fiscal year",
	}
	negativeIndicators = []string{
		"target", "estimate", "projected", "expected",
		"forecast", "guidance", "outlook", "consensus",
	}
)

// Match is one scored extraction from a document.
type Match struct {
	Value      float64
	Raw        string
	Unit       string
	Confidence float64
}

// Extractor runs the pattern library against document text. Stateless
// and safe for concurrent use.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns every normalized match for a field in the content,
// highest confidence first, deduplicated by (value, raw). An unknown
// field or a content miss returns an empty slice, never an error.
func (e *Extractor) Extract(field, content string) []Match {
	patterns := patternSets[field]
	if len(patterns) == 0 || content == "" {
		return nil
	}

	seen := make(map[Match]struct{})
	var out []Match

	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			raw := content[m[2]:m[3]]
			value, unit, ok := Normalize(raw)
			if !ok {
				continue
			}
			match := Match{
				Value:      value,
				Raw:        raw,
				Unit:       unit,
				Confidence: scoreContext(content, m[2], m[3], p.specific),
			}
			key := Match{Value: match.Value, Raw: match.Raw}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, match)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// scoreContext rates one match by its pattern specificity and the text
// around it. The window is sliced from the original content before
// lowercasing; ToLower can change byte lengths for non-ASCII runes, so
// match offsets are only valid against the original bytes.
func scoreContext(content string, start, end int, specific bool) float64 {
	conf := baseConfidence
	if specific {
		conf += specificBonus
	}

	lo := start - contextWindowBytes
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindowBytes
	if hi > len(content) {
		hi = len(content)
	}
	window := strings.ToLower(content[lo:hi])

	for _, ind := range positiveIndicators {
		if strings.Contains(window, ind) {
			conf += positiveContext
			break
		}
	}
	for _, ind := range negativeIndicators {
		if strings.Contains(window, ind) {
			conf -= negativeContext
			break
		}
	}

	if conf < minConfidence {
		conf = minConfidence
	}
	if conf > maxConfidence {
		conf = maxConfidence
	}
	return conf
}
