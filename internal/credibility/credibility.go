// Package credibility scores how much a web source should be trusted
// for a financial data point. The score blends domain authority with
// content, recency, and presentation signals into a 0..1 weight the
// validator uses to rank candidate values.
package credibility

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Weights blends the four scoring components. Must sum to 1.
type Weights struct {
	Domain       float64
	Content      float64
	Recency      float64
	Presentation float64
}

// DefaultWeights favors who is speaking over how the page reads.
func DefaultWeights() Weights {
	return Weights{Domain: 0.4, Content: 0.3, Recency: 0.15, Presentation: 0.15}
}

// domainRankings maps domains (or domain substrings) to authority on a
// 0..100 scale. Regulatory filings outrank data aggregators, which
// outrank opinion sites and forums.
var domainRankings = []struct {
	pattern string
	score   float64
}{
	{"edgar.sec.gov", 100},
	{"sec.gov", 100},
	{"treasury.gov", 95},
	{"federalreserve.gov", 95},
	{"bloomberg.com", 90},
	{"reuters.com", 88},
	{"wsj.com", 87},
	{"ft.com", 86},
	{"marketwatch.com", 85},
	{"morningstar.com", 85},
	{"investor.", 85},
	{".com/investor", 85},
	{"finviz.com", 83},
	{"finance.yahoo.com", 82},
	{"yahoo.com", 80},
	{"google.com/finance", 80},
	{"investing.com", 78},
	{"seekingalpha.com", 75},
	{"cnbc.com", 75},
	{"zacks.com", 72},
	{"fool.com", 70},
	{"cnn.com", 70},
	{"foxbusiness.com", 68},
	{"gurufocus.com", 68},
	{"wikipedia.org", 60},
	{"reddit.com", 30},
	{"quora.com", 25},
	{"twitter.com", 25},
	{"facebook.com", 20},
}

var (
	positiveContent = []string{
		"annual report", "10-k", "10-q", "8-k", "sec filing",
		"earnings report", "financial statement", "investor relations",
		"quarterly report", "press release", "earnings call",
		"analyst report", "research note", "financial analysis",
	}
	negativeContent = []string{
		"opinion", "blog", "forum", "comment", "social media",
		"unverified", "rumor", "speculation", "prediction",
		"advertisement", "promotional", "sponsored",
	}
	recencyKeywords = []string{
		"latest", "recent", "current", "updated", "ttm", "trailing twelve",
	}
	metricKeywords = []string{
		"roic", "roe", "eps", "revenue", "debt", "margin",
		"cash flow", "ebitda", "p/e", "p/s",
	}

	structuredRe = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d+)?[BMK]?|\d+\.\d+%|:\s*\$?\d+(?:,\d{3})*|\|\s*\d+`)
	labeledRe    = regexp.MustCompile(`[A-Za-z][A-Za-z ]*:\s*\$?\d+`)
	numberRe     = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)
)

// Scorer rates sources. Safe for concurrent use.
type Scorer struct {
	weights Weights
	now     func() time.Time
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithNow overrides the clock used for recency checks.
func WithNow(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer builds a Scorer. Zero weights fall back to DefaultWeights.
func NewScorer(w Weights, opts ...Option) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	s := &Scorer{weights: w, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates one source for one data point, 0..1. A higher-authority
// domain never scores below a lower-authority one when the other
// signals are equal.
func (s *Scorer) Score(rawURL, content string) float64 {
	domain := Domain(rawURL)

	score := DomainScore(domain)*s.weights.Domain +
		s.contentScore(content)*s.weights.Content +
		s.recencyScore(content)*s.weights.Recency +
		s.presentationScore(content)*s.weights.Presentation

	score /= 100
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Domain extracts the lowercased host from a URL, tolerating bare hosts.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimPrefix(rawURL, "www."))
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

// DomainScore returns the 0..100 authority of a domain. Unlisted
// domains fall through TLD heuristics to a conservative floor.
func DomainScore(domain string) float64 {
	for _, r := range domainRankings {
		if domain == r.pattern || strings.Contains(domain, r.pattern) {
			return r.score
		}
	}
	switch {
	case strings.HasSuffix(domain, ".gov"):
		return 90
	case strings.HasSuffix(domain, ".edu"):
		return 75
	case strings.Contains(domain, "investor"):
		return 80
	case strings.Count(domain, ".") == 1 && len(domain[:strings.Index(domain, ".")]) > 3:
		return 50
	default:
		return 40
	}
}

func (s *Scorer) contentScore(content string) float64 {
	lower := strings.ToLower(content)
	score := 50.0

	pos := 0
	for _, ind := range positiveContent {
		if strings.Contains(lower, ind) {
			pos++
		}
	}
	score += minf(30, float64(pos)*5)

	neg := 0
	for _, ind := range negativeContent {
		if strings.Contains(lower, ind) {
			neg++
		}
	}
	score -= minf(25, float64(neg)*5)

	if structuredRe.MatchString(content) {
		score += 15
	}

	metrics := 0
	for _, m := range metricKeywords {
		if strings.Contains(lower, m) {
			metrics++
		}
	}
	if metrics >= 3 {
		score += 10
	}

	return clamp100(score)
}

func (s *Scorer) recencyScore(content string) float64 {
	lower := strings.ToLower(content)
	score := 50.0

	year := s.now().Year()
	for y := year; y >= year-2; y-- {
		if strings.Contains(content, strconv.Itoa(y)) {
			score += 20
			break
		}
	}

	for _, kw := range recencyKeywords {
		if strings.Contains(lower, kw) {
			score += 10
			break
		}
	}

	return clamp100(score)
}

func (s *Scorer) presentationScore(content string) float64 {
	score := 50.0

	if strings.ContainsAny(content, "|\t") {
		score += 20
	}
	if labeledRe.MatchString(content) {
		score += 15
	}
	if hasConsistentFormatting(content) {
		score += 10
	}
	if len(content) < 100 {
		score -= 15
	}

	return clamp100(score)
}

// hasConsistentFormatting checks that most large numbers on the page
// carry thousands separators; mixed formatting suggests scraped or
// user-generated text.
func hasConsistentFormatting(content string) bool {
	numbers := numberRe.FindAllString(content, -1)
	if len(numbers) <= 3 {
		return true
	}
	withCommas := 0
	for _, n := range numbers {
		if strings.Contains(n, ",") {
			withCommas++
		}
	}
	return float64(withCommas) >= float64(len(numbers))*0.7
}

// SourceType buckets a URL for result reporting.
func SourceType(rawURL string) string {
	domain := Domain(rawURL)
	switch {
	case strings.Contains(domain, "sec.gov"), strings.Contains(domain, "edgar"):
		return "sec_filing"
	case containsAny(domain, "bloomberg", "reuters", "wsj", "ft."):
		return "financial_news"
	case containsAny(domain, "morningstar", "finviz", "yahoo"):
		return "financial_website"
	case strings.Contains(domain, "investor"), strings.HasPrefix(domain, "ir."):
		return "company_presentation"
	case containsAny(domain, "seekingalpha", "fool", "zacks"):
		return "analyst_report"
	case containsAny(domain, "reddit", "quora", "facebook"):
		return "forum_discussion"
	default:
		return "financial_website"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
