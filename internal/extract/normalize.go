package extract

import (
	"strconv"
	"strings"
)

// multipliers expand financial shorthand suffixes.
var multipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// Normalize converts a captured token into a plain float. Thousands
// separators are stripped, K/M/B/T suffixes expanded, and a trailing
// percent sign divides by 100. The returned unit is "%" for percent
// tokens, the shorthand letter for magnitude tokens, "" otherwise.
func Normalize(raw string) (value float64, unit string, ok bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	s = strings.TrimPrefix(s, "$")
	if s == "" || s == "-" || strings.EqualFold(s, "n/a") {
		return 0, "", false
	}

	isPercent := strings.HasSuffix(s, "%")
	if isPercent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		unit = "%"
	}

	mult := 1.0
	if len(s) > 0 {
		last := s[len(s)-1]
		if last >= 'a' && last <= 'z' {
			last -= 'a' - 'A'
		}
		if m, found := multipliers[last]; found && !isPercent {
			mult = m
			unit = string(last)
			s = strings.TrimSpace(s[:len(s)-1])
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "", false
	}
	v *= mult
	if isPercent {
		v /= 100
	}
	return v, unit, true
}
