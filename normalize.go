package main

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonWordRegex        = regexp.MustCompile(`[^\w]`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
)

// NormalizeHeader turns a raw header cell into a canonical column name:
// uppercase, whitespace and symbols collapsed to single underscores,
// edges trimmed. Blank cells get a positional COL_<i> placeholder so
// every record keeps a uniform key set.
func NormalizeHeader(h string, i int) string {
	s := strings.TrimSpace(h)
	if s == "" {
		return "COL_" + strconv.Itoa(i)
	}
	s = whitespaceRegex.ReplaceAllString(s, "_")
	s = nonWordRegex.ReplaceAllString(s, "_")
	s = repeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToUpper(s)
}

// ToNumberSmart parses numeric text with ambiguous thousand/decimal
// separators ("1,907,753.50", "1.907.753,50", "1,5"). A single comma
// followed by exactly 3 digits is treated as a thousands separator;
// that rule cannot tell 1,907 (=1907) apart from a genuine 3-digit
// decimal, so aggregates over such cells are approximate.
// Returns 0 for anything that does not parse to a finite number.
func ToNumberSmart(x string) float64 {
	n, _ := ParseNumberSmart(x)
	return n
}

// ParseNumberSmart is ToNumberSmart with an ok flag, for callers that
// must tell a genuine zero apart from unparseable text.
func ParseNumberSmart(x string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(x), `"`, "")
	if s == "" {
		return 0, false
	}

	commaCount := strings.Count(s, ",")
	dotCount := strings.Count(s, ".")

	switch {
	case commaCount > 0 && dotCount > 0:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			// Commas are thousands separators.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// Dots are thousands, comma is the decimal mark.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case dotCount > 1:
		// Pure European grouping, e.g. 1.907.753.
		s = strings.ReplaceAll(s, ".", "")
	case commaCount > 1:
		s = strings.ReplaceAll(s, ",", "")
	case commaCount == 1:
		parts := strings.SplitN(s, ",", 2)
		if len(parts[1]) == 3 {
			// "1,907" -> thousands by export convention.
			s = parts[0] + parts[1]
		} else {
			s = parts[0] + "." + parts[1]
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
