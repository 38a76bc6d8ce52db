package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	isoDateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDateRegex     = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	compactDateRegex = regexp.MustCompile(`^\d{8}$`)

	anyDateRegex   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})\b`)
	spokenRangeReg = regexp.MustCompile(`(?:entre|del|desde)\s+(?:el\s+)?(\d{1,2})\s+(?:y|al|hasta)\s+(?:el\s+)?(\d{1,2})\s+de\s+([a-z]+)(?:\s+(?:de|del)?\s*(\d{4}))?`)
)

var spanishMonths = map[string]string{
	"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
	"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
	"septiembre": "09", "setiembre": "09", "octubre": "10",
	"noviembre": "11", "diciembre": "12",
}

// NormalizeDate converts the date formats seen in warehouse exports
// (YYYY-MM-DD, D/M/YYYY, D-M-YYYY, YYYYMMDD) to the canonical
// YYYY-MM-DD key. The second return value is false when the input
// matches none of them, so callers can filter rows without handling
// per-row errors.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if isoDateRegex.MatchString(s) {
		return s, true
	}

	if m := dmyDateRegex.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1]), true
	}

	if compactDateRegex.MatchString(s) {
		return s[0:4] + "-" + s[4:6] + "-" + s[6:8], true
	}

	return "", false
}

// DateRange is an inclusive from/to pair of canonical date keys.
type DateRange struct {
	From string
	To   string
}

// ExtractDateRange scans free text (Spanish) for an explicit or spoken
// date range: "entre 2024-01-01 y 2024-01-07", "del 01/01/2024 al
// 07/01/2024", "entre el 1 y el 7 de enero del 2024". Returns nil when
// no valid range is found. The result is always ordered from <= to.
func ExtractDateRange(text string, defaultYear int) *DateRange {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	normalized := stripDiacritics(strings.ToLower(text))

	if r := parseExplicitRange(normalized); r != nil {
		return r
	}
	return parseSpokenRange(normalized, defaultYear)
}

func parseExplicitRange(text string) *DateRange {
	matches := anyDateRegex.FindAllString(text, -1)
	if len(matches) < 2 {
		return nil
	}
	d1, ok1 := standardizeDateToken(matches[0])
	d2, ok2 := standardizeDateToken(matches[1])
	if !ok1 || !ok2 {
		return nil
	}
	return sortedRange(d1, d2)
}

func parseSpokenRange(text string, defaultYear int) *DateRange {
	if !strings.Contains(text, "entre") && !strings.Contains(text, "del") && !strings.Contains(text, "desde") {
		return nil
	}
	m := spokenRangeReg.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	month, ok := spanishMonths[m[3]]
	if !ok {
		return nil
	}
	year := m[4]
	if year == "" {
		year = fmt.Sprintf("%d", defaultYear)
	}

	d1 := year + "-" + month + "-" + pad2(m[1])
	d2 := year + "-" + month + "-" + pad2(m[2])
	return sortedRange(d1, d2)
}

func standardizeDateToken(s string) (string, bool) {
	if isoDateRegex.MatchString(s) {
		return s, true
	}
	parts := strings.Split(s, "/")
	if len(parts) == 3 {
		return parts[2] + "-" + pad2(parts[1]) + "-" + pad2(parts[0]), true
	}
	return "", false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func sortedRange(d1, d2 string) *DateRange {
	if d1 > d2 {
		d1, d2 = d2, d1
	}
	return &DateRange{From: d1, To: d2}
}

var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsStripper, s)
	if err != nil {
		return s
	}
	return out
}
