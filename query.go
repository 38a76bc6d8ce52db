package main

import (
	"errors"
	"sort"
	"strings"
)

// Column-detection soft failures surface as typed errors so callers can
// phrase an honest, specific answer instead of fabricating a number.
var (
	ErrMissingDateColumn     = errors.New("date column not detected")
	ErrMissingCenterColumn   = errors.New("center column not detected")
	ErrMissingSumaNeta       = errors.New("SUMA_NETA column not detected")
	ErrMissingGroupColumn    = errors.New("article group column not detected")
	ErrMissingMaterialColumn = errors.New("material column not detected")
	ErrMissingVolumeColumn   = errors.New("volume column not detected")
)

const sampleLimit = 10

// DistinctCentersResult echoes the queried date plus the exact distinct
// center count; every engine result embeds its resolved parameters so
// answers stay verifiable against the question.
type DistinctCentersResult struct {
	Date            string   `json:"date"`
	DistinctCenters int      `json:"distinctCenters"`
	SampleCenters   []string `json:"sampleCenters"`
}

type Evidence struct {
	SampleRows    []Record `json:"sampleRows,omitempty"`
	SampleCenters []string `json:"sampleCenters,omitempty"`
}

type MovementsResult struct {
	Date      string    `json:"date"`
	Movements int       `json:"movements"`
	Evidence  *Evidence `json:"evidence,omitempty"`
}

type CenterMovements struct {
	Center    string `json:"center"`
	Movements int    `json:"movements"`
}

type QueryTotals struct {
	Movements       int `json:"movements"`
	DistinctCenters int `json:"distinctCenters"`
}

type TopCentersResult struct {
	Date     string            `json:"date"`
	TopN     int               `json:"topN"`
	Results  []CenterMovements `json:"results"`
	Totals   QueryTotals       `json:"totals"`
	Evidence *Evidence         `json:"evidence,omitempty"`
}

type RangeDistinctResult struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	DistinctCenters int      `json:"distinctCenters"`
	SampleCenters   []string `json:"sampleCenters"`
}

type CenterSumaNeta struct {
	Center   string  `json:"center"`
	SumaNeta float64 `json:"sumaNeta"`
}

type SumaNetaResult struct {
	Date            string           `json:"date"`
	Group           string           `json:"group"`
	TotalSumaNeta   float64          `json:"totalSumaNeta"`
	DistinctCenters int              `json:"distinctCenters"`
	RowsMatched     int              `json:"rowsMatched"`
	TopCenters      []CenterSumaNeta `json:"topCenters,omitempty"`
}

// SumaNetaOptions control the optional per-center breakdown of
// SumSumaNetaByGroupAndDate.
type SumaNetaOptions struct {
	BreakdownByCenter bool
	Top               int
}

// CountDistinctCentersByDate is an index lookup: zero centers when the
// date key is absent.
func CountDistinctCentersByDate(idx Index, dateKey string) DistinctCentersResult {
	result := DistinctCentersResult{Date: dateKey, SampleCenters: []string{}}
	set, ok := idx[dateKey]
	if !ok {
		return result
	}
	result.DistinctCenters = len(set)
	result.SampleCenters = sortedSample(set, sampleLimit)
	return result
}

// CountMovementsByDate counts records whose normalized date equals the
// key. The evidence sample is gated by a flag because serializing rows
// into answers is a cost/verbosity trade-off.
func CountMovementsByDate(ds *Dataset, dateKey string, withEvidence bool) MovementsResult {
	result := MovementsResult{Date: dateKey}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" {
		return result
	}

	matching := filterByDate(ds, dateKey)
	result.Movements = len(matching)

	if withEvidence {
		ev := &Evidence{SampleRows: headRecords(matching, 5)}
		if ds.Columns.Center != "" && len(matching) > 0 {
			centers := make(map[string]struct{})
			for _, rec := range matching {
				if c := rec[ds.Columns.Center]; c != "" {
					centers[c] = struct{}{}
				}
			}
			ev.SampleCenters = sortedSample(centers, sampleLimit)
		}
		result.Evidence = ev
	}
	return result
}

// TopCentersByMovementsOnDate ranks centers by movement count on one
// date, descending, ties broken by center id so results are stable
// across runs. Totals cover the whole date, not just the topN prefix.
func TopCentersByMovementsOnDate(ds *Dataset, dateKey string, topN int, withEvidence bool) TopCentersResult {
	if topN <= 0 {
		topN = 5
	}
	result := TopCentersResult{Date: dateKey, TopN: topN, Results: []CenterMovements{}}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result
	}

	matching := filterByDate(ds, dateKey)
	if len(matching) == 0 {
		return result
	}

	counts := make(map[string]int)
	for _, rec := range matching {
		if c := rec[ds.Columns.Center]; c != "" {
			counts[c]++
		}
	}

	for _, e := range rankCounts(counts, topN) {
		result.Results = append(result.Results, CenterMovements{Center: e.Key, Movements: e.Count})
	}
	result.Totals = QueryTotals{Movements: len(matching), DistinctCenters: len(counts)}

	if withEvidence {
		sample := make([]string, 0, len(result.Results))
		for _, r := range result.Results {
			sample = append(sample, r.Center)
		}
		if len(sample) > sampleLimit {
			sample = sample[:sampleLimit]
		}
		result.Evidence = &Evidence{
			SampleCenters: sample,
			SampleRows:    headRecords(matching, 5),
		}
	}
	return result
}

// CountDistinctCentersByDateRange accumulates the distinct-center set
// over an inclusive range. Canonical ISO keys sort lexicographically,
// so plain string comparison is exact.
func CountDistinctCentersByDateRange(ds *Dataset, from, to string) RangeDistinctResult {
	result := RangeDistinctResult{From: from, To: to, SampleCenters: []string{}}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result
	}

	centers := make(map[string]struct{})
	for _, rec := range ds.Records {
		dateKey, ok := NormalizeDate(rec[ds.Columns.Date])
		if !ok || dateKey < from || dateKey > to {
			continue
		}
		if c := rec[ds.Columns.Center]; c != "" {
			centers[c] = struct{}{}
		}
	}
	result.DistinctCenters = len(centers)
	result.SampleCenters = sortedSample(centers, sampleLimit)
	return result
}

// SumSumaNetaByGroupAndDate aggregates the net-sum column over rows of
// one date whose group matches the target. The match is deliberately
// forgiving: case-insensitive substring in either direction, so
// "gasolina" hits "GASOLINA 95" and vice versa — approximate, not
// exact, when group names nest.
func SumSumaNetaByGroupAndDate(ds *Dataset, dateKey, group string, opts SumaNetaOptions) (SumaNetaResult, error) {
	result := SumaNetaResult{Date: dateKey, Group: group}
	if ds == nil || len(ds.Records) == 0 {
		return result, nil
	}
	if ds.Columns.Date == "" {
		return result, ErrMissingDateColumn
	}
	if ds.Columns.Group == "" {
		return result, ErrMissingGroupColumn
	}
	if ds.Columns.SumaNeta == "" {
		return result, ErrMissingSumaNeta
	}

	target := strings.ToLower(strings.TrimSpace(group))
	centers := make(map[string]struct{})
	perCenter := make(map[string]float64)

	for _, rec := range ds.Records {
		normalized, ok := NormalizeDate(rec[ds.Columns.Date])
		if !ok || normalized != dateKey {
			continue
		}
		rowGroup := strings.ToLower(strings.TrimSpace(rec[ds.Columns.Group]))
		if rowGroup == "" || !groupMatches(rowGroup, target) {
			continue
		}

		value := ToNumberSmart(rec[ds.Columns.SumaNeta])
		result.TotalSumaNeta += value
		result.RowsMatched++
		if ds.Columns.Center != "" {
			if c := rec[ds.Columns.Center]; c != "" {
				centers[c] = struct{}{}
				perCenter[c] += value
			}
		}
	}
	result.DistinctCenters = len(centers)

	if opts.BreakdownByCenter {
		top := opts.Top
		if top <= 0 {
			top = 5
		}
		for _, e := range rankSums(perCenter, top) {
			result.TopCenters = append(result.TopCenters, CenterSumaNeta{Center: e.Key, SumaNeta: e.Sum})
		}
	}
	return result, nil
}

func groupMatches(rowGroup, target string) bool {
	return strings.Contains(rowGroup, target) || strings.Contains(target, rowGroup)
}

func filterByDate(ds *Dataset, dateKey string) []Record {
	var matching []Record
	for _, rec := range ds.Records {
		if normalized, ok := NormalizeDate(rec[ds.Columns.Date]); ok && normalized == dateKey {
			matching = append(matching, rec)
		}
	}
	return matching
}

func headRecords(records []Record, n int) []Record {
	if len(records) > n {
		records = records[:n]
	}
	return records
}

func sortedSample(set map[string]struct{}, n int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

type countEntry struct {
	Key   string
	Count int
}

// rankCounts sorts count descending with key ascending as tie-break,
// truncated to n. The tie-break keeps every ranking deterministic.
func rankCounts(m map[string]int, n int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, countEntry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

type sumEntry struct {
	Key string
	Sum float64
}

func rankSums(m map[string]float64, n int) []sumEntry {
	entries := make([]sumEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, sumEntry{Key: k, Sum: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Sum != entries[j].Sum {
			return entries[i].Sum > entries[j].Sum
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
