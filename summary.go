package main

import (
	"math"
	"sort"
)

const (
	summaryBreakdownTop  = 20
	summarySampleRows    = 20
	numericProbeLimit    = 200
	numericProbeMinRatio = 0.8
)

type NumericStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Avg    float64 `json:"avg"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
}

type ColumnBreakdown struct {
	Column string       `json:"column"`
	Top    []ValueCount `json:"top"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// RichSummary is a compact statistical portrait of the dataset, meant
// to be embedded into prompts or status replies without shipping the
// raw rows anywhere.
type RichSummary struct {
	Rows         int               `json:"rows"`
	Columns      []string          `json:"columns"`
	Profile      DatasetProfile    `json:"profile"`
	NumericStats []NumericStats    `json:"numericStats"`
	Breakdowns   []ColumnBreakdown `json:"breakdowns"`
	SampleRows   []Record          `json:"sampleRows"`
}

// BuildRichSummary computes per-column numeric stats for columns whose
// values are mostly numeric, top-20 value breakdowns for the rest, and
// an evenly strided row sample. One pass per column, header order kept.
func BuildRichSummary(ds *Dataset, profile DatasetProfile) RichSummary {
	summary := RichSummary{
		Profile:      profile,
		NumericStats: []NumericStats{},
		Breakdowns:   []ColumnBreakdown{},
		SampleRows:   []Record{},
	}
	if ds == nil {
		return summary
	}
	summary.Rows = len(ds.Records)
	summary.Columns = append([]string{}, ds.Header...)

	for _, col := range ds.Header {
		if columnIsNumeric(ds.Records, col) {
			summary.NumericStats = append(summary.NumericStats, numericStatsFor(ds.Records, col))
		} else {
			summary.Breakdowns = append(summary.Breakdowns, breakdownFor(ds.Records, col))
		}
	}

	summary.SampleRows = stridedSample(ds.Records, summarySampleRows)
	return summary
}

// columnIsNumeric probes up to 200 non-empty values; the column counts
// as numeric when at least 80% of them parse.
func columnIsNumeric(records []Record, col string) bool {
	probed, parsed := 0, 0
	for _, rec := range records {
		v := rec[col]
		if v == "" {
			continue
		}
		probed++
		if _, ok := ParseNumberSmart(v); ok {
			parsed++
		}
		if probed >= numericProbeLimit {
			break
		}
	}
	if probed == 0 {
		return false
	}
	return float64(parsed)/float64(probed) >= numericProbeMinRatio
}

func numericStatsFor(records []Record, col string) NumericStats {
	stats := NumericStats{Column: col}
	var values []float64
	for _, rec := range records {
		v, ok := ParseNumberSmart(rec[col])
		if !ok {
			continue
		}
		values = append(values, v)
		stats.Sum += v
	}
	stats.Count = len(values)
	if stats.Count == 0 {
		return stats
	}

	sort.Float64s(values)
	stats.Min = values[0]
	stats.Max = values[len(values)-1]
	stats.Avg = stats.Sum / float64(stats.Count)
	stats.P50 = percentile(values, 0.5)
	stats.P90 = percentile(values, 0.9)
	return stats
}

// percentile is nearest-rank on a sorted slice.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(q * float64(len(sorted)-1)))
	return sorted[idx]
}

func breakdownFor(records []Record, col string) ColumnBreakdown {
	counts := make(map[string]int)
	for _, rec := range records {
		if v := rec[col]; v != "" {
			counts[v]++
		}
	}
	bd := ColumnBreakdown{Column: col, Top: []ValueCount{}}
	for _, e := range rankCounts(counts, summaryBreakdownTop) {
		bd.Top = append(bd.Top, ValueCount{Value: e.Key, Count: e.Count})
	}
	return bd
}

// stridedSample picks up to n rows spread evenly through the dataset,
// so the sample reflects the file's whole span rather than its head.
func stridedSample(records []Record, n int) []Record {
	if len(records) == 0 {
		return []Record{}
	}
	if len(records) <= n {
		return append([]Record{}, records...)
	}
	sample := make([]Record, 0, n)
	step := float64(len(records)) / float64(n)
	for i := 0; i < n; i++ {
		sample = append(sample, records[int(float64(i)*step)])
	}
	return sample
}
