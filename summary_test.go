package main

import "testing"

func TestBuildRichSummary(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "SUMA_NETA"}, [][]string{
		{"2024-01-01", "C001", "10"},
		{"2024-01-02", "C001", "20"},
		{"2024-01-03", "C002", "30"},
		{"2024-01-04", "C002", "40"},
	})
	profile := BuildProfile(ds, nil)

	s := BuildRichSummary(ds, profile)
	if s.Rows != 4 || len(s.Columns) != 3 {
		t.Fatalf("unexpected shape rows=%d cols=%d", s.Rows, len(s.Columns))
	}

	var sumaStats *NumericStats
	for i := range s.NumericStats {
		if s.NumericStats[i].Column == "SUMA_NETA" {
			sumaStats = &s.NumericStats[i]
		}
	}
	if sumaStats == nil {
		t.Fatalf("expected SUMA_NETA to be numeric, stats=%v", s.NumericStats)
	}
	if sumaStats.Min != 10 || sumaStats.Max != 40 || sumaStats.Sum != 100 || sumaStats.Avg != 25 {
		t.Fatalf("unexpected numeric stats %+v", sumaStats)
	}

	var centerBreakdown *ColumnBreakdown
	for i := range s.Breakdowns {
		if s.Breakdowns[i].Column == "ID_CENTRO" {
			centerBreakdown = &s.Breakdowns[i]
		}
	}
	if centerBreakdown == nil {
		t.Fatalf("expected ID_CENTRO breakdown, got %v", s.Breakdowns)
	}
	if len(centerBreakdown.Top) != 2 || centerBreakdown.Top[0].Count != 2 {
		t.Fatalf("unexpected breakdown %+v", centerBreakdown.Top)
	}

	if len(s.SampleRows) != 4 {
		t.Fatalf("expected whole dataset as sample when small, got %d", len(s.SampleRows))
	}
}

func TestBuildRichSummaryPercentiles(t *testing.T) {
	rows := make([][]string, 0, 10)
	values := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	for _, v := range values {
		rows = append(rows, []string{"2024-01-01", "C001", v})
	}
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "SUMA_NETA"}, rows)

	s := BuildRichSummary(ds, DatasetProfile{})
	var stats *NumericStats
	for i := range s.NumericStats {
		if s.NumericStats[i].Column == "SUMA_NETA" {
			stats = &s.NumericStats[i]
		}
	}
	if stats == nil {
		t.Fatalf("expected numeric stats for SUMA_NETA")
	}
	if stats.P50 != 5 {
		t.Fatalf("expected p50=5 (nearest rank), got %v", stats.P50)
	}
	if stats.P90 != 9 {
		t.Fatalf("expected p90=9 (nearest rank), got %v", stats.P90)
	}
}

func TestStridedSampleSpansDataset(t *testing.T) {
	rows := make([][]string, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{"2024-01-01", "C001", "1"})
	}
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "SUMA_NETA"}, rows)

	sample := stridedSample(ds.Records, 20)
	if len(sample) != 20 {
		t.Fatalf("expected 20 sampled rows, got %d", len(sample))
	}
}

func TestColumnIsNumericMixedContent(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "MIXTO"}, [][]string{
		{"2024-01-01", "C001", "texto"},
		{"2024-01-02", "C002", "otro"},
		{"2024-01-03", "C003", "5"},
	})
	if columnIsNumeric(ds.Records, "MIXTO") {
		t.Fatalf("expected mostly-text column to be categorical")
	}
	if columnIsNumeric(ds.Records, "INEXISTENTE") {
		t.Fatalf("expected absent column to be categorical")
	}
}
