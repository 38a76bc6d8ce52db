package main

import (
	"errors"
	"testing"
)

func TestActivityByMonthCoversAllMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
		{"2024-01-11", "C002"},
		{"2024-03-01", "C001"},
		{"2023-01-01", "C009"},
	})

	r := ActivityByMonth(ds, 2024)
	if len(r.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(r.Months))
	}
	if r.Months[0].Movements != 2 || r.Months[0].DistinctCenters != 2 {
		t.Fatalf("unexpected january %+v", r.Months[0])
	}
	if r.Months[2].Movements != 1 {
		t.Fatalf("unexpected march %+v", r.Months[2])
	}
	if r.Months[1].Movements != 0 || r.Months[1].DistinctCenters != 0 {
		t.Fatalf("expected empty february, got %+v", r.Months[1])
	}
}

func TestCompareMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
		{"2024-02-10", "C001"},
		{"2024-02-11", "C002"},
	})

	r := CompareMonths(ds, 2024, 1, 2, "")
	if r.Metric != MetricMovements {
		t.Fatalf("expected default metric movements, got %s", r.Metric)
	}
	if r.AValue != 1 || r.BValue != 2 {
		t.Fatalf("unexpected values %+v", r)
	}
	if r.Winner != "Mes 2" {
		t.Fatalf("expected winner Mes 2, got %s", r.Winner)
	}
}

func TestCompareMonthsTie(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
		{"2024-02-10", "C002"},
	})
	r := CompareMonths(ds, 2024, 1, 2, "distinct_centers")
	if r.Metric != MetricDistinctCenters {
		t.Fatalf("expected metric alias to normalize, got %s", r.Metric)
	}
	if r.Winner != "Empate" {
		t.Fatalf("expected Empate, got %s", r.Winner)
	}
}

func TestQuarterPatterns(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "CLASE_MOVIMIENTO"}, [][]string{
		{"2024-01-10", "C001", "601"},
		{"2024-01-10", "C002", "601"},
		{"2024-02-15", "C001", "101"},
		{"2024-03-20", "C003", "601"},
		{"2024-04-01", "C009", "601"}, // outside Q1
	})

	r, err := QuarterPatterns(ds, 2024, 1)
	if err != nil {
		t.Fatalf("QuarterPatterns: %v", err)
	}
	if r.MonthsRange != [2]int{1, 3} {
		t.Fatalf("unexpected months range %v", r.MonthsRange)
	}
	if r.Totals.Movements != 4 || r.Totals.DistinctCenters != 3 {
		t.Fatalf("unexpected totals %+v", r.Totals)
	}
	if len(r.PeakDaysByMovements) == 0 || r.PeakDaysByMovements[0].Date != "2024-01-10" || r.PeakDaysByMovements[0].Movements != 2 {
		t.Fatalf("unexpected peak days %+v", r.PeakDaysByMovements)
	}
	if len(r.TopMovementClasses) == 0 || r.TopMovementClasses[0].Class != "601" || r.TopMovementClasses[0].Count != 3 {
		t.Fatalf("unexpected classes %+v", r.TopMovementClasses)
	}
}

func TestQuarterPatternsInvalidQuarter(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, nil)
	if _, err := QuarterPatterns(ds, 2024, 5); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
}

func TestMaxActiveCentersDay(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
		{"2024-01-10", "C002"},
		{"2024-01-10", "C003"},
		{"2024-01-11", "C001"},
		{"2024-01-11", "C001"},
	})

	r := MaxActiveCentersDay(ds, 2024)
	if r.Date != "2024-01-10" || r.DistinctCenters != 3 {
		t.Fatalf("unexpected peak day %+v", r)
	}
	if len(r.TopDates) != 2 || r.TopDates[1].DistinctCenters != 1 {
		t.Fatalf("unexpected top dates %+v", r.TopDates)
	}
}

func TestPrioritizeCenters(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C002"},
		{"2024-01-15", "C002"},
		{"2024-02-01", "C001"},
	})

	r := PrioritizeCenters(ds, PrioritizeOptions{})
	if r.From != "2024-01-10" || r.To != "2024-02-01" {
		t.Fatalf("unexpected bounds %+v", r)
	}
	if r.DistinctCentersTotal != 2 {
		t.Fatalf("expected 2 centers, got %d", r.DistinctCentersTotal)
	}
	if r.Results[0].Center != "C002" || r.Results[0].Movements != 2 {
		t.Fatalf("unexpected ranking %+v", r.Results)
	}
}

func TestPrioritizeCentersEmpty(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, nil)
	r := PrioritizeCenters(ds, PrioritizeOptions{Year: 2024})
	if r.From != "" || r.To != "" || len(r.Results) != 0 {
		t.Fatalf("expected empty result, got %+v", r)
	}
}

func TestDiffDistinctCentersMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
		{"2024-01-11", "C002"},
		{"2024-02-10", "C002"},
		{"2024-02-11", "C003"},
		{"2024-02-12", "C004"},
	})

	r := DiffDistinctCentersMonths(ds, 2024, 1, 2)
	if r.DistinctCentersA != 2 || r.DistinctCentersB != 3 {
		t.Fatalf("unexpected counts %+v", r)
	}
	if r.Diff != 1 {
		t.Fatalf("expected diff B-A = 1, got %d", r.Diff)
	}
	if r.OnlyMonthA != 1 || r.OnlyMonthB != 2 {
		t.Fatalf("unexpected exclusives %+v", r)
	}
}

func TestCompareSumaNetaMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "SUMA_NETA"}, [][]string{
		{"2024-01-10", "C001", "100"},
		{"2024-01-11", "C002", "50"},
		{"2024-02-10", "C001", "300"},
	})

	r, err := CompareSumaNetaMonths(ds, 2024, 1, 2)
	if err != nil {
		t.Fatalf("CompareSumaNetaMonths: %v", err)
	}
	if r.SumA != 150 || r.SumB != 300 {
		t.Fatalf("unexpected sums %+v", r)
	}
	if r.Winner != "Mes B" {
		t.Fatalf("expected Mes B, got %s", r.Winner)
	}
	if r.DiffAbs != 150 {
		t.Fatalf("expected diffAbs 150, got %v", r.DiffAbs)
	}
	if r.DiffPct != 50 {
		t.Fatalf("expected diffPct 50, got %v", r.DiffPct)
	}
}

func TestCompareSumaNetaMonthsMissingColumn(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-10", "C001"},
	})
	if _, err := CompareSumaNetaMonths(ds, 2024, 1, 2); !errors.Is(err, ErrMissingSumaNeta) {
		t.Fatalf("expected ErrMissingSumaNeta, got %v", err)
	}
}

func TestDistinctCentersByGroupMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "GRUPO_ARTICULOS"}, [][]string{
		{"2024-01-10", "C001", "GASOLINA"},
		{"2024-01-11", "C001", "GASOLINA"},
		{"2024-02-10", "C002", "DIESEL"},
		{"2024-03-10", "C001", "GASOLINA"},
		{"2024-03-11", "C002", "GASOLINA"},
	})

	r, err := DistinctCentersByGroupMonths(ds, 2024, 1, 3, "Gasolina")
	if err != nil {
		t.Fatalf("DistinctCentersByGroupMonths: %v", err)
	}
	if r.Group != "gasolina" {
		t.Fatalf("expected group echoed lowercase, got %q", r.Group)
	}
	if r.MonthADistinctCenters != 1 || r.MonthBDistinctCenters != 2 {
		t.Fatalf("unexpected counts %+v", r)
	}
	if r.TotalDistinctCenters != 2 {
		t.Fatalf("expected union of 2 centers, got %d", r.TotalDistinctCenters)
	}
}

func TestMaterialsWithoutMovementsMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "MATERIAL1"}, [][]string{
		{"2024-01-10", "C001", "MAT2"},
		{"2024-01-11", "C001", "MAT1"},
		{"2024-01-12", "C001", "MAT3"},
		{"2024-02-10", "C001", "MAT3"},
		{"2024-02-11", "C001", "MAT4"},
	})

	r, err := MaterialsWithoutMovementsMonths(ds, 2024, 1, 2)
	if err != nil {
		t.Fatalf("MaterialsWithoutMovementsMonths: %v", err)
	}
	if r.CountOnlyA != 2 || r.CountOnlyB != 1 {
		t.Fatalf("unexpected counts %+v", r)
	}
	if len(r.SampleOnlyA) != 2 || r.SampleOnlyA[0] != "MAT1" || r.SampleOnlyA[1] != "MAT2" {
		t.Fatalf("expected sorted sample [MAT1 MAT2], got %v", r.SampleOnlyA)
	}
	if len(r.SampleOnlyB) != 1 || r.SampleOnlyB[0] != "MAT4" {
		t.Fatalf("unexpected sample %v", r.SampleOnlyB)
	}
}

func TestCompareTotalVolumeMonths(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "CANTIDAD", "SUMA_NETA"}, [][]string{
		{"2024-01-10", "C001", "5", "1"},
		{"2024-02-10", "C001", "3", "100"},
	})

	r, err := CompareTotalVolumeMonths(ds, 2024, 1, 2, "")
	if err != nil {
		t.Fatalf("CompareTotalVolumeMonths: %v", err)
	}
	if r.MetricKey != "CANTIDAD" {
		t.Fatalf("expected quantity column preferred, got %s", r.MetricKey)
	}
	if r.A.VolumeTotal != 5 || r.B.VolumeTotal != 3 {
		t.Fatalf("unexpected totals %+v", r)
	}
	if r.Winner != "Mes 1" || r.DiffAbs != 2 {
		t.Fatalf("unexpected outcome %+v", r)
	}
}

func TestCompareTotalVolumeMetricOverride(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO", "CANTIDAD", "SUMA_NETA"}, [][]string{
		{"2024-01-10", "C001", "5", "1"},
		{"2024-02-10", "C001", "3", "100"},
	})

	// Override matches SUMA_NETA by bidirectional substring.
	r, err := CompareTotalVolumeMonths(ds, 2024, 1, 2, "suma_neta_total")
	if err != nil {
		t.Fatalf("CompareTotalVolumeMonths: %v", err)
	}
	if r.MetricKey != "SUMA_NETA" {
		t.Fatalf("expected override to pick SUMA_NETA, got %s", r.MetricKey)
	}
	if r.Winner != "Mes 2" {
		t.Fatalf("expected Mes 2, got %s", r.Winner)
	}
}
