package main

import "testing"

func TestBuildIndex(t *testing.T) {
	ds := testDataset([]string{"FECHA", "ID_CENTRO"}, [][]string{
		{"2024-01-15", "C001"},
		{"15/1/2024", "C002"},
		{"2024-01-16", "C001"},
		{"fecha rota", "C003"},
		{"2024-01-16", ""},
	})

	idx := BuildIndex(ds)
	if len(idx) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(idx))
	}
	if len(idx["2024-01-15"]) != 2 {
		t.Fatalf("expected formats to merge under one key, got %v", idx["2024-01-15"])
	}
	if len(idx["2024-01-16"]) != 1 {
		t.Fatalf("expected blank centers skipped, got %v", idx["2024-01-16"])
	}
}

func TestBuildIndexMissingColumns(t *testing.T) {
	ds := testDataset([]string{"A", "B"}, [][]string{{"x", "y"}})
	idx := BuildIndex(ds)
	if len(idx) != 0 {
		t.Fatalf("expected empty index when columns undetected, got %v", idx)
	}
	if idx := BuildIndex(nil); len(idx) != 0 {
		t.Fatalf("expected empty index for nil dataset")
	}
}
