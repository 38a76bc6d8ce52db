package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movimientos.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestDataServiceLoadsAndCaches(t *testing.T) {
	path := writeTestCSV(t, "FECHA,ID_CENTRO,MATERIAL1\n2024-01-15,C001,MAT1\n")
	cfg := Config{DataFile: path, DatasetTTL: time.Hour, RemoteDatasetTTL: time.Minute}
	data := NewDataService(cfg, NewCache(), nil)

	ds, err := data.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}

	// A second call must serve the cached pointer, not re-read the file.
	os.Remove(path)
	again, err := data.Dataset(context.Background())
	if err != nil {
		t.Fatalf("cached Dataset: %v", err)
	}
	if again != ds {
		t.Fatalf("expected cached dataset instance")
	}
}

func TestDataServiceDerivedFollowDatasetVersion(t *testing.T) {
	path := writeTestCSV(t, "FECHA,ID_CENTRO,MATERIAL1\n2024-01-15,C001,MAT1\n")
	cfg := Config{DataFile: path, DatasetTTL: time.Hour, RemoteDatasetTTL: time.Minute}
	data := NewDataService(cfg, NewCache(), nil)

	ds, err := data.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	idx := data.Index(context.Background(), ds)
	if len(idx["2024-01-15"]) != 1 {
		t.Fatalf("unexpected index %v", idx)
	}
	profile := data.Profile(context.Background(), ds)
	if profile.DefaultYear != 2024 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	// Grow the file and reload: index and profile must be rebuilt.
	if err := os.WriteFile(path, []byte("FECHA,ID_CENTRO,MATERIAL1\n2024-01-15,C001,MAT1\n2024-01-15,C002,MAT2\n"), 0644); err != nil {
		t.Fatalf("rewriting csv: %v", err)
	}
	ds2, err := data.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if ds2 == ds {
		t.Fatalf("expected a fresh dataset after reload")
	}
	idx2 := data.Index(context.Background(), ds2)
	if len(idx2["2024-01-15"]) != 2 {
		t.Fatalf("expected rebuilt index, got %v", idx2)
	}
}

func TestDataServiceNoSource(t *testing.T) {
	data := NewDataService(Config{}, NewCache(), nil)
	if _, err := data.Dataset(context.Background()); err == nil {
		t.Fatalf("expected error when no source configured")
	}
}
