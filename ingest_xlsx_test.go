package main

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestIngestXLSX(t *testing.T) {
	raw := buildWorkbook(t, [][]any{
		{"Informe de movimientos"},
		{"FECHA", "ID_CENTRO", "MATERIAL1", "SUMA_NETA"},
		{"2024-01-15", "C001", "MAT1", "10"},
		{"2024-01-16", "C002", "MAT2", "1,5"},
	})

	ds, err := IngestXLSX(raw, IngestOptions{})
	if err != nil {
		t.Fatalf("IngestXLSX: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ds.Records))
	}
	if ds.Columns.Date != "FECHA" || ds.Columns.Center != "ID_CENTRO" {
		t.Fatalf("unexpected columns %+v", ds.Columns)
	}
	if ds.Records[1]["ID_CENTRO"] != "C002" {
		t.Fatalf("expected C002, got %q", ds.Records[1]["ID_CENTRO"])
	}
}

func TestIngestXLSXMarkerMissing(t *testing.T) {
	raw := buildWorkbook(t, [][]any{
		{"A", "B"},
		{"1", "2"},
	})
	if _, err := IngestXLSX(raw, IngestOptions{}); err == nil {
		t.Fatalf("expected error for missing marker")
	}
}
