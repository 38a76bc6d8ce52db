package main

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IngestXLSX recovers a dataset from a spreadsheet export. Header
// recovery follows the CSV path: the true header row is located by the
// marker column, a decorative row above it is merged in, and the rest
// is row data. Cell values arrive already decoded, so no charset
// handling applies here.
func IngestXLSX(raw []byte, opts IngestOptions) (*Dataset, error) {
	opts = opts.withDefaults()

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	headerIdx := -1
	for i, row := range rows {
		if rowContainsCell(row, opts.Marker) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("%w (marker %q)", ErrHeaderNotFound, opts.Marker)
	}

	primary := rows[headerIdx]
	var secondary []string
	if headerIdx > 0 && containsAnyToken(strings.Join(rows[headerIdx-1], ","), opts.SecondaryTokens) {
		secondary = rows[headerIdx-1]
	}

	ds := assembleDataset(primary, secondary, rows[headerIdx+1:])
	log.Printf("ingest xlsx sheet=%s headerMode=%s rows=%d cols=%d",
		sheets[0], headerMode(secondary), len(ds.Records), len(ds.Header))
	return ds, nil
}

func rowContainsCell(row []string, marker string) bool {
	for _, cell := range row {
		if strings.Contains(cell, marker) {
			return true
		}
	}
	return false
}
