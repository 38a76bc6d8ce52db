package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrHeaderNotFound is returned when no line of the input contains the
// marker column, meaning the bytes are not a recognizable export.
var ErrHeaderNotFound = errors.New("header row with marker column not found")

// Record is one tabular row keyed by canonical column name. Every record
// of a dataset carries the exact same key set; column order lives in
// Dataset.Header.
type Record map[string]string

// Dataset is an immutable ingested export: the ordered canonical header,
// the column roles detected once at ingestion, and the rows. Reloads
// replace the whole value, never mutate it.
type Dataset struct {
	Header  []string
	Columns Columns
	Records []Record
}

// IngestOptions control schema recovery. Marker names a column guaranteed
// to exist in the real header row; SecondaryTokens identify a decorative
// header row sitting directly above it in dirty exports.
type IngestOptions struct {
	Marker          string
	SecondaryTokens []string
	Encoding        string // "utf8" (default) or "win1252"
}

func (o IngestOptions) withDefaults() IngestOptions {
	if o.Marker == "" {
		o.Marker = "MATERIAL1"
	}
	if len(o.SecondaryTokens) == 0 {
		o.SecondaryTokens = []string{"SUMA_NETA", "Indicadores"}
	}
	return o
}

// IngestCSV recovers a uniformly-keyed dataset from raw CSV bytes.
// It locates the true header row by the marker column, merges a possible
// two-row header, drops decorative leading blank columns and canonicalizes
// every column name. The transform is pure; callers own caching.
func IngestCSV(raw []byte, opts IngestOptions) (*Dataset, error) {
	opts = opts.withDefaults()

	text, err := decodeBytes(raw, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, opts.Marker) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("%w (marker %q)", ErrHeaderNotFound, opts.Marker)
	}

	primary, err := parseCSVLine(lines[headerIdx])
	if err != nil {
		return nil, fmt.Errorf("parsing header row: %w", err)
	}

	var secondary []string
	if headerIdx > 0 && containsAnyToken(lines[headerIdx-1], opts.SecondaryTokens) {
		secondary, err = parseCSVLine(lines[headerIdx-1])
		if err != nil {
			return nil, fmt.Errorf("parsing secondary header row: %w", err)
		}
	}

	dataRows, err := parseCSVBlock(strings.Join(lines[headerIdx+1:], "\n"))
	if err != nil {
		return nil, fmt.Errorf("parsing data rows: %w", err)
	}

	ds := assembleDataset(primary, secondary, dataRows)
	log.Printf("ingest csv headerMode=%s leadingEmpty=%d rows=%d cols=%d",
		headerMode(secondary), countLeadingBlank(mergeHeaders(primary, secondary)), len(ds.Records), len(ds.Header))
	return ds, nil
}

// assembleDataset zips data rows to the merged, trimmed, canonical header.
// Shared by the CSV and XLSX paths.
func assembleDataset(primary, secondary []string, rows [][]string) *Dataset {
	merged := mergeHeaders(primary, secondary)
	leading := countLeadingBlank(merged)

	names := make([]string, 0, len(merged)-leading)
	for i, h := range merged[leading:] {
		names = append(names, NormalizeHeader(h, i))
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if leading > 0 {
			if len(row) > leading {
				row = row[leading:]
			} else {
				row = nil
			}
		}
		if isBlankRow(row) {
			continue
		}
		rec := make(Record, len(names))
		for i, name := range names {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}

	return &Dataset{
		Header:  names,
		Columns: DetectColumns(names),
		Records: records,
	}
}

// mergeHeaders substitutes secondary-header cells into blank primary cells.
func mergeHeaders(primary, secondary []string) []string {
	merged := make([]string, len(primary))
	copy(merged, primary)
	for i := range merged {
		if strings.TrimSpace(merged[i]) == "" && i < len(secondary) && strings.TrimSpace(secondary[i]) != "" {
			merged[i] = secondary[i]
		}
	}
	return merged
}

func countLeadingBlank(header []string) int {
	n := 0
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			break
		}
		n++
	}
	return n
}

func containsAnyToken(line string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(line, t) {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func headerMode(secondary []string) string {
	if len(secondary) > 0 {
		return "double"
	}
	return "single"
}

func decodeBytes(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf8", "utf-8":
		return string(raw), nil
	case "win1252", "windows-1252", "latin1":
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func parseCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	return fields, err
}

func parseCSVBlock(block string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(block))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, fields)
	}
}
