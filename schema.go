package main

import "strings"

// Columns holds the detected role of each canonical column. Detection
// runs once at ingestion and the result travels with the Dataset, so a
// missing column is diagnosable up front instead of per query. An empty
// field means the role could not be detected.
type Columns struct {
	Date     string
	Center   string
	Class    string
	Group    string
	Material string
	SumaNeta string
}

// DetectColumns resolves column roles against the canonical header:
// exact name first, then substring fallbacks, in header order.
func DetectColumns(header []string) Columns {
	return Columns{
		Date:     findColumn(header, "FECHA", "FECHA", "DATE"),
		Center:   findColumn(header, "ID_CENTRO", "CENTRO", "PLANT"),
		Class:    findColumn(header, "CLASE_MOVIMIENTO", "CLASE", "MOV_TYPE", "BWART"),
		Group:    findColumn(header, "GRUPO_ARTICULOS", "GRUPO", "GROUP"),
		Material: findColumn(header, "MATERIAL1", "MATERIAL", "MATNR"),
		SumaNeta: findColumn(header, "SUMA_NETA", "SUMA_NETA"),
	}
}

// VolumeColumn picks the column used for generic volume comparisons.
// With an override, the first column matching it by bidirectional
// substring wins; otherwise quantity-like names are preferred and the
// net-sum column is the fallback. Empty when nothing fits.
func (c Columns) VolumeColumn(header []string, override string) string {
	if o := strings.ToUpper(strings.TrimSpace(override)); o != "" {
		for _, h := range header {
			if strings.Contains(h, o) || strings.Contains(o, h) {
				return h
			}
		}
	}
	for _, needle := range []string{"CANTIDAD", "QTY", "VOLUMEN"} {
		for _, h := range header {
			if strings.Contains(h, needle) {
				return h
			}
		}
	}
	return c.SumaNeta
}

func findColumn(header []string, exact string, substrings ...string) string {
	for _, h := range header {
		if h == exact {
			return h
		}
	}
	for _, needle := range substrings {
		for _, h := range header {
			if strings.Contains(h, needle) {
				return h
			}
		}
	}
	return ""
}
