package main

import "log"

// Index maps canonical date keys to the set of distinct centers active
// on that date. It is derived from one dataset version and must be
// rebuilt, never trusted, after the dataset is replaced.
type Index map[string]map[string]struct{}

// BuildIndex makes one linear pass over the dataset. Rows with an
// unparseable date or a blank center are skipped. When the date or
// center column is undetected the result is an empty index — a soft
// failure downstream engines answer with zeros, not a crash.
func BuildIndex(ds *Dataset) Index {
	idx := make(Index)
	if ds == nil || len(ds.Records) == 0 {
		return idx
	}

	dateCol, centerCol := ds.Columns.Date, ds.Columns.Center
	if dateCol == "" || centerCol == "" {
		log.Printf("index build skipped: date/center column not detected (date=%q center=%q)", dateCol, centerCol)
		return idx
	}

	for _, rec := range ds.Records {
		dateKey, ok := NormalizeDate(rec[dateCol])
		if !ok {
			continue
		}
		center := rec[centerCol]
		if center == "" {
			continue
		}
		set, ok := idx[dateKey]
		if !ok {
			set = make(map[string]struct{})
			idx[dateKey] = set
		}
		set[center] = struct{}{}
	}

	log.Printf("index built dates=%d on date=%q center=%q", len(idx), dateCol, centerCol)
	return idx
}
