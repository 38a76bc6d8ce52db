package main

import (
	"sort"
	"strconv"
	"time"
)

// Plausibility bounds for profile years. Dates outside them are almost
// always typos in the source file and would skew the default year.
const (
	profileMinYear = 1900
	profileMaxYear = 2100
)

// DatasetProfile captures the observed temporal extent of the dataset.
// The default year lets the router fill the year slot of questions like
// "compara enero y febrero" without asking back.
type DatasetProfile struct {
	MinDate     string `json:"minDate"`
	MaxDate     string `json:"maxDate"`
	Years       []int  `json:"years"`
	DefaultYear int    `json:"defaultYear"`
}

// BuildProfile scans every parseable date once. Default year: the only
// year when there is exactly one, otherwise the year of the latest
// date, otherwise the current year.
func BuildProfile(ds *Dataset, now func() time.Time) DatasetProfile {
	profile := DatasetProfile{Years: []int{}}
	if now == nil {
		now = time.Now
	}

	years := make(map[int]struct{})
	if ds != nil && ds.Columns.Date != "" {
		for _, rec := range ds.Records {
			dateKey, ok := NormalizeDate(rec[ds.Columns.Date])
			if !ok {
				continue
			}
			year, err := strconv.Atoi(dateKey[:4])
			if err != nil || year < profileMinYear || year > profileMaxYear {
				continue
			}
			years[year] = struct{}{}
			if profile.MinDate == "" || dateKey < profile.MinDate {
				profile.MinDate = dateKey
			}
			if dateKey > profile.MaxDate {
				profile.MaxDate = dateKey
			}
		}
	}

	for y := range years {
		profile.Years = append(profile.Years, y)
	}
	sort.Ints(profile.Years)

	switch {
	case len(profile.Years) == 1:
		profile.DefaultYear = profile.Years[0]
	case profile.MaxDate != "":
		profile.DefaultYear, _ = strconv.Atoi(profile.MaxDate[:4])
	default:
		profile.DefaultYear = now().Year()
	}
	return profile
}
