package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidQuarter rejects quarter values outside 1..4.
var ErrInvalidQuarter = errors.New("quarter must be 1, 2, 3 or 4")

const (
	MetricMovements       = "movements"
	MetricDistinctCenters = "distinctCenters"
)

type MonthActivity struct {
	Month           int `json:"month"`
	Movements       int `json:"movements"`
	DistinctCenters int `json:"distinctCenters"`
}

type ActivityResult struct {
	Year   int             `json:"year"`
	Months []MonthActivity `json:"months"`
}

// ActivityByMonth tallies record count and distinct-center count for
// every month of the year. All 12 months are present, zero-valued when
// no row fell in them.
func ActivityByMonth(ds *Dataset, year int) ActivityResult {
	result := ActivityResult{Year: year, Months: make([]MonthActivity, 0, 12)}

	movements := make(map[int]int)
	centers := make(map[int]map[string]struct{})

	if ds != nil && ds.Columns.Date != "" && ds.Columns.Center != "" {
		forEachDated(ds, year, func(dateKey string, rec Record) {
			month := monthOf(dateKey)
			if month == 0 {
				return
			}
			movements[month]++
			if c := rec[ds.Columns.Center]; c != "" {
				if centers[month] == nil {
					centers[month] = make(map[string]struct{})
				}
				centers[month][c] = struct{}{}
			}
		})
	}

	for m := 1; m <= 12; m++ {
		result.Months = append(result.Months, MonthActivity{
			Month:           m,
			Movements:       movements[m],
			DistinctCenters: len(centers[m]),
		})
	}
	return result
}

type CompareMonthsResult struct {
	Year   int    `json:"year"`
	MonthA int    `json:"monthA"`
	MonthB int    `json:"monthB"`
	Metric string `json:"metric"`
	AValue int    `json:"aValue"`
	BValue int    `json:"bValue"`
	Winner string `json:"winner"`
}

// CompareMonths compares two months on a metric; the winner needs a
// strictly greater value, anything else is a tie ("Empate").
func CompareMonths(ds *Dataset, year, monthA, monthB int, metric string) CompareMonthsResult {
	switch metric {
	case "distinct_centers", MetricDistinctCenters:
		metric = MetricDistinctCenters
	default:
		metric = MetricMovements
	}

	activity := ActivityByMonth(ds, year)
	pick := func(month int) int {
		for _, m := range activity.Months {
			if m.Month == month {
				if metric == MetricDistinctCenters {
					return m.DistinctCenters
				}
				return m.Movements
			}
		}
		return 0
	}

	result := CompareMonthsResult{
		Year: year, MonthA: monthA, MonthB: monthB, Metric: metric,
		AValue: pick(monthA), BValue: pick(monthB), Winner: "Empate",
	}
	if result.AValue > result.BValue {
		result.Winner = fmt.Sprintf("Mes %d", monthA)
	} else if result.BValue > result.AValue {
		result.Winner = fmt.Sprintf("Mes %d", monthB)
	}
	return result
}

type DayMovements struct {
	Date      string `json:"date"`
	Movements int    `json:"movements"`
}

type DayCenters struct {
	Date            string `json:"date"`
	DistinctCenters int    `json:"distinctCenters"`
}

type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

type QuarterResult struct {
	Year                      int               `json:"year"`
	Quarter                   int               `json:"quarter"`
	MonthsRange               [2]int            `json:"monthsRange"`
	Totals                    QueryTotals       `json:"totals"`
	TopCentersByMovements     []CenterMovements `json:"topCentersByMovements"`
	PeakDaysByMovements       []DayMovements    `json:"peakDaysByMovements"`
	PeakDaysByDistinctCenters []DayCenters      `json:"peakDaysByDistinctCenters"`
	TopMovementClasses        []ClassCount      `json:"topMovementClasses,omitempty"`
}

// QuarterPatterns summarizes one quarter: totals, top-10 centers, top-5
// peak days by movements and by distinct centers, and the top-10
// movement classes when that column exists.
func QuarterPatterns(ds *Dataset, year, quarter int) (QuarterResult, error) {
	if quarter < 1 || quarter > 4 {
		return QuarterResult{}, ErrInvalidQuarter
	}

	startMonth := (quarter-1)*3 + 1
	endMonth := startMonth + 2
	result := QuarterResult{
		Year: year, Quarter: quarter,
		MonthsRange:               [2]int{startMonth, endMonth},
		TopCentersByMovements:     []CenterMovements{},
		PeakDaysByMovements:       []DayMovements{},
		PeakDaysByDistinctCenters: []DayCenters{},
	}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" {
		return result, nil
	}

	quarterCenters := make(map[string]struct{})
	dailyMovements := make(map[string]int)
	dailyCenters := make(map[string]map[string]struct{})
	centerMovements := make(map[string]int)
	classCounts := make(map[string]int)

	forEachDated(ds, year, func(dateKey string, rec Record) {
		month := monthOf(dateKey)
		if month < startMonth || month > endMonth {
			return
		}
		result.Totals.Movements++
		dailyMovements[dateKey]++

		if ds.Columns.Center != "" {
			if c := rec[ds.Columns.Center]; c != "" {
				quarterCenters[c] = struct{}{}
				centerMovements[c]++
				if dailyCenters[dateKey] == nil {
					dailyCenters[dateKey] = make(map[string]struct{})
				}
				dailyCenters[dateKey][c] = struct{}{}
			}
		}
		if ds.Columns.Class != "" {
			if cls := rec[ds.Columns.Class]; cls != "" {
				classCounts[cls]++
			}
		}
	})

	result.Totals.DistinctCenters = len(quarterCenters)

	for _, e := range rankCounts(centerMovements, 10) {
		result.TopCentersByMovements = append(result.TopCentersByMovements, CenterMovements{Center: e.Key, Movements: e.Count})
	}
	for _, e := range rankCounts(dailyMovements, 5) {
		result.PeakDaysByMovements = append(result.PeakDaysByMovements, DayMovements{Date: e.Key, Movements: e.Count})
	}
	dailyCenterCounts := make(map[string]int, len(dailyCenters))
	for day, set := range dailyCenters {
		dailyCenterCounts[day] = len(set)
	}
	for _, e := range rankCounts(dailyCenterCounts, 5) {
		result.PeakDaysByDistinctCenters = append(result.PeakDaysByDistinctCenters, DayCenters{Date: e.Key, DistinctCenters: e.Count})
	}
	if ds.Columns.Class != "" {
		for _, e := range rankCounts(classCounts, 10) {
			result.TopMovementClasses = append(result.TopMovementClasses, ClassCount{Class: e.Key, Count: e.Count})
		}
	}
	return result, nil
}

type MaxActiveDayResult struct {
	Year            int          `json:"year"`
	Date            string       `json:"date"`
	DistinctCenters int          `json:"distinctCenters"`
	TopDates        []DayCenters `json:"topDates"`
}

// MaxActiveCentersDay finds the day of the year with the most distinct
// active centers, plus a top-10 ranking.
func MaxActiveCentersDay(ds *Dataset, year int) MaxActiveDayResult {
	result := MaxActiveDayResult{Year: year, TopDates: []DayCenters{}}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result
	}

	dailyCenters := make(map[string]map[string]struct{})
	forEachDated(ds, year, func(dateKey string, rec Record) {
		if c := rec[ds.Columns.Center]; c != "" {
			if dailyCenters[dateKey] == nil {
				dailyCenters[dateKey] = make(map[string]struct{})
			}
			dailyCenters[dateKey][c] = struct{}{}
		}
	})

	dailyCounts := make(map[string]int, len(dailyCenters))
	for day, set := range dailyCenters {
		dailyCounts[day] = len(set)
	}
	for _, e := range rankCounts(dailyCounts, 10) {
		result.TopDates = append(result.TopDates, DayCenters{Date: e.Key, DistinctCenters: e.Count})
	}
	if len(result.TopDates) > 0 {
		result.Date = result.TopDates[0].Date
		result.DistinctCenters = result.TopDates[0].DistinctCenters
	}
	return result
}

// PrioritizeOptions narrow the prioritization window; Year 0 means the
// whole dataset.
type PrioritizeOptions struct {
	Year int
}

type PrioritizeResult struct {
	From                 string            `json:"from"`
	To                   string            `json:"to"`
	DistinctCentersTotal int               `json:"distinctCentersTotal"`
	Results              []CenterMovements `json:"results"`
}

// PrioritizeCenters ranks centers by movement count over the optional
// year window and reports the observed date bounds of the scanned rows.
func PrioritizeCenters(ds *Dataset, opts PrioritizeOptions) PrioritizeResult {
	result := PrioritizeResult{Results: []CenterMovements{}}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result
	}

	centerCounts := make(map[string]int)
	minDate, maxDate := "", ""

	forEachDated(ds, opts.Year, func(dateKey string, rec Record) {
		if minDate == "" || dateKey < minDate {
			minDate = dateKey
		}
		if dateKey > maxDate {
			maxDate = dateKey
		}
		if c := rec[ds.Columns.Center]; c != "" {
			centerCounts[c]++
		}
	})

	result.From, result.To = minDate, maxDate
	result.DistinctCentersTotal = len(centerCounts)
	for _, e := range rankCounts(centerCounts, 10) {
		result.Results = append(result.Results, CenterMovements{Center: e.Key, Movements: e.Count})
	}
	return result
}

type DiffCentersResult struct {
	Year             int `json:"year"`
	MonthA           int `json:"monthA"`
	MonthB           int `json:"monthB"`
	DistinctCentersA int `json:"distinctCentersA"`
	DistinctCentersB int `json:"distinctCentersB"`
	Diff             int `json:"diff"`
	OnlyMonthA       int `json:"onlyMonthA"`
	OnlyMonthB       int `json:"onlyMonthB"`
}

// DiffDistinctCentersMonths computes the exact set difference of active
// centers between two months of a year.
func DiffDistinctCentersMonths(ds *Dataset, year, monthA, monthB int) DiffCentersResult {
	result := DiffCentersResult{Year: year, MonthA: monthA, MonthB: monthB}
	if ds == nil || len(ds.Records) == 0 || ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result
	}

	centersA := make(map[string]struct{})
	centersB := make(map[string]struct{})
	forEachDated(ds, year, func(dateKey string, rec Record) {
		c := rec[ds.Columns.Center]
		if c == "" {
			return
		}
		switch monthOf(dateKey) {
		case monthA:
			centersA[c] = struct{}{}
		case monthB:
			centersB[c] = struct{}{}
		}
	})

	result.DistinctCentersA = len(centersA)
	result.DistinctCentersB = len(centersB)
	result.Diff = len(centersB) - len(centersA)
	for c := range centersA {
		if _, ok := centersB[c]; !ok {
			result.OnlyMonthA++
		}
	}
	for c := range centersB {
		if _, ok := centersA[c]; !ok {
			result.OnlyMonthB++
		}
	}
	return result
}

type CompareSumaNetaResult struct {
	Year    int     `json:"year"`
	MonthA  int     `json:"monthA"`
	MonthB  int     `json:"monthB"`
	SumA    float64 `json:"sumA"`
	SumB    float64 `json:"sumB"`
	Winner  string  `json:"winner"`
	DiffAbs float64 `json:"diffAbs"`
	DiffPct float64 `json:"diffPct"`
}

// CompareSumaNetaMonths sums the net-sum column per month. When that
// column cannot be detected it returns ErrMissingSumaNeta so the caller
// can say so instead of inventing a figure.
func CompareSumaNetaMonths(ds *Dataset, year, monthA, monthB int) (CompareSumaNetaResult, error) {
	result := CompareSumaNetaResult{Year: year, MonthA: monthA, MonthB: monthB, Winner: "Empate"}
	if ds == nil || len(ds.Records) == 0 {
		return result, nil
	}
	if ds.Columns.Date == "" {
		return result, ErrMissingDateColumn
	}
	if ds.Columns.SumaNeta == "" {
		return result, ErrMissingSumaNeta
	}

	forEachDated(ds, year, func(dateKey string, rec Record) {
		month := monthOf(dateKey)
		if month != monthA && month != monthB {
			return
		}
		value := ToNumberSmart(rec[ds.Columns.SumaNeta])
		if month == monthA {
			result.SumA += value
		} else {
			result.SumB += value
		}
	})

	if result.SumA > result.SumB {
		result.Winner = "Mes A"
	} else if result.SumB > result.SumA {
		result.Winner = "Mes B"
	}
	result.DiffAbs = math.Abs(result.SumB - result.SumA)
	if maxAbs := math.Max(math.Abs(result.SumA), math.Abs(result.SumB)); maxAbs > 0 {
		result.DiffPct = result.DiffAbs / maxAbs * 100
	}
	return result, nil
}

type GroupCentersResult struct {
	Year                  int    `json:"year"`
	MonthA                int    `json:"monthA"`
	MonthB                int    `json:"monthB"`
	Group                 string `json:"group"`
	MonthADistinctCenters int    `json:"monthADistinctCenters"`
	MonthBDistinctCenters int    `json:"monthBDistinctCenters"`
	TotalDistinctCenters  int    `json:"totalDistinctCenters"`
}

// DistinctCentersByGroupMonths counts distinct centers per month for one
// article group (forgiving substring match) plus the union over both
// months.
func DistinctCentersByGroupMonths(ds *Dataset, year, monthA, monthB int, group string) (GroupCentersResult, error) {
	target := strings.ToLower(strings.TrimSpace(group))
	result := GroupCentersResult{Year: year, MonthA: monthA, MonthB: monthB, Group: target}
	if ds == nil || len(ds.Records) == 0 {
		return result, nil
	}
	if ds.Columns.Date == "" || ds.Columns.Center == "" {
		return result, ErrMissingCenterColumn
	}
	if ds.Columns.Group == "" {
		return result, ErrMissingGroupColumn
	}

	centersA := make(map[string]struct{})
	centersB := make(map[string]struct{})
	total := make(map[string]struct{})

	forEachDated(ds, year, func(dateKey string, rec Record) {
		rowGroup := strings.ToLower(strings.TrimSpace(rec[ds.Columns.Group]))
		if rowGroup == "" || !groupMatches(rowGroup, target) {
			return
		}
		c := rec[ds.Columns.Center]
		if c == "" {
			return
		}
		switch monthOf(dateKey) {
		case monthA:
			centersA[c] = struct{}{}
			total[c] = struct{}{}
		case monthB:
			centersB[c] = struct{}{}
			total[c] = struct{}{}
		}
	})

	result.MonthADistinctCenters = len(centersA)
	result.MonthBDistinctCenters = len(centersB)
	result.TotalDistinctCenters = len(total)
	return result, nil
}

type MaterialsDiffResult struct {
	Year        int      `json:"year"`
	MonthA      int      `json:"monthA"`
	MonthB      int      `json:"monthB"`
	CountOnlyA  int      `json:"countOnlyA"`
	CountOnlyB  int      `json:"countOnlyB"`
	SampleOnlyA []string `json:"sampleOnlyA"`
	SampleOnlyB []string `json:"sampleOnlyB"`
}

const materialsSampleLimit = 20

// MaterialsWithoutMovementsMonths isolates materials that moved in one
// month but not the other, both directions.
func MaterialsWithoutMovementsMonths(ds *Dataset, year, monthA, monthB int) (MaterialsDiffResult, error) {
	result := MaterialsDiffResult{
		Year: year, MonthA: monthA, MonthB: monthB,
		SampleOnlyA: []string{}, SampleOnlyB: []string{},
	}
	if ds == nil || len(ds.Records) == 0 {
		return result, nil
	}
	if ds.Columns.Date == "" {
		return result, ErrMissingDateColumn
	}
	if ds.Columns.Material == "" {
		return result, ErrMissingMaterialColumn
	}

	materialsA := make(map[string]struct{})
	materialsB := make(map[string]struct{})
	forEachDated(ds, year, func(dateKey string, rec Record) {
		m := rec[ds.Columns.Material]
		if m == "" {
			return
		}
		switch monthOf(dateKey) {
		case monthA:
			materialsA[m] = struct{}{}
		case monthB:
			materialsB[m] = struct{}{}
		}
	})

	onlyA := setMinus(materialsA, materialsB)
	onlyB := setMinus(materialsB, materialsA)
	result.CountOnlyA = len(onlyA)
	result.CountOnlyB = len(onlyB)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	result.SampleOnlyA = capStrings(onlyA, materialsSampleLimit)
	result.SampleOnlyB = capStrings(onlyB, materialsSampleLimit)
	return result, nil
}

type MonthVolume struct {
	Month       int     `json:"month"`
	VolumeTotal float64 `json:"volumeTotal"`
}

type VolumeResult struct {
	Year      int         `json:"year"`
	MetricKey string      `json:"metricKey"`
	A         MonthVolume `json:"a"`
	B         MonthVolume `json:"b"`
	Winner    string      `json:"winner"`
	DiffAbs   float64     `json:"diffAbs"`
}

// CompareTotalVolumeMonths compares monthly totals of a volume column
// picked heuristically (quantity-like names first, then the net-sum
// column) or forced by metricOverride.
func CompareTotalVolumeMonths(ds *Dataset, year, monthA, monthB int, metricOverride string) (VolumeResult, error) {
	result := VolumeResult{
		Year:   year,
		A:      MonthVolume{Month: monthA},
		B:      MonthVolume{Month: monthB},
		Winner: "Empate",
	}
	if ds == nil || len(ds.Records) == 0 {
		return result, nil
	}
	if ds.Columns.Date == "" {
		return result, ErrMissingDateColumn
	}
	metricKey := ds.Columns.VolumeColumn(ds.Header, metricOverride)
	if metricKey == "" {
		return result, ErrMissingVolumeColumn
	}
	result.MetricKey = metricKey

	forEachDated(ds, year, func(dateKey string, rec Record) {
		month := monthOf(dateKey)
		if month != monthA && month != monthB {
			return
		}
		value := ToNumberSmart(rec[metricKey])
		if month == monthA {
			result.A.VolumeTotal += value
		} else {
			result.B.VolumeTotal += value
		}
	})

	if result.A.VolumeTotal > result.B.VolumeTotal {
		result.Winner = fmt.Sprintf("Mes %d", monthA)
	} else if result.B.VolumeTotal > result.A.VolumeTotal {
		result.Winner = fmt.Sprintf("Mes %d", monthB)
	}
	result.DiffAbs = math.Abs(result.B.VolumeTotal - result.A.VolumeTotal)
	return result, nil
}

// forEachDated visits every record with a parseable date, restricted to
// the given year when year != 0. Rows with unparseable dates are
// excluded, never counted under a wrong key.
func forEachDated(ds *Dataset, year int, fn func(dateKey string, rec Record)) {
	var prefix string
	if year != 0 {
		prefix = strconv.Itoa(year) + "-"
	}
	for _, rec := range ds.Records {
		dateKey, ok := NormalizeDate(rec[ds.Columns.Date])
		if !ok {
			continue
		}
		if prefix != "" && !strings.HasPrefix(dateKey, prefix) {
			continue
		}
		fn(dateKey, rec)
	}
}

func monthOf(dateKey string) int {
	if len(dateKey) < 7 {
		return 0
	}
	m, err := strconv.Atoi(dateKey[5:7])
	if err != nil {
		return 0
	}
	return m
}

func setMinus(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
