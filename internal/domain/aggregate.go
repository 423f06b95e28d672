package domain

import (
	"cmp"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
)

// yearRe finds the first four-digit year in a time period label, so
// "Winter 2015-2016" and "Winter 2008-09" both belong to the year the season starts in.
var yearRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// ParseYear extracts the year from a raw time period label.
func ParseYear(timePeriod string) (int, bool) {
	m := yearRe.FindString(timePeriod)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

// AggregateStats counts what happened to the input records.
type AggregateStats struct {
	Matched int // records in scope
	Skipped int // in-scope records dropped for an unparsable time period
}

type periodKey struct {
	district string
	period   string
}

type yearKey struct {
	district string
	year     int
}

// Aggregate reduces AQI records to one average per (district, year) for a scope.
//
// Records of the same district and time period are first collapsed to their
// maximum across pollutants (the worst pollutant governs), then those per-period
// maxima are averaged across every period that maps to the same year. Records
// whose period label carries no year are skipped with a warning. The result is
// sorted by district, then year.
func Aggregate(records []AQIRecord, scope Scope, logger *slog.Logger) ([]DistrictAverage, AggregateStats) {
	var stats AggregateStats
	if len(records) == 0 {
		return []DistrictAverage{}, stats
	}

	worst := make(map[periodKey]int)
	years := make(map[periodKey]int)
	for _, r := range records {
		if !scope.Matches(r.TimePeriod) {
			continue
		}
		stats.Matched++

		k := periodKey{district: r.District, period: r.TimePeriod}
		if _, seen := years[k]; !seen {
			year, ok := ParseYear(r.TimePeriod)
			if !ok {
				stats.Skipped++
				logger.Warn("skipping record with unparsable time period",
					"scope", scope,
					"error", &ParseError{TimePeriod: r.TimePeriod, District: r.District},
				)
				continue
			}
			years[k] = year
		}
		if cur, ok := worst[k]; !ok || r.AQI > cur {
			worst[k] = r.AQI
		}
	}

	type acc struct {
		sum   int
		count int
	}
	groups := make(map[yearKey]*acc)
	for k, aqi := range worst {
		yk := yearKey{district: k.district, year: years[k]}
		a, ok := groups[yk]
		if !ok {
			a = &acc{}
			groups[yk] = a
		}
		a.sum += aqi
		a.count++
	}

	out := make([]DistrictAverage, 0, len(groups))
	for k, a := range groups {
		out = append(out, DistrictAverage{
			District:   k.district,
			Scope:      scope,
			Year:       k.year,
			AverageAQI: float64(a.sum) / float64(a.count),
		})
	}
	slices.SortFunc(out, compareAverages)
	return out, stats
}

func compareAverages(a, b DistrictAverage) int {
	if c := cmp.Compare(a.District, b.District); c != 0 {
		return c
	}
	return cmp.Compare(a.Year, b.Year)
}
