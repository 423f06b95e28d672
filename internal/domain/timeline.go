package domain

import (
	"fmt"
	"slices"
)

// MapKey names the visualization of one scope and year: "2015" for annual maps,
// "Winter_2015" for seasonal ones.
func MapKey(scope Scope, year int) string {
	if scope.Seasonal() {
		return fmt.Sprintf("%s_%d", scope, year)
	}
	return fmt.Sprintf("%d", year)
}

// Timeline is the ordered set of map keys a dashboard slider walks through.
// It is built once per run and never mutated afterwards.
type Timeline struct {
	AnnualYears  []int    `json:"annual_years"`
	SeasonalKeys []string `json:"seasonal_keys"`
	ForecastKeys []string `json:"forecast_keys"`
}

// NewTimeline collects the years present in each scope's averages and predictions.
// Seasonal keys are chronological: the summer of a year precedes the winter that
// starts in December of the same year.
func NewTimeline(averages map[Scope][]DistrictAverage, predictions map[Scope][]Prediction) Timeline {
	var tl Timeline
	tl.AnnualYears = distinctYears(averages[ScopeAnnual])

	type seasonal struct {
		year  int
		order int
		key   string
	}
	var keys []seasonal
	for order, scope := range []Scope{ScopeSummer, ScopeWinter} {
		for _, y := range distinctYears(averages[scope]) {
			keys = append(keys, seasonal{year: y, order: order, key: MapKey(scope, y)})
		}
	}
	slices.SortFunc(keys, func(a, b seasonal) int {
		if a.year != b.year {
			return a.year - b.year
		}
		return a.order - b.order
	})
	for _, k := range keys {
		tl.SeasonalKeys = append(tl.SeasonalKeys, k.key)
	}

	for _, scope := range Scopes {
		seen := make(map[int]struct{})
		var ys []int
		for _, p := range predictions[scope] {
			if _, ok := seen[p.Year]; !ok {
				seen[p.Year] = struct{}{}
				ys = append(ys, p.Year)
			}
		}
		slices.Sort(ys)
		for _, y := range ys {
			tl.ForecastKeys = append(tl.ForecastKeys, ForecastKey(scope, y))
		}
	}
	return tl
}

// ForecastKey names the prediction map of one scope and future year, e.g. "Annual_2027".
func ForecastKey(scope Scope, year int) string {
	return fmt.Sprintf("%s_%d", scope, year)
}

func distinctYears(averages []DistrictAverage) []int {
	seen := make(map[int]struct{})
	var ys []int
	for _, a := range averages {
		if _, ok := seen[a.Year]; !ok {
			seen[a.Year] = struct{}{}
			ys = append(ys, a.Year)
		}
	}
	slices.Sort(ys)
	return ys
}
