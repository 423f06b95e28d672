package domain

import (
	"slices"
)

// Fit runs an ordinary least-squares regression of average AQI on year, pooling
// every district of the scope. At least two distinct years are required.
// Inputs are sorted before summation so identical input always yields
// bit-identical coefficients, whatever order it arrives in.
func Fit(scope Scope, averages []DistrictAverage) (TrendModel, error) {
	points := slices.Clone(averages)
	slices.SortFunc(points, compareAverages)

	distinctYears := make(map[int]struct{})
	var districts []string
	for _, p := range points {
		distinctYears[p.Year] = struct{}{}
		if len(districts) == 0 || districts[len(districts)-1] != p.District {
			districts = append(districts, p.District)
		}
	}
	if len(distinctYears) < 2 {
		return TrendModel{}, &InsufficientDataError{Scope: scope, DistinctYears: len(distinctYears)}
	}

	n := float64(len(points))
	var sumX, sumY float64
	minYear, maxYear := points[0].Year, points[0].Year
	for _, p := range points {
		sumX += float64(p.Year)
		sumY += p.AverageAQI
		minYear = min(minYear, p.Year)
		maxYear = max(maxYear, p.Year)
	}
	meanX, meanY := sumX/n, sumY/n

	// Centered sums keep precision with year-sized x values.
	var sxy, sxx float64
	for _, p := range points {
		dx := float64(p.Year) - meanX
		sxy += dx * (p.AverageAQI - meanY)
		sxx += dx * dx
	}
	slope := sxy / sxx

	return TrendModel{
		Scope:     scope,
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		Years:     YearRange{Min: minYear, Max: maxYear},
		Districts: districts,
		FittedAt:  clock.Now().UTC(),
	}, nil
}

// Predict evaluates the trend at year. The result is not clamped to the AQI
// scale; values outside 0-500 are advisory.
func (m TrendModel) Predict(year int) float64 {
	return m.Slope*float64(year) + m.Intercept
}

// Covers reports whether district was part of the training data.
func (m TrendModel) Covers(district string) bool {
	_, found := slices.BinarySearch(m.Districts, district)
	return found
}

// Forecast predicts every training district for each of the next years after the
// last training year, sorted by district then year.
func (m TrendModel) Forecast(years int) []Prediction {
	if years <= 0 {
		return nil
	}
	out := make([]Prediction, 0, len(m.Districts)*years)
	for _, d := range m.Districts {
		for y := m.Years.Max + 1; y <= m.Years.Max+years; y++ {
			out = append(out, Prediction{
				District:     d,
				Scope:        m.Scope,
				Year:         y,
				PredictedAQI: m.Predict(y),
			})
		}
	}
	return out
}
