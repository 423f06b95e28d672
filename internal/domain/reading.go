package domain

import "time"

// Reading is one row of the cleaned monitoring dataset.
type Reading struct {
	Pollutant     string  `csv:"Name"`
	District      string  `csv:"Geo Place Name"`
	TimePeriod    string  `csv:"Time Period"`
	Concentration float64 `csv:"Data Value"`
}

// AQIRecord is the index derived from a single reading.
type AQIRecord struct {
	District   string
	TimePeriod string
	Pollutant  string
	AQI        int
}

// DistrictAverage is the mean worst-pollutant AQI of a district for one year of a scope.
type DistrictAverage struct {
	District   string  `csv:"district_id" json:"district_id"`
	Scope      Scope   `csv:"-" json:"scope"`
	Year       int     `csv:"year" json:"year"`
	AverageAQI float64 `csv:"average_aqi" json:"average_aqi"`
}

// YearRange is the inclusive span of years a model was trained on.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TrendModel is a pooled linear fit of average AQI on year for one scope.
type TrendModel struct {
	Scope     Scope     `json:"scope"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Years     YearRange `json:"domain_year_range"`
	Districts []string  `json:"districts"`
	FittedAt  time.Time `json:"fitted_at"`
}

// Prediction is a forecast AQI for one district and future year.
type Prediction struct {
	District     string  `json:"district_id"`
	Scope        Scope   `json:"scope"`
	Year         int     `json:"year"`
	PredictedAQI float64 `json:"predicted_aqi"`
}
